package config

import (
	"encoding/json"
	"os"
	"sync"
)

type Config struct {
	DatabasePath        string `json:"databasePath"`
	LookbackMonths      int    `json:"lookbackMonths"`
	LookbackWeeks       int    `json:"lookbackWeeks"`
	SeasonalityMonths   int    `json:"seasonalityMonths"`
	MinConfianzaDefault int    `json:"minConfianzaDefault"`
	ToleranciaPct       string `json:"toleranciaPct"`
}

var (
	cfg Config
	mu  sync.RWMutex
)

const configFilePath = "./panaderia_config.json"

func defaults(c Config) Config {
	if c.DatabasePath == "" {
		c.DatabasePath = "./panaderia.db"
	}
	if c.LookbackMonths == 0 {
		c.LookbackMonths = 3
	}
	if c.LookbackWeeks == 0 {
		c.LookbackWeeks = 8
	}
	if c.SeasonalityMonths == 0 {
		c.SeasonalityMonths = 12
	}
	if c.ToleranciaPct == "" {
		c.ToleranciaPct = "10"
	}
	return c
}

func LoadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	file, err := os.ReadFile(configFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = defaults(Config{})
			return cfg, nil
		}
		return Config{}, err
	}

	var tempCfg Config
	if err := json.Unmarshal(file, &tempCfg); err != nil {
		return Config{}, err
	}
	cfg = defaults(tempCfg)
	return cfg, nil
}

func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	newCfg = defaults(newCfg)
	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(configFilePath, file, 0644); err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return defaults(cfg)
}
