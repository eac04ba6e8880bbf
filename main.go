package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"panaderia/backtest"
	"panaderia/config"
	"panaderia/database"
	"panaderia/forecast"
	"panaderia/importer"
	"panaderia/model"
	"panaderia/reconcile"
	"panaderia/seasonality"
)

const usage = `uso: panaderia <comando> [opciones]

comandos:
  forecast         genera el pronóstico de demanda por receta
  estacionalidad   índices de demanda por mes y día de la semana
  backtest         evalúa el pronóstico contra ventanas históricas
  conciliar        compara pronóstico vs solicitudes de venta
  aplicar          escribe el pronóstico como solicitud de venta
  persistir        guarda el pronóstico en el almacén durable
  importar-ventas  importa el CSV de ventas del punto de venta
`

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if _, err := config.LoadConfig(); err != nil {
		log.Warn().Err(err).Msg("no se pudo leer el archivo de configuración, usando defaults")
	}

	dbPath := os.Getenv("PANADERIA_DB")
	if dbPath == "" {
		dbPath = config.GetConfig().DatabasePath
	}
	conn, err := sqlx.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo abrir la base de datos")
	}
	defer conn.Close()

	if err := database.InitDatabase(conn); err != nil {
		log.Fatal().Err(err).Msg("falló la inicialización de la base de datos")
	}

	var out interface{}
	switch os.Args[1] {
	case "forecast":
		out, err = cmdForecast(conn, os.Args[2:])
	case "estacionalidad":
		out, err = cmdEstacionalidad(conn, os.Args[2:])
	case "backtest":
		out, err = cmdBacktest(conn, os.Args[2:])
	case "conciliar":
		out, err = cmdConciliar(conn, os.Args[2:])
	case "aplicar":
		out, err = cmdAplicar(conn, os.Args[2:])
	case "persistir":
		out, err = cmdPersistir(conn, os.Args[2:])
	case "importar-ventas":
		out, err = cmdImportarVentas(conn, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "comando desconocido: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("comando", os.Args[1]).Msg("el comando falló")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("no se pudo serializar el resultado")
	}
}

// forecastFlags son las opciones compartidas por los comandos que generan
// un pronóstico antes de operar sobre él.
type forecastFlags struct {
	alcance      *string
	periodo      *string
	fechaBase    *string
	sucursal     *int64
	safetyPct    *string
	minConfianza *int
	lookback     *int
	preparacion  *bool
}

func bindForecastFlags(fs *flag.FlagSet) forecastFlags {
	return forecastFlags{
		alcance:      fs.String("alcance", model.AlcanceMes, "alcance del pronóstico: mes, semana o fin_semana"),
		periodo:      fs.String("periodo", "", "periodo objetivo AAAA-MM (solo alcance mes)"),
		fechaBase:    fs.String("fecha-base", "", "fecha de referencia AAAA-MM-DD (default hoy)"),
		sucursal:     fs.Int64("sucursal", 0, "id de sucursal (0 = todas)"),
		safetyPct:    fs.String("safety-pct", "10", "porcentaje de colchón para la banda low/high"),
		minConfianza: fs.Int("min-confianza", 0, "descarta filas con confianza menor al umbral"),
		lookback:     fs.Int("lookback", 0, "periodos de historial (0 = default de config)"),
		preparacion:  fs.Bool("incluir-preparaciones", false, "incluye recetas de tipo preparación"),
	}
}

func (f forecastFlags) generate(conn *sqlx.DB) (*model.ForecastResult, error) {
	fechaBase := time.Now().UTC()
	if *f.fechaBase != "" {
		t, err := time.Parse("2006-01-02", *f.fechaBase)
		if err != nil {
			return nil, &model.InputError{Campo: "fecha-base", Motivo: "se espera AAAA-MM-DD: " + *f.fechaBase}
		}
		fechaBase = t
	}
	safety, err := decimal.NewFromString(*f.safetyPct)
	if err != nil {
		return nil, &model.InputError{Campo: "safety-pct", Motivo: "valor no numérico: " + *f.safetyPct}
	}

	result, err := forecast.Generate(conn, forecast.GenerateParams{
		Alcance:              *f.alcance,
		Periodo:              *f.periodo,
		FechaBase:            fechaBase,
		SucursalID:           *f.sucursal,
		IncluirPreparaciones: *f.preparacion,
		SafetyPct:            safety,
		Lookback:             *f.lookback,
	})
	if err != nil {
		return nil, err
	}
	if *f.minConfianza > 0 {
		var removed int
		result, removed = forecast.FilterByConfidence(result, *f.minConfianza)
		log.Debug().Int("descartadas", removed).Msg("filtro de confianza aplicado")
	}
	return result, nil
}

func cmdForecast(conn *sqlx.DB, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("forecast", flag.ExitOnError)
	ff := bindForecastFlags(fs)
	fs.Parse(args)
	return ff.generate(conn)
}

func cmdEstacionalidad(conn *sqlx.DB, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("estacionalidad", flag.ExitOnError)
	meses := fs.Int("meses", 0, "meses de historial (0 = default de config)")
	fechaBase := fs.String("fecha-base", "", "fecha de referencia AAAA-MM-DD (default hoy)")
	sucursal := fs.Int64("sucursal", 0, "id de sucursal (0 = todas)")
	receta := fs.Int64("receta", 0, "limita el análisis a una receta")
	top := fs.Int("top", 10, "tamaño del ranking de recetas")
	preparacion := fs.Bool("incluir-preparaciones", false, "incluye recetas de tipo preparación")
	fs.Parse(args)

	base := time.Now().UTC()
	if *fechaBase != "" {
		t, err := time.Parse("2006-01-02", *fechaBase)
		if err != nil {
			return nil, &model.InputError{Campo: "fecha-base", Motivo: "se espera AAAA-MM-DD: " + *fechaBase}
		}
		base = t
	}
	return seasonality.Analyze(conn, seasonality.AnalyzeParams{
		Meses:                *meses,
		FechaBase:            base,
		SucursalID:           *sucursal,
		RecetaID:             *receta,
		IncluirPreparaciones: *preparacion,
		Top:                  *top,
	})
}

func cmdBacktest(conn *sqlx.DB, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	ff := bindForecastFlags(fs)
	periods := fs.Int("periodos", 3, "ventanas históricas a evaluar")
	escenario := fs.String("escenario", model.EscenarioBase, "escenario a comparar: base, low o high")
	top := fs.Int("top", 10, "filas con mayor error por ventana")
	fs.Parse(args)

	base := time.Now().UTC()
	if *ff.fechaBase != "" {
		t, err := time.Parse("2006-01-02", *ff.fechaBase)
		if err != nil {
			return nil, &model.InputError{Campo: "fecha-base", Motivo: "se espera AAAA-MM-DD: " + *ff.fechaBase}
		}
		base = t
	}
	safety, err := decimal.NewFromString(*ff.safetyPct)
	if err != nil {
		return nil, &model.InputError{Campo: "safety-pct", Motivo: "valor no numérico: " + *ff.safetyPct}
	}
	return backtest.Run(conn, backtest.Params{
		Alcance:              *ff.alcance,
		FechaBase:            base,
		Periods:              *periods,
		Escenario:            *escenario,
		SucursalID:           *ff.sucursal,
		IncluirPreparaciones: *ff.preparacion,
		SafetyPct:            safety,
		MinConfianza:         *ff.minConfianza,
		Top:                  *top,
	})
}

// parseTolerancia distingue la ausencia del flag (nil, toma el default de
// config) de un cero explícito, que exige coincidencia exacta.
func parseTolerancia(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, &model.InputError{Campo: "tolerancia", Motivo: "valor no numérico: " + s}
	}
	return &v, nil
}

func cmdConciliar(conn *sqlx.DB, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("conciliar", flag.ExitOnError)
	ff := bindForecastFlags(fs)
	escenario := fs.String("escenario", model.EscenarioBase, "escenario a comparar: base, low o high")
	tolerancia := fs.String("tolerancia", "", "banda de tolerancia en % (default de config)")
	fs.Parse(args)

	result, err := ff.generate(conn)
	if err != nil {
		return nil, err
	}
	tol, err := parseTolerancia(*tolerancia)
	if err != nil {
		return nil, err
	}
	return reconcile.Compare(conn, result, *escenario, tol)
}

func cmdAplicar(conn *sqlx.DB, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("aplicar", flag.ExitOnError)
	ff := bindForecastFlags(fs)
	escenario := fs.String("escenario", model.EscenarioBase, "escenario a aplicar: base, low o high")
	tolerancia := fs.String("tolerancia", "", "banda de tolerancia en % (default de config)")
	modo := fs.String("modo", model.ModoDesviadas, "filas a aplicar: desviadas, sobre, bajo, todas o receta")
	receta := fs.Int64("receta", 0, "id de receta (solo modo receta)")
	maxVariacion := fs.String("max-variacion", "0", "tope de variación en % contra la solicitud existente (0 = sin tope)")
	dryRun := fs.Bool("dry-run", false, "simula sin escribir")
	fuente := fs.String("fuente", "", "etiqueta de origen para las solicitudes escritas")
	stopOnError := fs.Bool("stop-on-error", false, "aborta al primer rechazo por tope")
	fs.Parse(args)

	result, err := ff.generate(conn)
	if err != nil {
		return nil, err
	}
	tol, err := parseTolerancia(*tolerancia)
	if err != nil {
		return nil, err
	}
	rec, err := reconcile.Compare(conn, result, *escenario, tol)
	if err != nil {
		return nil, err
	}
	maxVar, err := decimal.NewFromString(*maxVariacion)
	if err != nil {
		return nil, &model.InputError{Campo: "max-variacion", Motivo: "valor no numérico: " + *maxVariacion}
	}
	return reconcile.Apply(conn, rec, reconcile.ApplyParams{
		Modo:            *modo,
		RecetaID:        *receta,
		MaxVariacionPct: maxVar,
		DryRun:          *dryRun,
		Fuente:          *fuente,
		StopOnError:     *stopOnError,
	})
}

func cmdPersistir(conn *sqlx.DB, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("persistir", flag.ExitOnError)
	ff := bindForecastFlags(fs)
	escenario := fs.String("escenario", model.EscenarioBase, "escenario a persistir: base, low o high")
	fuente := fs.String("fuente", "", "etiqueta de origen para los pronósticos escritos")
	replace := fs.Bool("reemplazar", false, "sobrescribe pronósticos existentes del periodo")
	fs.Parse(args)

	result, err := ff.generate(conn)
	if err != nil {
		return nil, err
	}
	return forecast.Persist(conn, result, *escenario, *fuente, *replace)
}

func cmdImportarVentas(conn *sqlx.DB, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("importar-ventas", flag.ExitOnError)
	archivo := fs.String("archivo", "", "ruta del CSV de ventas (requerido)")
	accumulate := fs.Bool("acumular", false, "suma al registro existente del día en vez de reemplazar")
	dryRun := fs.Bool("dry-run", false, "simula sin escribir")
	stopOnError := fs.Bool("stop-on-error", false, "aborta al primer error de línea")
	fuente := fs.String("fuente", "", "etiqueta de origen para las ventas escritas")
	fs.Parse(args)

	if *archivo == "" {
		return nil, &model.InputError{Campo: "archivo", Motivo: "se requiere la ruta del CSV"}
	}
	f, err := os.Open(*archivo)
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir %s: %w", *archivo, err)
	}
	defer f.Close()

	return importer.ImportVentasCSV(conn, f, importer.Params{
		Accumulate:  *accumulate,
		DryRun:      *dryRun,
		StopOnError: *stopOnError,
		Fuente:      *fuente,
	})
}
