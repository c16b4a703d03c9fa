package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"rfmcli/internal/config"
	"rfmcli/internal/infrastructure"
	"rfmcli/internal/operations"
	"rfmcli/internal/rfm"
	"rfmcli/pkg/contracts"
)

// cliFlags holds the command line overrides. Empty values leave the
// configuration untouched.
type cliFlags struct {
	configFile string
	input      string
	output     string
	customers  string
	sheet      string
	degenerate string
	metrics    string
	progress   bool
	version    bool
	set        map[string]bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes one pipeline run and returns the process exit code
func run(args []string, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	if flags.version {
		fmt.Fprintln(stderr, contracts.GetFullVersionString())
		return 0
	}

	cfg, paths, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(stderr, "rfm: %v\n", err)
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "rfm: failed to initialize logger: %v\n", err)
		return 1
	}
	defer infrastructure.CloseLogFile()
	logger = infrastructure.WithComponent(logger, "rfm")

	ctx := infrastructure.EnsureTraceID(context.Background())
	runID := infrastructure.GetTraceID(ctx)

	paths.LogPathResolution(logger)
	logger.InfoContext(ctx, "Starting RFM pipeline",
		slog.String("version", contracts.Version),
		slog.String("input", cfg.Pipeline.InputPath),
		slog.String("output", cfg.Pipeline.OutputPath),
		slog.String("customers", cfg.Pipeline.CustomersPath),
		slog.String("degenerate_policy", cfg.Pipeline.DegeneratePolicy))

	if err := execute(ctx, runID, cfg, paths, logger, stderr); err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Pipeline failed",
			slog.String("error_type", operations.ErrorTypeOf(err)))
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	fs := flag.NewFlagSet("rfm", flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &cliFlags{set: make(map[string]bool)}
	fs.StringVar(&f.configFile, "config", "", "YAML configuration file (defaults to config.yaml or configs/config.yaml)")
	fs.StringVar(&f.input, "in", "", "input workbook or CSV, relative to the working directory (defaults to data/input/online_retail_II.xlsx relative to executable)")
	fs.StringVar(&f.output, "out", "", "enriched CSV output, relative to the working directory (defaults to data/reports/processed_online_retail.csv relative to executable)")
	fs.StringVar(&f.customers, "customers", "", "optional per-customer RFM CSV output, relative to the working directory")
	fs.StringVar(&f.sheet, "sheet", "", "worksheet to read (defaults to the first sheet with the expected columns)")
	fs.StringVar(&f.degenerate, "degenerate", "", "quartile policy when a metric has too few distinct values: strict or rank")
	fs.StringVar(&f.metrics, "metrics", "", "write Prometheus metrics textfile to this path")
	fs.BoolVar(&f.progress, "progress", false, "show a row counter while loading")
	fs.BoolVar(&f.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// loadConfig builds the run configuration: file and environment first, then
// command line overrides, then path defaults relative to the executable.
// Paths given on the command line are relative to the working directory.
func loadConfig(flags *cliFlags) (*config.Config, *config.Paths, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, nil, err
	}

	for _, override := range []struct {
		value  string
		target *string
	}{
		{flags.input, &cfg.Pipeline.InputPath},
		{flags.output, &cfg.Pipeline.OutputPath},
		{flags.customers, &cfg.Pipeline.CustomersPath},
		{flags.metrics, &cfg.Telemetry.MetricsFile},
	} {
		if override.value == "" {
			continue
		}
		abs, err := filepath.Abs(override.value)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve %s: %w", override.value, err)
		}
		*override.target = abs
	}
	if flags.sheet != "" {
		cfg.Pipeline.SheetName = flags.sheet
	}
	if flags.degenerate != "" {
		cfg.Pipeline.DegeneratePolicy = flags.degenerate
	}
	if flags.metrics != "" {
		cfg.Telemetry.EnableMetrics = true
	}
	if flags.set["progress"] {
		cfg.Pipeline.ShowProgress = flags.progress
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	paths, err := config.GetPaths()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize paths: %w", err)
	}
	cfg.ResolvePaths(paths)

	if err := paths.EnsureDirectories(); err != nil {
		return nil, nil, fmt.Errorf("failed to create required directories: %w", err)
	}
	return cfg, paths, nil
}

func execute(ctx context.Context, runID string, cfg *config.Config, paths *config.Paths, logger *slog.Logger, stderr io.Writer) error {
	policy, err := rfm.ParsePolicy(cfg.Pipeline.DegeneratePolicy)
	if err != nil {
		return err
	}

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.EnableMetrics = cfg.Telemetry.EnableMetrics
	if cfg.Telemetry.EnableTracing {
		traceFile, err := os.OpenFile(cfg.Telemetry.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open trace file: %w", err)
		}
		defer traceFile.Close()
		otelCfg.EnableTracing = true
		otelCfg.TraceWriter = traceFile
	}

	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	registry, err := operations.NewPipelineRegistry(logger, &operations.StageOptions{
		InputPath:      cfg.Pipeline.InputPath,
		OutputPath:     cfg.Pipeline.OutputPath,
		CustomersPath:  cfg.Pipeline.CustomersPath,
		SheetName:      cfg.Pipeline.SheetName,
		Policy:         policy,
		BOMPrefix:      cfg.Pipeline.BOMPrefix,
		ShowProgress:   cfg.Pipeline.ShowProgress,
		ProgressWriter: stderr,
		Paths:          paths,
		Metrics:        metrics,
	})
	if err != nil {
		return err
	}

	manager := operations.NewManager(registry, operations.NewStepTracer(providers, metrics), logger)
	state := operations.NewRunState(runID)
	runErr := manager.Run(ctx, state)

	// Metrics are written for failed runs too, so step errors are visible.
	if cfg.Telemetry.EnableMetrics {
		if err := providers.WriteMetrics(cfg.Telemetry.MetricsFile); err != nil {
			logger.WarnContext(ctx, "Failed to write metrics", slog.String("error", err.Error()))
		} else {
			logger.InfoContext(ctx, "Metrics written", slog.String("path", cfg.Telemetry.MetricsFile))
		}
	}

	if runErr != nil {
		return runErr
	}

	attrs := []any{
		slog.String("output", state.Published.Path),
		slog.Int("rows", state.Published.Rows),
		slog.Int("customers", state.Result.Len()),
		slog.Int("dropped", state.CleanReport.TotalDropped()),
		slog.Duration("duration", state.Duration()),
	}
	if state.Customers != nil {
		attrs = append(attrs, slog.String("customers_output", state.Customers.Path))
	}
	logger.InfoContext(ctx, "Pipeline completed", attrs...)
	return nil
}
