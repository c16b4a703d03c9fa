package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"eq=json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PipelineConfig contains the batch job's inputs, outputs and scoring policy.
// Empty paths are filled from Paths by ResolvePaths.
type PipelineConfig struct {
	InputPath        string `yaml:"input_path" envconfig:"INPUT_PATH"`
	OutputPath       string `yaml:"output_path" envconfig:"OUTPUT_PATH"`
	CustomersPath    string `yaml:"customers_path" envconfig:"CUSTOMERS_PATH"`
	SheetName        string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
	DegeneratePolicy string `yaml:"degenerate_policy" envconfig:"DEGENERATE_POLICY" validate:"oneof=strict rank"`
	ShowProgress     bool   `yaml:"show_progress" envconfig:"SHOW_PROGRESS"`
	BOMPrefix        bool   `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	EnableTracing bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceFile     string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment (RFM_* variables), in that order of precedence. An empty
// configFile means "look in the usual places".
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// envconfig only touches fields whose variable is set, so file values survive
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file at filePath onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize applies the logging rules every executable follows
func (c *Config) normalize() {
	// Always JSON
	c.Logging.Format = DefaultLogFormat

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Output == "" {
		c.Logging.Output = DefaultLogOutput
	}
	if c.Pipeline.DegeneratePolicy == "" {
		c.Pipeline.DegeneratePolicy = DegenerateStrict
	}
}

// Validate checks the configuration with struct tags
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// ResolvePaths fills empty paths from the executable-relative defaults and makes
// relative paths absolute against the executable directory.
func (c *Config) ResolvePaths(paths *Paths) {
	if c.Pipeline.InputPath == "" {
		c.Pipeline.InputPath = paths.InputFile
	}
	if c.Pipeline.OutputPath == "" {
		c.Pipeline.OutputPath = paths.OutputFile
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = paths.LogFile
	}
	if c.Telemetry.EnableTracing && c.Telemetry.TraceFile == "" {
		c.Telemetry.TraceFile = paths.GetLogPath("traces.json")
	}
	if c.Telemetry.EnableMetrics && c.Telemetry.MetricsFile == "" {
		c.Telemetry.MetricsFile = paths.MetricsFile
	}

	c.Pipeline.InputPath = paths.Resolve(c.Pipeline.InputPath)
	c.Pipeline.OutputPath = paths.Resolve(c.Pipeline.OutputPath)
	c.Pipeline.CustomersPath = paths.Resolve(c.Pipeline.CustomersPath)
	c.Logging.FilePath = paths.Resolve(c.Logging.FilePath)
	c.Telemetry.TraceFile = paths.Resolve(c.Telemetry.TraceFile)
	c.Telemetry.MetricsFile = paths.Resolve(c.Telemetry.MetricsFile)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		filepath.Join("configs", "config.yaml"),
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: DefaultLogOutput,
		},
		Pipeline: PipelineConfig{
			DegeneratePolicy: DegenerateStrict,
		},
	}
}
