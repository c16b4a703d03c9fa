package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	DataDir       string
	InputDir      string
	ReportsDir    string
	LogsDir       string

	// Well-known files
	InputFile   string
	OutputFile  string
	LogFile     string
	MetricsFile string
}

// GetPaths returns the application paths relative to the executable location
// All paths are ALWAYS relative to the executable directory, never the current working directory
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths lays out the directory structure under baseDir.
func NewPaths(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, DefaultDataDir)
	inputDir := filepath.Join(baseDir, DefaultInputDir)
	reportsDir := filepath.Join(baseDir, DefaultReportsDir)
	logsDir := filepath.Join(baseDir, DefaultLogsDir)

	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		InputDir:      inputDir,
		ReportsDir:    reportsDir,
		LogsDir:       logsDir,

		InputFile:   filepath.Join(inputDir, DefaultInputFile),
		OutputFile:  filepath.Join(reportsDir, DefaultOutputFile),
		LogFile:     filepath.Join(logsDir, DefaultLogFile),
		MetricsFile: filepath.Join(reportsDir, DefaultMetricsFile),
	}
}

// EnsureDirectories creates the output directories if they don't exist.
// The input directory is never created: a missing source is a terminal error.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ReportsDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		logger.Debug("Ensured directory exists",
			slog.String("directory", dir))
	}

	return nil
}

// Resolve returns path unchanged when absolute, otherwise joined to the executable directory.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.ExecutableDir, path)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetInputPath returns the path for a source file
func (p *Paths) GetInputPath(filename string) string {
	return filepath.Join(p.InputDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("input", p.InputDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("input", p.InputFile),
			slog.String("output", p.OutputFile),
			slog.String("log", p.LogFile),
			slog.Bool("input_exists", FileExists(p.InputFile)),
		))
}
