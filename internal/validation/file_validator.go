package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"rfmcli/internal/errors"
)

// SourceFormat identifies how a source file is decoded
type SourceFormat string

const (
	FormatWorkbook SourceFormat = "workbook"
	FormatCSV      SourceFormat = "csv"
)

// workbookExtensions are the OOXML spreadsheet formats excelize can open
var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// FileValidator checks source files before they are loaded
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks that path is an existing, readable regular file.
// Failures are SOURCE_NOT_FOUND errors.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("File does not exist",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewSourceNotFoundError(path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return errors.NewSourceNotFoundError(path, fmt.Errorf("%s is a directory, not a file", path))
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewSourceNotFoundError(path, fmt.Errorf("file is not readable: %w", err))
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// DetectFormat returns the decoder for path based on its extension. Unknown
// extensions and Excel lock files are SCHEMA errors.
func (v *FileValidator) DetectFormat(path string) (SourceFormat, error) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejecting temporary Excel file",
			slog.String("file", path))
		return "", errors.NewSchemaError(fmt.Sprintf("file %s is a temporary Excel file", base), nil).
			WithContext("path", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case workbookExtensions[ext]:
		return FormatWorkbook, nil
	case ext == ".csv":
		return FormatCSV, nil
	default:
		v.logger.Error("Unsupported source format",
			slog.String("file", path),
			slog.String("extension", ext))
		return "", errors.NewSchemaError(fmt.Sprintf("unsupported source format %q", filepath.Ext(path)), nil).
			WithContext("path", path)
	}
}

// ValidateSource checks path exists and returns its format
func (v *FileValidator) ValidateSource(path string) (SourceFormat, error) {
	if err := v.ValidateFile(path); err != nil {
		return "", err
	}
	return v.DetectFormat(path)
}
