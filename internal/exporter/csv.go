package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"rfmcli/internal/config"
	"rfmcli/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides atomic CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. Relative paths are placed in
// the reports directory of paths; a nil paths leaves them relative to the
// working directory.
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV replaces filePath with the given headers and records. The file is
// either fully written or left untouched; every failure is a WRITE error.
func (w *CSVWriter) WriteCSV(ctx context.Context, filePath string, options WriteOptions) error {
	stream, err := w.CreateStreamWriter(ctx, filePath, options.Headers, options.BOMPrefix)
	if err != nil {
		return err
	}

	for i, record := range options.Records {
		if err := stream.WriteRecord(record); err != nil {
			stream.Abort()
			return errors.NewWriteError(stream.Path(), fmt.Errorf("failed to write record %d: %w", i, err))
		}
	}

	return stream.Commit(ctx)
}

// StreamWriter writes CSV records to a temporary file next to its target and
// renames it into place on Commit.
type StreamWriter struct {
	path    string
	tmpPath string
	file    *os.File
	writer  *csv.Writer
	records int
	logger  *slog.Logger
}

// CreateStreamWriter starts an atomic write of filePath and writes the header row.
func (w *CSVWriter) CreateStreamWriter(ctx context.Context, filePath string, headers []string, bom bool) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.DebugContext(ctx, "Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	// Ensure directory exists
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewWriteError(fullPath, fmt.Errorf("failed to create directory: %w", err))
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return nil, errors.NewWriteError(fullPath, fmt.Errorf("failed to create temp file: %w", err))
	}

	s := &StreamWriter{
		path:    fullPath,
		tmpPath: file.Name(),
		file:    file,
		writer:  csv.NewWriter(file),
		logger:  w.logger,
	}

	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			s.Abort()
			return nil, errors.NewWriteError(fullPath, fmt.Errorf("failed to write BOM: %w", err))
		}
	}

	if len(headers) > 0 {
		if err := s.writer.Write(headers); err != nil {
			s.Abort()
			return nil, errors.NewWriteError(fullPath, fmt.Errorf("failed to write headers: %w", err))
		}
	}

	return s, nil
}

// Path returns the final destination of the stream.
func (s *StreamWriter) Path() string {
	return s.path
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.records++
	return nil
}

// Commit flushes, syncs and closes the temporary file, then renames it over
// the destination. On failure the temporary file is removed.
func (s *StreamWriter) Commit(ctx context.Context) error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.Abort()
		return errors.NewWriteError(s.path, fmt.Errorf("failed to flush: %w", err))
	}
	if err := s.file.Sync(); err != nil {
		s.Abort()
		return errors.NewWriteError(s.path, fmt.Errorf("failed to sync: %w", err))
	}
	if err := s.file.Close(); err != nil {
		os.Remove(s.tmpPath)
		return errors.NewWriteError(s.path, fmt.Errorf("failed to close: %w", err))
	}
	if err := os.Chmod(s.tmpPath, 0644); err != nil {
		os.Remove(s.tmpPath)
		return errors.NewWriteError(s.path, fmt.Errorf("failed to set permissions: %w", err))
	}
	if err := os.Rename(s.tmpPath, s.path); err != nil {
		os.Remove(s.tmpPath)
		return errors.NewWriteError(s.path, fmt.Errorf("failed to rename: %w", err))
	}

	s.logger.InfoContext(ctx, "CSV file written",
		slog.String("full_path", s.path),
		slog.Int("record_count", s.records))
	return nil
}

// Abort discards everything written so far. The destination is not touched.
func (s *StreamWriter) Abort() {
	s.file.Close()
	os.Remove(s.tmpPath)
}

// resolvePath resolves a path to the appropriate directory
func (w *CSVWriter) resolvePath(filePath string) string {
	// If the path is already absolute, return it as-is
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	// Default to reports directory for CSV files
	return w.paths.GetReportPath(filePath)
}
