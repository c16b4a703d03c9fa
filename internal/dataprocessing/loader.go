package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"rfmcli/internal/errors"
	"rfmcli/internal/validation"
	"rfmcli/pkg/contracts/domain"
)

// Layouts tried, in order, for InvoiceDate cells stored as text.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/06 15:04",
}

// LoaderConfig holds configuration options for the Loader.
type LoaderConfig struct {
	SheetName      string    // Workbook sheet to read; empty selects the first sheet with the required header
	ShowProgress   bool      // Render a row counter while decoding
	ProgressWriter io.Writer // Defaults to os.Stderr
}

// Loader reads a transaction source into a RawTable.
type Loader struct {
	logger    *slog.Logger
	config    LoaderConfig
	validator *validation.FileValidator
}

// NewLoader creates a Loader. A nil logger falls back to slog.Default().
func NewLoader(logger *slog.Logger, config LoaderConfig) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ProgressWriter == nil {
		config.ProgressWriter = os.Stderr
	}
	return &Loader{
		logger:    logger,
		config:    config,
		validator: validation.NewFileValidator(logger),
	}
}

// Load reads the workbook or CSV file at path. Every required column must be
// present in the header row; every non-blank data row must decode to the
// column types of domain.RawRecord. Empty or NaN cells are recorded as
// missing and left for the Cleaner to drop.
func (l *Loader) Load(ctx context.Context, path string) (*domain.RawTable, error) {
	format, err := l.validator.ValidateSource(path)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Loading data",
		slog.String("path", path),
		slog.String("format", string(format)))

	var table *domain.RawTable
	switch format {
	case validation.FormatWorkbook:
		table, err = l.loadWorkbook(ctx, path)
	case validation.FormatCSV:
		table, err = l.loadCSV(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Initial shape",
		slog.String("source", filepath.Base(path)),
		slog.String("sheet", table.Sheet),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)))

	return table, nil
}

func (l *Loader) loadWorkbook(ctx context.Context, path string) (*domain.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewSourceNotFoundError(path, err)
	}
	defer f.Close()

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	sheetName, err := l.findSheet(f)
	if err != nil {
		return nil, err
	}
	l.logger.DebugContext(ctx, "Using sheet",
		slog.String("sheet", sheetName),
		slog.Bool("date1904", date1904))

	rows, err := f.Rows(sheetName)
	if err != nil {
		return nil, errors.NewSchemaError(fmt.Sprintf("cannot read sheet %q", sheetName), err)
	}
	defer rows.Close()

	table := &domain.RawTable{Source: path, Sheet: sheetName}
	dec := newRowDecoder(date1904)
	progress := l.newProgress(filepath.Base(path))
	defer progress.Finish()

	rowNum := 0
	for rows.Next() {
		rowNum++
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, errors.NewSchemaError(fmt.Sprintf("cannot read row %d of sheet %q", rowNum, sheetName), err)
		}
		if rowNum == 1 {
			if err := dec.bindHeader(cells); err != nil {
				return nil, err
			}
			table.Columns = dec.columns
			continue
		}
		if isBlankRow(cells) {
			continue
		}
		rec, err := dec.decode(cells, rowNum)
		if err != nil {
			return nil, err
		}
		table.Records = append(table.Records, rec)
		_ = progress.Add(1)
	}
	if err := rows.Error(); err != nil {
		return nil, errors.NewSchemaError(fmt.Sprintf("cannot read sheet %q", sheetName), err)
	}
	if rowNum == 0 {
		return nil, errors.NewSchemaError(fmt.Sprintf("sheet %q has no header row", sheetName), nil)
	}

	return table, nil
}

// findSheet returns the configured sheet, or the first sheet whose header row
// carries every required column.
func (l *Loader) findSheet(f *excelize.File) (string, error) {
	if l.config.SheetName != "" {
		idx, err := f.GetSheetIndex(l.config.SheetName)
		if err != nil || idx == -1 {
			return "", errors.NewSchemaError(fmt.Sprintf("sheet %q not found", l.config.SheetName), err).
				WithContext("sheet", l.config.SheetName)
		}
		return l.config.SheetName, nil
	}

	sheets := f.GetSheetList()
	for _, name := range sheets {
		header, err := firstRow(f, name)
		if err != nil {
			continue
		}
		if newRowDecoder(false).bindHeader(header) == nil {
			return name, nil
		}
	}

	// Nothing matched: report the missing columns of the first sheet.
	if len(sheets) == 0 {
		return "", errors.NewSchemaError("workbook has no sheets", nil)
	}
	header, err := firstRow(f, sheets[0])
	if err != nil {
		return "", errors.NewSchemaError(fmt.Sprintf("cannot read sheet %q", sheets[0]), err)
	}
	if err := newRowDecoder(false).bindHeader(header); err != nil {
		return "", err
	}
	return sheets[0], nil
}

func firstRow(f *excelize.File, sheet string) ([]string, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Error()
	}
	return rows.Columns()
}

func (l *Loader) loadCSV(ctx context.Context, path string) (*domain.RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewSourceNotFoundError(path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewSchemaError(fmt.Sprintf("%q has no header row", filepath.Base(path)), nil)
	}
	if err != nil {
		return nil, errors.NewSchemaError("failed to read CSV header", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	dec := newRowDecoder(false)
	if err := dec.bindHeader(header); err != nil {
		return nil, err
	}

	table := &domain.RawTable{Source: path, Columns: dec.columns}
	progress := l.newProgress(filepath.Base(path))
	defer progress.Finish()

	rowNum := 1
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			return nil, errors.NewSchemaError(fmt.Sprintf("failed to read CSV row %d", rowNum), err).
				WithContext("row", rowNum)
		}
		if isBlankRow(cells) {
			continue
		}
		rec, err := dec.decode(cells, rowNum)
		if err != nil {
			return nil, err
		}
		table.Records = append(table.Records, rec)
		_ = progress.Add(1)
	}

	l.logger.DebugContext(ctx, "CSV decoded", slog.Int("lines", rowNum))
	return table, nil
}

// rowProgress is the subset of the progress bar the loader drives.
type rowProgress interface {
	Add(int) error
	Finish() error
}

type noProgress struct{}

func (noProgress) Add(int) error { return nil }
func (noProgress) Finish() error { return nil }

func (l *Loader) newProgress(name string) rowProgress {
	if !l.config.ShowProgress {
		return noProgress{}
	}
	return progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(l.config.ProgressWriter),
		progressbar.OptionSetDescription("loading "+name),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

// rowDecoder maps header positions to required columns and decodes data rows.
type rowDecoder struct {
	date1904 bool
	columns  []string
	index    map[string]int
}

func newRowDecoder(date1904 bool) *rowDecoder {
	return &rowDecoder{date1904: date1904}
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func (d *rowDecoder) bindHeader(header []string) error {
	d.columns = make([]string, len(header))
	positions := make(map[string]int, len(header))
	for i, h := range header {
		d.columns[i] = strings.TrimSpace(h)
		key := normalizeHeader(h)
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	d.index = make(map[string]int, len(domain.RequiredColumns))
	for _, col := range domain.RequiredColumns {
		pos, ok := positions[normalizeHeader(col)]
		if !ok {
			return errors.NewColumnMissingError(col)
		}
		d.index[col] = pos
	}
	return nil
}

func (d *rowDecoder) cell(cells []string, column string) string {
	pos := d.index[column]
	if pos >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[pos])
}

func (d *rowDecoder) decode(cells []string, row int) (domain.RawRecord, error) {
	rec := domain.RawRecord{
		Row:         row,
		Invoice:     d.cell(cells, domain.ColumnInvoice),
		StockCode:   d.cell(cells, domain.ColumnStockCode),
		Description: d.cell(cells, domain.ColumnDescription),
		Country:     d.cell(cells, domain.ColumnCountry),
	}

	raw := d.cell(cells, domain.ColumnQuantity)
	if isNullCell(raw) {
		rec.Missing = append(rec.Missing, domain.ColumnQuantity)
	} else {
		qty, err := parseQuantity(raw)
		if err != nil {
			return rec, errors.NewCellTypeError(domain.ColumnQuantity, row, raw, err)
		}
		rec.Quantity = qty
	}

	raw = d.cell(cells, domain.ColumnPrice)
	if isNullCell(raw) {
		rec.Missing = append(rec.Missing, domain.ColumnPrice)
	} else {
		price, err := parsePrice(raw)
		if err != nil {
			return rec, errors.NewCellTypeError(domain.ColumnPrice, row, raw, err)
		}
		rec.Price = price
	}

	raw = d.cell(cells, domain.ColumnInvoiceDate)
	if isNullCell(raw) {
		rec.Missing = append(rec.Missing, domain.ColumnInvoiceDate)
	} else {
		ts, err := parseTimestamp(raw, d.date1904)
		if err != nil {
			return rec, errors.NewCellTypeError(domain.ColumnInvoiceDate, row, raw, err)
		}
		rec.InvoiceDate = ts
	}

	raw = d.cell(cells, domain.ColumnCustomerID)
	id, err := parseCustomerID(raw)
	if err != nil {
		return rec, errors.NewCellTypeError(domain.ColumnCustomerID, row, raw, err)
	}
	rec.CustomerID = id

	return rec, nil
}

// isNullCell reports whether a trimmed cell holds no value
func isNullCell(s string) bool {
	return s == "" || strings.EqualFold(s, "nan")
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseQuantity accepts integers and integral floats such as "6.0".
func parseQuantity(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer")
	}
	if !fitsInt64(f) {
		return 0, fmt.Errorf("out of range")
	}
	return int64(f), nil
}

// parsePrice goes through float64 so binary noise in workbook values
// ("0.84999999999999998") collapses to the shortest decimal ("0.85").
func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return decimal.Zero, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("not a finite number")
	}
	return decimal.NewFromFloat(f), nil
}

// parseTimestamp decodes an Excel serial date or one of timestampLayouts.
// Serial dates are rounded to the second.
func parseTimestamp(s string, date1904 bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty value")
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC().Round(time.Second), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp")
}

// parseCustomerID returns nil for an empty or NaN cell.
func parseCustomerID(s string) (*float64, error) {
	if isNullCell(s) {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsInf(f, 0) {
		return nil, fmt.Errorf("not a finite number")
	}
	if !fitsInt64(f) {
		return nil, fmt.Errorf("out of range")
	}
	return &f, nil
}

// fitsInt64 reports whether truncating f yields a representable int64.
// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
func fitsInt64(f float64) bool {
	return f >= math.MinInt64 && f < math.MaxInt64
}
