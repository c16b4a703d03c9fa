package dataprocessing

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"rfmcli/pkg/contracts/domain"
)

// Drop reasons reported by the Cleaner. A row is counted under the first rule it fails.
const (
	DropMissingCustomerID   = "missing_customer_id"
	DropMissingValue        = "missing_value"
	DropNonPositiveQuantity = "non_positive_quantity"
	DropNonPositivePrice    = "non_positive_price"
)

// CleanReport summarizes one cleaning pass.
type CleanReport struct {
	Input    int            `json:"input"`
	Retained int            `json:"retained"`
	Dropped  map[string]int `json:"dropped"`
}

// TotalDropped returns the number of rows removed for any reason.
func (r CleanReport) TotalDropped() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Reasons returns the drop reasons with a non-zero count, sorted by name.
func (r CleanReport) Reasons() []string {
	reasons := make([]string, 0, len(r.Dropped))
	for reason, n := range r.Dropped {
		if n > 0 {
			reasons = append(reasons, reason)
		}
	}
	sort.Strings(reasons)
	return reasons
}

// Cleaner turns a RawTable into analysis-ready transactions.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a Cleaner. A nil logger falls back to slog.Default().
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger}
}

// Clean drops rows that lack a customer id or any numeric or date value, then
// rows with a non-positive quantity or price. Customer ids are truncated to
// integers, columns are renamed and Revenue = Quantity × UnitPrice is derived
// exactly. Surviving rows keep their source order.
func (c *Cleaner) Clean(ctx context.Context, table *domain.RawTable) ([]domain.Transaction, CleanReport) {
	report := CleanReport{
		Dropped: map[string]int{
			DropMissingCustomerID:   0,
			DropMissingValue:        0,
			DropNonPositiveQuantity: 0,
			DropNonPositivePrice:    0,
		},
	}
	if table == nil {
		return []domain.Transaction{}, report
	}

	report.Input = table.Len()
	txns := make([]domain.Transaction, 0, table.Len())

	for _, rec := range table.Records {
		if reason := dropReason(rec); reason != "" {
			report.Dropped[reason]++
			continue
		}
		txns = append(txns, domain.Transaction{
			InvoiceNo:   rec.Invoice,
			StockCode:   rec.StockCode,
			Description: rec.Description,
			Quantity:    rec.Quantity,
			InvoiceDate: rec.InvoiceDate.UTC(),
			UnitPrice:   rec.Price,
			CustomerID:  int64(*rec.CustomerID),
			Country:     rec.Country,
			Revenue:     decimal.NewFromInt(rec.Quantity).Mul(rec.Price),
		})
	}
	report.Retained = len(txns)

	c.logger.InfoContext(ctx, "Cleaned shape",
		slog.Int("rows_in", report.Input),
		slog.Int("rows_out", report.Retained),
		slog.Int("rows_dropped", report.TotalDropped()),
		slog.Int(DropMissingCustomerID, report.Dropped[DropMissingCustomerID]),
		slog.Int(DropMissingValue, report.Dropped[DropMissingValue]),
		slog.Int(DropNonPositiveQuantity, report.Dropped[DropNonPositiveQuantity]),
		slog.Int(DropNonPositivePrice, report.Dropped[DropNonPositivePrice]))

	return txns, report
}

func dropReason(rec domain.RawRecord) string {
	switch {
	case rec.CustomerID == nil:
		return DropMissingCustomerID
	case len(rec.Missing) > 0:
		return DropMissingValue
	case rec.Quantity <= 0:
		return DropNonPositiveQuantity
	case rec.Price.Sign() <= 0:
		return DropNonPositivePrice
	default:
		return ""
	}
}
