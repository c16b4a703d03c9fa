package exporter

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is how InvoiceDate is written.
const TimestampLayout = "2006-01-02 15:04:05"

// formatDecimal formats a decimal in its shortest exact form ("15.3", "1000")
func formatDecimal(d decimal.Decimal) string {
	return d.String()
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

// formatTimestamp formats a time in UTC with TimestampLayout
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
