package dataprocessing

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfmcli/internal/infrastructure"
	"rfmcli/pkg/contracts/domain"
)

func customerID(v float64) *float64 {
	return &v
}

func rawRecord(invoice string, qty int64, price string, id *float64) domain.RawRecord {
	return domain.RawRecord{
		Invoice:     invoice,
		StockCode:   "85123A",
		Description: "WHITE HANGING HEART T-LIGHT HOLDER",
		Quantity:    qty,
		InvoiceDate: ts("2010-12-01 08:26:00"),
		Price:       decimal.RequireFromString(price),
		CustomerID:  id,
		Country:     "United Kingdom",
	}
}

func testCleaner() *Cleaner {
	return NewCleaner(infrastructure.NewLogger(&bytes.Buffer{}, "debug"))
}

func TestCleaner_Clean(t *testing.T) {
	table := &domain.RawTable{Records: []domain.RawRecord{
		rawRecord("536365", 6, "2.55", customerID(17850)),
		rawRecord("536366", 6, "1.85", nil),
		rawRecord("C536379", -1, "27.50", customerID(14527)),
		rawRecord("536380", 0, "1.00", customerID(14527)),
		rawRecord("536381", 3, "0", customerID(15311)),
		rawRecord("536382", 2, "-4.00", customerID(15311)),
		rawRecord("536383", 3, "0.10", customerID(12345.9)),
	}}

	txns, report := testCleaner().Clean(context.Background(), table)

	assert.Equal(t, 7, report.Input)
	assert.Equal(t, 2, report.Retained)
	assert.Equal(t, 5, report.TotalDropped())
	assert.Equal(t, map[string]int{
		DropMissingCustomerID:   1,
		DropMissingValue:        0,
		DropNonPositiveQuantity: 2,
		DropNonPositivePrice:    2,
	}, report.Dropped)

	require.Len(t, txns, 2)

	first := txns[0]
	assert.Equal(t, "536365", first.InvoiceNo)
	assert.Equal(t, int64(17850), first.CustomerID)
	assert.Equal(t, "2.55", first.UnitPrice.String())
	assert.True(t, first.Revenue.Equal(decimal.RequireFromString("15.30")), "revenue %s", first.Revenue)

	// Customer ids are truncated, not rounded.
	second := txns[1]
	assert.Equal(t, "536383", second.InvoiceNo)
	assert.Equal(t, int64(12345), second.CustomerID)
	assert.True(t, second.Revenue.Equal(decimal.RequireFromString("0.3")), "revenue %s", second.Revenue)
}

func TestCleaner_FirstFailingRuleWins(t *testing.T) {
	table := &domain.RawTable{Records: []domain.RawRecord{
		rawRecord("1", -1, "-1", nil),
		rawRecord("2", -1, "-1", customerID(1)),
	}}

	txns, report := testCleaner().Clean(context.Background(), table)

	assert.Empty(t, txns)
	assert.Equal(t, 1, report.Dropped[DropMissingCustomerID])
	assert.Equal(t, 1, report.Dropped[DropNonPositiveQuantity])
	assert.Equal(t, 0, report.Dropped[DropNonPositivePrice])
	assert.Equal(t, []string{DropMissingCustomerID, DropNonPositiveQuantity}, report.Reasons())
}

func TestCleaner_DropsMissingValues(t *testing.T) {
	noPrice := rawRecord("536390", 2, "0", customerID(12346))
	noPrice.Missing = []string{domain.ColumnPrice}
	noDate := rawRecord("536391", 2, "1.50", customerID(12346))
	noDate.Missing = []string{domain.ColumnInvoiceDate}
	noCustomer := rawRecord("536392", 0, "0", nil)
	noCustomer.Missing = []string{domain.ColumnQuantity, domain.ColumnPrice}

	table := &domain.RawTable{Records: []domain.RawRecord{
		noPrice,
		noDate,
		noCustomer,
		rawRecord("536393", 1, "1.50", customerID(12346)),
	}}

	txns, report := testCleaner().Clean(context.Background(), table)

	require.Len(t, txns, 1)
	assert.Equal(t, "536393", txns[0].InvoiceNo)
	assert.Equal(t, 2, report.Dropped[DropMissingValue])
	assert.Equal(t, 1, report.Dropped[DropMissingCustomerID])
	assert.Equal(t, 0, report.Dropped[DropNonPositivePrice])
}

func TestCleaner_PreservesOrderAndRevenueInvariant(t *testing.T) {
	var records []domain.RawRecord
	for i := int64(1); i <= 20; i++ {
		price := decimal.NewFromFloat(0.01).Mul(decimal.NewFromInt(i * 7))
		rec := rawRecord("", i, "1", customerID(float64(1000+i)))
		rec.Invoice = price.String()
		rec.Price = price
		records = append(records, rec)
	}

	txns, report := testCleaner().Clean(context.Background(), &domain.RawTable{Records: records})

	require.Equal(t, 20, report.Retained)
	for i, txn := range txns {
		assert.Equal(t, int64(1001+i), txn.CustomerID)
		assert.True(t, txn.Quantity > 0)
		assert.True(t, txn.UnitPrice.IsPositive())
		assert.True(t, txn.Revenue.Equal(txn.UnitPrice.Mul(decimal.NewFromInt(txn.Quantity))))
	}
}

func TestCleaner_EmptyInput(t *testing.T) {
	tests := []struct {
		name  string
		table *domain.RawTable
	}{
		{name: "nil table", table: nil},
		{name: "no records", table: &domain.RawTable{}},
		{name: "all dropped", table: &domain.RawTable{Records: []domain.RawRecord{rawRecord("1", 1, "1", nil)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, report := testCleaner().Clean(context.Background(), tt.table)
			assert.NotNil(t, txns)
			assert.Empty(t, txns)
			assert.Equal(t, 0, report.Retained)
		})
	}
}
