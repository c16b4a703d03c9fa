package rfm

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"rfmcli/pkg/contracts/domain"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func txn(invoice string, customer int64, when string, qty int64, price string) domain.Transaction {
	p := decimal.RequireFromString(price)
	return domain.Transaction{
		InvoiceNo:   invoice,
		StockCode:   "85123A",
		Description: "WHITE HANGING HEART T-LIGHT HOLDER",
		Quantity:    qty,
		InvoiceDate: at(when),
		UnitPrice:   p,
		CustomerID:  customer,
		Country:     "United Kingdom",
		Revenue:     decimal.NewFromInt(qty).Mul(p),
	}
}

func TestSnapshotDate(t *testing.T) {
	_, ok := SnapshotDate(nil)
	assert.False(t, ok)

	snapshot, ok := SnapshotDate([]domain.Transaction{
		txn("1", 1, "2010-12-01 08:26:00", 1, "1"),
		txn("2", 2, "2011-12-09 12:50:00", 1, "1"),
		txn("3", 1, "2011-06-01 00:00:00", 1, "1"),
	})
	require.True(t, ok)
	assert.Equal(t, at("2011-12-10 12:50:00"), snapshot)
}

func TestAggregate(t *testing.T) {
	txns := []domain.Transaction{
		txn("536365", 17850, "2011-12-01 08:26:00", 6, "2.55"),
		txn("536365", 17850, "2011-12-01 08:26:00", 8, "3.39"),
		txn("536366", 17850, "2011-12-08 13:00:00", 6, "1.85"),
		txn("536367", 13047, "2011-12-09 12:50:00", 12, "0.10"),
		txn("536368", 12583, "2010-12-09 12:51:00", 24, "3.75"),
	}
	snapshot, ok := SnapshotDate(txns)
	require.True(t, ok)

	profiles := Aggregate(txns, snapshot)
	require.Len(t, profiles, 3)

	assert.Equal(t, []int64{12583, 13047, 17850}, []int64{
		profiles[0].CustomerID, profiles[1].CustomerID, profiles[2].CustomerID,
	})

	// 2010-12-09 12:51 is 365 days and 23h59m before the snapshot.
	assert.Equal(t, 365, profiles[0].Recency)
	assert.Equal(t, 1, profiles[0].Frequency)
	assert.Equal(t, "90", profiles[0].Monetary.String())

	assert.Equal(t, 1, profiles[1].Recency)
	assert.Equal(t, 1, profiles[1].Frequency)
	assert.Equal(t, "1.2", profiles[1].Monetary.String())

	// 1 day 23h50m before the snapshot floors to 1.
	assert.Equal(t, 1, profiles[2].Recency)
	assert.Equal(t, 2, profiles[2].Frequency)
	assert.Equal(t, "53.52", profiles[2].Monetary.String())
}

func TestRecencyDays(t *testing.T) {
	snapshot := at("2011-12-10 12:50:00")

	assert.Equal(t, 1, recencyDays(snapshot, at("2011-12-09 12:50:00")))
	assert.Equal(t, 0, recencyDays(snapshot, at("2011-12-09 12:50:01")))
	assert.Equal(t, 2, recencyDays(snapshot, at("2011-12-08 12:50:00")))
	assert.Equal(t, -1, recencyDays(snapshot, at("2011-12-10 12:50:01")))
}

func TestAggregate_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		customers := rapid.IntRange(1, 30).Draw(t, "customers")
		rows := rapid.IntRange(1, 300).Draw(t, "rows")

		base := at("2010-12-01 00:00:00")
		txns := make([]domain.Transaction, rows)
		invoices := map[string]struct{}{}
		for i := range txns {
			c := int64(rapid.IntRange(1, customers).Draw(t, "customer"))
			inv := fmt.Sprintf("%d-%d", c, rapid.IntRange(1, 10).Draw(t, "invoice"))
			minutes := rapid.IntRange(0, 60*24*373).Draw(t, "minutes")
			qty := int64(rapid.IntRange(1, 100).Draw(t, "qty"))
			cents := int64(rapid.IntRange(1, 100000).Draw(t, "cents"))

			price := decimal.New(cents, -2)
			txns[i] = domain.Transaction{
				InvoiceNo:   inv,
				CustomerID:  c,
				InvoiceDate: base.Add(time.Duration(minutes) * time.Minute),
				Quantity:    qty,
				UnitPrice:   price,
				Revenue:     decimal.NewFromInt(qty).Mul(price),
			}
			invoices[inv] = struct{}{}
		}

		snapshot, _ := SnapshotDate(txns)
		profiles := Aggregate(txns, snapshot)

		totalFrequency := 0
		totalMonetary := decimal.Zero
		for i, p := range profiles {
			if p.Recency < 0 {
				t.Fatalf("negative recency %d for customer %d", p.Recency, p.CustomerID)
			}
			if i > 0 && profiles[i-1].CustomerID >= p.CustomerID {
				t.Fatalf("profiles not ordered by customer id")
			}
			totalFrequency += p.Frequency
			totalMonetary = totalMonetary.Add(p.Monetary)
		}

		if totalFrequency != len(invoices) {
			t.Fatalf("sum of frequency %d != distinct invoices %d", totalFrequency, len(invoices))
		}

		totalRevenue := decimal.Zero
		for _, txn := range txns {
			totalRevenue = totalRevenue.Add(txn.Revenue)
		}
		if !totalMonetary.Equal(totalRevenue) {
			t.Fatalf("monetary %s != revenue %s", totalMonetary, totalRevenue)
		}
	})
}
