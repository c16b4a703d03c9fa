package rfm

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"rfmcli/pkg/contracts/domain"
)

// Day is the unit Recency is measured in.
const Day = 24 * time.Hour

// SnapshotDate returns one day after the latest InvoiceDate in txns.
// The second result is false when txns is empty.
func SnapshotDate(txns []domain.Transaction) (time.Time, bool) {
	if len(txns) == 0 {
		return time.Time{}, false
	}
	latest := txns[0].InvoiceDate
	for _, txn := range txns[1:] {
		if txn.InvoiceDate.After(latest) {
			latest = txn.InvoiceDate
		}
	}
	return latest.UTC().Add(Day), true
}

type accumulator struct {
	last     time.Time
	invoices map[string]struct{}
	monetary decimal.Decimal
}

// Aggregate groups txns by CustomerID and returns one Profile per customer,
// ordered by ascending CustomerID. Recency is the number of whole days
// between snapshot and the customer's latest invoice.
func Aggregate(txns []domain.Transaction, snapshot time.Time) []domain.Profile {
	groups := make(map[int64]*accumulator)
	for _, txn := range txns {
		acc, ok := groups[txn.CustomerID]
		if !ok {
			acc = &accumulator{
				last:     txn.InvoiceDate,
				invoices: make(map[string]struct{}),
				monetary: decimal.Zero,
			}
			groups[txn.CustomerID] = acc
		}
		if txn.InvoiceDate.After(acc.last) {
			acc.last = txn.InvoiceDate
		}
		acc.invoices[txn.InvoiceNo] = struct{}{}
		acc.monetary = acc.monetary.Add(txn.Revenue)
	}

	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	profiles := make([]domain.Profile, 0, len(ids))
	for _, id := range ids {
		acc := groups[id]
		profiles = append(profiles, domain.Profile{
			CustomerID: id,
			Recency:    recencyDays(snapshot, acc.last),
			Frequency:  len(acc.invoices),
			Monetary:   acc.monetary,
		})
	}
	return profiles
}

// recencyDays floors (snapshot - last) to whole days.
func recencyDays(snapshot, last time.Time) int {
	d := snapshot.Sub(last)
	days := d / Day
	if d%Day < 0 {
		days--
	}
	return int(days)
}
