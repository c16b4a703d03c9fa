package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source column names as they appear in the raw retail export.
const (
	ColumnInvoice     = "Invoice"
	ColumnStockCode   = "StockCode"
	ColumnDescription = "Description"
	ColumnQuantity    = "Quantity"
	ColumnInvoiceDate = "InvoiceDate"
	ColumnPrice       = "Price"
	ColumnCustomerID  = "Customer ID"
	ColumnCountry     = "Country"
)

// RequiredColumns lists every column the loader must find in the source header.
var RequiredColumns = []string{
	ColumnInvoice,
	ColumnStockCode,
	ColumnDescription,
	ColumnQuantity,
	ColumnInvoiceDate,
	ColumnPrice,
	ColumnCustomerID,
	ColumnCountry,
}

// RawRecord is one source row after type decoding and before cleaning.
// CustomerID is nil when the source cell was empty. Missing names the
// Quantity, Price or InvoiceDate columns whose cell was empty or NaN; those
// fields keep their zero value.
type RawRecord struct {
	Row         int             `json:"row"`
	Invoice     string          `json:"invoice"`
	StockCode   string          `json:"stock_code"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	InvoiceDate time.Time       `json:"invoice_date"`
	Price       decimal.Decimal `json:"price"`
	CustomerID  *float64        `json:"customer_id,omitempty"`
	Country     string          `json:"country"`
	Missing     []string        `json:"missing,omitempty"`
}

// RawTable is the loader's output: the header as read and the decoded rows in source order.
type RawTable struct {
	Source  string      `json:"source"`
	Sheet   string      `json:"sheet,omitempty"`
	Columns []string    `json:"columns"`
	Records []RawRecord `json:"records"`
}

// Len returns the number of decoded rows.
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Transaction is a cleaned transaction record using the canonical field names.
// Quantity and UnitPrice are strictly positive and Revenue equals Quantity × UnitPrice.
type Transaction struct {
	InvoiceNo   string          `json:"invoice_no" validate:"required"`
	StockCode   string          `json:"stock_code"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity" validate:"min=1"`
	InvoiceDate time.Time       `json:"invoice_date" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CustomerID  int64           `json:"customer_id"`
	Country     string          `json:"country"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// EnrichedTransaction is a cleaned transaction joined with its customer's RFM data.
// Customer is nil when no profile matched the transaction's customer.
type EnrichedTransaction struct {
	Transaction
	Customer *CustomerRFM `json:"customer,omitempty"`
}
