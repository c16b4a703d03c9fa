package exporter

import (
	"context"
	"log/slog"

	"rfmcli/internal/errors"
	"rfmcli/internal/rfm"
	"rfmcli/pkg/contracts/domain"
)

// EnrichedHeaders is the column order of the enriched dataset.
var EnrichedHeaders = []string{
	"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate", "UnitPrice",
	"CustomerID", "Country", "Revenue",
	"Recency", "Frequency", "Monetary", "R_score", "F_score", "M_score", "RFM_Score", "Segment",
}

// CustomerHeaders is the column order of the per-customer RFM table.
var CustomerHeaders = []string{
	"CustomerID", "Recency", "Frequency", "Monetary", "R_score", "F_score", "M_score", "RFM_Score", "Segment",
}

// PublisherConfig holds configuration options for the Publisher.
type PublisherConfig struct {
	BOMPrefix bool
}

// Publisher writes the enriched dataset and the customer table.
type Publisher struct {
	writer *CSVWriter
	logger *slog.Logger
	config PublisherConfig
}

// PublishSummary describes one written dataset.
type PublishSummary struct {
	Path      string `json:"path"`
	Rows      int    `json:"rows"`
	Unmatched int    `json:"unmatched"`
}

// NewPublisher creates a Publisher. A nil logger falls back to slog.Default().
func NewPublisher(writer *CSVWriter, logger *slog.Logger, config PublisherConfig) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if writer == nil {
		writer = NewCSVWriter(nil, logger)
	}
	return &Publisher{writer: writer, logger: logger, config: config}
}

// Join pairs every transaction with its customer's RFM data, keeping row
// order. Transactions without a scored customer get a nil Customer.
func Join(txns []domain.Transaction, result *rfm.Result) []domain.EnrichedTransaction {
	enriched := make([]domain.EnrichedTransaction, len(txns))
	for i, txn := range txns {
		enriched[i].Transaction = txn
		if c, ok := result.Lookup(txn.CustomerID); ok {
			enriched[i].Customer = c
		}
	}
	return enriched
}

// Publish joins txns with result and atomically writes the enriched dataset
// to path. Every input row produces exactly one output row.
func (p *Publisher) Publish(ctx context.Context, path string, txns []domain.Transaction, result *rfm.Result) (PublishSummary, error) {
	enriched := Join(txns, result)

	stream, err := p.writer.CreateStreamWriter(ctx, path, EnrichedHeaders, p.config.BOMPrefix)
	if err != nil {
		return PublishSummary{}, err
	}

	summary := PublishSummary{Path: stream.Path(), Rows: len(enriched)}
	for _, e := range enriched {
		if e.Customer == nil {
			summary.Unmatched++
		}
		if err := stream.WriteRecord(enrichedRecord(e)); err != nil {
			stream.Abort()
			return PublishSummary{}, errors.NewWriteError(stream.Path(), err)
		}
	}
	if err := stream.Commit(ctx); err != nil {
		return PublishSummary{}, err
	}

	if summary.Unmatched > 0 {
		p.logger.WarnContext(ctx, "Transactions without customer profile",
			slog.Int("unmatched", summary.Unmatched))
	}
	p.logger.InfoContext(ctx, "Enriched dataset published",
		slog.String("path", summary.Path),
		slog.Int("rows", summary.Rows))

	return summary, nil
}

// PublishCustomers atomically writes one row per scored customer to path,
// ordered by CustomerID.
func (p *Publisher) PublishCustomers(ctx context.Context, path string, result *rfm.Result) (PublishSummary, error) {
	records := make([][]string, 0, result.Len())
	if result != nil {
		for _, c := range result.Customers {
			records = append(records, append([]string{formatInt(c.CustomerID)}, customerFields(&c)...))
		}
	}

	if err := p.writer.WriteCSV(ctx, path, WriteOptions{
		Headers:   CustomerHeaders,
		Records:   records,
		BOMPrefix: p.config.BOMPrefix,
	}); err != nil {
		return PublishSummary{}, err
	}

	return PublishSummary{Path: p.writer.resolvePath(path), Rows: len(records)}, nil
}

func enrichedRecord(e domain.EnrichedTransaction) []string {
	record := []string{
		e.InvoiceNo,
		e.StockCode,
		e.Description,
		formatInt(e.Quantity),
		formatTimestamp(e.InvoiceDate),
		formatDecimal(e.UnitPrice),
		formatInt(e.CustomerID),
		e.Country,
		formatDecimal(e.Revenue),
	}
	return append(record, customerFields(e.Customer)...)
}

// customerFields returns Recency through Segment, or empty fields for nil.
func customerFields(c *domain.CustomerRFM) []string {
	if c == nil {
		return make([]string, len(CustomerHeaders)-1)
	}
	return []string{
		formatInt(int64(c.Recency)),
		formatInt(int64(c.Frequency)),
		formatDecimal(c.Monetary),
		formatInt(int64(c.R)),
		formatInt(int64(c.F)),
		formatInt(int64(c.M)),
		c.RFMScore,
		c.Segment.String(),
	}
}
