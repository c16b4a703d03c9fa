// Package exporter publishes pipeline results as CSV files.
//
// This package contains three main components:
//
// CSVWriter: atomic CSV writing. Records go to a temporary file in the
// destination directory which is synced and renamed into place, so readers
// never observe a partial file. Optional UTF-8 BOM for Excel.
//
// Publisher: left-joins every cleaned transaction with its customer's RFM
// profile, scores and segment and writes the enriched dataset.
//
// Customer export: the per-customer RFM table, one row per scored customer.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(paths, logger)
//	publisher := exporter.NewPublisher(writer, logger, exporter.PublisherConfig{})
//
//	summary, err := publisher.Publish(ctx, "processed_online_retail.csv", txns, result)
//	if err != nil {
//	    return err // always a WRITE AppError
//	}
package exporter
