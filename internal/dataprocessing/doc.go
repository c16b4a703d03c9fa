// Package dataprocessing turns a raw retail transaction source into the cleaned
// table the scoring engine consumes.
//
// # Architecture
//
// The package is organized into two components:
//
// 1. Loader: reads an Excel workbook or CSV file into a typed RawTable
// 2. Cleaner: drops unusable rows, coerces customer ids and derives Revenue
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger, dataprocessing.LoaderConfig{})
//	table, err := loader.Load(ctx, "data/input/online_retail_II.xlsx")
//	if err != nil {
//	    return err
//	}
//
//	cleaner := dataprocessing.NewCleaner(logger)
//	txns, report := cleaner.Clean(ctx, table)
//
// # Data Flow
//
//	Excel/CSV → Loader → RawTable → Cleaner → []Transaction
//
// # Error Handling
//
// Loader errors are AppErrors from internal/errors: SOURCE_NOT_FOUND when the
// path cannot be opened and SCHEMA when a required column is missing or a
// typed cell cannot be decoded. Cleaning never fails; rows it rejects are
// counted per reason in the CleanReport.
package dataprocessing
