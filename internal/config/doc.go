// Package config provides centralized configuration management for the RFM pipeline.
// It handles loading configuration from multiple sources, validation, and resolves
// every file path the pipeline reads or writes.
//
// # Configuration Sources
//
// Configuration is assembled in the following order, later sources winning:
//
//  1. Default values (Default())
//  2. YAML configuration file (config.yaml, configs/config.yaml or an explicit path)
//  3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern RFM_<SECTION>_<FIELD>:
//
//	RFM_PIPELINE_INPUT_PATH=/data/online_retail_II.xlsx
//	RFM_PIPELINE_OUTPUT_PATH=/data/processed_online_retail.csv
//	RFM_PIPELINE_DEGENERATE_POLICY=rank
//	RFM_LOGGING_LEVEL=debug
//	RFM_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/rfm.prom
//
// # Paths
//
// Default paths are always relative to the executable directory, never the
// current working directory:
//
//	<exe dir>/
//	  ├── data/
//	  │   ├── input/      (source spreadsheets)
//	  │   └── reports/    (enriched CSV output)
//	  └── logs/
package config
