package config

// Application constants for the retail RFM pipeline
const (
	// Application Info
	AppName   = "Retail RFM Pipeline"
	EnvPrefix = "RFM"

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultInputDir   = "data/input"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"

	// Well-known file names
	DefaultInputFile   = "online_retail_II.xlsx"
	DefaultOutputFile  = "processed_online_retail.csv"
	DefaultLogFile     = "rfm.log"
	DefaultMetricsFile = "rfm_pipeline.prom"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "both"

	// Quartile degenerate policies
	DegenerateStrict = "strict"
	DegenerateRank   = "rank"
)
