package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rfmcli/internal/infrastructure"
	"rfmcli/pkg/contracts"
)

func setupRun(t *testing.T) {
	t.Helper()
	t.Setenv("RFM_LOGGING_OUTPUT", "console")
	t.Setenv("RFM_LOGGING_LEVEL", "warn")
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)
}

func writeInput(t *testing.T, rows ...[]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []interface{}{"Invoice", "StockCode", "Description", "Quantity", "InvoiceDate", "Price", "Customer ID", "Country"}
	for i, row := range append([][]interface{}{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), "online_retail_II.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func row(invoice string, customer float64, when time.Time, price float64) []interface{} {
	return []interface{}{invoice, "22423", "REGENCY CAKESTAND 3 TIER", 1, when, price, customer, "France"}
}

func twoCustomerInput(t *testing.T) string {
	last := time.Date(2011, 12, 9, 12, 50, 0, 0, time.UTC)
	early := last.AddDate(0, 0, -40)
	return writeInput(t,
		row("581587", 12680, last, 12.75),
		row("570001", 17850, early, 2.55),
		row("570002", 17850, early, 2.55),
		row("570003", 17850, early, 2.55),
	)
}

func TestRun_WritesOutputs(t *testing.T) {
	setupRun(t)

	dir := t.TempDir()
	out := filepath.Join(dir, "processed_online_retail.csv")
	customers := filepath.Join(dir, "customers.csv")
	metrics := filepath.Join(dir, "rfm.prom")

	var stderr bytes.Buffer
	code := run([]string{
		"-in", twoCustomerInput(t),
		"-out", out,
		"-customers", customers,
		"-metrics", metrics,
	}, &stderr)
	require.Equal(t, 0, code, stderr.String())

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "InvoiceNo,StockCode,Description,"))
	assert.True(t, strings.HasSuffix(lines[1], ",Recent Customers"), lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ",Loyal Customers"), lines[2])

	customerContent, err := os.ReadFile(customers)
	require.NoError(t, err)
	assert.Contains(t, string(customerContent), "12680,1,1,12.75,4,1,4,414,Recent Customers")

	metricsContent, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(metricsContent), "rfm_rows_loaded")
	assert.Contains(t, string(metricsContent), "rfm_customers_scored")
}

func TestRun_DegenerateFlag(t *testing.T) {
	input := writeInput(t, row("581587", 12680, time.Date(2011, 12, 9, 12, 50, 0, 0, time.UTC), 12.75))

	t.Run("strict fails", func(t *testing.T) {
		setupRun(t)
		out := filepath.Join(t.TempDir(), "out.csv")
		assert.Equal(t, 1, run([]string{"-in", input, "-out", out, "-degenerate", "strict"}, &bytes.Buffer{}))
		assert.NoFileExists(t, out)
	})

	t.Run("rank succeeds", func(t *testing.T) {
		setupRun(t)
		out := filepath.Join(t.TempDir(), "out.csv")
		assert.Equal(t, 0, run([]string{"-in", input, "-out", out, "-degenerate", "rank"}, &bytes.Buffer{}))
		assert.FileExists(t, out)
	})
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{
			name:     "missing input",
			args:     []string{"-in", filepath.Join(os.TempDir(), "does-not-exist.xlsx"), "-out", filepath.Join(os.TempDir(), "rfm-never-written.csv")},
			wantCode: 1,
		},
		{
			name:       "unknown policy",
			args:       []string{"-degenerate", "median"},
			wantCode:   1,
			wantStderr: "config validation failed",
		},
		{
			name:       "unknown flag",
			args:       []string{"-bogus"},
			wantCode:   2,
			wantStderr: "flag provided but not defined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupRun(t)
			var stderr bytes.Buffer
			assert.Equal(t, tt.wantCode, run(tt.args, &stderr))
			if tt.wantStderr != "" {
				assert.Contains(t, stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	flags, err := parseFlags([]string{"-in", "a.xlsx", "-progress=false", "-sheet", "Year 2010-2011"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "a.xlsx", flags.input)
	assert.Equal(t, "Year 2010-2011", flags.sheet)
	assert.False(t, flags.progress)
	assert.True(t, flags.set["progress"])
	assert.False(t, flags.set["out"])
}

func TestRun_Version(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-version", "-in", "ignored.xlsx"}, &stderr))
	assert.Equal(t, contracts.GetFullVersionString()+"\n", stderr.String())
	assert.Contains(t, stderr.String(), "Retail RFM Pipeline v"+contracts.Version)
}

func TestLoadConfig_FlagPathsUseWorkingDirectory(t *testing.T) {
	setupRun(t)

	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	base, err := os.Getwd()
	require.NoError(t, err)

	flags, err := parseFlags([]string{"-in", "sales.xlsx", "-out", filepath.Join("reports", "out.csv"), "-metrics", "rfm.prom"}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg, _, err := loadConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "sales.xlsx"), cfg.Pipeline.InputPath)
	assert.Equal(t, filepath.Join(base, "reports", "out.csv"), cfg.Pipeline.OutputPath)
	assert.Equal(t, filepath.Join(base, "rfm.prom"), cfg.Telemetry.MetricsFile)
	assert.True(t, cfg.Telemetry.EnableMetrics)
	assert.Empty(t, cfg.Pipeline.CustomersPath)
}
