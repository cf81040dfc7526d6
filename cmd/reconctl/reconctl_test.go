package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEngineConfig_OverlaysDefaults(t *testing.T) {
	path := writeFile(t, "cfg.yaml", `
matching:
  reviewThreshold: 0.6
detectors:
  priceToleranceBps: "7.5"
  settlementCycles:
    equity: 1
classification:
  reportingCurrency: EUR
`)
	cfg, err := loadEngineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.Matching.ReviewThreshold)
	assert.Equal(t, 0.85, cfg.Matching.AutoAcceptThreshold, "unset keys keep their defaults")
	assert.True(t, decimal.RequireFromString("7.5").Equal(cfg.Detectors.PriceToleranceBps))
	assert.Equal(t, 1, cfg.Detectors.SettlementCycles["equity"])
	assert.Equal(t, "EUR", cfg.Classification.ReportingCurrency)
	assert.NoError(t, cfg.Validate())
}

func TestReconcileCmd_LoadBatch(t *testing.T) {
	a := writeFile(t, "a.json", `[{"externalId": "T-1", "source": "ledger", "amount": "100", "currency": "usd", "tradeDate": "2024-01-15"}]`)
	b := writeFile(t, "b.json", `[{"externalId": "T-1", "source": "custodian", "amount": 100, "currency": "USD", "tradeDate": "2024-01-15"}]`)
	ref := writeFile(t, "ref.json", `{"fxRates": [{"fromCurrency": "EUR", "toCurrency": "USD", "rate": "1.1", "dateEffective": "2024-01-15"}]}`)

	cmd := &reconcileCmd{sourceA: a, sourceB: b, reference: ref, asOf: "2024-01-19"}
	batch, err := cmd.loadBatch()
	require.NoError(t, err)
	require.Len(t, batch.SourceA, 1)
	assert.Equal(t, "USD", batch.SourceA[0].Currency)
	assert.True(t, batch.SourceB[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC), batch.AsOf)
	require.Len(t, batch.Reference.FXRates, 1)
}

func TestReconcileCmd_LoadBatchMissingFile(t *testing.T) {
	cmd := &reconcileCmd{sourceA: filepath.Join(t.TempDir(), "absent.json"), sourceB: "also-absent.json"}
	_, err := cmd.loadBatch()
	assert.Error(t, err)
}

func sampleResult() domain.Result {
	return domain.Result{
		BatchID: "batch-1",
		AsOf:    time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC),
		Exceptions: []domain.Exception{
			{
				ID: "e-low", Type: domain.BreakMarketPrice, Severity: domain.SeverityLow,
				Detail: domain.MarketPriceDetail{Reasons: []string{domain.PriceReasonTolerance}},
				Impact: decimal.NewFromInt(750), Currency: "USD",
				Transactions: []domain.TransactionRef{{Side: domain.SideA, ExternalID: "T-PRICE"}},
			},
			{
				ID: "e-crit", Type: domain.BreakSecurityIdentifier, Severity: domain.SeverityCritical,
				Detail: domain.SecurityIdentifierDetail{MismatchType: domain.SEDOL},
				Impact: decimal.NewFromInt(250000), Currency: "USD", Annotation: "custodian feed lag",
				Transactions: []domain.TransactionRef{{Side: domain.SideA, ExternalID: "T-SEDOL"}, {Side: domain.SideB, ExternalID: "T-SEDOL"}},
			},
		},
		Report: domain.BatchReport{
			TotalA: 2, TotalB: 2, ExactMatches: 2,
			Rejected: []domain.RecordError{{Side: domain.SideB, Index: 3, ExternalID: "BAD", Field: "currency", Reason: "missing"}},
		},
	}
}

func TestResultMarkdown(t *testing.T) {
	md := resultMarkdown(sampleResult())

	assert.Contains(t, md, "# Reconciliation batch-1")
	assert.Contains(t, md, "| Exact matches | 2 |")
	assert.Contains(t, md, "| critical | security_identifier | 250000.00 USD | A:T-SEDOL, B:T-SEDOL | custodian feed lag |")
	assert.Less(t, bytes.Index([]byte(md), []byte("critical")), bytes.Index([]byte(md), []byte("| low |")), "most severe first")
	assert.Contains(t, md, "| B | 3 | BAD | currency | missing |")
}

func TestWriteResult(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeResult(&out, "yaml", sampleResult()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "batch-1", decoded["batchId"])

	out.Reset()
	require.NoError(t, writeResult(&out, "json", sampleResult()))
	assert.Contains(t, out.String(), `"batchId": "batch-1"`)

	assert.Error(t, writeResult(&out, "xml", sampleResult()))
}

func TestYearFracCmd(t *testing.T) {
	days, frac, err := (&yearFracCmd{from: "2024-01-31", to: "2024-03-01", convention: "30/360"}).compute()
	require.NoError(t, err)
	assert.Equal(t, 31, days)
	assert.Equal(t, "0.086111", frac)

	_, _, err = (&yearFracCmd{from: "2024-01-31", to: "2024-03-01", convention: "BUS/252"}).compute()
	assert.Error(t, err)

	_, _, err = (&yearFracCmd{from: "31/01/2024", to: "2024-03-01", convention: "ACT/360"}).compute()
	assert.Error(t, err)
}
