package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/SscSPs/recon_engine/internal/core/engine"
	"github.com/SscSPs/recon_engine/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "60-M", cfg.RateLimit)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Equal(t, int32(0), cfg.DBMaxConns)
	assert.Equal(t, 5*time.Second, cfg.DBConnectTimeout)

	eng, err := cfg.EngineConfig()
	require.NoError(t, err)
	def := engine.DefaultConfig()
	assert.Equal(t, def.Matching, eng.Matching)
	assert.True(t, def.Detectors.PriceToleranceBps.Equal(eng.Detectors.PriceToleranceBps))
	assert.Equal(t, def.Detectors.SettlementCycles, eng.Detectors.SettlementCycles)
	assert.True(t, def.Classification.HighImpactThreshold.Equal(eng.Classification.HighImpactThreshold))
	assert.Equal(t, "USD", eng.Classification.ReportingCurrency)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("MATCHING_REVIEW_THRESHOLD", "0.6")
	t.Setenv("TOLERANCE_PRICE_BPS", "7.5")
	t.Setenv("SEVERITY_REPORTING_CURRENCY", "eur")
	t.Setenv("WORKERS", "4")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("DB_CONNECT_TIMEOUT", "2s")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, 2*time.Second, cfg.DBConnectTimeout)

	eng, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.6, eng.Matching.ReviewThreshold)
	assert.Equal(t, 4, eng.Matching.Workers)
	assert.True(t, decimal.RequireFromString("7.5").Equal(eng.Detectors.PriceToleranceBps))
	assert.Equal(t, "EUR", eng.Classification.ReportingCurrency)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recon.yaml")
	content := `
tolerance:
  settlement_cycles:
    equity: 1
    repo: 0
  price_bps_by_type:
    Corporate_Bond: 20
severity:
  high_impact: 50000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("RECON_CONFIG_FILE", path)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	eng, err := cfg.EngineConfig()
	require.NoError(t, err)

	assert.Equal(t, 1, eng.Detectors.SettlementCycles["equity"])
	assert.Equal(t, 0, eng.Detectors.SettlementCycles["repo"])
	assert.Equal(t, 1, eng.Detectors.SettlementCycles["government_bond"], "built-in cycles survive")
	assert.True(t, decimal.NewFromInt(20).Equal(eng.Detectors.PriceToleranceByType["corporate_bond"]))
	assert.True(t, decimal.NewFromInt(50000).Equal(eng.Classification.HighImpactThreshold))
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("RECON_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := config.LoadConfig()
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestEngineConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "non numeric tolerance", env: map[string]string{"TOLERANCE_FX_BPS": "ten"}},
		{name: "weights do not sum to one", env: map[string]string{"MATCHING_WEIGHT_AMOUNT": "0.9"}},
		{name: "review above auto accept", env: map[string]string{"MATCHING_REVIEW_THRESHOLD": "0.95"}},
		{name: "unknown reporting currency", env: map[string]string{"SEVERITY_REPORTING_CURRENCY": "XYZ"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := config.LoadConfig()
			require.NoError(t, err)
			_, err = cfg.EngineConfig()
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)
		})
	}
}
