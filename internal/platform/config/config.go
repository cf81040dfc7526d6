package config

import (
	"fmt"
	"log"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/SscSPs/recon_engine/internal/core/engine"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	Port               string
	IsProduction       bool
	EnableDBCheck      bool
	DBMaxConns         int32
	DBConnectTimeout   time.Duration
	LogLevel           slog.Level
	RateLimit          string   // Formatted limiter rate, e.g. "60-M"
	CORSAllowedOrigins []string // Empty means any origin

	// Matching
	ExactDateWindowDays int
	FuzzyDateWindowDays int
	AutoAcceptThreshold float64
	ReviewThreshold     float64
	WeightAmount        float64
	WeightCurrency      float64
	WeightIdentifier    float64
	WeightDate          float64
	Workers             int

	// Detector tolerances, kept as text until EngineConfig parses them
	CouponAbsTolerance     string
	CouponRelTolerance     string
	PriceToleranceBps      string
	PriceToleranceByType   map[string]string
	PriceAnomalyZ          float64
	FXToleranceBps         string
	SettlementCycles       map[string]string
	DefaultSettlementCycle int
	SettlementCalendarDays bool
	ScreenUnmatched        bool

	// Severity
	HighImpactThreshold string
	LowImpactThreshold  string
	LowConfidenceFloor  float64
	ReportingCurrency   string
}

// LoadConfig loads configuration from environment variables, a .env file if
// present and an optional YAML file named by RECON_CONFIG_FILE. Environment
// variables win over the file; nested file keys map to env names by joining
// them with underscores (matching.review_threshold -> MATCHING_REVIEW_THRESHOLD).
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("RECON_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read config file %s: %v", apperrors.ErrConfiguration, file, err)
		}
		log.Printf("Loaded reconciliation settings from %s\n", file)
	}

	cfg := &Config{}

	cfg.DatabaseURL = v.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Results will not be persisted.")
	}

	cfg.Port = v.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = v.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = v.GetBool("ENABLE_DB_CHECK")
	cfg.DBMaxConns = v.GetInt32("DB_MAX_CONNS")
	cfg.DBConnectTimeout = v.GetDuration("DB_CONNECT_TIMEOUT")

	levelStr := v.GetString("LOG_LEVEL")
	if err := cfg.LogLevel.UnmarshalText([]byte(levelStr)); err != nil {
		cfg.LogLevel = slog.LevelInfo
		log.Printf("Warning: Invalid value for LOG_LEVEL ('%s'). Defaulting to %s.\n", levelStr, cfg.LogLevel)
	}

	cfg.RateLimit = v.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	cfg.ExactDateWindowDays = v.GetInt("matching.exact_date_window_days")
	cfg.FuzzyDateWindowDays = v.GetInt("matching.fuzzy_date_window_days")
	cfg.AutoAcceptThreshold = v.GetFloat64("matching.auto_accept_threshold")
	cfg.ReviewThreshold = v.GetFloat64("matching.review_threshold")
	cfg.WeightAmount = v.GetFloat64("matching.weight_amount")
	cfg.WeightCurrency = v.GetFloat64("matching.weight_currency")
	cfg.WeightIdentifier = v.GetFloat64("matching.weight_identifier")
	cfg.WeightDate = v.GetFloat64("matching.weight_date")
	cfg.Workers = v.GetInt("WORKERS")

	cfg.CouponAbsTolerance = v.GetString("tolerance.coupon_abs")
	cfg.CouponRelTolerance = v.GetString("tolerance.coupon_rel")
	cfg.PriceToleranceBps = v.GetString("tolerance.price_bps")
	cfg.PriceToleranceByType = v.GetStringMapString("tolerance.price_bps_by_type")
	cfg.PriceAnomalyZ = v.GetFloat64("tolerance.price_anomaly_z")
	cfg.FXToleranceBps = v.GetString("tolerance.fx_bps")
	cfg.SettlementCycles = v.GetStringMapString("tolerance.settlement_cycles")
	cfg.DefaultSettlementCycle = v.GetInt("tolerance.settlement_default_cycle")
	cfg.SettlementCalendarDays = v.GetBool("tolerance.settlement_calendar_days")
	cfg.ScreenUnmatched = v.GetBool("tolerance.screen_unmatched")

	cfg.HighImpactThreshold = v.GetString("severity.high_impact")
	cfg.LowImpactThreshold = v.GetString("severity.low_impact")
	cfg.LowConfidenceFloor = v.GetFloat64("severity.low_confidence_floor")
	cfg.ReportingCurrency = strings.ToUpper(v.GetString("severity.reporting_currency"))

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	eng := engine.DefaultConfig()

	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("DB_MAX_CONNS", 0)
	v.SetDefault("DB_CONNECT_TIMEOUT", "5s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT", "60-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("RECON_CONFIG_FILE", "")
	v.SetDefault("WORKERS", 0)

	v.SetDefault("matching.exact_date_window_days", eng.Matching.ExactDateWindowDays)
	v.SetDefault("matching.fuzzy_date_window_days", eng.Matching.FuzzyDateWindowDays)
	v.SetDefault("matching.auto_accept_threshold", eng.Matching.AutoAcceptThreshold)
	v.SetDefault("matching.review_threshold", eng.Matching.ReviewThreshold)
	v.SetDefault("matching.weight_amount", eng.Matching.Weights.Amount)
	v.SetDefault("matching.weight_currency", eng.Matching.Weights.Currency)
	v.SetDefault("matching.weight_identifier", eng.Matching.Weights.Identifier)
	v.SetDefault("matching.weight_date", eng.Matching.Weights.Date)

	v.SetDefault("tolerance.coupon_abs", eng.Detectors.CouponAbsTolerance.String())
	v.SetDefault("tolerance.coupon_rel", eng.Detectors.CouponRelTolerance.String())
	v.SetDefault("tolerance.price_bps", eng.Detectors.PriceToleranceBps.String())
	v.SetDefault("tolerance.price_anomaly_z", eng.Detectors.PriceAnomalyZ)
	v.SetDefault("tolerance.fx_bps", eng.Detectors.FXToleranceBps.String())
	v.SetDefault("tolerance.settlement_default_cycle", eng.Detectors.DefaultSettlementCycle)
	v.SetDefault("tolerance.settlement_calendar_days", eng.Detectors.SettlementCalendarDays)
	v.SetDefault("tolerance.screen_unmatched", eng.Detectors.ScreenUnmatched)

	v.SetDefault("severity.high_impact", eng.Classification.HighImpactThreshold.String())
	v.SetDefault("severity.low_impact", eng.Classification.LowImpactThreshold.String())
	v.SetDefault("severity.low_confidence_floor", eng.Classification.LowConfidenceFloor)
	v.SetDefault("severity.reporting_currency", eng.Classification.ReportingCurrency)
}

// EngineConfig converts the loaded settings into a validated engine configuration.
// Settlement cycles from the file are merged over the built-in cycles.
func (c *Config) EngineConfig() (engine.Config, error) {
	eng := engine.DefaultConfig()

	eng.Matching.ExactDateWindowDays = c.ExactDateWindowDays
	eng.Matching.FuzzyDateWindowDays = c.FuzzyDateWindowDays
	eng.Matching.AutoAcceptThreshold = c.AutoAcceptThreshold
	eng.Matching.ReviewThreshold = c.ReviewThreshold
	eng.Matching.Weights.Amount = c.WeightAmount
	eng.Matching.Weights.Currency = c.WeightCurrency
	eng.Matching.Weights.Identifier = c.WeightIdentifier
	eng.Matching.Weights.Date = c.WeightDate
	eng.Matching.Workers = c.Workers

	var err error
	parse := func(name, value string) decimal.Decimal {
		if err != nil {
			return decimal.Zero
		}
		d, perr := decimal.NewFromString(strings.TrimSpace(value))
		if perr != nil {
			err = fmt.Errorf("%w: %s %q is not a number", apperrors.ErrConfiguration, name, value)
		}
		return d
	}

	eng.Detectors.CouponAbsTolerance = parse("tolerance.coupon_abs", c.CouponAbsTolerance)
	eng.Detectors.CouponRelTolerance = parse("tolerance.coupon_rel", c.CouponRelTolerance)
	eng.Detectors.PriceToleranceBps = parse("tolerance.price_bps", c.PriceToleranceBps)
	eng.Detectors.FXToleranceBps = parse("tolerance.fx_bps", c.FXToleranceBps)
	eng.Detectors.PriceAnomalyZ = c.PriceAnomalyZ
	eng.Detectors.DefaultSettlementCycle = c.DefaultSettlementCycle
	eng.Detectors.SettlementCalendarDays = c.SettlementCalendarDays
	eng.Detectors.ScreenUnmatched = c.ScreenUnmatched
	for securityType, bps := range c.PriceToleranceByType {
		eng.Detectors.PriceToleranceByType[strings.ToLower(securityType)] = parse("tolerance.price_bps_by_type."+securityType, bps)
	}
	for assetClass, days := range c.SettlementCycles {
		n, perr := strconv.Atoi(strings.TrimSpace(days))
		if perr != nil && err == nil {
			err = fmt.Errorf("%w: settlement cycle for %s %q is not a whole number", apperrors.ErrConfiguration, assetClass, days)
		}
		eng.Detectors.SettlementCycles[strings.ToLower(assetClass)] = n
	}

	eng.Classification.HighImpactThreshold = parse("severity.high_impact", c.HighImpactThreshold)
	eng.Classification.LowImpactThreshold = parse("severity.low_impact", c.LowImpactThreshold)
	eng.Classification.LowConfidenceFloor = c.LowConfidenceFloor
	eng.Classification.ReportingCurrency = c.ReportingCurrency

	if err != nil {
		return engine.Config{}, err
	}
	if err := eng.Validate(); err != nil {
		return engine.Config{}, err
	}
	return eng, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
