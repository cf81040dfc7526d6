// Package classification assigns a severity to every exception.
package classification

import (
	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Config holds the severity thresholds. Impacts are compared in ReportingCurrency.
type Config struct {
	HighImpactThreshold decimal.Decimal `json:"highImpactThreshold" yaml:"highImpactThreshold" validate:"gte=0"`
	LowImpactThreshold  decimal.Decimal `json:"lowImpactThreshold" yaml:"lowImpactThreshold" validate:"gte=0"`
	LowConfidenceFloor  float64         `json:"lowConfidenceFloor" yaml:"lowConfidenceFloor" validate:"gte=0,lte=1"`
	ReportingCurrency   string          `json:"reportingCurrency" yaml:"reportingCurrency" validate:"required,iso4217"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		HighImpactThreshold: decimal.NewFromInt(100000),
		LowImpactThreshold:  decimal.NewFromInt(1000),
		LowConfidenceFloor:  0.5,
		ReportingCurrency:   "USD",
	}
}

// Scorer is a pure rule table over break type, impact and confidence.
type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score evaluates the rules in order; the first that applies wins.
//
//  1. security identifier break with |impact| above the high threshold: critical
//  2. |impact| above the high threshold: high
//  3. confidence below the floor: medium
//  4. |impact| at or below the low threshold, for types other than security
//     identifier and no match: low
//  5. otherwise: medium
func (s *Scorer) Score(t domain.BreakType, impact decimal.Decimal, confidence *float64) domain.Severity {
	abs := impact.Abs()
	switch {
	case t == domain.BreakSecurityIdentifier && abs.GreaterThan(s.cfg.HighImpactThreshold):
		return domain.SeverityCritical
	case abs.GreaterThan(s.cfg.HighImpactThreshold):
		return domain.SeverityHigh
	case confidence != nil && *confidence < s.cfg.LowConfidenceFloor:
		return domain.SeverityMedium
	case abs.LessThanOrEqual(s.cfg.LowImpactThreshold) && t != domain.BreakSecurityIdentifier && t != domain.BreakNoMatch:
		return domain.SeverityLow
	default:
		return domain.SeverityMedium
	}
}

// ScoreException scores e by its reporting impact when one was computed,
// falling back to the raw impact.
func (s *Scorer) ScoreException(e domain.Exception) domain.Severity {
	impact := e.Impact
	if e.ReportingImpact != nil {
		impact = *e.ReportingImpact
	}
	return s.Score(e.Type, impact, e.Confidence)
}
