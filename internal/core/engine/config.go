package engine

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/SscSPs/recon_engine/internal/core/classification"
	"github.com/SscSPs/recon_engine/internal/core/detectors"
	"github.com/SscSPs/recon_engine/internal/core/matching"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Config is the complete, explicit configuration of one engine.
type Config struct {
	Matching       matching.Config       `json:"matching" yaml:"matching"`
	Detectors      detectors.Config      `json:"detectors" yaml:"detectors"`
	Classification classification.Config `json:"classification" yaml:"classification"`
}

// DefaultConfig returns the documented defaults for every component.
func DefaultConfig() Config {
	return Config{
		Matching:       matching.DefaultConfig(),
		Detectors:      detectors.DefaultConfig(),
		Classification: classification.DefaultConfig(),
	}
}

const weightSumEpsilon = 1e-9

// Validate checks every field range and the cross-field constraints. Any
// failure wraps apperrors.ErrConfiguration.
func (c Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", apperrors.ErrConfiguration, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", apperrors.ErrConfiguration, err)
	}
	if sum := c.Matching.Weights.Sum(); math.Abs(sum-1) > weightSumEpsilon {
		return fmt.Errorf("%w: matching weights sum to %v, want 1", apperrors.ErrConfiguration, sum)
	}
	if c.Classification.LowImpactThreshold.GreaterThan(c.Classification.HighImpactThreshold) {
		return fmt.Errorf("%w: low impact threshold %s above high impact threshold %s",
			apperrors.ErrConfiguration, c.Classification.LowImpactThreshold, c.Classification.HighImpactThreshold)
	}
	return nil
}

// newValidator returns a validator that reports JSON field names and reads
// decimals as float64 so the numeric range tags apply to them.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}
