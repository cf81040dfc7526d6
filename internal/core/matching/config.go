// Package matching pairs transactions across two sources, first on exact keys
// and then by weighted similarity over whatever is left.
package matching

// Weights are the fuzzy score weights. They are normalized by their sum.
type Weights struct {
	Amount     float64 `json:"amount" yaml:"amount" validate:"gte=0"`
	Currency   float64 `json:"currency" yaml:"currency" validate:"gte=0"`
	Identifier float64 `json:"identifier" yaml:"identifier" validate:"gte=0"`
	Date       float64 `json:"date" yaml:"date" validate:"gte=0"`
}

// Sum is the total weight.
func (w Weights) Sum() float64 {
	return w.Amount + w.Currency + w.Identifier + w.Date
}

// Config holds the matcher parameters.
type Config struct {
	ExactDateWindowDays int     `json:"exactDateWindowDays" yaml:"exactDateWindowDays" validate:"gte=0"`
	FuzzyDateWindowDays int     `json:"fuzzyDateWindowDays" yaml:"fuzzyDateWindowDays" validate:"gte=0"`
	AutoAcceptThreshold float64 `json:"autoAcceptThreshold" yaml:"autoAcceptThreshold" validate:"gte=0,lte=1"`
	ReviewThreshold     float64 `json:"reviewThreshold" yaml:"reviewThreshold" validate:"gte=0,lte=1,ltefield=AutoAcceptThreshold"`
	Weights             Weights `json:"weights" yaml:"weights"`
	Workers             int     `json:"workers" yaml:"workers" validate:"gte=0"` // 0 means one per CPU
}

// DefaultConfig returns the documented defaults: exact dates, a 5 day fuzzy
// window, 0.85 auto-accept, 0.50 review and 40/20/20/20 weights.
func DefaultConfig() Config {
	return Config{
		ExactDateWindowDays: 0,
		FuzzyDateWindowDays: 5,
		AutoAcceptThreshold: 0.85,
		ReviewThreshold:     0.50,
		Weights: Weights{
			Amount:     0.4,
			Currency:   0.2,
			Identifier: 0.2,
			Date:       0.2,
		},
	}
}
