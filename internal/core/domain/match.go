package domain

// MatchType records which matcher produced a Match.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// Match pairs exactly one transaction from each side.
type Match struct {
	ID             string      `json:"id" yaml:"id"`
	Type           MatchType   `json:"type" yaml:"type"`
	Confidence     float64     `json:"confidence" yaml:"confidence"` // Always 1.0 for exact matches
	Fields         []string    `json:"fields" yaml:"fields"`         // Fields that contributed to the match
	TieBreakTrail  []string    `json:"tieBreakTrail" yaml:"tieBreakTrail"`
	ReviewRequired bool        `json:"reviewRequired" yaml:"reviewRequired"` // Score fell in the review band
	A              Transaction `json:"a" yaml:"a"`
	B              Transaction `json:"b" yaml:"b"`
	BatchStamp     `yaml:",inline"`
}

// Refs returns the references of both legs, A first.
func (m Match) Refs() []TransactionRef {
	return []TransactionRef{m.A.Ref(SideA), m.B.Ref(SideB)}
}
