package domain

import (
	"fmt"
	"time"
)

// Batch is one unit of reconciliation work: two ordered collections plus the
// reference data they are checked against.
type Batch struct {
	ID        string        `json:"id,omitempty" yaml:"id,omitempty"` // Derived from the inputs when empty
	AsOf      time.Time     `json:"asOf" yaml:"asOf"`                 // Batch timestamp stamped on every output
	SourceA   []Transaction `json:"sourceA" yaml:"sourceA"`
	SourceB   []Transaction `json:"sourceB" yaml:"sourceB"`
	Reference ReferenceData `json:"reference" yaml:"reference"`
}

// RecordError is a malformed input record rejected from the batch.
type RecordError struct {
	Side       Side   `json:"side" yaml:"side"`
	Index      int    `json:"index" yaml:"index"`
	ExternalID string `json:"externalId,omitempty" yaml:"externalId,omitempty"`
	Field      string `json:"field" yaml:"field"`
	Reason     string `json:"reason" yaml:"reason"`
}

func (e RecordError) Error() string {
	return fmt.Sprintf("side %s record %d (%q): field %s: %s", e.Side, e.Index, e.ExternalID, e.Field, e.Reason)
}

// BatchReport summarizes a run.
type BatchReport struct {
	TotalA               int               `json:"totalA" yaml:"totalA"`
	TotalB               int               `json:"totalB" yaml:"totalB"`
	Rejected             []RecordError     `json:"rejected" yaml:"rejected"`
	ExactMatches         int               `json:"exactMatches" yaml:"exactMatches"`
	FuzzyMatches         int               `json:"fuzzyMatches" yaml:"fuzzyMatches"`
	ReviewMatches        int               `json:"reviewMatches" yaml:"reviewMatches"`
	UnmatchedA           int               `json:"unmatchedA" yaml:"unmatchedA"`
	UnmatchedB           int               `json:"unmatchedB" yaml:"unmatchedB"`
	AmbiguousTies        int               `json:"ambiguousTies" yaml:"ambiguousTies"`
	ExceptionsByType     map[BreakType]int `json:"exceptionsByType" yaml:"exceptionsByType"`
	ExceptionsBySeverity map[Severity]int  `json:"exceptionsBySeverity" yaml:"exceptionsBySeverity"`
}

// Result is everything the engine emits for a batch.
type Result struct {
	BatchID    string      `json:"batchId" yaml:"batchId"`
	AsOf       time.Time   `json:"asOf" yaml:"asOf"`
	Matches    []Match     `json:"matches" yaml:"matches"`
	Exceptions []Exception `json:"exceptions" yaml:"exceptions"`
	Report     BatchReport `json:"report" yaml:"report"`
}
