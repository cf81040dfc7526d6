package domain

import "time"

// BatchStamp ties a Match or Exception to the reconciliation run that created it.
type BatchStamp struct {
	BatchID   string    `json:"batchId" yaml:"batchId"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"` // Batch timestamp, never wall-clock
}

// Side identifies which of the two input collections a transaction came from.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// TransactionRef points back at an input transaction without copying it.
type TransactionRef struct {
	Side       Side   `json:"side" yaml:"side"`
	Source     string `json:"source,omitempty" yaml:"source,omitempty"`
	ExternalID string `json:"externalId" yaml:"externalId"`
}

// Key is a stable string form used for deterministic ids.
func (r TransactionRef) Key() string {
	return string(r.Side) + "|" + r.Source + "|" + r.ExternalID
}
