package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch is a stored reconciliation run.
type Batch struct {
	BatchID   string    `json:"batchID"`   // Primary Key
	AsOf      time.Time `json:"asOf"`      // Batch timestamp
	Report    []byte    `json:"report"`    // JSONB summary of the run
	CreatedAt time.Time `json:"createdAt"` // Row insert time
}

// Match is a stored pairing of one transaction from each side.
type Match struct {
	MatchID        string    `json:"matchID"` // Primary Key, stable across batches
	BatchID        string    `json:"batchID"` // FK -> Batch.batchID
	MatchType      string    `json:"matchType"`
	Confidence     float64   `json:"confidence"`
	ReviewRequired bool      `json:"reviewRequired"`
	Fields         []byte    `json:"fields"`        // JSONB
	TieBreakTrail  []byte    `json:"tieBreakTrail"` // JSONB
	TransactionA   []byte    `json:"transactionA"`  // JSONB copy of the A leg
	TransactionB   []byte    `json:"transactionB"`  // JSONB copy of the B leg
	CreatedAt      time.Time `json:"createdAt"`
}

// MatchLeg marks a transaction as consumed by a match.
type MatchLeg struct {
	Side       string `json:"side"`
	Source     string `json:"source"`
	ExternalID string `json:"externalID"`
	MatchID    string `json:"matchID"` // FK -> Match.matchID
}

// Exception is a stored break.
type Exception struct {
	ExceptionID       string              `json:"exceptionID"` // Primary Key
	BatchID           string              `json:"batchID"`     // FK -> Batch.batchID
	Seq               int                 `json:"seq"`         // Emission order within the batch
	MatchID           *string             `json:"matchID"`     // Nullable for single-sided breaks
	BreakType         string              `json:"breakType"`
	Severity          string              `json:"severity"`
	SubReason         string              `json:"subReason"`
	Detail            []byte              `json:"detail"` // JSONB, shape depends on BreakType
	Diffs             []byte              `json:"diffs"`  // JSONB
	Impact            decimal.Decimal     `json:"impact"`
	Currency          string              `json:"currency"`
	ReportingImpact   decimal.NullDecimal `json:"reportingImpact"`
	ReportingCurrency string              `json:"reportingCurrency"`
	Confidence        *float64            `json:"confidence"`
	Status            string              `json:"status"`
	Transactions      []byte              `json:"transactions"` // JSONB
	Annotation        string              `json:"annotation"`
	CreatedAt         time.Time           `json:"createdAt"`
}

// ReferenceRate stores a configured FX rate for one date.
type ReferenceRate struct {
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	DateEffective    time.Time       `json:"dateEffective"`
	LastUpdatedAt    time.Time       `json:"lastUpdatedAt"`
}
