package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IdentifierField names one of the supported security identifier schemes.
type IdentifierField string

const (
	ISIN  IdentifierField = "isin"
	CUSIP IdentifierField = "cusip"
	SEDOL IdentifierField = "sedol"
)

// IdentifierFields lists the schemes in comparison priority order.
var IdentifierFields = []IdentifierField{ISIN, CUSIP, SEDOL}

// SecurityIDs holds whichever identifiers the source supplied. Any subset may be empty.
type SecurityIDs struct {
	ISIN  string `json:"isin,omitempty" yaml:"isin,omitempty"`
	CUSIP string `json:"cusip,omitempty" yaml:"cusip,omitempty"`
	SEDOL string `json:"sedol,omitempty" yaml:"sedol,omitempty"`
}

// Get returns the identifier for field, or "" if absent.
func (s SecurityIDs) Get(field IdentifierField) string {
	switch field {
	case ISIN:
		return s.ISIN
	case CUSIP:
		return s.CUSIP
	case SEDOL:
		return s.SEDOL
	}
	return ""
}

// IsEmpty reports whether no identifier is present.
func (s SecurityIDs) IsEmpty() bool {
	return s.ISIN == "" && s.CUSIP == "" && s.SEDOL == ""
}

// Coupon carries the fixed-income fields of a coupon-bearing transaction.
type Coupon struct {
	Rate            decimal.Decimal  `json:"rate" yaml:"rate"`           // Annual rate as a fraction (0.05 = 5%)
	DayCount        string           `json:"dayCount" yaml:"dayCount"`   // e.g. "30/360", "ACT/ACT"
	Frequency       int              `json:"frequency" yaml:"frequency"` // Payments per year, defaults to 2
	LastPaymentDate *time.Time       `json:"lastPaymentDate,omitempty" yaml:"lastPaymentDate,omitempty"`
	PaymentDate     *time.Time       `json:"paymentDate,omitempty" yaml:"paymentDate,omitempty"`
	MaturityDate    *time.Time       `json:"maturityDate,omitempty" yaml:"maturityDate,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty" yaml:"amount,omitempty"` // Recorded accrued/coupon amount; falls back to the transaction amount
}

// PaymentsPerYear returns Frequency, defaulting to semi-annual.
func (c Coupon) PaymentsPerYear() int {
	if c.Frequency == 0 {
		return 2
	}
	return c.Frequency
}

// Transaction is a normalized record from one source. The engine never modifies one.
type Transaction struct {
	ExternalID     string           `json:"externalId" yaml:"externalId" validate:"required"`
	Source         string           `json:"source,omitempty" yaml:"source,omitempty"` // Source tag, e.g. "ledger", "custodian"
	Amount         *decimal.Decimal `json:"amount" yaml:"amount" validate:"required"`
	Currency       string           `json:"currency" yaml:"currency" validate:"required,iso4217"`
	Securities     SecurityIDs      `json:"securities" yaml:"securities"`
	TradeDate      *time.Time       `json:"tradeDate,omitempty" yaml:"tradeDate,omitempty" validate:"required_without=SettlementDate"`
	SettlementDate *time.Time       `json:"settlementDate,omitempty" yaml:"settlementDate,omitempty" validate:"required_without=TradeDate"`
	Price          *decimal.Decimal `json:"price,omitempty" yaml:"price,omitempty"`
	Quantity       *decimal.Decimal `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Notional       *decimal.Decimal `json:"notional,omitempty" yaml:"notional,omitempty"`
	FXRate         *decimal.Decimal `json:"fxRate,omitempty" yaml:"fxRate,omitempty"`             // Units of BaseCurrency per unit of Currency
	BaseCurrency   string           `json:"baseCurrency,omitempty" yaml:"baseCurrency,omitempty"` // Quote side of FXRate
	AssetClass     string           `json:"assetClass,omitempty" yaml:"assetClass,omitempty"`     // Drives the expected settlement cycle
	SecurityType   string           `json:"securityType,omitempty" yaml:"securityType,omitempty"` // Drives the price tolerance band
	Coupon         *Coupon          `json:"coupon,omitempty" yaml:"coupon,omitempty"`
}

// PrimaryDate is the trade date, falling back to the settlement date.
func (t Transaction) PrimaryDate() (time.Time, bool) {
	if t.TradeDate != nil {
		return *t.TradeDate, true
	}
	if t.SettlementDate != nil {
		return *t.SettlementDate, true
	}
	return time.Time{}, false
}

// AmountValue returns the amount, or zero when it is missing.
func (t Transaction) AmountValue() decimal.Decimal {
	if t.Amount == nil {
		return decimal.Zero
	}
	return *t.Amount
}

// NotionalValue returns the notional, falling back to the amount.
func (t Transaction) NotionalValue() decimal.Decimal {
	if t.Notional != nil {
		return *t.Notional
	}
	return t.AmountValue()
}

// Ref builds a reference to t as read from side.
func (t Transaction) Ref(side Side) TransactionRef {
	return TransactionRef{Side: side, Source: t.Source, ExternalID: t.ExternalID}
}
