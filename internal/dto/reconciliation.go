package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// dateLayout is the preferred wire format for dates. RFC 3339 timestamps are also accepted.
const dateLayout = "2006-01-02"

// SecurityIDsDTO carries the optional security identifiers of a transaction.
type SecurityIDsDTO struct {
	ISIN  string `json:"isin,omitempty" example:"US0378331005"`
	CUSIP string `json:"cusip,omitempty" example:"037833100"`
	SEDOL string `json:"sedol,omitempty" example:"2046251"`
}

// CouponDTO carries fixed-income coupon terms.
type CouponDTO struct {
	Rate            decimal.Decimal  `json:"rate" swaggertype:"string" example:"0.05"`
	DayCount        string           `json:"dayCount" example:"30/360"`
	Frequency       int              `json:"frequency,omitempty" example:"2"`
	LastPaymentDate string           `json:"lastPaymentDate,omitempty" example:"2024-01-01"`
	PaymentDate     string           `json:"paymentDate,omitempty" example:"2024-04-01"`
	MaturityDate    string           `json:"maturityDate,omitempty" example:"2029-01-01"`
	Amount          *decimal.Decimal `json:"amount,omitempty" swaggertype:"string" example:"12500"`
}

// TransactionDTO is one normalized transaction as received on the wire.
// Field-level problems are reported per record in the batch report rather
// than failing the request, except for dates that cannot be parsed at all.
type TransactionDTO struct {
	ExternalID     string           `json:"externalId" example:"T-1001"`
	Source         string           `json:"source,omitempty" example:"custodian"`
	Amount         *decimal.Decimal `json:"amount" swaggertype:"string" example:"250000.00"`
	Currency       string           `json:"currency" example:"USD"`
	Securities     SecurityIDsDTO   `json:"securities"`
	TradeDate      string           `json:"tradeDate,omitempty" example:"2024-01-15"`
	SettlementDate string           `json:"settlementDate,omitempty" example:"2024-01-17"`
	Price          *decimal.Decimal `json:"price,omitempty" swaggertype:"string" example:"150.25"`
	Quantity       *decimal.Decimal `json:"quantity,omitempty" swaggertype:"string" example:"100"`
	Notional       *decimal.Decimal `json:"notional,omitempty" swaggertype:"string"`
	FXRate         *decimal.Decimal `json:"fxRate,omitempty" swaggertype:"string" example:"1.0850"`
	BaseCurrency   string           `json:"baseCurrency,omitempty" example:"USD"`
	AssetClass     string           `json:"assetClass,omitempty" example:"equity"`
	SecurityType   string           `json:"securityType,omitempty" example:"common_stock"`
	Coupon         *CouponDTO       `json:"coupon,omitempty"`
}

// ReferenceRateDTO is a same-day FX rate supplied with the request.
type ReferenceRateDTO struct {
	FromCurrency  string          `json:"fromCurrency" binding:"required,len=3" example:"EUR"`
	ToCurrency    string          `json:"toCurrency" binding:"required,len=3" example:"USD"`
	Rate          decimal.Decimal `json:"rate" binding:"required" swaggertype:"string" example:"1.10"`
	DateEffective string          `json:"dateEffective" binding:"required" example:"2024-01-15"`
}

// ReferenceDataDTO carries the market data a batch is checked against.
type ReferenceDataDTO struct {
	FXRates      []ReferenceRateDTO           `json:"fxRates,omitempty" binding:"omitempty,dive"`
	PriceHistory map[string][]decimal.Decimal `json:"priceHistory,omitempty" swaggertype:"object"`
}

// ReconcileRequest is the body of a reconciliation run.
type ReconcileRequest struct {
	BatchID   string           `json:"batchId,omitempty" binding:"omitempty,max=128" example:"2024-01-19-eod"`
	AsOf      string           `json:"asOf,omitempty" example:"2024-01-19T18:00:00Z"`
	SourceA   []TransactionDTO `json:"sourceA"`
	SourceB   []TransactionDTO `json:"sourceB"`
	Reference ReferenceDataDTO `json:"reference"`
}

// ToDomain converts the request to a batch. An empty AsOf is left zero for the
// service to stamp.
func (r ReconcileRequest) ToDomain() (domain.Batch, error) {
	batch := domain.Batch{ID: strings.TrimSpace(r.BatchID)}

	asOf, err := parseOptionalTime("asOf", r.AsOf)
	if err != nil {
		return domain.Batch{}, err
	}
	if asOf != nil {
		batch.AsOf = asOf.UTC()
	}

	if batch.SourceA, err = ToDomainTransactions("sourceA", r.SourceA); err != nil {
		return domain.Batch{}, err
	}
	if batch.SourceB, err = ToDomainTransactions("sourceB", r.SourceB); err != nil {
		return domain.Batch{}, err
	}

	for i, rate := range r.Reference.FXRates {
		converted, err := rate.ToDomain(fmt.Sprintf("reference.fxRates[%d]", i))
		if err != nil {
			return domain.Batch{}, err
		}
		batch.Reference.FXRates = append(batch.Reference.FXRates, converted)
	}
	batch.Reference.PriceHistory = r.Reference.PriceHistory
	return batch, nil
}

// ToDomain converts a wire rate; path prefixes error field names.
func (r ReferenceRateDTO) ToDomain(path string) (domain.ReferenceRate, error) {
	effective, err := parseOptionalTime(path+".dateEffective", r.DateEffective)
	if err != nil {
		return domain.ReferenceRate{}, err
	}
	if effective == nil {
		return domain.ReferenceRate{}, apperrors.NewValidationError(path + ".dateEffective is required")
	}
	return domain.ReferenceRate{
		FromCurrency:  strings.ToUpper(r.FromCurrency),
		ToCurrency:    strings.ToUpper(r.ToCurrency),
		Rate:          r.Rate,
		DateEffective: *effective,
	}, nil
}

// ToDomainTransactions converts wire transactions; path prefixes error field names.
func ToDomainTransactions(path string, in []TransactionDTO) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0, len(in))
	for i, t := range in {
		tx, err := t.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", path, i, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

// ToDomain converts one wire transaction.
func (t TransactionDTO) ToDomain() (domain.Transaction, error) {
	tx := domain.Transaction{
		ExternalID: strings.TrimSpace(t.ExternalID),
		Source:     t.Source,
		Amount:     t.Amount,
		Currency:   strings.ToUpper(strings.TrimSpace(t.Currency)),
		Securities: domain.SecurityIDs{
			ISIN:  strings.ToUpper(strings.TrimSpace(t.Securities.ISIN)),
			CUSIP: strings.ToUpper(strings.TrimSpace(t.Securities.CUSIP)),
			SEDOL: strings.ToUpper(strings.TrimSpace(t.Securities.SEDOL)),
		},
		Price:        t.Price,
		Quantity:     t.Quantity,
		Notional:     t.Notional,
		FXRate:       t.FXRate,
		BaseCurrency: strings.ToUpper(strings.TrimSpace(t.BaseCurrency)),
		AssetClass:   t.AssetClass,
		SecurityType: t.SecurityType,
	}

	var err error
	if tx.TradeDate, err = parseOptionalTime("tradeDate", t.TradeDate); err != nil {
		return domain.Transaction{}, err
	}
	if tx.SettlementDate, err = parseOptionalTime("settlementDate", t.SettlementDate); err != nil {
		return domain.Transaction{}, err
	}

	if t.Coupon != nil {
		c := &domain.Coupon{
			Rate:      t.Coupon.Rate,
			DayCount:  t.Coupon.DayCount,
			Frequency: t.Coupon.Frequency,
			Amount:    t.Coupon.Amount,
		}
		if c.LastPaymentDate, err = parseOptionalTime("coupon.lastPaymentDate", t.Coupon.LastPaymentDate); err != nil {
			return domain.Transaction{}, err
		}
		if c.PaymentDate, err = parseOptionalTime("coupon.paymentDate", t.Coupon.PaymentDate); err != nil {
			return domain.Transaction{}, err
		}
		if c.MaturityDate, err = parseOptionalTime("coupon.maturityDate", t.Coupon.MaturityDate); err != nil {
			return domain.Transaction{}, err
		}
		tx.Coupon = c
	}
	return tx, nil
}

func parseOptionalTime(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s: %q is not a date (want YYYY-MM-DD or RFC 3339)", field, value))
	}
	return &t, nil
}

// MatchResponse describes one pairing without repeating the transactions.
type MatchResponse struct {
	ID             string                `json:"id"`
	Type           domain.MatchType      `json:"type"`
	Confidence     float64               `json:"confidence"`
	Fields         []string              `json:"fields"`
	TieBreakTrail  []string              `json:"tieBreakTrail"`
	ReviewRequired bool                  `json:"reviewRequired"`
	A              domain.TransactionRef `json:"a"`
	B              domain.TransactionRef `json:"b"`
}

// ExceptionResponse describes one break.
type ExceptionResponse struct {
	ID                string                  `json:"id"`
	MatchID           string                  `json:"matchId,omitempty"`
	Type              domain.BreakType        `json:"type"`
	Severity          domain.Severity         `json:"severity"`
	SubReason         string                  `json:"subReason,omitempty"`
	Detail            any                     `json:"detail"`
	Diffs             []domain.FieldDiff      `json:"diffs"`
	Impact            decimal.Decimal         `json:"impact" swaggertype:"string"`
	Currency          string                  `json:"currency"`
	ReportingImpact   *decimal.Decimal        `json:"reportingImpact,omitempty" swaggertype:"string"`
	ReportingCurrency string                  `json:"reportingCurrency,omitempty"`
	Confidence        *float64                `json:"confidence,omitempty"`
	Status            domain.ExceptionStatus  `json:"status"`
	Transactions      []domain.TransactionRef `json:"transactions"`
	Annotation        string                  `json:"annotation,omitempty"`
	BatchID           string                  `json:"batchId"`
	CreatedAt         time.Time               `json:"createdAt"`
}

// ReconcileResponse is the outcome of a reconciliation run.
type ReconcileResponse struct {
	BatchID    string              `json:"batchId"`
	AsOf       time.Time           `json:"asOf"`
	Matches    []MatchResponse     `json:"matches"`
	Exceptions []ExceptionResponse `json:"exceptions"`
	Report     domain.BatchReport  `json:"report"`
}

// ListExceptionsParams holds the paging query parameters of an exception listing.
type ListExceptionsParams struct {
	Limit     int     `form:"limit,default=100" binding:"gte=0,lte=1000"`
	NextToken *string `form:"nextToken"`
}

// ListExceptionsResponse wraps one page of the stored exceptions of a batch.
type ListExceptionsResponse struct {
	BatchID    string              `json:"batchId"`
	Exceptions []ExceptionResponse `json:"exceptions"`
	NextToken  *string             `json:"nextToken,omitempty"`
}

// ListReferenceRatesParams selects the stored rates of one day.
type ListReferenceRatesParams struct {
	Date string `form:"date" binding:"required"`
}

// ReferenceRateResponse is a stored reference FX rate.
type ReferenceRateResponse struct {
	FromCurrency  string          `json:"fromCurrency"`
	ToCurrency    string          `json:"toCurrency"`
	Rate          decimal.Decimal `json:"rate" swaggertype:"string"`
	DateEffective string          `json:"dateEffective"`
}

// ListReferenceRatesResponse wraps the rates effective on one day.
type ListReferenceRatesResponse struct {
	Date  string                  `json:"date"`
	Rates []ReferenceRateResponse `json:"rates"`
}

// ToReferenceRateResponse converts a domain ReferenceRate.
func ToReferenceRateResponse(r domain.ReferenceRate) ReferenceRateResponse {
	return ReferenceRateResponse{
		FromCurrency:  r.FromCurrency,
		ToCurrency:    r.ToCurrency,
		Rate:          r.Rate,
		DateEffective: r.DateEffective.Format(dateLayout),
	}
}

// ToListReferenceRatesResponse converts the rates of one day.
func ToListReferenceRatesResponse(date time.Time, rates []domain.ReferenceRate) ListReferenceRatesResponse {
	out := make([]ReferenceRateResponse, len(rates))
	for i, r := range rates {
		out[i] = ToReferenceRateResponse(r)
	}
	return ListReferenceRatesResponse{Date: date.Format(dateLayout), Rates: out}
}

// ParseDate parses a required date in the wire layout.
func ParseDate(field, value string) (time.Time, error) {
	t, err := parseOptionalTime(field, value)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, apperrors.NewValidationError(field + " is required")
	}
	return *t, nil
}

// ToMatchResponse converts a domain Match.
func ToMatchResponse(m domain.Match) MatchResponse {
	return MatchResponse{
		ID:             m.ID,
		Type:           m.Type,
		Confidence:     m.Confidence,
		Fields:         m.Fields,
		TieBreakTrail:  m.TieBreakTrail,
		ReviewRequired: m.ReviewRequired,
		A:              m.A.Ref(domain.SideA),
		B:              m.B.Ref(domain.SideB),
	}
}

// ToExceptionResponse converts a domain Exception.
func ToExceptionResponse(e domain.Exception) ExceptionResponse {
	return ExceptionResponse{
		ID:                e.ID,
		MatchID:           e.MatchID,
		Type:              e.Type,
		Severity:          e.Severity,
		SubReason:         e.SubReason,
		Detail:            e.Detail,
		Diffs:             e.Diffs,
		Impact:            e.Impact,
		Currency:          e.Currency,
		ReportingImpact:   e.ReportingImpact,
		ReportingCurrency: e.ReportingCurrency,
		Confidence:        e.Confidence,
		Status:            e.Status,
		Transactions:      e.Transactions,
		Annotation:        e.Annotation,
		BatchID:           e.BatchID,
		CreatedAt:         e.CreatedAt,
	}
}

// ToListExceptionResponse converts a slice of domain exceptions.
func ToListExceptionResponse(exceptions []domain.Exception) []ExceptionResponse {
	responses := make([]ExceptionResponse, len(exceptions))
	for i, e := range exceptions {
		responses[i] = ToExceptionResponse(e)
	}
	return responses
}

// ToReconcileResponse converts an engine result.
func ToReconcileResponse(r domain.Result) ReconcileResponse {
	matches := make([]MatchResponse, len(r.Matches))
	for i, m := range r.Matches {
		matches[i] = ToMatchResponse(m)
	}
	return ReconcileResponse{
		BatchID:    r.BatchID,
		AsOf:       r.AsOf,
		Matches:    matches,
		Exceptions: ToListExceptionResponse(r.Exceptions),
		Report:     r.Report,
	}
}
