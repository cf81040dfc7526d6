package engine

import (
	"errors"
	"strings"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/go-playground/validator/v10"
)

// screenRecords splits one side into accepted transactions and rejections.
// A record is rejected when it lacks an external id, amount, currency or
// every date, or when it repeats the source and external id of an earlier
// accepted record. Garbled identifiers and coupon terms are left to the
// matchers and detectors.
func (e *Engine) screenRecords(side domain.Side, txs []domain.Transaction) ([]domain.Transaction, []domain.RecordError) {
	accepted := make([]domain.Transaction, 0, len(txs))
	var rejected []domain.RecordError
	seen := make(map[string]struct{}, len(txs))

	for i, tx := range txs {
		if errs := e.checkRecord(side, i, tx); len(errs) > 0 {
			rejected = append(rejected, errs...)
			continue
		}
		key := tx.Ref(side).Key()
		if _, dup := seen[key]; dup {
			rejected = append(rejected, domain.RecordError{
				Side: side, Index: i, ExternalID: tx.ExternalID,
				Field: "externalId", Reason: "duplicate external id within source",
			})
			continue
		}
		seen[key] = struct{}{}
		accepted = append(accepted, tx)
	}
	return accepted, rejected
}

func (e *Engine) checkRecord(side domain.Side, index int, tx domain.Transaction) []domain.RecordError {
	err := e.validate.Struct(tx)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []domain.RecordError{{Side: side, Index: index, ExternalID: tx.ExternalID, Field: "", Reason: err.Error()}}
	}
	out := make([]domain.RecordError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, domain.RecordError{
			Side:       side,
			Index:      index,
			ExternalID: tx.ExternalID,
			Field:      strings.TrimPrefix(fe.Namespace(), "Transaction."),
			Reason:     reason(fe),
		})
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "missing"
	case "iso4217":
		return "not an ISO 4217 currency code"
	}
	return "failed " + fe.Tag()
}
