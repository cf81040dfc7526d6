package engine

import (
	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/SscSPs/recon_engine/internal/core/matching"
)

func buildReport(batch domain.Batch, rejected []domain.RecordError, exact matching.ExactResult, fuzzy matching.FuzzyResult, exceptions []domain.Exception) domain.BatchReport {
	report := domain.BatchReport{
		TotalA:               len(batch.SourceA),
		TotalB:               len(batch.SourceB),
		Rejected:             rejected,
		ExactMatches:         len(exact.Pairs),
		FuzzyMatches:         len(fuzzy.Pairs),
		UnmatchedA:           len(fuzzy.UnmatchedA),
		UnmatchedB:           len(fuzzy.UnmatchedB),
		AmbiguousTies:        fuzzy.AmbiguousTies,
		ExceptionsByType:     make(map[domain.BreakType]int),
		ExceptionsBySeverity: make(map[domain.Severity]int),
	}
	if report.Rejected == nil {
		report.Rejected = []domain.RecordError{}
	}
	for _, p := range fuzzy.Pairs {
		if p.Review {
			report.ReviewMatches++
		}
	}
	for _, exc := range exceptions {
		report.ExceptionsByType[exc.Type]++
		report.ExceptionsBySeverity[exc.Severity]++
	}
	return report
}
