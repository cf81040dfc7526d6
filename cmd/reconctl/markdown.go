package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/SscSPs/recon_engine/internal/core/domain"
	"github.com/charmbracelet/glamour"
)

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "dark")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Warning: could not render markdown:", err)
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// resultMarkdown summarizes a run: counts, then exceptions by severity, then rejected records.
func resultMarkdown(r domain.Result) string {
	var b strings.Builder
	rep := r.Report

	fmt.Fprintf(&b, "# Reconciliation %s\n\n", r.BatchID)
	fmt.Fprintf(&b, "As of %s\n\n", r.AsOf.Format("2006-01-02 15:04 MST"))

	b.WriteString("| | Count |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Side A | %d |\n", rep.TotalA)
	fmt.Fprintf(&b, "| Side B | %d |\n", rep.TotalB)
	fmt.Fprintf(&b, "| Rejected | %d |\n", len(rep.Rejected))
	fmt.Fprintf(&b, "| Exact matches | %d |\n", rep.ExactMatches)
	fmt.Fprintf(&b, "| Fuzzy matches | %d |\n", rep.FuzzyMatches)
	fmt.Fprintf(&b, "| Needing review | %d |\n", rep.ReviewMatches)
	fmt.Fprintf(&b, "| Unmatched A | %d |\n", rep.UnmatchedA)
	fmt.Fprintf(&b, "| Unmatched B | %d |\n", rep.UnmatchedB)
	b.WriteString("\n")

	if len(r.Exceptions) == 0 {
		b.WriteString("No exceptions.\n")
	} else {
		fmt.Fprintf(&b, "## Exceptions (%d)\n\n", len(r.Exceptions))
		b.WriteString("| Severity | Type | Impact | Transactions | Note |\n|---|---|---:|---|---|\n")

		exceptions := append([]domain.Exception(nil), r.Exceptions...)
		sort.SliceStable(exceptions, func(i, j int) bool {
			return exceptions[i].Severity.Rank() > exceptions[j].Severity.Rank()
		})
		for _, e := range exceptions {
			refs := make([]string, len(e.Transactions))
			for i, ref := range e.Transactions {
				refs[i] = string(ref.Side) + ":" + ref.ExternalID
			}
			note := e.SubReason
			if e.Annotation != "" {
				note = e.Annotation
			}
			fmt.Fprintf(&b, "| %s | %s | %s %s | %s | %s |\n",
				e.Severity, e.Type, e.Impact.StringFixed(2), e.Currency, strings.Join(refs, ", "), note)
		}
		b.WriteString("\n")
	}

	if len(rep.Rejected) > 0 {
		fmt.Fprintf(&b, "## Rejected records (%d)\n\n", len(rep.Rejected))
		b.WriteString("| Side | Index | External ID | Field | Reason |\n|---|---:|---|---|---|\n")
		for _, rej := range rep.Rejected {
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n", rej.Side, rej.Index, rej.ExternalID, rej.Field, rej.Reason)
		}
	}
	return b.String()
}
