package domain

import (
	"strings"

	"github.com/google/uuid"
)

// idNamespace scopes every deterministic id this service derives.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:recon-engine"))

// DeriveID returns a name-based (v5) UUID over parts, so identical inputs
// always produce the same id.
func DeriveID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "\x1f"))).String()
}

// MatchID depends only on the two legs, so re-running a pair set yields the same id.
func MatchID(a, b TransactionRef) string {
	return DeriveID("match", a.Key(), b.Key())
}

// ExceptionID is keyed on what the exception is about (a match id or a
// transaction ref key) and its type.
func ExceptionID(anchor string, t BreakType) string {
	return DeriveID("exception", anchor, string(t))
}

// BatchID derives a batch id from the ordered input references.
func BatchID(a, b []Transaction) string {
	parts := make([]string, 0, len(a)+len(b)+1)
	parts = append(parts, "batch")
	for _, t := range a {
		parts = append(parts, t.Ref(SideA).Key())
	}
	for _, t := range b {
		parts = append(parts, t.Ref(SideB).Key())
	}
	return DeriveID(parts...)
}
