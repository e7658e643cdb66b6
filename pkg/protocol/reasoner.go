package protocol

import "context"

// ReasonedMatch is the answer of the reasoning service for one fuzzy
// comparison: a verdict plus a short justification.
type ReasonedMatch struct {
	Match  bool   `json:"match"`
	Reason string `json:"reason"`
}

// Reasoner performs instruction-guided fuzzy string comparison. The engine
// treats any error as "service unavailable" and falls back to a deterministic
// exact-match comparison.
type Reasoner interface {
	Compare(ctx context.Context, extracted, reference, instructions string) (ReasonedMatch, error)
}
