// Package fraud implements the parallel multi-rule fraud evaluator: IBAN
// checksum validation, risky-IBAN lookup, duplicate-invoice detection,
// amount-manipulation detection, and velocity anomaly detection, their
// score aggregation, and the tiered ALLOW/REVIEW/BLOCK decision.
package fraud

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decision is the tiered outcome of a fraud check.
type Decision string

const (
	DecisionAllow  Decision = "ALLOW"
	DecisionReview Decision = "REVIEW"
	DecisionBlock  Decision = "BLOCK"
)

// Request is the input to a single fraud check.
type Request struct {
	IBAN          string
	Amount        decimal.Decimal
	VendorID      int64
	InvoiceNumber string
}

// Result is the output of a fraud check: decision, score, and the ordered
// list of human-readable risk factors that contributed to it.
type Result struct {
	Decision    Decision
	Score       int
	RiskFactors []string
}

// scoringDeadline is the hard wall-clock budget for the rule fan-out/join.
// Rules that have not reported by this deadline contribute 0 points.
const scoringDeadline = 150 * time.Millisecond

// velocityWindow is the sliding window used by the velocity rule and its
// post-scoring markers.
const velocityWindow = 15 * time.Minute

// velocityIBANThreshold and velocityVendorThreshold are the invoice counts
// within velocityWindow that trigger the velocity rule for, respectively,
// a single IBAN and a single vendor across all its IBANs.
const (
	velocityIBANThreshold   = 5
	velocityVendorThreshold = 10
)

// decide maps a score to the tiered decision, with boundaries closed on the
// lower side: exactly 30 is ALLOW, exactly 70 is REVIEW.
func decide(score int) Decision {
	switch {
	case score <= 30:
		return DecisionAllow
	case score <= 70:
		return DecisionReview
	default:
		return DecisionBlock
	}
}

// clampScore keeps the aggregated score within [0, 100].
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
