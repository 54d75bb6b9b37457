package fraud

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskshield/fraudguard/internal/kv"
)

// RuleResult is the outcome of one rule's evaluation: the points it
// contributes and, if triggered, the risk-factor message. An error is
// reported for metrics/logging only — a rule that errors contributes 0
// points and no factor (fail-open).
type RuleResult struct {
	Points int
	Factor string
	Err    error
}

// Rule is one of the five independent fraud checks.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, req Request) RuleResult
}

// amountThresholds are the named round-number thresholds amount-manipulation
// checks against. The margin around each threshold is fixed at [T-50, T+1].
var amountThresholds = []decimal.Decimal{
	decimal.NewFromInt(999),
	decimal.NewFromInt(1999),
	decimal.NewFromInt(4999),
	decimal.NewFromInt(9999),
	decimal.NewFromInt(14999),
	decimal.NewFromInt(19999),
	decimal.NewFromInt(49999),
}

var (
	amountMarginLow  = decimal.NewFromInt(50)
	amountMarginHigh = decimal.NewFromInt(1)
)

// DuplicateRule detects an invoice number already seen within 24h, using the
// KV store's set-if-absent primitive as the sole mutator.
type DuplicateRule struct {
	kv kv.Client
}

func NewDuplicateRule(kvClient kv.Client) *DuplicateRule { return &DuplicateRule{kv: kvClient} }

func (r *DuplicateRule) Name() string { return "duplicate_invoice" }

func (r *DuplicateRule) Evaluate(ctx context.Context, req Request) RuleResult {
	key := "fraud:duplicate:" + req.InvoiceNumber
	fresh, err := r.kv.SetNX(ctx, key, "1", 24*time.Hour)
	if err != nil {
		// Prefer false-negative over false-positive on infrastructure error:
		// never treat as duplicate on a KV failure.
		return RuleResult{Err: fmt.Errorf("duplicate check: %w", err)}
	}
	if fresh {
		return RuleResult{}
	}
	return RuleResult{Points: 50, Factor: "Duplicate invoice detected within 24 hours"}
}

// InvalidIBANRule flags IBANs that fail the syntactic/checksum validator.
type InvalidIBANRule struct {
	validator *IBANValidator
}

func NewInvalidIBANRule(validator *IBANValidator) *InvalidIBANRule {
	return &InvalidIBANRule{validator: validator}
}

func (r *InvalidIBANRule) Name() string { return "invalid_iban" }

func (r *InvalidIBANRule) Evaluate(ctx context.Context, req Request) RuleResult {
	valid, reason := r.validator.ValidateCached(ctx, req.IBAN)
	if valid {
		return RuleResult{}
	}
	return RuleResult{Points: 50, Factor: fmt.Sprintf("Invalid IBAN: %s", reason)}
}

// RiskyIBANLookup resolves whether an IBAN is flagged risky in the registry,
// consulted by RiskyIBANRule once the KV cache misses.
type RiskyIBANLookup interface {
	IsRisky(ctx context.Context, iban string) (bool, error)
}

// RiskyIBANRule flags IBANs the registry marks risky, cached 4h in the KV
// store ahead of the durable lookup.
type RiskyIBANRule struct {
	kv       kv.Client
	registry RiskyIBANLookup
	logger   *slog.Logger
}

func NewRiskyIBANRule(kvClient kv.Client, registry RiskyIBANLookup, logger *slog.Logger) *RiskyIBANRule {
	return &RiskyIBANRule{kv: kvClient, registry: registry, logger: logger}
}

func (r *RiskyIBANRule) Name() string { return "risky_iban" }

func (r *RiskyIBANRule) Evaluate(ctx context.Context, req Request) RuleResult {
	cacheKey := "fraud:risky:iban:" + req.IBAN

	if cached, err := r.kv.Get(ctx, cacheKey); err == nil {
		if cached == "true" {
			return RuleResult{Points: 40, Factor: "IBAN flagged as high-risk in registry"}
		}
		return RuleResult{}
	}

	risky, err := r.registry.IsRisky(ctx, req.IBAN)
	if err != nil {
		return RuleResult{Err: fmt.Errorf("risky iban lookup: %w", err)}
	}

	cacheVal := "false"
	if risky {
		cacheVal = "true"
	}
	if err := r.kv.Set(ctx, cacheKey, cacheVal, 4*time.Hour); err != nil {
		r.logger.Warn("risky iban cache write failed", "error", err)
	}

	if risky {
		return RuleResult{Points: 40, Factor: "IBAN flagged as high-risk in registry"}
	}
	return RuleResult{}
}

// AmountManipulationRule flags amounts sitting just under a common
// round-number threshold. It consults no state.
type AmountManipulationRule struct{}

func NewAmountManipulationRule() *AmountManipulationRule { return &AmountManipulationRule{} }

func (r *AmountManipulationRule) Name() string { return "amount_manipulation" }

func (r *AmountManipulationRule) Evaluate(_ context.Context, req Request) RuleResult {
	for _, t := range amountThresholds {
		low := t.Sub(amountMarginLow)
		high := t.Add(amountMarginHigh)
		if req.Amount.GreaterThanOrEqual(low) && req.Amount.LessThanOrEqual(high) {
			return RuleResult{Points: 30, Factor: "Amount suspiciously close to common threshold"}
		}
	}
	return RuleResult{}
}

// VelocityCounter resolves the durable fallback count used when the KV
// sorted-set read fails.
type VelocityCounter interface {
	CountByIBANSince(ctx context.Context, iban string, since time.Time) (int64, error)
	CountByVendorSince(ctx context.Context, vendorID int64, since time.Time) (int64, error)
}

// VelocityRule flags IBANs or vendors with abnormally many invoices within
// the sliding window. It never mutates state itself — velocity markers are
// written after the fan-out/join completes.
type VelocityRule struct {
	kv      kv.Client
	durable VelocityCounter
	logger  *slog.Logger
}

func NewVelocityRule(kvClient kv.Client, durable VelocityCounter, logger *slog.Logger) *VelocityRule {
	return &VelocityRule{kv: kvClient, durable: durable, logger: logger}
}

func (r *VelocityRule) Name() string { return "velocity" }

func (r *VelocityRule) Evaluate(ctx context.Context, req Request) RuleResult {
	now := time.Now()
	windowStart := now.Add(-velocityWindow)
	min, max := float64(windowStart.UnixMilli()), float64(now.UnixMilli())

	ibanCount, ibanErr := r.countSince(ctx, "fraud:velocity:iban:"+req.IBAN, min, max, windowStart, func(ctx context.Context, since time.Time) (int64, error) {
		return r.durable.CountByIBANSince(ctx, req.IBAN, since)
	})
	vendorCount, vendorErr := r.countSince(ctx, vendorVelocityKey(req.VendorID), min, max, windowStart, func(ctx context.Context, since time.Time) (int64, error) {
		return r.durable.CountByVendorSince(ctx, req.VendorID, since)
	})

	if ibanCount >= velocityIBANThreshold || vendorCount >= velocityVendorThreshold {
		return RuleResult{Points: 15, Factor: "Unusual transaction velocity detected"}
	}

	if ibanErr != nil {
		return RuleResult{Err: fmt.Errorf("velocity check: %w", ibanErr)}
	}
	if vendorErr != nil {
		return RuleResult{Err: fmt.Errorf("velocity check: %w", vendorErr)}
	}
	return RuleResult{}
}

// countSince counts events in the KV sorted set within [min, max], falling
// back to the durable counter when the KV read fails.
func (r *VelocityRule) countSince(ctx context.Context, key string, min, max float64, since time.Time, fallback func(context.Context, time.Time) (int64, error)) (int64, error) {
	count, err := r.kv.ZCount(ctx, key, min, max)
	if err == nil {
		return count, nil
	}
	return fallback(ctx, since)
}
