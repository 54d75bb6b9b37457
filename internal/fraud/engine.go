package fraud

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/riskshield/fraudguard/internal/kv"
	"github.com/riskshield/fraudguard/internal/store"
	"github.com/riskshield/fraudguard/internal/telemetry"
)

// TransactionRecord is the immutable record persisted for every fraud check.
type TransactionRecord struct {
	CorrelationID uuid.UUID
	IBAN          string
	Amount        string // decimal string, stored verbatim
	VendorID      int64
	InvoiceNumber string
	Score         int
	Decision      Decision
	RiskFactors   []string
	CreatedAt     time.Time
}

// TransactionStore persists the transaction record emitted by every check.
// Persistence failures are logged but never change the returned response.
type TransactionStore interface {
	Create(ctx context.Context, rec TransactionRecord) error
}

// VendorLookup resolves the read-only vendor record referenced by a check
// request, consulted after scoring for risk-bucket observability. It is
// optional: a nil VendorLookup simply skips the lookup.
type VendorLookup interface {
	Get(ctx context.Context, vendorID int64) (store.Vendor, error)
}

// Engine runs the five fraud rules concurrently, aggregates their points,
// decides ALLOW/REVIEW/BLOCK, and records post-scoring state.
type Engine struct {
	rules        []Rule
	kv           kv.Client
	transactions TransactionStore
	vendors      VendorLookup
	logger       *slog.Logger
}

// NewEngine builds the engine with the five rules in their canonical order
// (duplicate, invalid IBAN, risky IBAN, amount manipulation, velocity) —
// risk factors are always composed in this order regardless of which
// goroutine finishes first. vendors may be nil if vendor risk-bucket
// observability is not wired.
func NewEngine(rules []Rule, kvClient kv.Client, transactions TransactionStore, vendors VendorLookup, logger *slog.Logger) *Engine {
	return &Engine{rules: rules, kv: kvClient, transactions: transactions, vendors: vendors, logger: logger}
}

type ruleOutcome struct {
	index  int
	result RuleResult
}

// Check fans the five rules out onto goroutines, joins them with a 150ms
// hard deadline, aggregates the score, decides, records velocity markers,
// and persists a transaction record. Rules that miss the deadline
// contribute 0 points and are never waited on further; any work they
// finish afterward is discarded.
func (e *Engine) Check(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	defer func() { telemetry.FraudScoreDuration.Observe(time.Since(start).Seconds()) }()

	outcomes := make(chan ruleOutcome, len(e.rules))
	for i, rule := range e.rules {
		go func(idx int, rl Rule) {
			outcomes <- ruleOutcome{index: idx, result: rl.Evaluate(ctx, req)}
		}(i, rule)
	}

	results := make([]RuleResult, len(e.rules))
	reported := make([]bool, len(e.rules))

	deadline := time.NewTimer(scoringDeadline)
	defer deadline.Stop()

	pending := len(e.rules)
collect:
	for pending > 0 {
		select {
		case o := <-outcomes:
			results[o.index] = o.result
			reported[o.index] = true
			pending--
		case <-deadline.C:
			break collect
		}
	}

	score := 0
	factors := make([]string, 0, len(e.rules))
	for i, rule := range e.rules {
		if !reported[i] {
			telemetry.FraudRuleTimeoutTotal.WithLabelValues(rule.Name()).Inc()
			continue
		}
		res := results[i]
		if res.Err != nil {
			telemetry.FraudRuleErrorTotal.WithLabelValues(rule.Name()).Inc()
			e.logger.Warn("fraud rule failed open", "rule", rule.Name(), "error", res.Err)
			continue
		}
		if res.Points > 0 {
			telemetry.FraudRuleTriggeredTotal.WithLabelValues(rule.Name()).Inc()
			score += res.Points
			factors = append(factors, res.Factor)
		}
	}
	score = clampScore(score)
	decision := decide(score)
	telemetry.FraudDecisionsTotal.WithLabelValues(string(decision)).Inc()

	e.recordVelocity(context.WithoutCancel(ctx), req)
	e.persist(context.WithoutCancel(ctx), req, score, decision, factors)
	e.recordVendorRiskBucket(context.WithoutCancel(ctx), req, decision)

	return Result{Decision: decision, Score: score, RiskFactors: factors}, nil
}

// recordVendorRiskBucket looks up the vendor's registry risk bucket and
// tags the decision with it for observability. Lookup failures (including
// no VendorLookup configured) are logged and otherwise ignored — vendor
// data is a read-only input, never a gate on the response.
func (e *Engine) recordVendorRiskBucket(ctx context.Context, req Request, decision Decision) {
	if e.vendors == nil {
		return
	}
	vendor, err := e.vendors.Get(ctx, req.VendorID)
	if err != nil {
		e.logger.Warn("vendor lookup failed", "vendor_id", req.VendorID, "error", err)
		return
	}
	telemetry.FraudVendorRiskDecisionsTotal.WithLabelValues(vendor.RiskBucket, string(decision)).Inc()
}

// recordVelocity appends this invoice to the IBAN and vendor velocity sorted
// sets and resets their TTL. This is the post-scoring step: it runs
// regardless of decision and is not gated by the scoring deadline.
func (e *Engine) recordVelocity(ctx context.Context, req Request) {
	nowMs := float64(time.Now().UnixMilli())

	ibanKey := "fraud:velocity:iban:" + req.IBAN
	if err := e.kv.ZAdd(ctx, ibanKey, nowMs, req.InvoiceNumber); err != nil {
		e.logger.Warn("velocity marker write failed", "namespace", "iban", "error", err)
	} else if err := e.kv.Expire(ctx, ibanKey, velocityWindow); err != nil {
		e.logger.Warn("velocity ttl reset failed", "namespace", "iban", "error", err)
	}

	vendorKey := vendorVelocityKey(req.VendorID)
	if err := e.kv.ZAdd(ctx, vendorKey, nowMs, req.InvoiceNumber); err != nil {
		e.logger.Warn("velocity marker write failed", "namespace", "vendor", "error", err)
	} else if err := e.kv.Expire(ctx, vendorKey, velocityWindow); err != nil {
		e.logger.Warn("velocity ttl reset failed", "namespace", "vendor", "error", err)
	}
}

// persist writes the transaction record. Failure is logged only: the
// decision has already been communicated to the caller.
func (e *Engine) persist(ctx context.Context, req Request, score int, decision Decision, factors []string) {
	rec := TransactionRecord{
		CorrelationID: uuid.New(),
		IBAN:          req.IBAN,
		Amount:        req.Amount.String(),
		VendorID:      req.VendorID,
		InvoiceNumber: req.InvoiceNumber,
		Score:         score,
		Decision:      decision,
		RiskFactors:   factors,
		CreatedAt:     time.Now().UTC(),
	}
	if err := e.transactions.Create(ctx, rec); err != nil {
		e.logger.Error("persisting transaction record failed", "invoice", req.InvoiceNumber, "error", err)
	}
}

func vendorVelocityKey(vendorID int64) string {
	return "fraud:velocity:vendor:" + strconv.FormatInt(vendorID, 10)
}
