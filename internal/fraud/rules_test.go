package fraud

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskshield/fraudguard/internal/kv"
)

func testRequest() Request {
	return Request{
		IBAN:          "BG80BNBG96611020345678",
		Amount:        decimal.NewFromInt(100),
		VendorID:      1,
		InvoiceNumber: "INV-1001",
	}
}

func TestDuplicateRule(t *testing.T) {
	mem := kv.NewMemory()
	rule := NewDuplicateRule(mem)
	ctx := context.Background()
	req := testRequest()

	res := rule.Evaluate(ctx, req)
	assert.Zero(t, res.Points)
	assert.NoError(t, res.Err)

	// Second check for the same invoice number within the window triggers.
	res = rule.Evaluate(ctx, req)
	assert.Equal(t, 50, res.Points)
	assert.NotEmpty(t, res.Factor)
}

func TestDuplicateRule_FailsOpenOnKVError(t *testing.T) {
	mem := kv.NewMemory()
	mem.FailNext = 1
	rule := NewDuplicateRule(mem)

	res := rule.Evaluate(context.Background(), testRequest())
	assert.Zero(t, res.Points)
	assert.Error(t, res.Err)
}

func TestInvalidIBANRule(t *testing.T) {
	mem := kv.NewMemory()
	validator := NewIBANValidator(mem, slog.Default())
	rule := NewInvalidIBANRule(validator)

	good := testRequest()
	res := rule.Evaluate(context.Background(), good)
	assert.Zero(t, res.Points)

	bad := testRequest()
	bad.IBAN = "not-an-iban"
	res = rule.Evaluate(context.Background(), bad)
	assert.Equal(t, 50, res.Points)
	assert.Contains(t, res.Factor, "Invalid IBAN")
}

type fakeRiskyLookup struct {
	risky map[string]bool
	err   error
}

func (f *fakeRiskyLookup) IsRisky(_ context.Context, iban string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.risky[iban], nil
}

func TestRiskyIBANRule_CacheHitAndMiss(t *testing.T) {
	mem := kv.NewMemory()
	registry := &fakeRiskyLookup{risky: map[string]bool{"BG80BNBG96611020345678": true}}
	rule := NewRiskyIBANRule(mem, registry, slog.Default())
	ctx := context.Background()
	req := testRequest()

	// First call misses the KV cache, consults the registry, caches the result.
	res := rule.Evaluate(ctx, req)
	assert.Equal(t, 40, res.Points)

	cached, err := mem.Get(ctx, "fraud:risky:iban:"+req.IBAN)
	require.NoError(t, err)
	assert.Equal(t, "true", cached)

	// Second call hits the cache without consulting the registry again.
	registry.err = errFake
	res = rule.Evaluate(ctx, req)
	assert.Equal(t, 40, res.Points)
	assert.NoError(t, res.Err)
}

var errFake = errors.New("fraud: fake infrastructure failure")

func TestRiskyIBANRule_RegistryErrorFailsOpen(t *testing.T) {
	mem := kv.NewMemory()
	registry := &fakeRiskyLookup{err: errFake}
	rule := NewRiskyIBANRule(mem, registry, slog.Default())

	res := rule.Evaluate(context.Background(), testRequest())
	assert.Zero(t, res.Points)
	assert.Error(t, res.Err)
}

func TestAmountManipulationRule(t *testing.T) {
	rule := NewAmountManipulationRule()

	tests := []struct {
		name    string
		amount  string
		trigger bool
	}{
		{name: "well under any threshold", amount: "100.00", trigger: false},
		{name: "4949 at low edge of 4999 margin", amount: "4949", trigger: true},
		{name: "4948 just outside low margin", amount: "4948", trigger: false},
		{name: "5000 at high edge of 4999 margin", amount: "5000", trigger: true},
		{name: "5001 just outside high margin", amount: "5001", trigger: false},
		{name: "exactly on threshold", amount: "4999", trigger: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			req.Amount = decimal.RequireFromString(tt.amount)
			res := rule.Evaluate(context.Background(), req)
			if tt.trigger {
				assert.Equal(t, 30, res.Points)
			} else {
				assert.Zero(t, res.Points)
			}
		})
	}
}

type fakeVelocityCounter struct {
	ibanCount, vendorCount int64
	err                    error
}

func (f *fakeVelocityCounter) CountByIBANSince(_ context.Context, _ string, _ time.Time) (int64, error) {
	return f.ibanCount, f.err
}

func (f *fakeVelocityCounter) CountByVendorSince(_ context.Context, _ int64, _ time.Time) (int64, error) {
	return f.vendorCount, f.err
}

func TestVelocityRule_BelowThreshold(t *testing.T) {
	mem := kv.NewMemory()
	durable := &fakeVelocityCounter{}
	rule := NewVelocityRule(mem, durable, slog.Default())

	req := testRequest()
	for i := 0; i < 4; i++ {
		member := "INV-" + string(rune('A'+i))
		require.NoError(t, mem.ZAdd(context.Background(), "fraud:velocity:iban:"+req.IBAN, float64(time.Now().UnixMilli()), member))
	}

	res := rule.Evaluate(context.Background(), req)
	assert.Zero(t, res.Points)
}

func TestVelocityRule_AtIBANThreshold(t *testing.T) {
	mem := kv.NewMemory()
	durable := &fakeVelocityCounter{}
	rule := NewVelocityRule(mem, durable, slog.Default())

	req := testRequest()
	for i := 0; i < velocityIBANThreshold; i++ {
		member := "INV-" + string(rune('A'+i))
		require.NoError(t, mem.ZAdd(context.Background(), "fraud:velocity:iban:"+req.IBAN, float64(time.Now().UnixMilli()), member))
	}

	res := rule.Evaluate(context.Background(), req)
	assert.Equal(t, 15, res.Points)
}

func TestVelocityRule_AtVendorThreshold(t *testing.T) {
	mem := kv.NewMemory()
	durable := &fakeVelocityCounter{}
	rule := NewVelocityRule(mem, durable, slog.Default())

	req := testRequest()
	for i := 0; i < 10; i++ {
		member := "INV-" + string(rune('A'+i))
		require.NoError(t, mem.ZAdd(context.Background(), vendorVelocityKey(req.VendorID), float64(time.Now().UnixMilli()), member))
	}

	res := rule.Evaluate(context.Background(), req)
	assert.Equal(t, 15, res.Points)
}

func TestVelocityRule_BelowVendorThreshold(t *testing.T) {
	mem := kv.NewMemory()
	durable := &fakeVelocityCounter{}
	rule := NewVelocityRule(mem, durable, slog.Default())

	req := testRequest()
	for i := 0; i < 9; i++ {
		member := "INV-" + string(rune('A'+i))
		require.NoError(t, mem.ZAdd(context.Background(), vendorVelocityKey(req.VendorID), float64(time.Now().UnixMilli()), member))
	}

	res := rule.Evaluate(context.Background(), req)
	assert.Zero(t, res.Points)
}

func TestVelocityRule_FallsBackToDurableOnKVError(t *testing.T) {
	mem := kv.NewMemory()
	mem.FailNext = 2 // both ZCount calls fail
	durable := &fakeVelocityCounter{vendorCount: 10}
	rule := NewVelocityRule(mem, durable, slog.Default())

	res := rule.Evaluate(context.Background(), testRequest())
	assert.Equal(t, 15, res.Points)
}

func TestVelocityRule_ErrorsOnBothStoresFailing(t *testing.T) {
	mem := kv.NewMemory()
	mem.FailNext = 1
	durable := &fakeVelocityCounter{err: errFake}
	rule := NewVelocityRule(mem, durable, slog.Default())

	res := rule.Evaluate(context.Background(), testRequest())
	assert.Zero(t, res.Points)
	assert.Error(t, res.Err)
}
