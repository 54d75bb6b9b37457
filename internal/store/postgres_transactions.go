package store

import (
	"context"
	"fmt"
	"time"

	"github.com/riskshield/fraudguard/internal/fraud"
)

// Create persists a transaction record, satisfying fraud.TransactionStore
// structurally — store imports fraud for the record type, fraud never
// imports store.
func (p *Postgres) Create(ctx context.Context, rec fraud.TransactionRecord) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO transactions
			(correlation_id, iban, amount, vendor_id, invoice_number, score, decision, risk_factors, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.CorrelationID, rec.IBAN, rec.Amount, rec.VendorID, rec.InvoiceNumber,
		rec.Score, string(rec.Decision), rec.RiskFactors, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting transaction record for invoice %q: %w", rec.InvoiceNumber, err)
	}
	return nil
}

// CountByIBANSince is the durable fallback for the velocity rule's IBAN
// count when the KV sorted-set read fails, satisfying fraud.VelocityCounter.
func (p *Postgres) CountByIBANSince(ctx context.Context, iban string, since time.Time) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM transactions WHERE iban = $1 AND created_at >= $2`,
		iban, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting transactions by iban since %s: %w", since, err)
	}
	return count, nil
}

// CountByVendorSince is the durable fallback for the velocity rule's vendor
// count, satisfying fraud.VelocityCounter.
func (p *Postgres) CountByVendorSince(ctx context.Context, vendorID int64, since time.Time) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM transactions WHERE vendor_id = $1 AND created_at >= $2`,
		vendorID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting transactions by vendor since %s: %w", since, err)
	}
	return count, nil
}
