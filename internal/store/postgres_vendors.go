package store

import (
	"context"
	"fmt"
)

// Get looks up a vendor by ID, satisfying VendorStore.
func (p *Postgres) Get(ctx context.Context, vendorID int64) (Vendor, error) {
	var v Vendor
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, iban, risk_bucket, active, total_count, flagged_count
		 FROM vendors WHERE id = $1`,
		vendorID,
	).Scan(&v.ID, &v.Name, &v.IBAN, &v.RiskBucket, &v.Active, &v.TotalCount, &v.FlaggedCount)
	if err != nil {
		return Vendor{}, fmt.Errorf("looking up vendor %d: %w", vendorID, err)
	}
	return v, nil
}
