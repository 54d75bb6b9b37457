package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// IsRisky resolves whether an IBAN is flagged in the registry, satisfying
// fraud.RiskyIBANLookup. An IBAN absent from the registry is not risky.
func (p *Postgres) IsRisky(ctx context.Context, iban string) (bool, error) {
	var risky bool
	err := p.pool.QueryRow(ctx,
		`SELECT risky FROM iban_registry WHERE iban = $1`,
		iban,
	).Scan(&risky)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up iban registry entry for %q: %w", iban, err)
	}
	return risky, nil
}
