package currency

import (
	"database/sql"
	"fmt"
)

// Repository reads exchange rates resolved for the current run from the
// portfolio database. It satisfies RateProvider.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new exchange rate repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Rate returns the conversion rate from currency into base.
func (r *Repository) Rate(currency, base string) (float64, error) {
	var rate float64
	err := r.db.QueryRow(
		`SELECT rate FROM exchange_rates WHERE currency = ? AND base = ?`,
		currency, base,
	).Scan(&rate)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("no stored rate for %s/%s", currency, base)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query rate for %s/%s: %w", currency, base, err)
	}
	return rate, nil
}
