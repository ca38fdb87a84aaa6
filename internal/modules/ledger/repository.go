package ledger

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wagnojunior/financial-report/internal/domain"
)

// Repository loads transaction records and portfolio settings from the
// portfolio database.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ledger repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "ledger").Logger(),
	}
}

// Transactions returns every transaction of the given portfolio, ordered by
// date then insertion order.
func (r *Repository) Transactions(portfolio string) ([]domain.Transaction, error) {
	rows, err := r.db.Query(`
		SELECT operation, code, code2, name, type, industry, market, currency,
		       date, quantity, unit_price, amount, broker_fee, tax_fee, exchange_rate
		FROM transactions
		WHERE portfolio = ?
		ORDER BY date, id`, portfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.Operation, &t.Code, &t.Code2, &t.Name, &t.Type, &t.Industry,
			&t.Market, &t.Currency, &t.Date, &t.Quantity, &t.UnitPrice,
			&t.Amount, &t.BrokerFee, &t.TaxFee, &t.ExchangeRate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}

	r.log.Debug().Str("portfolio", portfolio).Int("count", len(txs)).Msg("Loaded transactions")
	return txs, nil
}

// Portfolios lists the names of every configured portfolio.
func (r *Repository) Portfolios() ([]string, error) {
	rows, err := r.db.Query(`SELECT name FROM portfolios ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Settings returns the analysis settings of the given portfolio.
func (r *Repository) Settings(portfolio string) (domain.PortfolioSettings, error) {
	var s domain.PortfolioSettings
	err := r.db.QueryRow(`
		SELECT name, reference_currency, benchmark_symbol, benchmark_name,
		       benchmark_market, day_shift, period_start, period_end, years,
		       num_sim, time_sim, risk_free
		FROM portfolios WHERE name = ?`, portfolio).Scan(
		&s.Name, &s.ReferenceCurrency, &s.Benchmark.Symbol, &s.Benchmark.Name,
		&s.Benchmark.Market, &s.DayShift, &s.PeriodStart, &s.PeriodEnd,
		&s.Years, &s.NumSim, &s.TimeSim, &s.RiskFree,
	)
	if err != nil {
		return domain.PortfolioSettings{}, fmt.Errorf("failed to load settings for %q: %w", portfolio, err)
	}
	return s, nil
}
