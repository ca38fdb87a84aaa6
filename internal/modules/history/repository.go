package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wagnojunior/financial-report/internal/domain"
)

// Repository reads stored daily close prices.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "history").Logger(),
	}
}

// Prices returns all close prices for the symbols inside [start, end],
// ordered by date.
func (r *Repository) Prices(symbols []string, start, end string) ([]domain.PricePoint, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(symbols))
	query := fmt.Sprintf(`
		SELECT symbol, date, close
		FROM daily_prices
		WHERE symbol IN (%s) AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		placeholders[:len(placeholders)-1])

	args := make([]interface{}, 0, len(symbols)+2)
	for _, s := range symbols {
		args = append(args, s)
	}
	args = append(args, start, end)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prices: %w", err)
	}

	r.log.Debug().Int("symbols", len(symbols)).Int("points", len(points)).Msg("Loaded price history")
	return points, nil
}

// Latest returns the most recent close per symbol. Every requested symbol
// must have at least one observation.
func (r *Repository) Latest(symbols []string) (map[string]float64, error) {
	latest := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		var close float64
		err := r.db.QueryRow(`
			SELECT close FROM daily_prices
			WHERE symbol = ?
			ORDER BY date DESC
			LIMIT 1`, symbol).Scan(&close)
		if err == sql.ErrNoRows {
			return nil, &domain.PriceUnavailableError{Symbol: symbol}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query latest price for %s: %w", symbol, err)
		}
		latest[symbol] = close
	}
	return latest, nil
}

// Period resolves a portfolio's analysis window: an explicit [start, end]
// range when both ends are set, otherwise a trailing window of Years counted
// back from now.
func Period(settings domain.PortfolioSettings, now time.Time) (start, end string) {
	if settings.PeriodStart != "" && settings.PeriodEnd != "" {
		return settings.PeriodStart, settings.PeriodEnd
	}
	years := settings.Years
	if years <= 0 {
		years = 1
	}
	return now.AddDate(-years, 0, 0).Format("2006-01-02"), now.Format("2006-01-02")
}
