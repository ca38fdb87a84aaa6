// Package report orchestrates one full analysis run over a portfolio and
// packages every computed table into a single structured result.
package report

import (
	"time"

	"github.com/wagnojunior/financial-report/internal/domain"
	"github.com/wagnojunior/financial-report/internal/modules/gains"
	"github.com/wagnojunior/financial-report/internal/modules/history"
	"github.com/wagnojunior/financial-report/internal/modules/positions"
	"github.com/wagnojunior/financial-report/internal/modules/risk"
	"github.com/wagnojunior/financial-report/internal/modules/simulation"
)

// PortfolioSummary is an optimization result annualized for presentation.
type PortfolioSummary struct {
	Weights          map[string]float64 `json:"weights"`
	AnnualReturn     float64            `json:"annual_return"`
	AnnualVolatility float64            `json:"annual_volatility"`
	Sharpe           float64            `json:"sharpe"`
	Converged        bool               `json:"converged"`
}

// FrontierRow is one efficient-frontier grid point, annualized.
type FrontierRow struct {
	TargetReturn float64 `json:"target_return"` // annualized
	PortfolioSummary
}

// PriceHistory bundles the normalized per-asset trajectories with the
// equal-weight and current-weight portfolio paths on the same calendar.
type PriceHistory struct {
	Series        history.TimeSeriesData `json:"series"`
	EqualWeight   []float64              `json:"equal_weight"`
	CurrentWeight []float64              `json:"current_weight"`
}

// Report is the full output of one analysis run. Boolean markers distinguish
// a genuinely empty cohort from a table that failed to aggregate.
type Report struct {
	ID          string                    `json:"id"`
	Portfolio   string                    `json:"portfolio"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Settings    domain.PortfolioSettings  `json:"settings"`

	// Positions
	AllAssets     []positions.Position        `json:"all_assets"`
	CurrentAssets []positions.CurrentPosition `json:"current_assets"`
	PastAssets    []positions.PastPosition    `json:"past_assets"`
	ActiveAssets  []positions.CurrentPosition `json:"active_assets"`  // stocks
	PassiveAssets []positions.CurrentPosition `json:"passive_assets"` // ETFs
	HasCurrent    bool                        `json:"has_current"`
	HasPast       bool                        `json:"has_past"`

	// Totals and fees
	TotalInvested      []positions.CurrencyTotal `json:"total_invested"`
	TotalFees          []positions.CurrencyTotal `json:"total_fees"`
	CumulativeInvested positions.MonthlySeries   `json:"cumulative_invested"`
	CumulativeFees     positions.MonthlySeries   `json:"cumulative_fees"`

	// Allocation and fee tables per grouping variable
	Allocations map[positions.GroupVariable][]positions.AllocationRow `json:"allocations"`
	FeeTables   map[positions.GroupVariable][]positions.FeeRow        `json:"fee_tables"`

	// Dividends
	DividendHistory []positions.DividendRow `json:"dividend_history"`
	HasDividends    bool                    `json:"has_dividends"`

	// Capital gains
	CurrentGains []gains.Row `json:"current_gains"`
	PastGains    []gains.Row `json:"past_gains"`

	// Risk
	Betas         []risk.BetaRow         `json:"betas"`
	PortfolioBeta float64                `json:"portfolio_beta"`
	Correlations  risk.CorrelationMatrix `json:"correlations"`

	// Price history
	PriceHistory PriceHistory `json:"price_history"`

	// Optimization
	MinVolatility        PortfolioSummary `json:"min_volatility"`
	MinVolatilityFloored PortfolioSummary `json:"min_volatility_floored"`
	MaxSharpe            PortfolioSummary `json:"max_sharpe"`
	MaxSharpeFloored     PortfolioSummary `json:"max_sharpe_floored"`
	CurrentPortfolio     PortfolioSummary `json:"current_portfolio"`
	Frontier             []FrontierRow    `json:"frontier"`
	RandomPortfolios     []PortfolioSummary `json:"random_portfolios"`

	// Simulation
	Simulation *simulation.Outcome `json:"simulation,omitempty"`
}
