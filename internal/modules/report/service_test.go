package report

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnojunior/financial-report/internal/domain"
	"github.com/wagnojunior/financial-report/internal/modules/positions"
)

type fakeLedgerSource struct {
	txs      []domain.Transaction
	settings domain.PortfolioSettings
}

func (f *fakeLedgerSource) Transactions(string) ([]domain.Transaction, error) { return f.txs, nil }
func (f *fakeLedgerSource) Settings(string) (domain.PortfolioSettings, error) {
	return f.settings, nil
}

type fakePriceSource struct {
	points []domain.PricePoint
	latest map[string]float64
}

func (f *fakePriceSource) Prices([]string, string, string) ([]domain.PricePoint, error) {
	return f.points, nil
}
func (f *fakePriceSource) Latest([]string) (map[string]float64, error) { return f.latest, nil }

type fakeRates map[string]float64

func (f fakeRates) Rate(currency, _ string) (float64, error) { return f[currency], nil }

type countingRates struct {
	rates map[string]float64
	calls map[string]int
}

func (c *countingRates) Rate(currency, _ string) (float64, error) {
	c.calls[currency]++
	return c.rates[currency], nil
}

func tx(op domain.Operation, code, currency, date string, qty int64, amount, fee float64) domain.Transaction {
	return domain.Transaction{
		Operation:    op,
		Code:         code,
		Name:         code + " Inc",
		Type:         "Stock",
		Industry:     "Tech",
		Market:       "US",
		Currency:     currency,
		Date:         date,
		Quantity:     qty,
		Amount:       amount,
		BrokerFee:    fee,
		ExchangeRate: 1,
	}
}

func testSettings() domain.PortfolioSettings {
	return domain.PortfolioSettings{
		Name:              "test",
		ReferenceCurrency: "USD",
		Benchmark:         domain.Benchmark{Symbol: "BMK", Name: "Benchmark", Market: "US"},
		PeriodStart:       "2024-01-01",
		PeriodEnd:         "2024-12-31",
		NumSim:            50,
		TimeSim:           30,
		RiskFree:          0.02,
	}
}

// dailyPrices builds a short daily series per symbol from a base price and
// a per-day step.
func dailyPrices(symbol string, base, step float64, days int) []domain.PricePoint {
	out := make([]domain.PricePoint, days)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		out[i] = domain.PricePoint{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i).Format("2006-01-02"),
			Close:  base + float64(i)*step,
		}
	}
	return out
}

func newTestService() *Service {
	ledgers := &fakeLedgerSource{
		settings: testSettings(),
		txs: []domain.Transaction{
			tx(domain.OperationBuy, "AAA", "USD", "2024-01-10", 10, 1000, 1),
			tx(domain.OperationBuy, "CCC", "USD", "2024-01-12", 10, 500, 1),
			tx(domain.OperationDividend, "AAA", "USD", "2024-06-01", 10, 20, 0),
			tx(domain.OperationBuy, "BBB", "USD", "2024-02-01", 5, 500, 1),
			tx(domain.OperationSell, "BBB", "USD", "2024-05-01", 5, 600, 1),
		},
	}
	points := append(dailyPrices("AAA", 100, 0.5, 40), dailyPrices("CCC", 50, -0.1, 40)...)
	points = append(points, dailyPrices("BMK", 1000, 2, 40)...)
	prices := &fakePriceSource{
		points: points,
		latest: map[string]float64{"AAA": 120, "CCC": 48},
	}
	svc := NewService(ledgers, prices, fakeRates{}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestGenerateFullRun(t *testing.T) {
	svc := newTestService()

	rep, err := svc.Generate(context.Background(), "test")
	require.NoError(t, err)
	require.NotEmpty(t, rep.ID)

	// cohorts
	assert.True(t, rep.HasCurrent)
	assert.True(t, rep.HasPast)
	require.Len(t, rep.CurrentAssets, 2)
	require.Len(t, rep.PastAssets, 1)
	assert.Equal(t, "BBB", rep.PastAssets[0].Code)

	// gains: BBB bought 500 (fee 1), sold 600 (fee 1)
	require.Len(t, rep.PastGains, 1)
	assert.InDelta(t, 98.0, rep.PastGains[0].Gain, 1e-9)

	// AAA marked to 120: 1200 − 1000 − 1 + dividend 20
	require.Len(t, rep.CurrentGains, 2)
	assert.InDelta(t, 219.0, rep.CurrentGains[0].Gain, 1e-9)
	assert.True(t, rep.CurrentGains[0].HasDividend)

	// allocation over the four grouping variables
	require.Len(t, rep.Allocations, 4)
	var sum float64
	for _, row := range rep.Allocations[positions.GroupByName] {
		sum += row.AllocationPct
	}
	assert.InDelta(t, 100.0, sum, 1e-6)

	// risk model excludes the benchmark
	require.Len(t, rep.Betas, 2)
	assert.Equal(t, []string{"AAA", "CCC"}, rep.Correlations.Symbols)

	// optimization variants all solved
	for _, summary := range []PortfolioSummary{
		rep.MinVolatility, rep.MinVolatilityFloored, rep.MaxSharpe, rep.MaxSharpeFloored, rep.CurrentPortfolio,
	} {
		var total float64
		for _, w := range summary.Weights {
			total += w
		}
		assert.InDelta(t, 1.0, total, 1e-6)
	}
	assert.Len(t, rep.Frontier, 100)
	assert.Len(t, rep.RandomPortfolios, 50)

	// simulation ran with the configured size
	require.NotNil(t, rep.Simulation)
	assert.Len(t, rep.Simulation.Terminal, 50)

	// dividend history inside the trailing year
	assert.True(t, rep.HasDividends)
}

func TestGenerateEmptyLedger(t *testing.T) {
	svc := NewService(&fakeLedgerSource{settings: testSettings()}, &fakePriceSource{}, fakeRates{}, zerolog.Nop())

	rep, err := svc.Generate(context.Background(), "test")
	require.NoError(t, err)

	assert.False(t, rep.HasCurrent)
	assert.False(t, rep.HasPast)
	assert.False(t, rep.HasDividends)
	assert.Empty(t, rep.CurrentAssets)
	assert.Nil(t, rep.Simulation)
	assert.NotEmpty(t, rep.ID)
}

func TestGenerateMissingBenchmarkPricesFails(t *testing.T) {
	ledgers := &fakeLedgerSource{
		settings: testSettings(),
		txs: []domain.Transaction{
			tx(domain.OperationBuy, "AAA", "USD", "2024-01-10", 10, 1000, 1),
			tx(domain.OperationBuy, "CCC", "USD", "2024-01-12", 10, 500, 1),
		},
	}
	prices := &fakePriceSource{
		points: append(dailyPrices("AAA", 100, 0.5, 40), dailyPrices("CCC", 50, -0.1, 40)...),
		latest: map[string]float64{"AAA": 120, "CCC": 48},
	}
	svc := NewService(ledgers, prices, fakeRates{}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC) }

	_, err := svc.Generate(context.Background(), "test")

	var priceErr *domain.PriceUnavailableError
	require.ErrorAs(t, err, &priceErr)
	assert.Equal(t, "BMK", priceErr.Symbol)
}

func TestGenerateMissingAssetPricesFails(t *testing.T) {
	ledgers := &fakeLedgerSource{
		settings: testSettings(),
		txs: []domain.Transaction{
			tx(domain.OperationBuy, "AAA", "USD", "2024-01-10", 10, 1000, 1),
			tx(domain.OperationBuy, "CCC", "USD", "2024-01-12", 10, 500, 1),
		},
	}
	// CCC has a latest quote but no stored series
	prices := &fakePriceSource{
		points: append(dailyPrices("AAA", 100, 0.5, 40), dailyPrices("BMK", 1000, 2, 40)...),
		latest: map[string]float64{"AAA": 120, "CCC": 48},
	}
	svc := NewService(ledgers, prices, fakeRates{}, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC) }

	_, err := svc.Generate(context.Background(), "test")

	var priceErr *domain.PriceUnavailableError
	require.ErrorAs(t, err, &priceErr)
	assert.Equal(t, "CCC", priceErr.Symbol)
}

func TestGenerateResolvesRatesOncePerCurrency(t *testing.T) {
	ledgers := &fakeLedgerSource{
		settings: testSettings(),
		txs: []domain.Transaction{
			tx(domain.OperationBuy, "AAA", "USD", "2024-01-10", 10, 1000, 1),
			tx(domain.OperationBuy, "CCC", "KRW", "2024-01-12", 10, 500000, 100),
		},
	}
	points := append(dailyPrices("AAA", 100, 0.5, 40), dailyPrices("CCC", 50000, -10, 40)...)
	points = append(points, dailyPrices("BMK", 1000, 2, 40)...)
	prices := &fakePriceSource{
		points: points,
		latest: map[string]float64{"AAA": 120, "CCC": 48000},
	}
	rates := &countingRates{rates: map[string]float64{"KRW": 0.0008}, calls: map[string]int{}}
	svc := NewService(ledgers, prices, rates, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC) }

	_, err := svc.Generate(context.Background(), "test")
	require.NoError(t, err)

	// the gains and market stages share one resolved rate map
	assert.Equal(t, 1, rates.calls["KRW"])
	assert.Zero(t, rates.calls["USD"])
}

func TestGenerateOversoldLedgerFails(t *testing.T) {
	ledgers := &fakeLedgerSource{
		settings: testSettings(),
		txs: []domain.Transaction{
			tx(domain.OperationSell, "AAA", "USD", "2024-01-10", 5, 500, 0),
		},
	}
	svc := NewService(ledgers, &fakePriceSource{}, fakeRates{}, zerolog.Nop())

	_, err := svc.Generate(context.Background(), "test")

	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "AAA", valErr.Code)
}
