package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wagnojunior/financial-report/internal/domain"
	"github.com/wagnojunior/financial-report/internal/modules/currency"
	"github.com/wagnojunior/financial-report/internal/modules/gains"
	"github.com/wagnojunior/financial-report/internal/modules/history"
	"github.com/wagnojunior/financial-report/internal/modules/ledger"
	"github.com/wagnojunior/financial-report/internal/modules/optimization"
	"github.com/wagnojunior/financial-report/internal/modules/positions"
	"github.com/wagnojunior/financial-report/internal/modules/risk"
	"github.com/wagnojunior/financial-report/internal/modules/simulation"
	"github.com/wagnojunior/financial-report/pkg/formulas"
)

// LedgerSource loads a portfolio's transactions and settings.
type LedgerSource interface {
	Transactions(portfolio string) ([]domain.Transaction, error)
	Settings(portfolio string) (domain.PortfolioSettings, error)
}

// PriceSource loads stored close prices.
type PriceSource interface {
	Prices(symbols []string, start, end string) ([]domain.PricePoint, error)
	Latest(symbols []string) (map[string]float64, error)
}

// Service runs the full analysis pipeline for one portfolio.
type Service struct {
	ledgers    LedgerSource
	prices     PriceSource
	normalizer *currency.Normalizer
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(ledgers LedgerSource, prices PriceSource, rates currency.RateProvider, log zerolog.Logger) *Service {
	return &Service{
		ledgers:    ledgers,
		prices:     prices,
		normalizer: currency.NewNormalizer(rates, log),
		log:        log.With().Str("service", "report").Logger(),
		now:        time.Now,
	}
}

// Generate runs every analysis stage over the portfolio's ledger and returns
// the assembled report. Ledger stages always run; the market-data stages
// (risk, optimization, simulation) run only when the portfolio holds current
// assets with usable price history.
func (s *Service) Generate(ctx context.Context, portfolio string) (*Report, error) {
	settings, err := s.ledgers.Settings(portfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings for %s: %w", portfolio, err)
	}
	txs, err := s.ledgers.Transactions(portfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for %s: %w", portfolio, err)
	}

	rep := &Report{
		ID:          uuid.New().String(),
		Portfolio:   portfolio,
		GeneratedAt: s.now(),
		Settings:    settings,
		Allocations: make(map[positions.GroupVariable][]positions.AllocationRow),
		FeeTables:   make(map[positions.GroupVariable][]positions.FeeRow),
	}

	lg := ledger.New(txs)
	if lg.Empty() {
		s.log.Info().Str("portfolio", portfolio).Msg("Ledger is empty, producing empty report")
		return rep, nil
	}

	current, err := lg.Current()
	if err != nil {
		return nil, err
	}
	past, err := lg.Past()
	if err != nil {
		return nil, err
	}

	if err := s.buildPositions(rep, lg, current, past); err != nil {
		return nil, err
	}
	s.buildTables(rep, lg, current)

	// One rate lookup per currency for the whole run: the gains and market
	// stages share the same map.
	var rates map[string]float64
	if rep.HasCurrent {
		rates, err = s.currentRates(rep.CurrentAssets, settings.ReferenceCurrency)
		if err != nil {
			return nil, err
		}
	}

	if err := s.buildGains(rep, current, past, rates); err != nil {
		return nil, err
	}

	if !rep.HasCurrent {
		return rep, nil
	}
	if err := s.buildMarketStages(ctx, rep, settings, rates); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("portfolio", portfolio).
		Str("report_id", rep.ID).
		Int("current_assets", len(rep.CurrentAssets)).
		Int("past_assets", len(rep.PastAssets)).
		Msg("Report generated")
	return rep, nil
}

func (s *Service) buildPositions(rep *Report, lg, current, past *ledger.Ledger) error {
	rep.AllAssets = positions.AggregateBuys(lg.Buys())

	if !current.Empty() {
		codes := assetCodes(current.Buys())
		latest, err := s.prices.Latest(codes)
		if err != nil {
			return err
		}
		currentAssets, err := positions.AggregateCurrent(current.Signed(), latest)
		if err != nil {
			return err
		}
		rep.CurrentAssets = currentAssets
		rep.HasCurrent = len(currentAssets) > 0
		rep.ActiveAssets = positions.FilterByType(currentAssets, domain.AssetTypeStock)
		rep.PassiveAssets = positions.FilterByType(currentAssets, domain.AssetTypeETF)
	}

	if !past.Empty() {
		pastAssets, err := positions.AggregatePast(past.Buys(), past.Sells())
		if err != nil {
			return err
		}
		rep.PastAssets = pastAssets
		rep.HasPast = len(pastAssets) > 0
	}

	return nil
}

func (s *Service) buildTables(rep *Report, lg, current *ledger.Ledger) {
	rep.TotalInvested = positions.TotalsByCurrency(current.Signed())
	rep.TotalFees = positions.TotalsByCurrency(lg.All())

	invested, err := positions.MonthlyCumulative(lg.Signed(), func(t domain.Transaction) float64 { return t.Amount })
	if err == nil {
		rep.CumulativeInvested = invested
	} else {
		s.log.Warn().Err(err).Msg("Skipping cumulative invested series")
	}
	fees, err := positions.MonthlyCumulative(lg.All(), func(t domain.Transaction) float64 { return t.TotalFee() })
	if err == nil {
		rep.CumulativeFees = fees
	} else {
		s.log.Warn().Err(err).Msg("Skipping cumulative fee series")
	}

	for _, v := range []positions.GroupVariable{
		positions.GroupByName, positions.GroupByType, positions.GroupByIndustry, positions.GroupByMarket,
	} {
		rep.Allocations[v] = positions.MergeOther(
			positions.AllocationByVariable(rep.CurrentAssets, v), positions.OtherThreshold)
		rep.FeeTables[v] = positions.MergeOtherFees(
			positions.FeesByVariable(lg.All(), v), positions.FeeThreshold)
	}

	since := s.now().AddDate(-1, 0, 0).Format("2006-01-02")
	rep.DividendHistory = positions.DividendHistory(lg.Dividends(), rep.AllAssets, since)
	rep.HasDividends = len(rep.DividendHistory) > 0
}

func (s *Service) buildGains(rep *Report, current, past *ledger.Ledger, rates map[string]float64) error {
	if rep.HasCurrent {
		currentGains, err := gains.CurrentGains(current.Buys(), current.Dividends(), rep.CurrentAssets, rates)
		if err != nil {
			return err
		}
		rep.CurrentGains = currentGains
	}

	if rep.HasPast {
		pastGains, err := gains.PastGains(past.Buys(), past.Sells(), past.Dividends())
		if err != nil {
			return err
		}
		rep.PastGains = pastGains
	}
	return nil
}

// buildMarketStages runs the price-history, risk, optimization and
// simulation stages over the current assets.
func (s *Service) buildMarketStages(ctx context.Context, rep *Report, settings domain.PortfolioSettings, rates map[string]float64) error {
	symbols := make([]string, 0, len(rep.CurrentAssets)+1)
	names := make(map[string]string, len(rep.CurrentAssets))
	crossMarket := make(map[string]bool)
	for _, p := range rep.CurrentAssets {
		symbols = append(symbols, p.Code)
		names[p.Code] = p.Name
		if p.Market != settings.Benchmark.Market {
			crossMarket[p.Code] = true
		}
	}
	benchmark := settings.Benchmark.Symbol
	symbols = append(symbols, benchmark)

	start, end := history.Period(settings, s.now())
	points, err := s.prices.Prices(symbols, start, end)
	if err != nil {
		return err
	}

	series := history.FillLeading(history.BuildSeries(points))
	for _, sym := range symbols {
		if _, ok := series.Data[sym]; !ok {
			return &domain.PriceUnavailableError{Symbol: sym}
		}
	}
	series = history.Shift(series, crossMarket, settings.DayShift)
	returns := history.Returns(series)

	// Risk
	rep.Betas, err = risk.Betas(returns, benchmark, names)
	if err != nil {
		return err
	}
	portfolioBeta, err := risk.PortfolioBeta(rep.CurrentAssets, rep.Betas, rates)
	if err != nil {
		return err
	}
	rep.PortfolioBeta = portfolioBeta
	rep.Correlations = risk.Correlations(returns, benchmark)

	// Price trajectories
	normalized := history.Normalize(series)
	equal := make(map[string]float64, len(rep.CurrentAssets))
	currentWeights := make(map[string]float64, len(rep.CurrentAssets))
	var total float64
	for _, p := range rep.CurrentAssets {
		equal[p.Code] = 1
		converted := p.Amount * rates[p.Code]
		currentWeights[p.Code] = converted
		total += converted
	}
	for code := range currentWeights {
		currentWeights[code] /= total
	}
	rep.PriceHistory = PriceHistory{
		Series:        normalized,
		EqualWeight:   history.WeightedSeries(normalized, equal),
		CurrentWeight: history.WeightedSeries(normalized, currentWeights),
	}

	// Optimization
	assetSymbols := make([]string, 0, len(returns))
	for sym := range returns {
		if sym != benchmark {
			assetSymbols = append(assetSymbols, sym)
		}
	}
	sort.Strings(assetSymbols)
	model := history.BuildModel(returns, assetSymbols)
	opt, err := optimization.New(model, settings.RiskFree, s.log)
	if err != nil {
		return err
	}

	stages := []struct {
		dst   *PortfolioSummary
		solve func() (optimization.Result, error)
	}{
		{&rep.MinVolatility, func() (optimization.Result, error) { return opt.MinimizeVolatility(optimization.NoFloor) }},
		{&rep.MinVolatilityFloored, func() (optimization.Result, error) { return opt.MinimizeVolatility(optimization.DiversificationFloor) }},
		{&rep.MaxSharpe, func() (optimization.Result, error) { return opt.MaximizeSharpe(optimization.NoFloor) }},
		{&rep.MaxSharpeFloored, func() (optimization.Result, error) { return opt.MaximizeSharpe(optimization.DiversificationFloor) }},
	}
	for _, stage := range stages {
		result, err := stage.solve()
		if err != nil {
			return err
		}
		*stage.dst = annualize(result, settings.RiskFree)
	}
	rep.CurrentPortfolio = annualize(opt.CurrentPerformance(currentWeights), settings.RiskFree)

	frontier, err := opt.EfficientFrontier(ctx, optimization.NoFloor)
	if err != nil {
		return err
	}
	rep.Frontier = make([]FrontierRow, len(frontier))
	for i, p := range frontier {
		rep.Frontier[i] = FrontierRow{
			TargetReturn:     formulas.AnnualizeReturn(p.TargetReturn),
			PortfolioSummary: annualize(p.Result, settings.RiskFree),
		}
	}

	cloud := opt.RandomPortfolios(settings.NumSim, s.now().UnixNano())
	rep.RandomPortfolios = make([]PortfolioSummary, len(cloud))
	for i, r := range cloud {
		rep.RandomPortfolios[i] = annualize(r, settings.RiskFree)
	}

	// Simulation of the investor's actual allocation
	sim, err := simulation.New(model, currentWeights, s.log)
	if err != nil {
		return err
	}
	outcome, err := sim.Run(ctx, settings.NumSim, settings.TimeSim)
	if err != nil {
		return err
	}
	rep.Simulation = outcome

	return nil
}

func (s *Service) currentRates(holdings []positions.CurrentPosition, reference string) (map[string]float64, error) {
	assets := make([]currency.CodeCurrency, len(holdings))
	for i, p := range holdings {
		assets[i] = currency.CodeCurrency{Code: p.Code, Currency: p.Currency}
	}
	return s.normalizer.Rates(assets, reference)
}

func annualize(r optimization.Result, riskFree float64) PortfolioSummary {
	return PortfolioSummary{
		Weights:          r.Weights,
		AnnualReturn:     formulas.AnnualizeReturn(r.Return),
		AnnualVolatility: formulas.AnnualizeVolatility(r.Volatility),
		Sharpe:           r.Sharpe(riskFree),
		Converged:        r.Converged,
	}
}

func assetCodes(txs []domain.Transaction) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, t := range txs {
		if !seen[t.Code] {
			seen[t.Code] = true
			codes = append(codes, t.Code)
		}
	}
	sort.Strings(codes)
	return codes
}
