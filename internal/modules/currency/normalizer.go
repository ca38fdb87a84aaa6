// Package currency resolves exchange rates into the portfolio's reference
// currency.
package currency

import (
	"github.com/rs/zerolog"
	"github.com/wagnojunior/financial-report/internal/domain"
)

// RateProvider supplies the conversion rate from a currency into the
// reference currency. Implementations are external collaborators (a rate
// table loaded ahead of the run, a broker API, ...).
type RateProvider interface {
	Rate(currency, reference string) (float64, error)
}

// CodeCurrency pairs an asset code with its trading currency.
type CodeCurrency struct {
	Code     string
	Currency string
}

// Normalizer resolves per-asset conversion rates into a single reference
// currency, caching one provider lookup per distinct currency for the run.
type Normalizer struct {
	provider RateProvider
	log      zerolog.Logger
}

// NewNormalizer creates a new currency normalizer.
func NewNormalizer(provider RateProvider, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		provider: provider,
		log:      log.With().Str("service", "currency_normalizer").Logger(),
	}
}

// Rates returns the conversion rate into the reference currency for every
// asset code. Assets already trading in the reference currency get rate 1;
// every other currency is resolved through the provider exactly once. A
// missing rate is an error, never an implicit 1.
func (n *Normalizer) Rates(assets []CodeCurrency, reference string) (map[string]float64, error) {
	cached := make(map[string]float64)
	rates := make(map[string]float64, len(assets))

	for _, a := range assets {
		if a.Currency == reference {
			rates[a.Code] = 1
			continue
		}

		rate, ok := cached[a.Currency]
		if !ok {
			var err error
			rate, err = n.provider.Rate(a.Currency, reference)
			if err != nil {
				return nil, &domain.RateUnavailableError{Currency: a.Currency, Err: err}
			}
			if rate <= 0 {
				return nil, &domain.RateUnavailableError{Currency: a.Currency}
			}
			cached[a.Currency] = rate
			n.log.Debug().
				Str("currency", a.Currency).
				Str("reference", reference).
				Float64("rate", rate).
				Msg("Resolved exchange rate")
		}
		rates[a.Code] = rate
	}

	return rates, nil
}
