package currency

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagnojunior/financial-report/internal/domain"
)

type fakeProvider struct {
	rates map[string]float64
	calls int
}

func (p *fakeProvider) Rate(currency, reference string) (float64, error) {
	p.calls++
	rate, ok := p.rates[currency]
	if !ok {
		return 0, fmt.Errorf("unknown currency %s", currency)
	}
	return rate, nil
}

func TestNormalizer_ReferenceCurrencyIsOne(t *testing.T) {
	p := &fakeProvider{rates: map[string]float64{}}
	n := NewNormalizer(p, zerolog.Nop())

	rates, err := n.Rates([]CodeCurrency{{Code: "005930", Currency: "KRW"}}, "KRW")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rates["005930"])
	assert.Zero(t, p.calls, "reference currency must not hit the provider")
}

func TestNormalizer_CachesPerCurrency(t *testing.T) {
	p := &fakeProvider{rates: map[string]float64{"USD": 1350.0}}
	n := NewNormalizer(p, zerolog.Nop())

	rates, err := n.Rates([]CodeCurrency{
		{Code: "AAPL", Currency: "USD"},
		{Code: "MSFT", Currency: "USD"},
		{Code: "005930", Currency: "KRW"},
	}, "KRW")
	require.NoError(t, err)

	assert.Equal(t, 1350.0, rates["AAPL"])
	assert.Equal(t, 1350.0, rates["MSFT"])
	assert.Equal(t, 1.0, rates["005930"])
	assert.Equal(t, 1, p.calls, "one provider call per distinct currency")
}

func TestNormalizer_MissingRateIsAnError(t *testing.T) {
	p := &fakeProvider{rates: map[string]float64{}}
	n := NewNormalizer(p, zerolog.Nop())

	_, err := n.Rates([]CodeCurrency{{Code: "VOW3", Currency: "EUR"}}, "KRW")
	require.Error(t, err)

	var rerr *domain.RateUnavailableError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "EUR", rerr.Currency)
}

func TestNormalizer_NonPositiveRateIsAnError(t *testing.T) {
	p := &fakeProvider{rates: map[string]float64{"EUR": 0}}
	n := NewNormalizer(p, zerolog.Nop())

	_, err := n.Rates([]CodeCurrency{{Code: "VOW3", Currency: "EUR"}}, "KRW")
	var rerr *domain.RateUnavailableError
	require.ErrorAs(t, err, &rerr)
}
