package positions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnojunior/financial-report/internal/domain"
)

func feeTx(code, currency string, amount, brokerFee, taxFee float64) domain.Transaction {
	t := tx(domain.OperationBuy, code, currency, 10, amount, 1.0)
	t.BrokerFee = brokerFee
	t.TaxFee = taxFee
	return t
}

func TestTotalsByCurrency(t *testing.T) {
	txs := []domain.Transaction{
		feeTx("AAA", "USD", 1000, 2, 1),
		feeTx("BBB", "USD", 1000, 4, 3),
		feeTx("CCC", "EUR", 500, 1, 0),
	}

	totals := TotalsByCurrency(txs)
	require.Len(t, totals, 2)

	assert.Equal(t, "EUR", totals[0].Currency)
	assert.Equal(t, 500.0, totals[0].Amount)
	assert.Equal(t, 1.0, totals[0].TotalFee)

	assert.Equal(t, "USD", totals[1].Currency)
	assert.Equal(t, 2000.0, totals[1].Amount)
	assert.Equal(t, 10.0, totals[1].TotalFee)
	assert.InDelta(t, 0.5, totals[1].FeePct, 1e-12)
}

func TestFeesByVariable(t *testing.T) {
	txs := []domain.Transaction{
		feeTx("AAA", "USD", 1000, 5, 0),
		feeTx("AAA", "USD", 1000, 5, 0),
		feeTx("BBB", "USD", 2000, 2, 0),
	}

	rows := FeesByVariable(txs, GroupByName)
	require.Len(t, rows, 2)

	assert.Equal(t, "AAA Inc", rows[0].Group)
	assert.InDelta(t, 0.5, rows[0].FeePct, 1e-12)
	assert.InDelta(t, 0.1, rows[1].FeePct, 1e-12)
}

func TestMergeOtherFeesRecomputesPercentage(t *testing.T) {
	rows := []FeeRow{
		{Group: "Pricey", Currency: "USD", Amount: 1000, TotalFee: 10, FeePct: 1.0},
		{Group: "Cheap1", Currency: "USD", Amount: 1000, TotalFee: 1, FeePct: 0.1},
		{Group: "Cheap2", Currency: "USD", Amount: 3000, TotalFee: 3, FeePct: 0.1},
	}

	merged := MergeOtherFees(rows, FeeThreshold)
	require.Len(t, merged, 2)

	assert.Equal(t, "Other", merged[1].Group)
	assert.Equal(t, 4000.0, merged[1].Amount)
	assert.InDelta(t, 0.1, merged[1].FeePct, 1e-12)
}

func TestMonthlyCumulativeFillsGaps(t *testing.T) {
	mk := func(date string, amount float64) domain.Transaction {
		tr := feeTx("AAA", "USD", amount, 0, 0)
		tr.Date = date
		return tr
	}
	txs := []domain.Transaction{
		mk("2024-01-10", 100),
		mk("2024-04-20", 50),
	}

	series, err := MonthlyCumulative(txs, func(t domain.Transaction) float64 { return t.Amount })
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04"}, series.Months)
	assert.Equal(t, []float64{100, 100, 100, 150}, series.Values["USD"])
	assert.Equal(t, 1.0, series.Multiplier["USD"])
}

func TestMonthlyCumulativeScalesLargeSeries(t *testing.T) {
	tr := feeTx("AAA", "USD", 2_500_000, 0, 0)
	tr.Date = "2024-06-01"

	series, err := MonthlyCumulative([]domain.Transaction{tr}, func(t domain.Transaction) float64 { return t.Amount })
	require.NoError(t, err)

	assert.Equal(t, 1_000_000.0, series.Multiplier["USD"])
	assert.InDelta(t, 2.5, series.Values["USD"][0], 1e-12)
}

func TestMonthlyCumulativeRejectsBadDate(t *testing.T) {
	tr := feeTx("AAA", "USD", 100, 0, 0)
	tr.Date = "10/01/2024"

	_, err := MonthlyCumulative([]domain.Transaction{tr}, func(t domain.Transaction) float64 { return t.Amount })

	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestDividendHistory(t *testing.T) {
	div := func(code, date string, qty int64, unitPrice, fee float64) domain.Transaction {
		tr := tx(domain.OperationDividend, code, "USD", qty, unitPrice*float64(qty), 1.0)
		tr.Date = date
		tr.UnitPrice = unitPrice
		tr.BrokerFee = fee
		return tr
	}
	holdings := []Position{
		{AssetKey: domain.AssetKey{Code: "AAA", Name: "AAA Inc", Currency: "USD"}, Quantity: 10, AvgPrice: 100},
	}
	dividends := []domain.Transaction{
		div("AAA", "2024-02-01", 10, 2.0, 1.0),
		div("AAA", "2024-08-01", 10, 3.0, 1.0),
		div("AAA", "2023-01-01", 10, 9.0, 0), // before cutoff
		div("GONE", "2024-02-01", 5, 1.0, 0), // no longer held
	}

	rows := DividendHistory(dividends, holdings, "2024-01-01")
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, 50.0, r.Amount)
	assert.Equal(t, 5.0, r.DPS)
	// per event: unit price minus fee per share
	assert.InDelta(t, (2.0-0.1)+(3.0-0.1), r.NetDPS, 1e-12)
	assert.InDelta(t, 100*r.NetDPS/100.0, r.YieldPct, 1e-12)
}
