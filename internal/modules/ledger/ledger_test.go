package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagnojunior/financial-report/internal/domain"
)

func tx(op domain.Operation, code string, qty int64, amount float64) domain.Transaction {
	return domain.Transaction{
		Operation:    op,
		Code:         code,
		Code2:        code,
		Name:         "Asset " + code,
		Type:         "Stock",
		Industry:     "Tech",
		Market:       "US",
		Currency:     "USD",
		Date:         "2024-01-02",
		Quantity:     qty,
		Amount:       amount,
		ExchangeRate: 1,
	}
}

func TestLedger_Views(t *testing.T) {
	l := New([]domain.Transaction{
		tx(domain.OperationBuy, "AAA", 10, 1000),
		tx(domain.OperationSell, "AAA", 4, 480),
		tx(domain.OperationDividend, "AAA", 10, 15),
		tx(domain.OperationBuy, "BBB", 5, 250),
	})

	assert.Len(t, l.Buys(), 2)
	assert.Len(t, l.Sells(), 1)
	assert.Len(t, l.BuySells(), 3)
	assert.Len(t, l.Dividends(), 1)
}

func TestLedger_SignedNegatesSellLegs(t *testing.T) {
	l := New([]domain.Transaction{
		tx(domain.OperationBuy, "AAA", 10, 1000),
		tx(domain.OperationSell, "AAA", 4, 480),
	})

	signed := l.Signed()
	require.Len(t, signed, 2)
	assert.Equal(t, int64(10), signed[0].Quantity)
	assert.Equal(t, int64(-4), signed[1].Quantity)
	assert.Equal(t, -480.0, signed[1].Amount)

	// The ledger itself must stay untouched.
	assert.Equal(t, int64(4), l.Sells()[0].Quantity)
}

func TestLedger_Partition(t *testing.T) {
	l := New([]domain.Transaction{
		tx(domain.OperationBuy, "AAA", 10, 1000),
		tx(domain.OperationSell, "AAA", 10, 1200),
		tx(domain.OperationBuy, "BBB", 5, 250),
		tx(domain.OperationSell, "BBB", 2, 110),
		tx(domain.OperationDividend, "BBB", 5, 10),
	})

	liquidated, active, err := l.Partition()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA"}, liquidated)
	assert.Equal(t, []string{"BBB"}, active)
}

func TestLedger_PartitionOversold(t *testing.T) {
	l := New([]domain.Transaction{
		tx(domain.OperationBuy, "AAA", 10, 1000),
		tx(domain.OperationSell, "AAA", 12, 1440),
	})

	_, _, err := l.Partition()
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "AAA", verr.Code)
}

func TestLedger_CurrentAndPastSubLedgers(t *testing.T) {
	l := New([]domain.Transaction{
		tx(domain.OperationBuy, "AAA", 10, 1000),
		tx(domain.OperationSell, "AAA", 10, 1200),
		tx(domain.OperationDividend, "AAA", 10, 20),
		tx(domain.OperationBuy, "BBB", 5, 250),
	})

	past, err := l.Past()
	require.NoError(t, err)
	assert.Len(t, past.All(), 3) // buy + sell + dividend of AAA

	current, err := l.Current()
	require.NoError(t, err)
	assert.Len(t, current.All(), 1)
	assert.Equal(t, "BBB", current.All()[0].Code)
}

func TestLedger_EmptyCohorts(t *testing.T) {
	l := New([]domain.Transaction{
		tx(domain.OperationBuy, "BBB", 5, 250),
	})

	past, err := l.Past()
	require.NoError(t, err)
	assert.True(t, past.Empty())

	liquidated, active, err := l.Partition()
	require.NoError(t, err)
	assert.Empty(t, liquidated)
	assert.Equal(t, []string{"BBB"}, active)
}
