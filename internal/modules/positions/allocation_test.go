package positions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnojunior/financial-report/internal/domain"
)

func current(code, currency, industry string, amount float64) CurrentPosition {
	return CurrentPosition{Position: Position{
		AssetKey: domain.AssetKey{
			Code:     code,
			Name:     code + " Inc",
			Type:     "Stock",
			Industry: industry,
			Market:   "US",
			Currency: currency,
		},
		Quantity: 1,
		Amount:   amount,
	}}
}

func TestAllocationPercentagesPerCurrency(t *testing.T) {
	positions := []CurrentPosition{
		current("AAA", "USD", "Tech", 600),
		current("BBB", "USD", "Energy", 400),
		current("CCC", "EUR", "Tech", 500),
	}

	rows := AllocationByVariable(positions, GroupByName)
	require.Len(t, rows, 3)

	byGroup := make(map[string]AllocationRow)
	for _, r := range rows {
		byGroup[r.Group] = r
	}
	assert.InDelta(t, 60.0, byGroup["AAA Inc"].AllocationPct, 1e-12)
	assert.InDelta(t, 40.0, byGroup["BBB Inc"].AllocationPct, 1e-12)
	// lone EUR position owns its whole currency
	assert.InDelta(t, 100.0, byGroup["CCC Inc"].AllocationPct, 1e-12)
}

func TestAllocationGroupsByIndustry(t *testing.T) {
	positions := []CurrentPosition{
		current("AAA", "USD", "Tech", 300),
		current("BBB", "USD", "Tech", 300),
		current("CCC", "USD", "Energy", 400),
	}

	rows := AllocationByVariable(positions, GroupByIndustry)
	require.Len(t, rows, 2)
	assert.Equal(t, "Tech", rows[0].Group)
	assert.InDelta(t, 60.0, rows[0].AllocationPct, 1e-12)
}

func TestMergeOtherFoldsSmallRows(t *testing.T) {
	rows := []AllocationRow{
		{Group: "Big", Currency: "USD", Amount: 9200, AllocationPct: 92},
		{Group: "Tiny1", Currency: "USD", Amount: 400, AllocationPct: 4},
		{Group: "Tiny2", Currency: "USD", Amount: 400, AllocationPct: 4},
	}

	merged := MergeOther(rows, OtherThreshold)
	require.Len(t, merged, 2)

	assert.Equal(t, "Big", merged[0].Group)
	assert.Equal(t, "Other", merged[1].Group)
	assert.InDelta(t, 8.0, merged[1].AllocationPct, 1e-12)
	assert.Equal(t, 800.0, merged[1].Amount)
}

func TestMergeOtherKeepsLoneSmallRow(t *testing.T) {
	rows := []AllocationRow{
		{Group: "Big", Currency: "USD", Amount: 9600, AllocationPct: 96},
		{Group: "Tiny", Currency: "USD", Amount: 400, AllocationPct: 4},
	}

	merged := MergeOther(rows, OtherThreshold)
	require.Len(t, merged, 2)
	assert.Equal(t, "Tiny", merged[1].Group)
}
