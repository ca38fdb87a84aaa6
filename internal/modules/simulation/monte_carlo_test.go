package simulation

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/wagnojunior/financial-report/internal/modules/history"
)

func simModel(mean, variance float64) history.Model {
	return history.Model{
		Symbols: []string{"A"},
		Mean:    []float64{mean},
		Cov:     mat.NewSymDense(1, []float64{variance}),
	}
}

func TestRunZeroVolatility(t *testing.T) {
	s, err := New(simModel(0, 0), map[string]float64{"A": 1}, zerolog.Nop())
	require.NoError(t, err)

	out, err := s.Run(context.Background(), 1000, 260)
	require.NoError(t, err)
	require.Len(t, out.Terminal, 1000)

	for _, v := range out.Terminal {
		assert.Equal(t, 1.0, v)
	}
	assert.Equal(t, 0.0, out.Summary.ProbBelowPar)
	assert.Equal(t, 0.0, out.Summary.ProbAbovePar)
	assert.Equal(t, 1.0, out.Summary.Median)
}

func TestRunTerminalValuesPositive(t *testing.T) {
	s, err := New(simModel(0.0005, 0.0001), map[string]float64{"A": 1}, zerolog.Nop())
	require.NoError(t, err)

	out, err := s.Run(context.Background(), 200, 100)
	require.NoError(t, err)

	for _, path := range out.Paths {
		require.Len(t, path, 101)
		assert.Equal(t, 1.0, path[0])
	}
	for _, v := range out.Terminal {
		assert.Greater(t, v, 0.0)
	}
	assert.GreaterOrEqual(t, out.Summary.Max, out.Summary.Median)
	assert.LessOrEqual(t, out.Summary.Min, out.Summary.Median)
}

func TestRunRejectsInvalidSize(t *testing.T) {
	s, err := New(simModel(0, 0), map[string]float64{"A": 1}, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.Run(context.Background(), 0, 260)
	require.Error(t, err)

	_, err = s.Run(context.Background(), 100, -1)
	require.Error(t, err)
}

func TestRunHonorsCancellation(t *testing.T) {
	s, err := New(simModel(0.0005, 0.0001), map[string]float64{"A": 1}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Run(ctx, 1000, 260)
	require.ErrorIs(t, err, context.Canceled)
}
