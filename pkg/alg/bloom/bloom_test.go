package bloom_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dsviz/pkg/alg/bloom"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

const (
	smallN     = uint(1000)
	tightN     = uint(100)
	tightFP    = 0.001
	fpTestN    = 500
	fpTestFP   = 0.01
	fpProbeN   = 20_000
	fpMargin   = 2.0 // Allow twice the theoretical rate.
	fpSlack    = 0.005
	probeShift = 1_000_000

	// Expected parameter values derived from formulas.
	expectedM1K1pct    = uint(9586) // m = ceil(-n * ln(fp) / ln(2)^2) for n=1000, fp=0.01.
	expectedK1K1pct    = uint(7)    // k = round(m/n * ln(2)).
	expectedM100_01pct = uint(1438) // m for n=100, fp=0.001.
	expectedK100_01pct = uint(10)   // k = round(1438/100 * ln(2)).
)

func TestNewWithEstimates_Parameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		n     uint
		fp    float64
		wantM uint
		wantK uint
	}{
		{name: "small_1K_1pct", n: smallN, fp: 0.01, wantM: expectedM1K1pct, wantK: expectedK1K1pct},
		{name: "tight_100_0.1pct", n: tightN, fp: tightFP, wantM: expectedM100_01pct, wantK: expectedK100_01pct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := bloom.NewWithEstimates[int](tt.n, tt.fp)
			require.NoError(t, err)
			assert.Equal(t, tt.wantM, f.BitCount())
			assert.Equal(t, tt.wantK, f.HashCount())
		})
	}
}

func TestNew_EdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		make func() error
		want error
	}{
		{name: "zero_n", make: func() error { _, err := bloom.NewWithEstimates[int](0, 0.01); return err }, want: bloom.ErrZeroN},
		{name: "zero_fp", make: func() error { _, err := bloom.NewWithEstimates[int](10, 0); return err }, want: bloom.ErrInvalidFP},
		{name: "fp_at_one", make: func() error { _, err := bloom.NewWithEstimates[int](10, 1); return err }, want: bloom.ErrInvalidFP},
		{name: "negative_fp", make: func() error { _, err := bloom.NewWithEstimates[int](10, -0.5); return err }, want: bloom.ErrInvalidFP},
		{name: "zero_m", make: func() error { _, err := bloom.New[int](0, 3); return err }, want: bloom.ErrZeroSize},
		{name: "zero_k", make: func() error { _, err := bloom.New[int](8, 0); return err }, want: bloom.ErrZeroSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.make()
			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, viz.ErrValidation)
		})
	}
}

func TestAdd_Test_NoFalseNegatives(t *testing.T) {
	t.Parallel()

	f, err := bloom.New[string](512, 4)
	require.NoError(t, err)

	for i := range 100 {
		_, err := f.Add(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}

	for i := range 100 {
		tr, err := f.Test(fmt.Sprintf("key-%d", i))
		require.NoError(t, err, "false negative for element %d", i)
		assert.True(t, tr.Found)
	}

	require.NoError(t, f.Valid())
}

func TestTest_DefiniteAbsence(t *testing.T) {
	t.Parallel()

	f, err := bloom.New[int](64, 3)
	require.NoError(t, err)

	tr, err := f.Test(42)
	require.ErrorIs(t, err, viz.ErrNotFound)
	assert.False(t, tr.Found)
	assert.Len(t, tr.Steps, 2, "stops at the first clear bit")
}

func TestAdd_InjectedHasher(t *testing.T) {
	t.Parallel()

	// Every key maps to bits 3, 5 and 7.
	fixed := func([]byte) (uint64, uint64) { return 3, 2 }

	f, err := bloom.New[int](16, 3, bloom.WithHasher(fixed))
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 5, 7}, f.Positions(1))

	tr, err := f.Add(1)
	require.NoError(t, err)
	require.Len(t, tr.StepsIn(viz.StateUpdated), 1)
	assert.Len(t, tr.StepsIn(viz.StateUpdated)[0].Targets, 3)

	tr, err = f.Add(2)
	require.NoError(t, err)
	assert.Empty(t, tr.StepsIn(viz.StateUpdated), "no new bits")

	_, err = f.Test(99)
	require.NoError(t, err, "collision is a false positive")

	cells := f.Shape().(viz.Array).Cells
	assert.Equal(t, "1", cells[5].Label)
	assert.Equal(t, "0", cells[4].Label)
	assert.InDelta(t, 3.0/16, f.FillRatio(), 1e-9)
}

func TestFalsePositiveRate_TracksTheory(t *testing.T) {
	t.Parallel()

	f, err := bloom.NewWithEstimates[int](fpTestN, fpTestFP)
	require.NoError(t, err)

	for i := range fpTestN {
		_, err := f.Add(i)
		require.NoError(t, err)
	}

	theory := f.FalsePositiveRate()
	assert.InDelta(t, fpTestFP, theory, fpTestFP/2)

	hits := 0

	for i := range fpProbeN {
		if _, err := f.Test(probeShift + i); err == nil {
			hits++
		}
	}

	observed := float64(hits) / fpProbeN
	assert.LessOrEqual(t, observed, theory*fpMargin+fpSlack)
}

func TestFalsePositiveRate_Formula(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, bloom.FalsePositiveRate(100, 3, 0), 1e-12)

	want := math.Pow(1-math.Pow(1-1.0/100, 30), 3)
	assert.InDelta(t, want, bloom.FalsePositiveRate(100, 3, 10), 1e-12)
	assert.Greater(t, bloom.FalsePositiveRate(100, 3, 20), bloom.FalsePositiveRate(100, 3, 10))
}

func TestReset_AndCheckpoint(t *testing.T) {
	t.Parallel()

	f, err := bloom.New[string](128, 3)
	require.NoError(t, err)

	_, err = f.Add("a")
	require.NoError(t, err)

	cp := f.Checkpoint()

	_, err = f.Reset()
	require.NoError(t, err)
	assert.Zero(t, f.EstimatedCount())
	assert.InDelta(t, 0.0, f.FillRatio(), 1e-9)

	_, err = f.Test("a")
	require.ErrorIs(t, err, viz.ErrNotFound)

	require.NoError(t, f.Restore(cp))

	_, err = f.Test("a")
	require.NoError(t, err)
}

func TestStats(t *testing.T) {
	t.Parallel()

	f, err := bloom.New[int](2048, 3)
	require.NoError(t, err)

	_, err = f.Add(7)
	require.NoError(t, err)

	stats := f.Stats()
	assert.Contains(t, stats, "m=2,048 bits (256 B)")
	assert.Contains(t, stats, "k=3")
	assert.Contains(t, stats, "n=1")
}
