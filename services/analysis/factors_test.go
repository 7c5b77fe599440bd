package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticSeries builds aligned stock and benchmark series where the stock
// return is always beta times the benchmark return
func syntheticSeries(n int, beta float64) (stock, bench []Point) {
	start := day(2023, 1, 2)
	stockPrice := 50.0
	benchPrice := 1000.0
	stock = make([]Point, n)
	bench = make([]Point, n)
	for i := 0; i < n; i++ {
		stock[i] = Point{Date: start.AddDate(0, 0, i), Close: stockPrice}
		bench[i] = Point{Date: start.AddDate(0, 0, i), Close: benchPrice}

		r := 0.01
		if i%2 == 1 {
			r = -0.005
		}
		benchPrice *= 1 + r
		stockPrice *= 1 + beta*r
	}
	return stock, bench
}

func TestFactorExposuresTooShort(t *testing.T) {
	stock, bench := syntheticSeries(MinSeriesPoints-1, 1)

	_, err := FactorExposures(stock, bench, Fundamentals{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)

	longStock, _ := syntheticSeries(MinSeriesPoints, 1)
	_, err = FactorExposures(longStock, bench, Fundamentals{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestFactorExposuresBeta(t *testing.T) {
	stock, bench := syntheticSeries(300, 2)

	result, err := FactorExposures(stock, bench, Fundamentals{})
	require.NoError(t, err)

	market := exposureOf(t, result, "Market")
	assert.InDelta(t, 2.0, market, 1e-6)
}

func TestFactorExposuresFundamentalDefaults(t *testing.T) {
	stock, bench := syntheticSeries(300, 1)

	result, err := FactorExposures(stock, bench, Fundamentals{})
	require.NoError(t, err)

	assert.InDelta(t, 1.0/10, exposureOf(t, result, "Value"), 1e-9)
	assert.InDelta(t, 0.2, exposureOf(t, result, "Quality"), 1e-9)
	assert.InDelta(t, -math.Log(10), exposureOf(t, result, "Size"), 1e-9)
}

func TestFactorExposuresExplicitFundamentals(t *testing.T) {
	stock, bench := syntheticSeries(300, 1)

	f := Fundamentals{PriceToBook: 4, ReturnOnEquity: 0.35, MarketCap: 1e11}
	result, err := FactorExposures(stock, bench, f)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, exposureOf(t, result, "Value"), 1e-9)
	assert.InDelta(t, 0.35, exposureOf(t, result, "Quality"), 1e-9)
	assert.InDelta(t, 0.0, exposureOf(t, result, "Size"), 1e-9)
}

func TestFactorExposuresMomentum(t *testing.T) {
	stock, bench := syntheticSeries(300, 1)

	result, err := FactorExposures(stock, bench, Fundamentals{})
	require.NoError(t, err)

	p252 := stock[len(stock)-252].Close
	p21 := stock[len(stock)-21].Close
	want := (p21 - p252) / p252
	assert.InDelta(t, want, exposureOf(t, result, "Momentum"), 1e-9)
}

func TestFactorExposuresPercentagesSumTo100(t *testing.T) {
	stock, bench := syntheticSeries(300, 1.5)

	result, err := FactorExposures(stock, bench, Fundamentals{})
	require.NoError(t, err)

	sum := 0.0
	for _, v := range result.ContributionPercent {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 100.0, sum, 1e-6)

	sum = 0.0
	for _, v := range result.ExposurePercent {
		sum += v
	}
	assert.InDelta(t, 100.0, sum, 1e-6)
}

func TestFactorExposuresNoNaN(t *testing.T) {
	// Flat series: zero volatility must yield sentinels, not Inf
	n := 300
	start := day(2023, 1, 2)
	stock := make([]Point, n)
	bench := make([]Point, n)
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i)
		stock[i] = Point{Date: d, Close: 100}
		bench[i] = Point{Date: d, Close: 1000}
	}

	result, err := FactorExposures(stock, bench, Fundamentals{})
	require.NoError(t, err)

	for _, f := range append(result.Exposures, result.Contributions...) {
		assert.False(t, math.IsNaN(f.Value) || math.IsInf(f.Value, 0), "factor %s", f.Name)
	}
	for name, v := range result.ContributionPercent {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "percent %s", name)
	}
}

func TestFactorExposuresUnsortedInput(t *testing.T) {
	stock, bench := syntheticSeries(300, 1)

	shuffled := make([]Point, len(stock))
	copy(shuffled, stock)
	for i := 0; i < len(shuffled)-1; i += 2 {
		shuffled[i], shuffled[i+1] = shuffled[i+1], shuffled[i]
	}

	sorted, err := FactorExposures(stock, bench, Fundamentals{})
	require.NoError(t, err)
	fromShuffled, err := FactorExposures(shuffled, bench, Fundamentals{})
	require.NoError(t, err)

	assert.InDelta(t, exposureOf(t, sorted, "Momentum"), exposureOf(t, fromShuffled, "Momentum"), 1e-9)
}

func exposureOf(t *testing.T, result *FactorAnalysis, name string) float64 {
	t.Helper()
	for _, f := range result.Exposures {
		if f.Name == name {
			return f.Value
		}
	}
	t.Fatalf("exposure %s not found", name)
	return 0
}
