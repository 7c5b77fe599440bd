package analysis

import (
	"errors"
	"math"
	"sort"
)

// MinSeriesPoints is the shortest history usable by the factor model:
// one year of trading days plus the one-month momentum offset.
const MinSeriesPoints = 252 + 21

// ErrInsufficientData flags a series too short for the factor model
var ErrInsufficientData = errors.New("not enough data points for factor analysis")

// Fundamentals carries the valuation inputs of the factor model.
// Zero fields fall back to neutral defaults.
type Fundamentals struct {
	PriceToBook    float64
	ReturnOnEquity float64
	MarketCap      float64
}

// Neutral fundamental defaults applied when the feed has no figure
const (
	defaultPriceToBook = 10
	defaultROE         = 0.2
	defaultMarketCap   = 1e12
)

// FactorValue is one named factor reading
type FactorValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FactorAnalysis is the full factor decomposition of a stock against its benchmark
type FactorAnalysis struct {
	Exposures           []FactorValue      `json:"exposures"`
	Contributions       []FactorValue      `json:"contributions"`
	ContributionPercent map[string]float64 `json:"contribution_percent"`
	ExposurePercent     map[string]float64 `json:"exposure_percent"`
}

// FactorExposures decomposes a stock series against a benchmark series into
// Market, Size, Value, Momentum, Quality and Volatility factors. Both series
// must span at least MinSeriesPoints bars, else ErrInsufficientData.
func FactorExposures(stock, benchmark []Point, f Fundamentals) (*FactorAnalysis, error) {
	if len(stock) < MinSeriesPoints || len(benchmark) < MinSeriesPoints {
		return nil, ErrInsufficientData
	}

	stockSorted := sortedByDate(stock)
	benchSorted := sortedByDate(benchmark)

	stockReturns := Returns(closesOf(stockSorted))
	benchReturns := Returns(closesOf(benchSorted))

	// Align return series from the front
	n := len(stockReturns)
	if len(benchReturns) < n {
		n = len(benchReturns)
	}
	stockReturns = stockReturns[:n]
	benchReturns = benchReturns[:n]

	beta := LinearRegression(benchReturns, stockReturns).Slope
	contributionMarket := beta * Mean(benchReturns)

	momentum := momentumExposure(stockSorted)

	volExposure := inverseOrZero(StdDev(stockReturns))
	contributionVolatility := volExposure * inverseOrZero(StdDev(benchReturns))

	pb := f.PriceToBook
	if pb == 0 {
		pb = defaultPriceToBook
	}
	roe := f.ReturnOnEquity
	if roe == 0 {
		roe = defaultROE
	}
	marketCap := f.MarketCap
	if marketCap <= 0 {
		marketCap = defaultMarketCap
	}

	valueExposure := 1 / pb
	qualityExposure := roe
	sizeExposure := -math.Log(marketCap / 1e11)

	exposures := []FactorValue{
		{Name: "Market", Value: beta},
		{Name: "Size", Value: sizeExposure},
		{Name: "Value", Value: valueExposure},
		{Name: "Momentum", Value: momentum},
		{Name: "Quality", Value: qualityExposure},
		{Name: "Volatility", Value: volExposure},
	}
	contributions := []FactorValue{
		{Name: "Market", Value: contributionMarket},
		{Name: "Size", Value: sizeExposure * 0.01},
		{Name: "Value", Value: valueExposure * 0.01},
		{Name: "Momentum", Value: momentum * 0.01},
		{Name: "Quality", Value: qualityExposure * 0.01},
		{Name: "Volatility", Value: contributionVolatility},
	}

	return &FactorAnalysis{
		Exposures:           exposures,
		Contributions:       contributions,
		ContributionPercent: percentOfTotal(contributions),
		ExposurePercent:     percentOfTotal(exposures),
	}, nil
}

// momentumExposure is the one-year price move measured one month back:
// (p[-21] - p[-252]) / p[-252] over an ascending series.
func momentumExposure(series []Point) float64 {
	price252 := series[len(series)-252].Close
	price21 := series[len(series)-21].Close
	if price252 == 0 {
		return 0
	}
	return (price21 - price252) / price252
}

// percentOfTotal maps each factor to its |value| share of the total, in percent
func percentOfTotal(factors []FactorValue) map[string]float64 {
	total := 0.0
	for _, f := range factors {
		total += math.Abs(f.Value)
	}
	percent := make(map[string]float64, len(factors))
	for _, f := range factors {
		if total == 0 {
			percent[f.Name] = 0
			continue
		}
		percent[f.Name] = 100 * math.Abs(f.Value) / total
	}
	return percent
}

func inverseOrZero(v float64) float64 {
	if v == 0 {
		return 0
	}
	return 1 / v
}

func closesOf(series []Point) []float64 {
	closes := make([]float64, len(series))
	for i, p := range series {
		closes[i] = p.Close
	}
	return closes
}

func sortedByDate(series []Point) []Point {
	out := make([]Point, len(series))
	copy(out, series)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
