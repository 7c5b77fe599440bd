package analysis

import (
	"math"
	"sort"
)

// RiskMetrics summarizes tail risk of a return series
type RiskMetrics struct {
	Correlation       *float64 `json:"correlation"`
	ValueAtRisk       float64  `json:"value_at_risk"`
	ExpectedShortfall float64  `json:"expected_shortfall"`
	MaxDrawdown       float64  `json:"max_drawdown"`
}

// ComputeRiskMetrics derives historical 95% VaR, expected shortfall and max
// drawdown from a return series. Correlation is filled only when a benchmark
// series of equal length is given.
func ComputeRiskMetrics(returns, benchmarkReturns []float64) *RiskMetrics {
	if len(returns) == 0 {
		return &RiskMetrics{}
	}

	m := &RiskMetrics{}

	if len(benchmarkReturns) == len(returns) && len(returns) > 1 {
		corr := sampleCorrelation(returns, benchmarkReturns)
		m.Correlation = &corr
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	varIdx := int(math.Floor(0.05 * float64(len(sorted))))
	m.ValueAtRisk = math.Abs(sorted[varIdx])

	losses := sorted[:varIdx+1]
	m.ExpectedShortfall = math.Abs(Mean(losses))

	maxDrawdown := 0.0
	runningMax := returns[0]
	for i := 1; i < len(returns); i++ {
		if returns[i] > runningMax {
			runningMax = returns[i]
		}
		if runningMax != 0 {
			dd := (returns[i] - runningMax) / runningMax
			if dd < maxDrawdown {
				maxDrawdown = dd
			}
		}
	}
	m.MaxDrawdown = math.Abs(maxDrawdown)

	return m
}

func sampleCorrelation(x, y []float64) float64 {
	sx := StdDev(x)
	sy := StdDev(y)
	if sx == 0 || sy == 0 {
		return 0
	}
	mx := Mean(x)
	my := Mean(y)
	cov := 0.0
	for i := range x {
		cov += (x[i] - mx) * (y[i] - my)
	}
	cov /= float64(len(x) - 1)
	return cov / (sx * sy)
}
