package analysis

import "math"

// Returns computes simple period-over-period returns: r[i] = p[i+1]/p[i] - 1.
// Intervals with a zero starting price are skipped.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation, 0 when fewer than two values
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// Regression holds an ordinary least squares fit y = Intercept + Slope*x
type Regression struct {
	Slope     float64
	Intercept float64
	R2        float64
}

// LinearRegression fits y over x by ordinary least squares. A degenerate
// x spread yields a zero slope; a flat y series yields R2 = 0 rather
// than a division by zero.
func LinearRegression(x, y []float64) Regression {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return Regression{}
	}

	xMean := Mean(x[:n])
	yMean := Mean(y[:n])

	num := 0.0
	den := 0.0
	for i := 0; i < n; i++ {
		dx := x[i] - xMean
		num += dx * (y[i] - yMean)
		den += dx * dx
	}
	if den == 0 {
		return Regression{Intercept: yMean}
	}

	slope := num / den
	intercept := yMean - slope*xMean

	ssRes := 0.0
	ssTot := 0.0
	for i := 0; i < n; i++ {
		fit := intercept + slope*x[i]
		ssRes += (y[i] - fit) * (y[i] - fit)
		ssTot += (y[i] - yMean) * (y[i] - yMean)
	}

	r2 := 0.0
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}

	return Regression{Slope: slope, Intercept: intercept, R2: r2}
}

// RegressionOverIndex fits y over its own index positions 0..n-1
func RegressionOverIndex(y []float64) Regression {
	x := make([]float64, len(y))
	for i := range x {
		x[i] = float64(i)
	}
	return LinearRegression(x, y)
}
