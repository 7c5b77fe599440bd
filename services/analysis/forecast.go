package analysis

import "math"

// MaxForecastConfidence caps the published confidence of a trend fit
const MaxForecastConfidence = 69

// ForecastMetrics is the trend read of one lookback window
type ForecastMetrics struct {
	Sentiment        string  `json:"sentiment"`
	EstimatedChange  float64 `json:"estimated_change"`
	EstimatedPercent float64 `json:"estimated_percent"`
	Confidence       float64 `json:"confidence"`
	Risk             float64 `json:"risk"`
	Recommendation   string  `json:"recommendation"`
}

// ForecastPeriods groups the trend forecasts of the standard horizons
type ForecastPeriods struct {
	M3  *ForecastMetrics `json:"m3"`
	M6  *ForecastMetrics `json:"m6"`
	M12 *ForecastMetrics `json:"m12"`
}

// ComputeMetrics fits an OLS trend line over daily closes and derives
// sentiment, projected change, fit confidence, annualized volatility risk
// and a recommendation label. Returns nil for fewer than two closes.
func ComputeMetrics(prices []float64) *ForecastMetrics {
	n := len(prices)
	if n < 2 {
		return nil
	}

	reg := RegressionOverIndex(prices)

	// The recommendation grades the raw fit; only the published confidence
	// figure is capped.
	rawConfidence := reg.R2 * 100
	if rawConfidence < 0 {
		rawConfidence = 0
	}
	if rawConfidence > 100 {
		rawConfidence = 100
	}
	confidence := rawConfidence
	if confidence > MaxForecastConfidence {
		confidence = MaxForecastConfidence
	}

	sentiment := "Neutral"
	if reg.Slope > 0 {
		sentiment = "Positive"
	} else if reg.Slope < 0 {
		sentiment = "Negative"
	}

	currentPrice := prices[n-1]
	projectedChange := reg.Slope * float64(n-1)

	estimatedPercent := 0.0
	if currentPrice != 0 {
		estimatedPercent = projectedChange / currentPrice * 100
	}

	risk := StdDev(Returns(prices)) * math.Sqrt(252) * 100

	return &ForecastMetrics{
		Sentiment:        sentiment,
		EstimatedChange:  projectedChange,
		EstimatedPercent: estimatedPercent,
		Confidence:       confidence,
		Risk:             risk,
		Recommendation:   recommendationLabel(sentiment, rawConfidence/100),
	}
}

// Forecast runs ComputeMetrics over the trailing 63, 126 and 252 closes
func Forecast(closes []float64) *ForecastPeriods {
	return &ForecastPeriods{
		M3:  ComputeMetrics(tail(closes, 63)),
		M6:  ComputeMetrics(tail(closes, 126)),
		M12: ComputeMetrics(tail(closes, 252)),
	}
}

func recommendationLabel(sentiment string, confidence float64) string {
	switch sentiment {
	case "Positive":
		if confidence >= 0.8 {
			return "Strong Buy"
		}
		if confidence >= 0.6 {
			return "Buy"
		}
		return "Hold"
	case "Negative":
		if confidence >= 0.8 {
			return "Strong Sell"
		}
		if confidence >= 0.6 {
			return "Sell"
		}
		return "Hold"
	}
	return "Hold"
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
