package analysis

import "math"

// rsiLookback caps the closes considered by RSI to a trailing window
const rsiLookback = 60

// RSI computes the Wilder-smoothed Relative Strength Index over the trailing
// closes. The seed averages cover the first period price moves, every later
// move is folded in with Wilder smoothing. ok is false when fewer than
// period+1 usable closes exist. A series with no losses reads 100.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 {
		return 0, false
	}

	usable := make([]float64, 0, len(closes))
	for _, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		usable = append(usable, c)
	}
	if len(usable) > rsiLookback {
		usable = usable[len(usable)-rsiLookback:]
	}
	if len(usable) < period+1 {
		return 0, false
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		diff := usable[i] - usable[i-1]
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss += -diff
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(usable); i++ {
		diff := usable[i] - usable[i-1]
		gain := 0.0
		loss := 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, true
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}
