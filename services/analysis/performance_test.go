package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seriesFromCloses(start time.Time, closes ...float64) []Point {
	series := make([]Point, len(closes))
	for i, c := range closes {
		series[i] = Point{Date: start.AddDate(0, 0, i), Close: c}
	}
	return series
}

func TestChangeOverCount(t *testing.T) {
	series := seriesFromCloses(day(2024, 1, 1), 10, 11, 12, 13)

	w := ChangeOverCount(series, 1)
	assert.InDelta(t, 1.0, w.Change, 1e-9)
	assert.InDelta(t, 1.0/12*100, w.ChangePercent, 1e-9)

	// Series shorter than the window falls back to the oldest point
	w = ChangeOverCount(series, 50)
	assert.InDelta(t, 3.0, w.Change, 1e-9)
	assert.InDelta(t, 30.0, w.ChangePercent, 1e-9)
}

func TestChangeOverCountZeroBaseline(t *testing.T) {
	series := seriesFromCloses(day(2024, 1, 1), 0, 10)

	w := ChangeOverCount(series, 1)
	assert.Equal(t, 10.0, w.Change)
	assert.Equal(t, 0.0, w.ChangePercent)
}

func TestChangeOverCountEmpty(t *testing.T) {
	assert.Equal(t, Window{}, ChangeOverCount(nil, 5))
	assert.Equal(t, Window{}, ChangeOverCount(seriesFromCloses(day(2024, 1, 1), 10), 0))
}

func TestChangeSinceDate(t *testing.T) {
	series := []Point{
		{Date: day(2024, 1, 1), Close: 100},
		{Date: day(2024, 6, 1), Close: 120},
	}

	w := ChangeSinceDate(series, day(2024, 1, 1))
	assert.InDelta(t, 20.0, w.Change, 1e-9)
	assert.InDelta(t, 20.0, w.ChangePercent, 1e-9)
}

func TestChangeSinceDateAllBeforeCutoff(t *testing.T) {
	series := []Point{
		{Date: day(2020, 1, 1), Close: 100},
		{Date: day(2020, 6, 1), Close: 120},
	}

	w := ChangeSinceDate(series, day(2024, 1, 1))
	assert.Equal(t, 0.0, w.Change)
	assert.Equal(t, 0.0, w.ChangePercent)
}

func TestChangeSinceDateEmpty(t *testing.T) {
	assert.Equal(t, Window{}, ChangeSinceDate(nil, day(2024, 1, 1)))
}

func TestPerformanceWindowsNoNaN(t *testing.T) {
	// Zero closes must never leak NaN or Inf into any window
	series := seriesFromCloses(day(2024, 1, 1), 0, 0, 0, 0, 0, 0)
	perf := PerformanceWindows(series, day(2024, 2, 1))
	require.NotNil(t, perf)

	for _, w := range []Window{
		perf.OneDay, perf.FiveDays, perf.OneMonth, perf.ThreeMonths,
		perf.SixMonths, perf.OneYear, perf.ThreeYears, perf.FiveYears, perf.YearToDate,
	} {
		assert.False(t, math.IsNaN(w.Change) || math.IsInf(w.Change, 0))
		assert.False(t, math.IsNaN(w.ChangePercent) || math.IsInf(w.ChangePercent, 0))
	}
}

func TestPerformanceWindowsYearToDate(t *testing.T) {
	series := []Point{
		{Date: day(2023, 12, 29), Close: 90},
		{Date: day(2024, 1, 2), Close: 100},
		{Date: day(2024, 3, 1), Close: 110},
	}

	perf := PerformanceWindows(series, day(2024, 3, 1))
	assert.InDelta(t, 10.0, perf.YearToDate.Change, 1e-9)
	assert.InDelta(t, 10.0, perf.YearToDate.ChangePercent, 1e-9)
}
