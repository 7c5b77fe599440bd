package analysis

import "time"

// Point is the slim date+close view of a history bar, sorted ascending by date
type Point struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Window is the absolute and relative change of a series over one lookback
type Window struct {
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// Performance groups the named lookback windows of one symbol
type Performance struct {
	OneDay      Window `json:"one_day"`
	FiveDays    Window `json:"five_days"`
	OneMonth    Window `json:"one_month"`
	ThreeMonths Window `json:"three_months"`
	SixMonths   Window `json:"six_months"`
	OneYear     Window `json:"one_year"`
	ThreeYears  Window `json:"three_years"`
	FiveYears   Window `json:"five_years"`
	YearToDate  Window `json:"year_to_date"`
}

func window(base, last float64) Window {
	change := last - base
	if base == 0 {
		return Window{Change: change}
	}
	return Window{Change: change, ChangePercent: change / base * 100}
}

// ChangeOverCount measures the change over the trailing n points. When the
// series is shorter than n+1 points, the oldest point is the baseline.
func ChangeOverCount(series []Point, n int) Window {
	if len(series) == 0 || n <= 0 {
		return Window{}
	}
	baseIdx := len(series) - 1 - n
	if baseIdx < 0 {
		baseIdx = 0
	}
	return window(series[baseIdx].Close, series[len(series)-1].Close)
}

// ChangeSinceDate measures the change from the first point on or after the
// cutoff to the latest point. When every point precedes the cutoff the latest
// point doubles as the baseline and the window is zero.
func ChangeSinceDate(series []Point, cutoff time.Time) Window {
	if len(series) == 0 {
		return Window{}
	}
	baseIdx := len(series) - 1
	for i, p := range series {
		if !p.Date.Before(cutoff) {
			baseIdx = i
			break
		}
	}
	return window(series[baseIdx].Close, series[len(series)-1].Close)
}

// PerformanceWindows computes every named window over an ascending series.
// Month multiples are trading-day counts; the multi-year and year-to-date
// windows use calendar cutoffs.
func PerformanceWindows(series []Point, now time.Time) *Performance {
	jan1 := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return &Performance{
		OneDay:      ChangeOverCount(series, 1),
		FiveDays:    ChangeOverCount(series, 5),
		OneMonth:    ChangeOverCount(series, 21),
		ThreeMonths: ChangeOverCount(series, 63),
		SixMonths:   ChangeOverCount(series, 126),
		OneYear:     ChangeOverCount(series, 252),
		ThreeYears:  ChangeSinceDate(series, now.AddDate(-3, 0, 0)),
		FiveYears:   ChangeSinceDate(series, now.AddDate(-5, 0, 0)),
		YearToDate:  ChangeSinceDate(series, jan1),
	}
}
