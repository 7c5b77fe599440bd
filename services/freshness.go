package services

import (
	"math"
	"strings"
	"time"

	"marketdata_backend/services/analysis"
)

// MinHistoryPoints is the shortest cached series considered usable; it must
// cover the longest analytics lookback.
const MinHistoryPoints = analysis.MinSeriesPoints

// IsStale reports whether cached data older than the threshold must be
// refreshed. Elapsed time rounds up to whole minutes, so any step into the
// next minute counts as a full one.
func IsStale(lastFetched time.Time, thresholdMinutes int, now time.Time) bool {
	diff := now.Sub(lastFetched)
	if diff <= 0 {
		return false
	}
	elapsedMinutes := int(math.Ceil(diff.Minutes()))
	return elapsedMinutes >= thresholdMinutes
}

// HistoryIsStale reports whether a cached daily series must be replaced.
// A series shorter than MinHistoryPoints is always stale; otherwise it is
// stale unless it was fetched today.
func HistoryIsStale(pointCount int, lastFetched time.Time, now time.Time) bool {
	if pointCount < MinHistoryPoints {
		return true
	}
	return !sameDay(lastFetched, now)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// NormalizeSymbol canonicalizes a ticker symbol to trimmed upper case.
// Empty or whitespace-bearing symbols are rejected.
func NormalizeSymbol(symbol string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" || strings.ContainsAny(normalized, " \t\n") {
		return "", invalidSymbolError(symbol)
	}
	return normalized, nil
}
