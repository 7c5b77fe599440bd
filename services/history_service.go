package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"gorm.io/gorm"

	"marketdata_backend/models"
)

// historyLookbackYears and historyLookbackPad size the upstream fetch window:
// five years of bars plus a pad so the longest lookback is always covered.
const (
	historyLookbackYears = 5
	historyLookbackPad   = 60 // days
)

// HistoryService caches daily price series, replacing a symbol's series
// wholesale whenever it goes stale
type HistoryService struct {
	db       *gorm.DB
	provider HistoryProvider
	locks    symbolLocks
	now      func() time.Time
}

// NewHistoryService creates a new history cache service
func NewHistoryService(db *gorm.DB, provider HistoryProvider) *HistoryService {
	return &HistoryService{
		db:       db,
		provider: provider,
		now:      time.Now,
	}
}

// History returns the daily series of a symbol sorted ascending by date,
// refreshing it from the feed when the cached copy is stale. A failed
// refresh falls back to the stale copy rather than erroring.
func (s *HistoryService) History(ctx context.Context, symbol string) ([]models.HistoryPoint, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	mu := s.locks.lock(sym)
	mu.Lock()
	defer mu.Unlock()

	var cached []models.HistoryPoint
	if err := s.db.Where("symbol = ?", sym).Order("date ASC").Find(&cached).Error; err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", sym, err)
	}

	now := s.now()
	if len(cached) > 0 && !HistoryIsStale(len(cached), cached[len(cached)-1].FetchedAt, now) {
		return cached, nil
	}

	since := now.AddDate(-historyLookbackYears, 0, -historyLookbackPad)
	fresh, err := s.provider.FetchHistory(ctx, sym, since)
	if err != nil || len(fresh) == 0 {
		if len(cached) > 0 {
			log.Printf("History refresh failed for %s, serving stale copy: %v", sym, err)
			return cached, nil
		}
		if err == nil {
			err = fmt.Errorf("feed returned no bars")
		}
		return nil, upstreamError(sym, err)
	}

	fresh = dedupeSortedByDate(fresh)
	for i := range fresh {
		fresh[i].ID = 0
		fresh[i].Symbol = sym
		fresh[i].FetchedAt = now
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("symbol = ?", sym).Delete(&models.HistoryPoint{}).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(fresh, 500).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace history for %s: %w", sym, err)
	}

	return fresh, nil
}

// HistoryMinimal returns the slim date+close projection of a symbol's series
func (s *HistoryService) HistoryMinimal(ctx context.Context, symbol string) ([]models.HistoryPointMinimal, error) {
	points, err := s.History(ctx, symbol)
	if err != nil {
		return nil, err
	}
	minimal := make([]models.HistoryPointMinimal, len(points))
	for i, p := range points {
		minimal[i] = models.HistoryPointMinimal{Date: p.Date, Close: p.Close}
	}
	return minimal, nil
}

// dedupeSortedByDate sorts bars ascending by date and keeps the last bar of
// each date
func dedupeSortedByDate(points []models.HistoryPoint) []models.HistoryPoint {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	out := points[:0]
	for _, p := range points {
		if len(out) > 0 && sameDay(out[len(out)-1].Date, p.Date) {
			out[len(out)-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}
