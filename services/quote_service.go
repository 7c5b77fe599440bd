package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketdata_backend/models"
)

// QuoteService caches the latest quote of each symbol with a short TTL,
// one row per symbol
type QuoteService struct {
	db         *gorm.DB
	provider   QuoteProvider
	ttlMinutes int
	locks      symbolLocks
	now        func() time.Time
}

// NewQuoteService creates a new quote cache service
func NewQuoteService(db *gorm.DB, provider QuoteProvider, ttlMinutes int) *QuoteService {
	return &QuoteService{
		db:         db,
		provider:   provider,
		ttlMinutes: ttlMinutes,
		now:        time.Now,
	}
}

// Quote returns the cached quote of a symbol, refreshing it from the feed
// once the TTL has passed. The refreshed snapshot is upserted onto the
// symbol's single row. A failed refresh falls back to the stale row.
func (s *QuoteService) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	mu := s.locks.lock(sym)
	mu.Lock()
	defer mu.Unlock()

	var cached models.Quote
	cacheErr := s.db.Where("symbol = ?", sym).First(&cached).Error
	if cacheErr != nil && !errors.Is(cacheErr, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load quote for %s: %w", sym, cacheErr)
	}

	hit := cacheErr == nil
	if hit && !IsStale(cached.FetchedAt, s.ttlMinutes, s.now()) {
		return &cached, nil
	}

	fresh, err := s.provider.FetchQuote(ctx, sym)
	if err != nil {
		if hit {
			log.Printf("Quote refresh failed for %s, serving stale copy: %v", sym, err)
			return &cached, nil
		}
		return nil, upstreamError(sym, err)
	}

	fresh.Symbol = sym
	fresh.FetchedAt = s.now()

	// Refresh the snapshot columns only; the row keeps its identity and
	// creation timestamp.
	err = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"price", "change", "change_percent",
			"day_low", "day_high",
			"fifty_two_week_low", "fifty_two_week_high",
			"market_cap", "currency", "exchange", "market",
			"short_name", "long_name",
			"fetched_at", "updated_at",
		}),
	}).Create(fresh).Error
	if err != nil {
		return nil, fmt.Errorf("failed to store quote for %s: %w", sym, err)
	}

	var stored models.Quote
	if err := s.db.Where("symbol = ?", sym).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to reload quote for %s: %w", sym, err)
	}
	return &stored, nil
}

// Quotes resolves the quotes of several symbols sequentially, pausing
// between feed round trips. Symbols whose quote cannot be resolved are
// skipped with a log line.
func (s *QuoteService) Quotes(ctx context.Context, symbols []string, delay time.Duration) []models.Quote {
	quotes := make([]models.Quote, 0, len(symbols))
	for i, symbol := range symbols {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return quotes
			case <-time.After(delay):
			}
		}
		q, err := s.Quote(ctx, symbol)
		if err != nil {
			log.Printf("Skipping quote for %s: %v", symbol, err)
			continue
		}
		quotes = append(quotes, *q)
	}
	return quotes
}
