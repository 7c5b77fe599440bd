package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"marketdata_backend/models"
)

// MoversService caches the top gainers and losers of each index, replacing
// an index's rows wholesale on refresh
type MoversService struct {
	db       *gorm.DB
	provider MoversProvider
	ttl      time.Duration
	locks    symbolLocks
	now      func() time.Time
}

// NewMoversService creates a new market movers cache service
func NewMoversService(db *gorm.DB, provider MoversProvider, ttl time.Duration) *MoversService {
	return &MoversService{
		db:       db,
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Movers returns the cached movers of an index, refreshing them once the
// TTL has passed. A failed refresh falls back to the stale rows.
func (s *MoversService) Movers(ctx context.Context, indexSymbol string) ([]models.MarketMover, error) {
	sym, err := NormalizeSymbol(indexSymbol)
	if err != nil {
		return nil, err
	}

	mu := s.locks.lock(sym)
	mu.Lock()
	defer mu.Unlock()

	var cached []models.MarketMover
	if err := s.db.Where("index_symbol = ?", sym).Order("id ASC").Find(&cached).Error; err != nil {
		return nil, fmt.Errorf("failed to load movers for %s: %w", sym, err)
	}

	now := s.now()
	if len(cached) > 0 && now.Sub(cached[0].FetchedAt) < s.ttl {
		return cached, nil
	}

	fresh, err := s.provider.FetchMovers(ctx, sym)
	if err != nil || len(fresh) == 0 {
		if len(cached) > 0 {
			log.Printf("Movers refresh failed for %s, serving stale copy: %v", sym, err)
			return cached, nil
		}
		if err == nil {
			err = fmt.Errorf("feed returned no movers")
		}
		return nil, upstreamError(sym, err)
	}

	for i := range fresh {
		fresh[i].ID = 0
		fresh[i].IndexSymbol = sym
		fresh[i].FetchedAt = now
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("index_symbol = ?", sym).Delete(&models.MarketMover{}).Error; err != nil {
			return err
		}
		return tx.Create(&fresh).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace movers for %s: %w", sym, err)
	}

	return fresh, nil
}
