package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"marketdata_backend/models"
)

// maxNewsItems caps how many headlines are kept and served per index
const maxNewsItems = 10

// NewsService caches headlines per index, replacing an index's rows
// wholesale on refresh
type NewsService struct {
	db       *gorm.DB
	provider NewsProvider
	ttl      time.Duration
	locks    symbolLocks
	now      func() time.Time
}

// NewNewsService creates a new news cache service
func NewNewsService(db *gorm.DB, provider NewsProvider, ttl time.Duration) *NewsService {
	return &NewsService{
		db:       db,
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
	}
}

// News returns the cached headlines of an index newest first, refreshing
// them once the TTL has passed. A failed refresh falls back to the stale
// rows.
func (s *NewsService) News(ctx context.Context, indexSymbol string) ([]models.News, error) {
	sym, err := NormalizeSymbol(indexSymbol)
	if err != nil {
		return nil, err
	}

	mu := s.locks.lock(sym)
	mu.Lock()
	defer mu.Unlock()

	var cached []models.News
	err = s.db.Where("index_symbol = ?", sym).
		Order("published_at DESC").
		Limit(maxNewsItems).
		Find(&cached).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load news for %s: %w", sym, err)
	}

	now := s.now()
	if len(cached) > 0 && now.Sub(cached[0].FetchedAt) < s.ttl {
		return cached, nil
	}

	fresh, err := s.provider.FetchNews(ctx, sym)
	if err != nil || len(fresh) == 0 {
		if len(cached) > 0 {
			log.Printf("News refresh failed for %s, serving stale copy: %v", sym, err)
			return cached, nil
		}
		if err == nil {
			err = fmt.Errorf("feed returned no headlines")
		}
		return nil, upstreamError(sym, err)
	}

	if len(fresh) > maxNewsItems {
		fresh = fresh[:maxNewsItems]
	}
	for i := range fresh {
		fresh[i].ID = 0
		fresh[i].IndexSymbol = sym
		fresh[i].FetchedAt = now
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("index_symbol = ?", sym).Delete(&models.News{}).Error; err != nil {
			return err
		}
		return tx.Create(&fresh).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace news for %s: %w", sym, err)
	}

	return fresh, nil
}
