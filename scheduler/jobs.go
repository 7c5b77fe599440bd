package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"marketdata_backend/models"
)

// indexSymbols loads the registered index symbols
func (s *Scheduler) indexSymbols() ([]string, error) {
	var indexes []models.Index
	if err := s.db.Order("symbol ASC").Find(&indexes).Error; err != nil {
		return nil, fmt.Errorf("failed to load index registry: %w", err)
	}
	symbols := make([]string, len(indexes))
	for i, idx := range indexes {
		symbols[i] = idx.Symbol
	}
	return symbols, nil
}

// pause waits the inter-symbol delay, honoring cancellation
func (s *Scheduler) pause(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.delay):
		return nil
	}
}

// refreshIndexQuotes refreshes the cached quote of every registered index
func (s *Scheduler) refreshIndexQuotes(ctx context.Context) error {
	symbols, err := s.indexSymbols()
	if err != nil {
		return err
	}

	for i, symbol := range symbols {
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				return err
			}
		}
		if _, err := s.quotes.Quote(ctx, symbol); err != nil {
			log.Printf("Quote refresh failed for %s: %v", symbol, err)
		}
	}
	return nil
}

// refreshIndexHistories refreshes the cached daily series of every
// registered index
func (s *Scheduler) refreshIndexHistories(ctx context.Context) error {
	symbols, err := s.indexSymbols()
	if err != nil {
		return err
	}

	for i, symbol := range symbols {
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				return err
			}
		}
		if _, err := s.history.History(ctx, symbol); err != nil {
			log.Printf("History refresh failed for %s: %v", symbol, err)
		}
	}
	return nil
}

// refreshMarketMovers refreshes the cached movers of every registered index
func (s *Scheduler) refreshMarketMovers(ctx context.Context) error {
	symbols, err := s.indexSymbols()
	if err != nil {
		return err
	}

	for i, symbol := range symbols {
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				return err
			}
		}
		if _, err := s.movers.Movers(ctx, symbol); err != nil {
			log.Printf("Movers refresh failed for %s: %v", symbol, err)
		}
	}
	return nil
}

// refreshIndexNews refreshes the cached headlines of every registered index
func (s *Scheduler) refreshIndexNews(ctx context.Context) error {
	symbols, err := s.indexSymbols()
	if err != nil {
		return err
	}

	for i, symbol := range symbols {
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				return err
			}
		}
		if _, err := s.news.News(ctx, symbol); err != nil {
			log.Printf("News refresh failed for %s: %v", symbol, err)
		}
	}
	return nil
}
