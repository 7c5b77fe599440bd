package services

import (
	"context"
	"sync"
	"time"

	"marketdata_backend/models"
	"marketdata_backend/services/datafetcher"
)

// HistoryProvider fetches a daily bar series from the upstream feed
type HistoryProvider interface {
	FetchHistory(ctx context.Context, symbol string, since time.Time) ([]models.HistoryPoint, error)
}

// QuoteProvider fetches the latest quote snapshot from the upstream feed
type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// FundamentalsProvider fetches valuation figures from the upstream feed
type FundamentalsProvider interface {
	FetchFundamentals(ctx context.Context, symbol string) (*datafetcher.Fundamentals, error)
}

// MoversProvider fetches the gainers and losers of an index
type MoversProvider interface {
	FetchMovers(ctx context.Context, indexSymbol string) ([]models.MarketMover, error)
}

// NewsProvider fetches the headlines of an index
type NewsProvider interface {
	FetchNews(ctx context.Context, indexSymbol string) ([]models.News, error)
}

// symbolLocks serializes check-fetch-replace cycles per symbol
type symbolLocks struct {
	locks sync.Map // symbol -> *sync.Mutex
}

func (sl *symbolLocks) lock(symbol string) *sync.Mutex {
	mu, _ := sl.locks.LoadOrStore(symbol, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
