package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marketdata_backend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.MigrateMarketModels(db))
	return db
}

// testClock is an adjustable clock injected into the services under test
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// makeBars builds n daily bars ending near the clock's today
func makeBars(n int, end time.Time) []models.HistoryPoint {
	bars := make([]models.HistoryPoint, n)
	for i := 0; i < n; i++ {
		bars[i] = models.HistoryPoint{
			Date:   end.AddDate(0, 0, i-n+1),
			Open:   float64(99 + i),
			High:   float64(101 + i),
			Low:    float64(98 + i),
			Close:  float64(100 + i),
			Volume: int64(1000 + i),
		}
	}
	return bars
}

type fakeHistoryProvider struct {
	calls int
	bars  []models.HistoryPoint
	err   error
}

func (f *fakeHistoryProvider) FetchHistory(ctx context.Context, symbol string, since time.Time) ([]models.HistoryPoint, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.HistoryPoint, len(f.bars))
	copy(out, f.bars)
	return out, nil
}

type fakeQuoteProvider struct {
	calls int
	err   error
}

func (f *fakeQuoteProvider) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Quote{
		Symbol:   symbol,
		Price:    decimal.NewFromInt(int64(100 + f.calls)),
		Currency: "USD",
	}, nil
}

type fakeMoversProvider struct {
	calls int
	err   error
}

func (f *fakeMoversProvider) FetchMovers(ctx context.Context, indexSymbol string) ([]models.MarketMover, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []models.MarketMover{
		{Symbol: "AAA", Name: "Alpha", Direction: "gainer", Price: decimal.NewFromInt(int64(10 + f.calls))},
		{Symbol: "ZZZ", Name: "Omega", Direction: "loser", Price: decimal.NewFromInt(5)},
	}, nil
}

type fakeNewsProvider struct {
	calls int
	err   error
}

func (f *fakeNewsProvider) FetchNews(ctx context.Context, indexSymbol string) ([]models.News, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []models.News{
		{Title: "Markets rally", URL: "https://example.com/a", Provider: "Example"},
		{Title: "Rates hold", URL: "https://example.com/b", Provider: "Example"},
	}, nil
}
