package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marketdata_backend/models"
	"marketdata_backend/services"
)

type countingQuoteProvider struct {
	calls int
}

func (p *countingQuoteProvider) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	p.calls++
	return &models.Quote{Symbol: symbol, Price: decimal.NewFromInt(100), Currency: "USD"}, nil
}

type countingMoversProvider struct {
	calls int
}

func (p *countingMoversProvider) FetchMovers(ctx context.Context, indexSymbol string) ([]models.MarketMover, error) {
	p.calls++
	return []models.MarketMover{{Symbol: "AAA", Direction: "gainer", Price: decimal.NewFromInt(1)}}, nil
}

func newSchedulerFixture(t *testing.T) (*Scheduler, *countingQuoteProvider, *countingMoversProvider) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.MigrateMarketModels(db))
	require.NoError(t, models.SeedIndexes(db))

	quoteProvider := &countingQuoteProvider{}
	moversProvider := &countingMoversProvider{}

	history := services.NewHistoryService(db, nil)
	quotes := services.NewQuoteService(db, quoteProvider, 5)
	movers := services.NewMoversService(db, moversProvider, 4*time.Hour)
	news := services.NewNewsService(db, nil, 6*time.Hour)

	return NewScheduler(db, history, quotes, movers, news, 0), quoteProvider, moversProvider
}

func TestSchedulerRegistry(t *testing.T) {
	s, _, _ := newSchedulerFixture(t)

	for _, kind := range []JobKind{JobIndexQuotes, JobIndexHistories, JobMarketMovers, JobIndexNews} {
		job, err := s.Resolve(kind)
		require.NoError(t, err)
		assert.NotNil(t, job)
	}
	assert.Len(t, s.Kinds(), 4)

	_, err := s.Resolve(JobKind("defragment-disk"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job kind")
}

func TestRefreshIndexQuotesSweepsRegistry(t *testing.T) {
	s, quoteProvider, _ := newSchedulerFixture(t)

	require.NoError(t, s.refreshIndexQuotes(context.Background()))
	assert.Equal(t, len(models.DefaultIndexes), quoteProvider.calls)

	// A second sweep inside the TTL is served from cache
	require.NoError(t, s.refreshIndexQuotes(context.Background()))
	assert.Equal(t, len(models.DefaultIndexes), quoteProvider.calls)
}

func TestRefreshMarketMoversSweepsRegistry(t *testing.T) {
	s, _, moversProvider := newSchedulerFixture(t)

	require.NoError(t, s.refreshMarketMovers(context.Background()))
	assert.Equal(t, len(models.DefaultIndexes), moversProvider.calls)
}

func TestRefreshHonorsCancellation(t *testing.T) {
	s, quoteProvider, _ := newSchedulerFixture(t)
	s.delay = time.Hour // force the pause path

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.refreshIndexQuotes(ctx)
	require.Error(t, err)
	assert.LessOrEqual(t, quoteProvider.calls, 1)
}
