package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"marketdata_backend/models"
	"marketdata_backend/services/analysis"
)

// DefaultBenchmark anchors factor and risk analytics when none is given
const DefaultBenchmark = "^GSPC"

// MarketService glues the caches to the analytics layer
type MarketService struct {
	db           *gorm.DB
	history      *HistoryService
	fundamentals FundamentalsProvider
	now          func() time.Time
}

// NewMarketService creates a new market analytics service
func NewMarketService(db *gorm.DB, history *HistoryService, fundamentals FundamentalsProvider) *MarketService {
	return &MarketService{
		db:           db,
		history:      history,
		fundamentals: fundamentals,
		now:          time.Now,
	}
}

// IndexSymbols lists the registered index symbols
func (s *MarketService) IndexSymbols() ([]string, error) {
	var indexes []models.Index
	if err := s.db.Order("symbol ASC").Find(&indexes).Error; err != nil {
		return nil, err
	}
	symbols := make([]string, len(indexes))
	for i, idx := range indexes {
		symbols[i] = idx.Symbol
	}
	return symbols, nil
}

// Indexes lists the registered indexes
func (s *MarketService) Indexes() ([]models.Index, error) {
	var indexes []models.Index
	if err := s.db.Order("symbol ASC").Find(&indexes).Error; err != nil {
		return nil, err
	}
	return indexes, nil
}

// Performance computes the named lookback windows over a symbol's series
func (s *MarketService) Performance(ctx context.Context, symbol string) (*analysis.Performance, error) {
	series, err := s.series(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return analysis.PerformanceWindows(series, s.now()), nil
}

// RSI computes the Wilder RSI of a symbol. ok is false when the series is
// too short for the period.
func (s *MarketService) RSI(ctx context.Context, symbol string, period int) (float64, bool, error) {
	series, err := s.series(ctx, symbol)
	if err != nil {
		return 0, false, err
	}
	value, ok := analysis.RSI(closes(series), period)
	return value, ok, nil
}

// Forecast computes the trend forecasts of a symbol over the standard horizons
func (s *MarketService) Forecast(ctx context.Context, symbol string) (*analysis.ForecastPeriods, error) {
	series, err := s.series(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return analysis.Forecast(closes(series)), nil
}

// FactorExposures decomposes a symbol against a benchmark index into factor
// exposures and contributions
func (s *MarketService) FactorExposures(ctx context.Context, symbol, benchmark string) (*analysis.FactorAnalysis, error) {
	if benchmark == "" {
		benchmark = DefaultBenchmark
	}

	stockSeries, err := s.series(ctx, symbol)
	if err != nil {
		return nil, err
	}
	benchSeries, err := s.series(ctx, benchmark)
	if err != nil {
		return nil, err
	}

	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	fundamentals := analysis.Fundamentals{}
	if raw, ferr := s.fundamentals.FetchFundamentals(ctx, sym); ferr == nil {
		fundamentals = analysis.Fundamentals{
			PriceToBook:    raw.PriceToBook,
			ReturnOnEquity: raw.ReturnOnEquity,
			MarketCap:      raw.MarketCap,
		}
	}

	result, err := analysis.FactorExposures(stockSeries, benchSeries, fundamentals)
	if err != nil {
		if errors.Is(err, analysis.ErrInsufficientData) {
			return nil, insufficientDataError(sym, err)
		}
		return nil, err
	}
	return result, nil
}

// RiskMetrics computes tail-risk metrics of a symbol against a benchmark
func (s *MarketService) RiskMetrics(ctx context.Context, symbol, benchmark string) (*analysis.RiskMetrics, error) {
	if benchmark == "" {
		benchmark = DefaultBenchmark
	}

	stockSeries, err := s.series(ctx, symbol)
	if err != nil {
		return nil, err
	}
	benchSeries, err := s.series(ctx, benchmark)
	if err != nil {
		return nil, err
	}

	stockReturns := analysis.Returns(closes(stockSeries))
	benchReturns := analysis.Returns(closes(benchSeries))
	if len(benchReturns) > len(stockReturns) {
		benchReturns = benchReturns[:len(stockReturns)]
	} else if len(stockReturns) > len(benchReturns) {
		stockReturns = stockReturns[:len(benchReturns)]
	}
	return analysis.ComputeRiskMetrics(stockReturns, benchReturns), nil
}

// series loads the cached history of a symbol as analytics points
func (s *MarketService) series(ctx context.Context, symbol string) ([]analysis.Point, error) {
	points, err := s.history.History(ctx, symbol)
	if err != nil {
		return nil, err
	}
	series := make([]analysis.Point, len(points))
	for i, p := range points {
		series[i] = analysis.Point{Date: p.Date, Close: p.Close}
	}
	return series, nil
}

func closes(series []analysis.Point) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[i] = p.Close
	}
	return out
}
