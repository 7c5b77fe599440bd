package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketdata_backend/services"
)

// MarketController handles market data requests
type MarketController struct {
	market  *services.MarketService
	history *services.HistoryService
	quotes  *services.QuoteService
	movers  *services.MoversService
	news    *services.NewsService
	stream  *services.QuoteStreamService
}

// NewMarketController creates a new market controller
func NewMarketController(
	market *services.MarketService,
	history *services.HistoryService,
	quotes *services.QuoteService,
	movers *services.MoversService,
	news *services.NewsService,
	stream *services.QuoteStreamService,
) *MarketController {
	return &MarketController{
		market:  market,
		history: history,
		quotes:  quotes,
		movers:  movers,
		news:    news,
		stream:  stream,
	}
}

// respondError maps a service failure onto an HTTP status and a structured body
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status := http.StatusBadGateway
	switch kind {
	case services.KindInvalidSymbol:
		status = http.StatusBadRequest
	case services.KindInsufficientData:
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": string(kind)})
}

// GetIndexes returns the registered index registry
// GET /api/indexes
func (mc *MarketController) GetIndexes(c *gin.Context) {
	indexes, err := mc.market.Indexes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch indexes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": indexes})
}

// GetIndexQuotes returns the cached quote of every registered index
// GET /api/index-quotes
func (mc *MarketController) GetIndexQuotes(c *gin.Context) {
	symbols, err := mc.market.IndexSymbols()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch indexes"})
		return
	}
	quotes := mc.quotes.Quotes(c.Request.Context(), symbols, 0)
	c.JSON(http.StatusOK, gin.H{"data": quotes})
}

// GetQuote returns the cached quote of a symbol
// GET /api/quote/:symbol
func (mc *MarketController) GetQuote(c *gin.Context) {
	quote, err := mc.quotes.Quote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": quote})
}

// GetHistory returns the cached daily series of a symbol, oldest first.
// The minimal flag trims the payload to date and close.
// GET /api/history/:symbol?minimal=true
func (mc *MarketController) GetHistory(c *gin.Context) {
	symbol := c.Param("symbol")

	if c.Query("minimal") == "true" {
		points, err := mc.history.HistoryMinimal(c.Request.Context(), symbol)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": points})
		return
	}

	points, err := mc.history.History(c.Request.Context(), symbol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": points})
}

// GetPerformance returns the named performance windows of a symbol
// GET /api/performance/:symbol
func (mc *MarketController) GetPerformance(c *gin.Context) {
	performance, err := mc.market.Performance(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": performance})
}

// GetRSI returns the Wilder RSI of a symbol. Value is null when the series
// is too short for the period.
// GET /api/rsi/:symbol?period=14
func (mc *MarketController) GetRSI(c *gin.Context) {
	period, err := strconv.Atoi(c.DefaultQuery("period", "14"))
	if err != nil || period <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period"})
		return
	}

	value, ok, err := mc.market.RSI(c.Request.Context(), c.Param("symbol"), period)
	if err != nil {
		respondError(c, err)
		return
	}

	var rsi interface{}
	if ok {
		rsi = value
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"period": period, "rsi": rsi}})
}

// GetForecast returns the trend forecasts of a symbol over the standard horizons
// GET /api/forecast/:symbol
func (mc *MarketController) GetForecast(c *gin.Context) {
	forecast, err := mc.market.Forecast(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": forecast})
}

// GetFactorExposures returns the factor decomposition of a symbol against a
// benchmark index
// GET /api/exposures/:symbol?benchmark=^GSPC
func (mc *MarketController) GetFactorExposures(c *gin.Context) {
	result, err := mc.market.FactorExposures(c.Request.Context(), c.Param("symbol"), c.Query("benchmark"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetRiskMetrics returns tail-risk metrics of a symbol against a benchmark
// GET /api/risk/:symbol?benchmark=^GSPC
func (mc *MarketController) GetRiskMetrics(c *gin.Context) {
	result, err := mc.market.RiskMetrics(c.Request.Context(), c.Param("symbol"), c.Query("benchmark"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetMarketMovers returns the cached gainers and losers of an index
// GET /api/market-movers/:index
func (mc *MarketController) GetMarketMovers(c *gin.Context) {
	movers, err := mc.movers.Movers(c.Request.Context(), c.Param("index"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": movers})
}

// GetNews returns the cached headlines of an index
// GET /api/news/:index
func (mc *MarketController) GetNews(c *gin.Context) {
	news, err := mc.news.News(c.Request.Context(), c.Param("index"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": news})
}

// StreamQuotes upgrades the request into a WebSocket quote subscription
// GET /api/stream
func (mc *MarketController) StreamQuotes(c *gin.Context) {
	mc.stream.HandleWebSocket(c.Writer, c.Request)
}
