package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"marketdata_backend/controllers"
	"marketdata_backend/middleware"
	"marketdata_backend/services"
)

// SetupRoutes sets up all API routes
func SetupRoutes(
	router *gin.Engine,
	market *services.MarketService,
	history *services.HistoryService,
	quotes *services.QuoteService,
	movers *services.MoversService,
	news *services.NewsService,
	stream *services.QuoteStreamService,
) {
	marketController := controllers.NewMarketController(market, history, quotes, movers, news, stream)

	limiter := middleware.NewRateLimiter(300, time.Minute)

	api := router.Group("/api")
	api.Use(middleware.RateLimitMiddleware(limiter))
	{
		api.GET("/indexes", marketController.GetIndexes)
		api.GET("/index-quotes", marketController.GetIndexQuotes)

		api.GET("/quote/:symbol", marketController.GetQuote)
		api.GET("/history/:symbol", marketController.GetHistory)

		api.GET("/performance/:symbol", marketController.GetPerformance)
		api.GET("/rsi/:symbol", marketController.GetRSI)
		api.GET("/forecast/:symbol", marketController.GetForecast)
		api.GET("/exposures/:symbol", marketController.GetFactorExposures)
		api.GET("/risk/:symbol", marketController.GetRiskMetrics)

		api.GET("/market-movers/:index", marketController.GetMarketMovers)
		api.GET("/news/:index", marketController.GetNews)

		api.GET("/stream", marketController.StreamQuotes)
	}
}
