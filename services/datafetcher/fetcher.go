package datafetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"marketdata_backend/models"
)

// Fundamentals holds the valuation figures of a symbol. Zero fields mean
// the feed had no figure.
type Fundamentals struct {
	PriceToBook    float64 `json:"price_to_book"`
	ReturnOnEquity float64 `json:"return_on_equity"`
	MarketCap      float64 `json:"market_cap"`
}

// DataFetcher is the typed HTTP client of the upstream market data feed
type DataFetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewDataFetcher creates a new data fetcher instance
func NewDataFetcher(baseURL string, timeout time.Duration) *DataFetcher {
	return &DataFetcher{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// historyResponse represents the feed's daily bar payload
type historyResponse struct {
	Symbol string `json:"symbol"`
	Points []struct {
		Date     string   `json:"date"`
		Open     float64  `json:"open"`
		High     float64  `json:"high"`
		Low      float64  `json:"low"`
		Close    *float64 `json:"close"`
		AdjClose *float64 `json:"adjClose"`
		Volume   int64    `json:"volume"`
	} `json:"points"`
}

// quoteResponse represents the feed's latest-quote payload
type quoteResponse struct {
	Symbol                     string  `json:"symbol"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	FiftyTwoWeekLow            float64 `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh           float64 `json:"fiftyTwoWeekHigh"`
	MarketCap                  float64 `json:"marketCap"`
	Currency                   string  `json:"currency"`
	Exchange                   string  `json:"exchange"`
	Market                     string  `json:"market"`
	ShortName                  string  `json:"shortName"`
	LongName                   string  `json:"longName"`
}

// moversResponse represents the feed's gainers/losers payload
type moversResponse struct {
	Index   string       `json:"index"`
	Gainers []moverEntry `json:"gainers"`
	Losers  []moverEntry `json:"losers"`
}

type moverEntry struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// newsResponse represents the feed's headline payload
type newsResponse struct {
	Index    string `json:"index"`
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		ImageURL    string `json:"imageUrl"`
		Provider    string `json:"provider"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// FetchHistory fetches the daily bar series of a symbol since the given date.
// Bars without a close are dropped at this boundary.
func (df *DataFetcher) FetchHistory(ctx context.Context, symbol string, since time.Time) ([]models.HistoryPoint, error) {
	var payload historyResponse
	params := url.Values{
		"symbol": {symbol},
		"from":   {since.Format("2006-01-02")},
	}
	if err := df.getJSON(ctx, "/v1/history", params, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}

	points := make([]models.HistoryPoint, 0, len(payload.Points))
	for _, p := range payload.Points {
		if p.Close == nil {
			continue
		}
		date, err := parseDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("bad date in history for %s: %w", symbol, err)
		}
		adjClose := *p.Close
		if p.AdjClose != nil {
			adjClose = *p.AdjClose
		}
		points = append(points, models.HistoryPoint{
			Symbol:   symbol,
			Date:     date,
			Open:     p.Open,
			High:     p.High,
			Low:      p.Low,
			Close:    *p.Close,
			AdjClose: adjClose,
			Volume:   p.Volume,
		})
	}
	return points, nil
}

// FetchQuote fetches the latest quote snapshot of a symbol
func (df *DataFetcher) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var payload quoteResponse
	if err := df.getJSON(ctx, "/v1/quote", url.Values{"symbol": {symbol}}, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	if payload.RegularMarketPrice == 0 && payload.Currency == "" {
		return nil, fmt.Errorf("empty quote payload for %s", symbol)
	}

	return &models.Quote{
		Symbol:           symbol,
		Price:            decimal.NewFromFloat(payload.RegularMarketPrice),
		Change:           decimal.NewFromFloat(payload.RegularMarketChange),
		ChangePercent:    decimal.NewFromFloat(payload.RegularMarketChangePercent),
		DayLow:           decimal.NewFromFloat(payload.RegularMarketDayLow),
		DayHigh:          decimal.NewFromFloat(payload.RegularMarketDayHigh),
		FiftyTwoWeekLow:  decimal.NewFromFloat(payload.FiftyTwoWeekLow),
		FiftyTwoWeekHigh: decimal.NewFromFloat(payload.FiftyTwoWeekHigh),
		MarketCap:        decimal.NewFromFloat(payload.MarketCap),
		Currency:         payload.Currency,
		Exchange:         payload.Exchange,
		Market:           payload.Market,
		ShortName:        payload.ShortName,
		LongName:         payload.LongName,
	}, nil
}

// FetchFundamentals fetches the valuation figures of a symbol
func (df *DataFetcher) FetchFundamentals(ctx context.Context, symbol string) (*Fundamentals, error) {
	var payload Fundamentals
	if err := df.getJSON(ctx, "/v1/fundamentals", url.Values{"symbol": {symbol}}, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch fundamentals for %s: %w", symbol, err)
	}
	return &payload, nil
}

// FetchMovers fetches the top gainers and losers of an index
func (df *DataFetcher) FetchMovers(ctx context.Context, indexSymbol string) ([]models.MarketMover, error) {
	var payload moversResponse
	if err := df.getJSON(ctx, "/v1/movers", url.Values{"index": {indexSymbol}}, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch movers for %s: %w", indexSymbol, err)
	}

	movers := make([]models.MarketMover, 0, len(payload.Gainers)+len(payload.Losers))
	for _, g := range payload.Gainers {
		movers = append(movers, moverModel(indexSymbol, "gainer", g))
	}
	for _, l := range payload.Losers {
		movers = append(movers, moverModel(indexSymbol, "loser", l))
	}
	return movers, nil
}

// FetchNews fetches the latest headlines of an index
func (df *DataFetcher) FetchNews(ctx context.Context, indexSymbol string) ([]models.News, error) {
	var payload newsResponse
	if err := df.getJSON(ctx, "/v1/news", url.Values{"index": {indexSymbol}}, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", indexSymbol, err)
	}

	items := make([]models.News, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.Title == "" || a.URL == "" {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			publishedAt = time.Time{}
		}
		items = append(items, models.News{
			IndexSymbol: indexSymbol,
			Title:       a.Title,
			URL:         a.URL,
			ImageURL:    a.ImageURL,
			Provider:    a.Provider,
			PublishedAt: publishedAt,
		})
	}
	return items, nil
}

func moverModel(indexSymbol, direction string, e moverEntry) models.MarketMover {
	return models.MarketMover{
		IndexSymbol:   indexSymbol,
		Symbol:        e.Symbol,
		Name:          e.Name,
		Direction:     direction,
		Price:         decimal.NewFromFloat(e.Price),
		Change:        decimal.NewFromFloat(e.Change),
		ChangePercent: decimal.NewFromFloat(e.ChangePercent),
	}
}

// getJSON performs a GET against the feed and decodes the JSON body
func (df *DataFetcher) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := df.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := df.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
