package datafetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *DataFetcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewDataFetcher(server.URL, 5*time.Second)
}

func TestFetchHistoryDropsBarsWithoutClose(t *testing.T) {
	df := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/history", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{
			"symbol": "AAPL",
			"points": [
				{"date": "2024-01-02", "open": 99, "high": 101, "low": 98, "close": 100, "volume": 1000},
				{"date": "2024-01-03", "open": 100, "high": 102, "low": 99, "close": null, "volume": 900},
				{"date": "2024-01-04", "open": 101, "high": 103, "low": 100, "close": 102, "adjClose": 101.5, "volume": 1100}
			]
		}`))
	})

	points, err := df.FetchHistory(context.Background(), "AAPL", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, 100.0, points[0].Close)
	assert.Equal(t, 100.0, points[0].AdjClose) // falls back to close
	assert.Equal(t, 102.0, points[1].Close)
	assert.Equal(t, 101.5, points[1].AdjClose)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), points[0].Date)
}

func TestFetchHistoryBadDate(t *testing.T) {
	df := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol": "AAPL", "points": [{"date": "not-a-date", "close": 100}]}`))
	})

	_, err := df.FetchHistory(context.Background(), "AAPL", time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad date")
}

func TestFetchHistoryUpstreamStatus(t *testing.T) {
	df := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := df.FetchHistory(context.Background(), "AAPL", time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestFetchQuote(t *testing.T) {
	df := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/quote", r.URL.Path)
		w.Write([]byte(`{
			"symbol": "AAPL",
			"regularMarketPrice": 187.32,
			"regularMarketChange": -1.2,
			"regularMarketChangePercent": -0.64,
			"currency": "USD",
			"exchange": "NMS",
			"shortName": "Apple Inc."
		}`))
	})

	quote, err := df.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, "187.32", quote.Price.String())
	assert.Equal(t, "USD", quote.Currency)
}

func TestFetchQuoteEmptyPayload(t *testing.T) {
	df := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := df.FetchQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty quote payload")
}

func TestFetchMovers(t *testing.T) {
	df := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "^GSPC", r.URL.Query().Get("index"))
		w.Write([]byte(`{
			"index": "^GSPC",
			"gainers": [{"symbol": "AAA", "name": "Alpha", "price": 12.5, "change": 1.5, "changePercent": 13.6}],
			"losers": [{"symbol": "ZZZ", "name": "Omega", "price": 8.1, "change": -0.9, "changePercent": -10.0}]
		}`))
	})

	movers, err := df.FetchMovers(context.Background(), "^GSPC")
	require.NoError(t, err)
	require.Len(t, movers, 2)
	assert.Equal(t, "gainer", movers[0].Direction)
	assert.Equal(t, "loser", movers[1].Direction)
	assert.Equal(t, "^GSPC", movers[0].IndexSymbol)
}

func TestFetchNewsSkipsIncompleteArticles(t *testing.T) {
	df := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"index": "^GSPC",
			"articles": [
				{"title": "Markets rally", "url": "https://example.com/a", "provider": "Example", "publishedAt": "2024-06-03T09:00:00Z"},
				{"title": "", "url": "https://example.com/b"},
				{"title": "No link", "url": ""}
			]
		}`))
	})

	news, err := df.FetchNews(context.Background(), "^GSPC")
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "Markets rally", news[0].Title)
	assert.Equal(t, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), news[0].PublishedAt)
}

func TestFetchFundamentals(t *testing.T) {
	df := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price_to_book": 42.1, "return_on_equity": 1.47, "market_cap": 2.9e12}`))
	})

	f, err := df.FetchFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 42.1, f.PriceToBook, 1e-9)
	assert.InDelta(t, 1.47, f.ReturnOnEquity, 1e-9)
	assert.InDelta(t, 2.9e12, f.MarketCap, 1e-3)
}
