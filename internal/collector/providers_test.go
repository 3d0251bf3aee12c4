package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYahooFetcher_FetchPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/%5EGSPC", r.URL.EscapedPath())
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "6mo", r.URL.Query().Get("range"))
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1700000000,1700086400,1700172800],
			"indicators":{"quote":[{"open":[1,null,3],"high":[2,null,4],"low":[0.5,null,2.5],
			"close":[1.5,null,3.5],"volume":[100,null,300]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	bars, err := f.FetchPrices(context.Background(), "SPX500", "6mo", "1d")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.5, bars[0].Close)
	assert.Equal(t, 3.5, bars[1].Close)
	assert.Equal(t, 300.0, bars[1].Volume)
	assert.Equal(t, time.Unix(1700172800, 0).UTC(), bars[1].Time)
}

func TestYahooFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	_, err := f.FetchPrices(context.Background(), "AAPL", "1y", "1d")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestEODHDClient_FetchPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/AAPL.US", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("api_token"))
		assert.Equal(t, "json", q.Get("fmt"))
		assert.Equal(t, "d", q.Get("period"))
		assert.Equal(t, "2024-06-15", q.Get("from"))
		json.NewEncoder(w).Encode([]map[string]any{
			{"date": "2025-06-12", "open": 10, "high": 11, "low": 9, "close": 10.5, "adjusted_close": 10.5, "volume": 1000},
			{"date": "2025-06-13", "open": 10.5, "high": 12, "low": 10, "close": 11.5, "adjusted_close": 11.5, "volume": 2000},
		})
	}))
	defer srv.Close()

	c := NewEODHDClient("secret", WithEODHDBaseURL(srv.URL))
	c.now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }

	bars, err := c.FetchPrices(context.Background(), "aapl", "1y", "1d")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 11.5, bars[1].Close)
	assert.Equal(t, 2000.0, bars[1].Volume)
}

func TestEODHDClient_UnsupportedInterval(t *testing.T) {
	c := NewEODHDClient("secret")
	_, err := c.FetchPrices(context.Background(), "AAPL", "1y", "5m")
	assert.Error(t, err)
}

func TestEODHDClient_FetchNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/news", r.URL.Path)
		assert.Equal(t, "AAPL.US", r.URL.Query().Get("s"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"date":"2025-06-13T12:00:00+00:00","title":"Apple rallies","content":"Shares rose.",
			"link":"https://news.example/a","sentiment":{"polarity":0.6,"neg":0,"neu":0.4,"pos":0.6}}]`))
	}))
	defer srv.Close()

	c := NewEODHDClient("secret", WithEODHDBaseURL(srv.URL))
	items, err := c.FetchNews(context.Background(), "AAPL", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Apple rallies", items[0].Title)
	assert.Equal(t, "https://news.example/a", items[0].URL)
	require.NotNil(t, items[0].SentimentScore)
	assert.Equal(t, 0.6, *items[0].SentimentScore)
	require.NotNil(t, items[0].Published)
}

func TestEODHDClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewEODHDClient("bad", WithEODHDBaseURL(srv.URL))
	_, err := c.FetchNews(context.Background(), "AAPL", 5)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "/news", apiErr.Endpoint)
}

func TestTavilyNews_FetchNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "key", body["api_key"])
		assert.Equal(t, "NVDA stock news", body["query"])
		assert.Equal(t, 2.0, body["max_results"])
		w.Write([]byte(`{"results":[
			{"title":"One","url":"https://a","content":"first","score":0.9},
			{"title":"Two","url":"https://b","snippet":"second"},
			{"title":"Three","url":"https://c","content":"third"}]}`))
	}))
	defer srv.Close()

	n := NewTavilyNews("key", "")
	n.URL = srv.URL
	items, err := n.FetchNews(context.Background(), "NVDA", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Excerpt)
	assert.Equal(t, "second", items[1].Excerpt)
	require.NotNil(t, items[0].Relevance)
	assert.Nil(t, items[1].Relevance)
}

func TestTavilyNews_NoKey(t *testing.T) {
	_, err := NewTavilyNews("", "").FetchNews(context.Background(), "NVDA", 5)
	assert.Error(t, err)
}
