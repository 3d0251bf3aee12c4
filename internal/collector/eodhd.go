package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"EquityDesk/internal/model"
)

const (
	// DefaultEODHDBaseURL is the base URL for the EOD Historical Data API.
	DefaultEODHDBaseURL = "https://eodhd.com/api"

	// DefaultEODHDRateLimit is requests per second.
	DefaultEODHDRateLimit = 10
)

// EODHDClient implements PriceSource and NewsSource on the EOD Historical Data API.
type EODHDClient struct {
	baseURL    string
	apiKey     string
	exchange   string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	now        func() time.Time
}

// EODHDOption configures the EODHDClient.
type EODHDOption func(*EODHDClient)

// WithEODHDBaseURL sets a custom base URL.
func WithEODHDBaseURL(baseURL string) EODHDOption {
	return func(c *EODHDClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithEODHDHTTPClient sets a custom HTTP client.
func WithEODHDHTTPClient(httpClient *http.Client) EODHDOption {
	return func(c *EODHDClient) {
		c.httpClient = httpClient
	}
}

// WithEODHDLogger sets a logger.
func WithEODHDLogger(logger arbor.ILogger) EODHDOption {
	return func(c *EODHDClient) {
		c.logger = logger
	}
}

// WithEODHDRateLimit sets a custom rate limit.
func WithEODHDRateLimit(requestsPerSecond int) EODHDOption {
	return func(c *EODHDClient) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithEODHDExchange sets the exchange suffix for bare tickers, e.g. "US".
func WithEODHDExchange(exchange string) EODHDOption {
	return func(c *EODHDClient) {
		c.exchange = exchange
	}
}

// NewEODHDClient creates a new EOD Historical Data client.
func NewEODHDClient(apiKey string, opts ...EODHDOption) *EODHDClient {
	c := &EODHDClient{
		baseURL:    DefaultEODHDBaseURL,
		apiKey:     apiKey,
		exchange:   "US",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(DefaultEODHDRateLimit), DefaultEODHDRateLimit),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *EODHDClient) Name() string { return "eodhd" }

// symbol qualifies a bare ticker with the default exchange.
func (c *EODHDClient) symbol(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if strings.Contains(t, ".") || c.exchange == "" {
		return t
	}
	return t + "." + c.exchange
}

// get performs a GET request and decodes the JSON body into result.
func (c *EODHDClient) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("eodhd rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("EODHD API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			Provider:   "EODHD",
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 200),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type eodBar struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// FetchPrices retrieves end-of-day bars covering period.
func (c *EODHDClient) FetchPrices(ctx context.Context, ticker, period, interval string) ([]model.OHLCV, error) {
	eodP, err := eodPeriod(interval)
	if err != nil {
		return nil, err
	}
	from, err := periodStart(period, c.now())
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("period", eodP)
	params.Set("order", "a")
	if !from.IsZero() {
		params.Set("from", from.Format("2006-01-02"))
	}

	var raw []eodBar
	if err := c.get(ctx, "/eod/"+c.symbol(ticker), params, &raw); err != nil {
		return nil, err
	}

	bars := make([]model.OHLCV, 0, len(raw))
	for _, r := range raw {
		t, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: float64(r.Volume),
		})
	}
	return bars, nil
}

type eodNews struct {
	Date      string `json:"date"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Link      string `json:"link"`
	Sentiment *struct {
		Polarity float64 `json:"polarity"`
	} `json:"sentiment,omitempty"`
}

// FetchNews retrieves recent articles tagged with the ticker.
func (c *EODHDClient) FetchNews(ctx context.Context, ticker string, limit int) ([]model.NewsItem, error) {
	params := url.Values{}
	params.Set("s", c.symbol(ticker))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var raw []eodNews
	if err := c.get(ctx, "/news", params, &raw); err != nil {
		return nil, err
	}

	items := make([]model.NewsItem, 0, len(raw))
	for _, r := range raw {
		item := model.NewsItem{
			Title:   r.Title,
			URL:     r.Link,
			Excerpt: excerpt(r.Content, 280),
		}
		if t, ok := parseNewsTime(r.Date); ok {
			item.Published = &t
		}
		if r.Sentiment != nil {
			p := r.Sentiment.Polarity
			item.SentimentScore = &p
		}
		items = append(items, item)
	}
	return items, nil
}

func parseNewsTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, time.RFC1123, time.RFC1123Z, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// excerpt shortens text to at most n runes on a word boundary.
func excerpt(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	cut := string(r[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
