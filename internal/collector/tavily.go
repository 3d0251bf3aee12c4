package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"EquityDesk/internal/model"
)

const tavilySearchURL = "https://api.tavily.com/search"

// TavilyNews implements NewsSource using the Tavily search API.
type TavilyNews struct {
	APIKey string
	URL    string
	Client *http.Client
}

// NewTavilyNews creates a Tavily news source with optional proxy support.
func NewTavilyNews(apiKey, proxyURL string) *TavilyNews {
	return &TavilyNews{
		APIKey: apiKey,
		URL:    tavilySearchURL,
		Client: newHTTPClient(proxyURL, 8*time.Second),
	}
}

func (t *TavilyNews) Name() string { return "tavily" }

type tavilyResult struct {
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Content        string   `json:"content"`
	Snippet        string   `json:"snippet"`
	Published      string   `json:"published_date"`
	Score          *float64 `json:"score"`
	RelevanceScore *float64 `json:"relevance_score"`
}

// FetchNews searches for "<ticker> stock news".
func (t *TavilyNews) FetchNews(ctx context.Context, ticker string, limit int) ([]model.NewsItem, error) {
	if t.APIKey == "" {
		return nil, fmt.Errorf("tavily: api key not configured")
	}
	payload, err := json.Marshal(map[string]any{
		"api_key":     t.APIKey,
		"query":       ticker + " stock news",
		"max_results": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Provider: "tavily", StatusCode: resp.StatusCode, Message: truncate(string(body), 200), Endpoint: "/search"}
	}

	var data struct {
		Results  []tavilyResult `json:"results"`
		Articles []tavilyResult `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("tavily decode: %w", err)
	}
	results := data.Results
	if len(results) == 0 {
		results = data.Articles
	}

	items := make([]model.NewsItem, 0, len(results))
	for _, r := range results {
		text := r.Content
		if text == "" {
			text = r.Snippet
		}
		item := model.NewsItem{
			Title:     r.Title,
			URL:       r.URL,
			Excerpt:   excerpt(text, 280),
			Relevance: r.Score,
		}
		if item.Relevance == nil {
			item.Relevance = r.RelevanceScore
		}
		if ts, ok := parseNewsTime(r.Published); ok {
			item.Published = &ts
		}
		items = append(items, item)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
