package collector

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// APIError is a non-200 response from a market data provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s (status: %d, endpoint: %s)", e.Provider, e.Message, e.StatusCode, e.Endpoint)
}

// newHTTPClient builds a client that routes through proxyURL when set.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
