// Package fxapi is the HTTP client for the external exchange-rate provider.
// The provider answers GET {base}/latest?base=USD&symbols=EUR,CZK,... with
// {"rates": {"EUR": 0.92, ...}}. Failures never block the caller: the rate
// table keeps its previous values.
package fxapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL points at the public provider used in production; override
// with FX_API_URL.
const DefaultBaseURL = "https://api.frankfurter.dev/v1"

type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a provider client. An empty baseURL selects the default.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// FetchRates returns rates for the given symbols relative to base. It
// satisfies core.RateProvider.
func (c *Client) FetchRates(ctx context.Context, base string, symbols []string) (map[string]float64, error) {
	q := url.Values{}
	q.Set("base", base)
	if len(symbols) > 0 {
		q.Set("symbols", strings.Join(symbols, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned %s", resp.Status)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}
	if body.Rates == nil {
		return nil, fmt.Errorf("rate provider response missing rates")
	}
	return body.Rates, nil
}
