package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultNBPBaseURL is the public NBP web API.
	DefaultNBPBaseURL = "https://api.nbp.pl/api"
	// DefaultLookbackDays covers weekends and the longest Polish holiday runs.
	DefaultLookbackDays = 7

	dateFormat = "2006-01-02"
)

// ErrNoRatePublished is returned when the provider has no rate in the window.
var ErrNoRatePublished = errors.New("no rate published in lookup window")

// NBPClient fetches table A mid rates from the National Bank of Poland.
type NBPClient struct {
	baseURL  string
	lookback int
	client   *http.Client
}

// NBPOption configures an NBPClient.
type NBPOption func(*NBPClient)

// WithBaseURL points the client at a different API root (for testing).
func WithBaseURL(u string) NBPOption {
	return func(c *NBPClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLookbackDays sets how many days before the requested day are searched.
func WithLookbackDays(n int) NBPOption {
	return func(c *NBPClient) {
		if n >= 0 {
			c.lookback = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) NBPOption {
	return func(c *NBPClient) { c.client = hc }
}

// NewNBPClient creates a client with a bounded request timeout.
func NewNBPClient(timeout time.Duration, opts ...NBPOption) *NBPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &NBPClient{
		baseURL:  DefaultNBPBaseURL,
		lookback: DefaultLookbackDays,
		client:   &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type nbpRatesResponse struct {
	Table    string `json:"table"`
	Currency string `json:"currency"`
	Code     string `json:"code"`
	Rates    []struct {
		No            string          `json:"no"`
		EffectiveDate string          `json:"effectiveDate"`
		Mid           decimal.Decimal `json:"mid"`
	} `json:"rates"`
}

// Rate returns the latest table A rate published in [day-lookback, day].
func (c *NBPClient) Rate(ctx context.Context, code string, day time.Time) (Quote, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) != 3 {
		return Quote{}, fmt.Errorf("invalid currency code %q", code)
	}
	from := day.AddDate(0, 0, -c.lookback)
	url := fmt.Sprintf("%s/exchangerates/rates/a/%s/%s/%s/?format=json",
		c.baseURL, code, from.Format(dateFormat), day.Format(dateFormat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Quote{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("calling NBP API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Quote{}, fmt.Errorf("%s %s..%s: %w", strings.ToUpper(code), from.Format(dateFormat), day.Format(dateFormat), ErrNoRatePublished)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Quote{}, fmt.Errorf("NBP API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload nbpRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Quote{}, fmt.Errorf("decoding NBP response: %w", err)
	}

	var best Quote
	for _, r := range payload.Rates {
		d, err := time.Parse(dateFormat, r.EffectiveDate)
		if err != nil {
			return Quote{}, fmt.Errorf("parsing effectiveDate %q: %w", r.EffectiveDate, err)
		}
		if d.After(day) || !r.Mid.IsPositive() {
			continue
		}
		if best.PublishedDate.IsZero() || d.After(best.PublishedDate) {
			best = Quote{Rate: r.Mid, PublishedDate: d}
		}
	}
	if best.PublishedDate.IsZero() {
		return Quote{}, fmt.Errorf("%s: %w", strings.ToUpper(code), ErrNoRatePublished)
	}
	return best, nil
}
