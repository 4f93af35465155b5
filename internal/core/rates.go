package core

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PivotCurrency is the fixed reference currency all conversions route through.
const PivotCurrency = "USD"

// defaultRates are the static fallback rates, expressed as "1 USD equals
// rate units of this currency". Used until the first successful refresh and
// kept whenever a refresh fails.
var defaultRates = map[string]string{
	"USD": "1",
	"EUR": "0.92",
	"CZK": "23",
	"VND": "24213",
	"CNY": "7.07",
}

var currencyCodeRe = regexp.MustCompile(`^[A-Za-z]{3}$`)

// RateProvider fetches exchange rates for a base currency and a target set.
type RateProvider interface {
	FetchRates(ctx context.Context, base string, symbols []string) (map[string]float64, error)
}

// RateTable maps currency codes to their rate against the USD pivot. It is
// safe for concurrent use: the background refresher writes while editing
// sessions read.
type RateTable struct {
	mu          sync.RWMutex
	rates       map[string]decimal.Decimal
	refreshedAt time.Time
}

// NewRateTable returns a table seeded with the static default rates.
func NewRateTable() *RateTable {
	t := &RateTable{rates: make(map[string]decimal.Decimal, len(defaultRates))}
	for code, s := range defaultRates {
		t.rates[code] = decimal.RequireFromString(s)
	}
	return t
}

// Rate returns the stored rate for code, or 1 if the code is unknown.
// Treating unknown currencies as numerically equal to USD is the documented
// degrade policy: the form stays usable rather than rejecting the amount.
func (t *RateTable) Rate(code string) decimal.Decimal {
	code = strings.ToUpper(strings.TrimSpace(code))
	t.mu.RLock()
	defer t.mu.RUnlock()
	if r, ok := t.rates[code]; ok && r.IsPositive() {
		return r
	}
	return decimal.NewFromInt(1)
}

// Set stores a rate for code. Non-positive rates are ignored.
func (t *RateTable) Set(code string, rate decimal.Decimal) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || !rate.IsPositive() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates[code] = rate
}

// Codes returns all registered currency codes in ascending order.
func (t *RateTable) Codes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	codes := make([]string, 0, len(t.rates))
	for c := range t.rates {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Has reports whether code is registered.
func (t *RateTable) Has(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rates[code]
	return ok
}

// Snapshot returns a copy of the rate map and the time of the last
// successful refresh (zero before the first one).
func (t *RateTable) Snapshot() (map[string]decimal.Decimal, time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(t.rates))
	for c, r := range t.rates {
		out[c] = r
	}
	return out, t.refreshedAt
}

// Refresh fetches rates for every registered code from the provider. On any
// failure the table is left untouched and a FetchError is returned; the
// caller proceeds with the previous rates.
func (t *RateTable) Refresh(ctx context.Context, p RateProvider) error {
	symbols := t.Codes()
	fetched, err := p.FetchRates(ctx, PivotCurrency, symbols)
	if err != nil {
		return &FetchError{Op: "refresh exchange rates", Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for code, rate := range fetched {
		code = strings.ToUpper(strings.TrimSpace(code))
		d := decimal.NewFromFloat(rate)
		if _, ok := t.rates[code]; ok && d.IsPositive() {
			t.rates[code] = d
		}
	}
	t.rates[PivotCurrency] = decimal.NewFromInt(1)
	t.refreshedAt = time.Now()
	return nil
}

// AddCustomCurrency registers a new 3-letter code with a best-effort fetched
// rate. If the fetch fails the code is registered with rate 1 and the fetch
// error is returned for the caller to surface as a non-blocking notice.
func (t *RateTable) AddCustomCurrency(ctx context.Context, code string, p RateProvider) (decimal.Decimal, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !currencyCodeRe.MatchString(code) {
		return decimal.Decimal{}, validationErrorf(ValidationMissingCurrency, "currency code must be 3 letters, got %q", code)
	}
	if t.Has(code) {
		return t.Rate(code), nil
	}

	rate := decimal.NewFromInt(1)
	var fetchErr error
	if p != nil {
		fetched, err := p.FetchRates(ctx, PivotCurrency, []string{code})
		if err != nil {
			fetchErr = &FetchError{Op: fmt.Sprintf("fetch rate for %s", code), Err: err}
		} else if r, ok := fetched[code]; ok && r > 0 {
			rate = decimal.NewFromFloat(r)
		}
	}
	t.Set(code, rate)
	return rate, fetchErr
}
