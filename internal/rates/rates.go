// Package rates supplies currency conversion rates to the ETL pipeline.
// Sources are pluggable: the HTTP source talks to a public rates API, the
// static source carries the built-in table, and Fallback composes the two
// so a rate fetch never fails the pipeline.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Source supplies conversion rates from the base currency to each currency
// code. A rate of r means 1 unit of the coded currency equals r units of
// the base currency.
type Source interface {
	Rates(ctx context.Context) (map[string]float64, error)
}

// StaticSource serves the built-in rate table. It covers the currencies the
// system is known to ingest and always includes the base at 1.0.
type StaticSource struct {
	Base string
}

// DefaultRates is the static fallback table, in USD terms.
var DefaultRates = map[string]float64{
	"USD": 1.0,
	"PKR": 0.0036,
	"EUR": 1.08,
	"GBP": 1.26,
}

func (s *StaticSource) Rates(_ context.Context) (map[string]float64, error) {
	table := make(map[string]float64, len(DefaultRates)+1)
	for code, rate := range DefaultRates {
		table[code] = rate
	}
	if s.Base != "" {
		table[s.Base] = 1.0
	}
	return table, nil
}

// HTTPSource fetches live rates from a public exchange-rate API. Responses
// larger than maxResponseBody are rejected rather than buffered.
type HTTPSource struct {
	URL    string
	Client *http.Client
	Logger *zap.Logger
}

const (
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 1 << 20
)

func NewHTTPSource(url string, logger *zap.Logger) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: defaultTimeout},
		Logger: logger,
	}
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func (s *HTTPSource) Rates(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates API returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read rates response: %w", err)
	}

	var parsed ratesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse rates response: %w", err)
	}
	if len(parsed.Rates) == 0 {
		return nil, fmt.Errorf("rates API returned an empty table")
	}

	return parsed.Rates, nil
}

// FallbackSource wraps a primary source and serves the fallback table when
// the primary fails. Rates never returns an error; callers can treat the
// rate source as infallible.
type FallbackSource struct {
	Primary  Source
	Fallback Source
	Logger   *zap.Logger
}

func NewFallbackSource(primary Source, base string, logger *zap.Logger) *FallbackSource {
	return &FallbackSource{
		Primary:  primary,
		Fallback: &StaticSource{Base: base},
		Logger:   logger,
	}
}

func (s *FallbackSource) Rates(ctx context.Context) (map[string]float64, error) {
	table, err := s.Primary.Rates(ctx)
	if err == nil {
		return table, nil
	}

	if s.Logger != nil {
		s.Logger.Warn("Live rate fetch failed, using static fallback table",
			zap.Error(err),
		)
	}
	return s.Fallback.Rates(ctx)
}
