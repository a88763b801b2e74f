package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// DefaultTRMURL returns the most recent official COP/USD rate published by
// the Colombian open data portal.
const DefaultTRMURL = "https://www.datos.gov.co/resource/mcec-87by.json?$order=vigenciadesde%20DESC&$limit=1"

type TRMClient struct {
	url    string
	client *http.Client
}

func NewTRMClient(url string, timeout time.Duration) *TRMClient {
	if url == "" {
		url = DefaultTRMURL
	}
	return &TRMClient{url: url, client: &http.Client{Timeout: timeout}}
}

func (c *TRMClient) LatestRate(ctx context.Context) (domain.Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("trm request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("trm fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Rate{}, fmt.Errorf("trm fetch: unexpected status %d", resp.StatusCode)
	}

	var rates []domain.Rate
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return domain.Rate{}, fmt.Errorf("trm decode: %w", err)
	}
	if len(rates) == 0 {
		return domain.Rate{}, fmt.Errorf("trm response empty")
	}
	if !rates[0].Value.IsPositive() {
		return domain.Rate{}, fmt.Errorf("trm value %s is not positive", rates[0].Value)
	}
	return rates[0], nil
}

var _ port.RateProvider = (*TRMClient)(nil)
