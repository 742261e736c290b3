package coinpaprika

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/coinpulse/coinpulse/internal/market"
	"github.com/coinpulse/coinpulse/internal/models"
	"github.com/coinpulse/coinpulse/internal/utils/request"
)

const DefaultBaseURL = "https://api.coinpaprika.com/v1"

// Client implements market.Provider against a CoinPaprika-style REST API.
type Client struct {
	baseURL    string
	httpClient *resty.Client
}

func NewClient(baseURL string, httpClient *resty.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = request.Request
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// FetchCoins implements market.Provider
func (c *Client) FetchCoins(ctx context.Context) ([]models.Coin, error) {
	var coins []models.Coin
	if err := c.getJSON(ctx, fmt.Sprintf("%s/coins", c.baseURL), "", &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// FetchTickers implements market.Provider
func (c *Client) FetchTickers(ctx context.Context, currency string) ([]models.Ticker, error) {
	var tickers []models.Ticker
	if err := c.getJSON(ctx, fmt.Sprintf("%s/tickers", c.baseURL), currency, &tickers); err != nil {
		return nil, err
	}
	return tickers, nil
}

// FetchCoinDetail implements market.Provider
func (c *Client) FetchCoinDetail(ctx context.Context, coinID string) (*models.CoinDetail, error) {
	var detail models.CoinDetail
	u := fmt.Sprintf("%s/coins/%s", c.baseURL, url.PathEscape(coinID))
	if err := c.getJSON(ctx, u, "", &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FetchTicker implements market.Provider
func (c *Client) FetchTicker(ctx context.Context, coinID, currency string) (*models.Ticker, error) {
	var ticker models.Ticker
	u := fmt.Sprintf("%s/tickers/%s", c.baseURL, url.PathEscape(coinID))
	if err := c.getJSON(ctx, u, currency, &ticker); err != nil {
		return nil, err
	}
	return &ticker, nil
}

// getJSON executes the request, maps non-2xx statuses onto the market error
// taxonomy and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, rawURL, currency string, out interface{}) error {
	req := c.httpClient.R().SetContext(ctx)
	if currency != "" {
		req.SetQueryParam("quotes", currency)
	}

	resp, err := req.Get(rawURL)
	if err != nil {
		return &market.UpstreamError{Err: fmt.Errorf("failed to execute request: %w", err)}
	}

	if resp.StatusCode() == http.StatusNotFound {
		return market.ErrNotFound
	}
	if !resp.IsSuccess() {
		return &market.UpstreamError{Status: resp.StatusCode()}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
