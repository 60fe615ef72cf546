package twelvedata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	xhttp "StockCast/pkg/http"

	"github.com/shopspring/decimal"
)

const providerName = "twelvedata"

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("twelve data api key not configured")

type Config struct {
	BaseURL    string
	APIKey     string
	Interval   repository.Interval
	OutputSize int
	Timeout    time.Duration
	Retries    int
}

// Client fetches intraday quotes from the Twelve Data time_series API.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	metrics repository.Metrics
}

var _ repository.IntradayProvider = (*Client)(nil)

func New(cfg Config, metrics repository.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twelvedata.com"
	}
	cfg.Interval = repository.NormalizeInterval(string(cfg.Interval))
	if cfg.OutputSize <= 0 {
		cfg.OutputSize = 390
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:     cfg,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout), xhttp.WithRetry(cfg.Retries, time.Second)),
		metrics: metrics,
	}
}

type timeSeriesResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string          `json:"datetime"`
		Close    decimal.Decimal `json:"close"`
	} `json:"values"`
}

// Intraday returns the most recent quotes for symbol, newest first as
// delivered upstream.
func (c *Client) Intraday(ctx context.Context, symbol string) ([]models.Quote, error) {
	start := time.Now()
	q, err := c.intraday(ctx, symbol)
	if c.metrics != nil {
		c.metrics.RecordFetch(providerName, time.Since(start).Seconds(), err)
	}
	if err != nil {
		return nil, repository.NewFetchError(providerName, symbol, err)
	}
	return q, nil
}

func (c *Client) intraday(ctx context.Context, symbol string) ([]models.Quote, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	var resp timeSeriesResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL: strings.TrimRight(c.cfg.BaseURL, "/") + "/time_series",
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"interval":   {string(c.cfg.Interval)},
			"outputsize": {strconv.Itoa(c.cfg.OutputSize)},
			"apikey":     {c.cfg.APIKey},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		if resp.Code == 404 || resp.Code == 400 {
			return nil, fmt.Errorf("%s: %w", resp.Message, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("api error %d: %s", resp.Code, resp.Message)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("no intraday data: %w", repository.ErrNotFound)
	}

	quotes := make([]models.Quote, len(resp.Values))
	for i, v := range resp.Values {
		quotes[i] = models.Quote{Time: v.Datetime, Price: v.Close.InexactFloat64()}
	}
	return quotes, nil
}
