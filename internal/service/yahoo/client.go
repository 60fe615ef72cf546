package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	xhttp "StockCast/pkg/http"
	"StockCast/pkg/util"
)

const providerName = "yahoo"

// Config holds Yahoo chart API settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Range     string // e.g. "max", "10y"
	Timeout   time.Duration
	Retries   int
}

// Client fetches daily closing history from the Yahoo Finance chart API.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	metrics repository.Metrics
}

var _ repository.HistoryProvider = (*Client)(nil)

func New(cfg Config, metrics repository.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0"
	}
	if cfg.Range == "" {
		cfg.Range = "max"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg: cfg,
		http: xhttp.NewClient(
			xhttp.WithTimeout(cfg.Timeout),
			xhttp.WithHeader("User-Agent", cfg.UserAgent),
			xhttp.WithRetry(cfg.Retries, 500*time.Millisecond),
		),
		metrics: metrics,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				LongName             string `json:"longName"`
				ShortName            string `json:"shortName"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// History returns the full daily closing history of symbol, with sector and
// industry from the asset profile when Yahoo serves one.
func (c *Client) History(ctx context.Context, symbol string) (*models.StockProfile, error) {
	start := time.Now()
	p, err := c.history(ctx, symbol)
	if c.metrics != nil {
		c.metrics.RecordFetch(providerName, time.Since(start).Seconds(), err)
	}
	if err != nil {
		return nil, repository.NewFetchError(providerName, symbol, err)
	}
	return p, nil
}

func (c *Client) history(ctx context.Context, symbol string) (*models.StockProfile, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL: fmt.Sprintf("%s/v8/finance/chart/%s", strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(symbol)),
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"range":    {c.cfg.Range},
		},
	}, &resp)
	if err != nil {
		if xhttp.IsStatus(err, http.StatusNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if e := resp.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("chart error %s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, repository.ErrNotFound
	}

	r := resp.Chart.Result[0]
	var closes []*float64
	if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}
	if len(closes) != len(r.Timestamp) {
		return nil, errors.New("chart timestamps and closes differ in length")
	}

	byDay := make(map[time.Time]float64, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if closes[i] == nil {
			continue
		}
		// a later bar for the same session (live quote) replaces the earlier one
		byDay[util.SessionDay(ts, r.Meta.ExchangeTimezoneName)] = *closes[i]
	}
	history := make([]models.PricePoint, 0, len(byDay))
	for day, px := range byDay {
		history = append(history, models.PricePoint{Date: day, Close: px})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Date.Before(history[j].Date) })

	name := r.Meta.LongName
	if name == "" {
		name = r.Meta.ShortName
	}
	p := &models.StockProfile{Symbol: symbol, Name: name, History: history}
	// funds and indices have no asset profile; a forecast does not need one
	if sector, industry, err := c.assetProfile(ctx, symbol); err == nil {
		p.Sector, p.Industry = sector, industry
	}
	return p, nil
}

func (c *Client) assetProfile(ctx context.Context, symbol string) (sector, industry string, err error) {
	var resp quoteSummaryResponse
	err = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL:         fmt.Sprintf("%s/v10/finance/quoteSummary/%s", strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(symbol)),
		QueryParams: map[string][]string{"modules": {"assetProfile"}},
	}, &resp)
	if err != nil {
		return "", "", err
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return "", "", repository.ErrNotFound
	}
	ap := resp.QuoteSummary.Result[0].AssetProfile
	return ap.Sector, ap.Industry, nil
}
