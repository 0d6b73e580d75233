// Package yfinance is the client for the Yahoo Finance chart API, used to
// fetch market quotes for drug sponsors' tickers.
package yfinance

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pharmintel/pharmintel/internal/config"
	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/source"
)

// Client queries the unauthenticated chart endpoint, which is enough for
// last price, currency, and market cap.
type Client struct {
	api *source.Client
}

func New(cfg *config.SourcesConfig, log *zerolog.Logger) *Client {
	return &Client{
		api: source.NewClient("yfinance", cfg.YahooFinance, 1, cfg.ContactEmail, log),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				MarketCap          float64 `json:"marketCap"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote fetches the latest market quote for a ticker. Prices convert to
// decimal immediately so float artifacts never reach the database.
func (c *Client) Quote(ctx context.Context, ticker string) (*model.Quote, error) {
	query := url.Values{}
	query.Set("interval", "1d")
	query.Set("range", "1d")

	var resp chartResponse
	path := fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(ticker))
	if err := c.api.GetJSON(ctx, path, query, &resp); err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo finance: %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo finance: empty result for %s", ticker)
	}

	meta := resp.Chart.Result[0].Meta
	asOf := time.Now().UTC()
	if meta.RegularMarketTime > 0 {
		asOf = time.Unix(meta.RegularMarketTime, 0).UTC()
	}

	return &model.Quote{
		Ticker:    meta.Symbol,
		Price:     decimal.NewFromFloat(meta.RegularMarketPrice),
		Currency:  meta.Currency,
		MarketCap: decimal.NewFromFloat(meta.MarketCap),
		AsOf:      asOf,
	}, nil
}
