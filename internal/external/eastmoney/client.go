package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/pkg/config"
	"github.com/wz-hub/a-stock-scanner/pkg/httputil"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
)

// Client fetches A-share daily bars and listings from Eastmoney's push2 API
// ⭐ SSOT: Eastmoney calls happen only in this package
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	klineURL   string
	listURL    string
	adjust     string
	pageSize   int
}

var _ contracts.MarketDataProvider = (*Client)(nil)

// NewClient creates a new Eastmoney client.
// httpClient should have retry disabled; the synchronizer owns retries.
func NewClient(httpClient *httputil.Client, cfg config.ProviderConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("eastmoney"),
		klineURL:   cfg.KlineURL,
		listURL:    cfg.ListURL,
		adjust:     cfg.Adjust,
		pageSize:   100,
	}
}

// envelope is the common push2 response wrapper
type envelope[T any] struct {
	RC   int `json:"rc"`
	Data *T  `json:"data"`
}

// getJSON performs the request and classifies failures for the retry loop
func (c *Client) getJSON(ctx context.Context, code, base string, params url.Values, out interface{}) error {
	fullURL := base + "?" + params.Encode()

	err := c.httpClient.GetJSON(ctx, fullURL, out)
	if err == nil {
		return nil
	}

	if se, ok := httputil.AsStatusError(err); ok {
		if se.Retryable() {
			return &contracts.TransientFetchError{Code: code, Err: err}
		}
		return fmt.Errorf("eastmoney request for %s rejected: %w", code, err)
	}

	// parent cancellation is not retryable; per-attempt timeouts are
	if errors.Is(err, context.Canceled) {
		return err
	}

	var decodeErr *httputil.DecodeError
	if errors.As(err, &decodeErr) {
		return &contracts.DataIntegrityError{Code: code, Reason: err.Error()}
	}

	return &contracts.TransientFetchError{Code: code, Err: err}
}
