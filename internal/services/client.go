package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/shared"
	"golang.org/x/time/rate"
)

const maxPageBytes = 8 << 20

// ClientOpts configures a [Client].
type ClientOpts struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables the limiter
	HTTPClient        *http.Client
}

// Client fetches pages from letterboxd.com over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a Client. A nil HTTPClient gets a fresh [http.Client] with opts.Timeout.
func NewClient(opts ClientOpts, logger *log.Logger) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Client{
		httpClient: client,
		userAgent:  opts.UserAgent,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// FetchPage GETs locator and returns its body. Any non-2xx status is an error wrapping [shared.ErrUnexpectedStatus].
func (c *Client) FetchPage(ctx context.Context, locator string) (*models.Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("fetched page", "url", locator, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %d", shared.ErrUnexpectedStatus, locator, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrFetchFailed, err)
	}

	final := locator
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return &models.Page{URL: final, Body: body}, nil
}
