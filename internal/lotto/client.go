package lotto

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// DefaultBaseURL is the draw result page.
const DefaultBaseURL = "https://dhlottery.co.kr/gameResult.do"

// Client fetches draw result pages.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for baseURL. A zero timeout means none.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = timeout
	return &Client{
		baseURL: baseURL,
		http:    hc,
		logger:  logger.With("component", "lotto_client"),
	}
}

// Latest fetches the most recent draw.
func (c *Client) Latest(ctx context.Context) (GameResult, error) {
	return c.GameResult(ctx, 0)
}

// GameResult fetches draw n, or the latest draw if n <= 0.
func (c *Client) GameResult(ctx context.Context, n int) (GameResult, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return GameResult{}, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("method", "byWin")
	if n > 0 {
		q.Set("drwNo", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return GameResult{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return GameResult{}, fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("fetched result page",
		"game", n,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return GameResult{}, fmt.Errorf("get %s: unexpected status %d", u, resp.StatusCode)
	}

	g, err := Parse(resp.Body)
	if err != nil {
		return GameResult{}, err
	}
	if n > 0 && g.GameNumber != n {
		return GameResult{}, fmt.Errorf("%w: asked for game %d, page shows %d", ErrMalformedPage, n, g.GameNumber)
	}
	return g, nil
}
