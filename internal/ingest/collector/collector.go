// Package collector fetches raw reviews for a target from the external
// review collection service over HTTP.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
	coreerrors "github.com/reviewpulse/reviewpulse/internal/core/errors"
)

const (
	defaultTimeout = 30 * time.Second
	reviewsPath    = "/v1/reviews"
)

// Config configures the HTTP review collector.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Limit   int
}

type Client struct {
	baseURL    string
	limit      int
	httpClient *http.Client
	logger     *zerolog.Logger
}

func New(cfg Config, logger *zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: cfg.BaseURL,
		limit:   cfg.Limit,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// reviewPayload is the collector service's wire format for one review.
type reviewPayload struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Rating   *int      `json:"rating"`
	Date     time.Time `json:"date"`
	Author   string    `json:"author"`
	Locale   string    `json:"locale"`
	Platform string    `json:"platform"`
}

type reviewsResponse struct {
	Reviews []reviewPayload `json:"reviews"`
}

// Fetch retrieves reviews for the target. Responses map onto the error
// sentinels the orchestrator classifies: 404 is permanent, 429 and 5xx
// are retryable.
func (c *Client) Fetch(ctx context.Context, target domain.Target) ([]domain.RawReview, error) {
	reqURL, err := c.buildURL(target)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create collector request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("collector request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if err = classifyStatus(resp.StatusCode, target); err != nil {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("target", target.String()).
			Msg("Collector request rejected")

		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read collector response: %w", coreerrors.ErrTransient)
	}

	var payload reviewsResponse
	if err = json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode collector response: %w", err)
	}

	reviews := make([]domain.RawReview, len(payload.Reviews))
	for i, r := range payload.Reviews {
		reviews[i] = domain.RawReview{
			ID:       r.ID,
			Text:     r.Text,
			Rating:   r.Rating,
			Date:     r.Date,
			Author:   r.Author,
			Locale:   r.Locale,
			Platform: domain.Platform(r.Platform),
		}
	}

	c.logger.Debug().
		Int("reviews", len(reviews)).
		Str("target", target.String()).
		Msg("Collector fetch finished")

	return reviews, nil
}

func (c *Client) buildURL(target domain.Target) (string, error) {
	params := url.Values{}

	switch {
	case target.IsWebsite():
		params.Set("website_url", target.WebsiteURL)
	case target.AppID != "":
		params.Set("app_id", target.AppID)
		params.Set("platform", string(target.Platform))
	default:
		return "", fmt.Errorf("target has neither app id nor website url: %w", coreerrors.ErrInvalidInput)
	}

	if c.limit > 0 {
		params.Set("limit", strconv.Itoa(c.limit))
	}

	return c.baseURL + reviewsPath + "?" + params.Encode(), nil
}

func classifyStatus(code int, target domain.Target) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("target %s: %w", target.String(), coreerrors.ErrNotFound)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("collector status %d: %w", code, coreerrors.ErrRateLimited)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("collector status %d: %w", code, coreerrors.ErrTransient)
	default:
		return fmt.Errorf("collector status %d: %w", code, coreerrors.ErrInvalidInput)
	}
}
