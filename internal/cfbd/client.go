// Package cfbd fetches game results from the CollegeFootballData API. This
// is the ingestion collaborator: the engine itself only ever reads the
// normalized files the ingest step writes.
package cfbd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"imperialmap/internal/logging"
)

const (
	defaultBaseURL    = "https://api.collegefootballdata.com"
	defaultTimeout    = 20 * time.Second
	defaultMaxRetries = 4
	userAgent         = "imperial-map-ingest/1.0"
)

// RawGame mirrors the fields of one /games row this system consumes.
type RawGame struct {
	ID         int64  `json:"id"`
	Season     int    `json:"season"`
	Week       int    `json:"week"`
	SeasonType string `json:"seasonType"`
	StartDate  string `json:"startDate"`
	Completed  bool   `json:"completed"`
	HomeTeam   string `json:"homeTeam"`
	AwayTeam   string `json:"awayTeam"`
	HomePoints *int   `json:"homePoints"`
	AwayPoints *int   `json:"awayPoints"`
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls how the client reaches the upstream API.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	MaxRetries int
}

// Client fetches games from CFBD with bearer auth and bounded retries.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpDoer
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a CFBD client with the provided configuration.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		maxRetries: maxRetries,
		sleep:      sleepCtx,
	}
}

// FetchGames retrieves all FBS games for one season and season type.
// 429 and 5xx responses retry with capped exponential backoff; anything else
// non-OK fails immediately.
func (c *Client) FetchGames(ctx context.Context, season int, seasonType string) ([]RawGame, error) {
	logger := logging.Logger()

	params := url.Values{}
	params.Set("year", fmt.Sprint(season))
	params.Set("seasonType", seasonType)
	params.Set("division", "fbs")
	endpoint := c.baseURL + "/games?" + params.Encode()

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warnf("cfbd request failed (attempt %d/%d): %v", attempt, c.maxRetries, err)
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			resp.Body.Close()
			logger.Warnf("cfbd responded %d (attempt %d/%d): %s",
				resp.StatusCode, attempt, c.maxRetries, strings.TrimSpace(string(body)))
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		case resp.StatusCode != http.StatusOK:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("cfbd request failed: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var games []RawGame
		err = json.NewDecoder(resp.Body).Decode(&games)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode cfbd response: %w", err)
		}
		return games, nil
	}

	return nil, fmt.Errorf("exceeded %d retries calling cfbd", c.maxRetries)
}

func (c *Client) backoff(ctx context.Context, attempt int) error {
	wait := time.Duration(1<<attempt) * time.Second
	if wait > 15*time.Second {
		wait = 15 * time.Second
	}
	return c.sleep(ctx, wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
