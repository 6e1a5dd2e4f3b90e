// Package whoop is a small client for the WHOOP developer API v2.
package whoop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/whoop-dashboard-tui/internal/logger"
	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
	"github.com/j-veylop/whoop-dashboard-tui/internal/version"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.prod.whoop.com"

// pageLimit is the largest page the collection endpoints return.
const pageLimit = 25

// maxPages bounds a single collection walk.
const maxPages = 1000

const (
	pathRecovery = "/developer/v2/recovery"
	pathSleep    = "/developer/v2/activity/sleep"
	pathWorkout  = "/developer/v2/activity/workout"
	pathCycle    = "/developer/v2/cycle"
	pathProfile  = "/developer/v2/user/profile/basic"
)

// ErrUnauthorized is matched by API errors with status 401.
var ErrUnauthorized = errors.New("unauthorized: access token may be expired")

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("whoop %s failed (status %d): %s", e.Path, e.StatusCode, body)
}

// Unwrap lets errors.Is match ErrUnauthorized.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client calls the API with an already authorized HTTP client.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// New returns a client. An empty baseURL means DefaultBaseURL; a zero
// timeout leaves requests bounded only by their context.
func New(httpClient *http.Client, baseURL string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		timeout: timeout,
	}
}

type page[T any] struct {
	Records   []T    `json:"records"`
	NextToken string `json:"next_token"`
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whoop %s request failed: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Path: path, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

// collect walks every page of a collection endpoint for [start, end].
func collect[T any](ctx context.Context, c *Client, path string, start, end time.Time) ([]T, error) {
	q := url.Values{}
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))
	q.Set("limit", strconv.Itoa(pageLimit))

	var out []T
	seen := make(map[string]bool)
	for range maxPages {
		var p page[T]
		if err := c.getJSON(ctx, path, q, &p); err != nil {
			return nil, err
		}
		out = append(out, p.Records...)

		if p.NextToken == "" || seen[p.NextToken] {
			return out, nil
		}
		seen[p.NextToken] = true
		q.Set("nextToken", p.NextToken)
	}
	logger.Warn("stopped paging", "path", path, "pages", maxPages)
	return out, nil
}

// Recoveries returns the recoveries created in [start, end].
func (c *Client) Recoveries(ctx context.Context, start, end time.Time) ([]models.Recovery, error) {
	return collect[models.Recovery](ctx, c, pathRecovery, start, end)
}

// Sleeps returns the sleeps and naps in [start, end].
func (c *Client) Sleeps(ctx context.Context, start, end time.Time) ([]models.Sleep, error) {
	return collect[models.Sleep](ctx, c, pathSleep, start, end)
}

// Workouts returns the workouts in [start, end].
func (c *Client) Workouts(ctx context.Context, start, end time.Time) ([]models.Workout, error) {
	return collect[models.Workout](ctx, c, pathWorkout, start, end)
}

// Cycles returns the physiological cycles in [start, end].
func (c *Client) Cycles(ctx context.Context, start, end time.Time) ([]models.Cycle, error) {
	return collect[models.Cycle](ctx, c, pathCycle, start, end)
}

// Profile returns the member's basic profile.
func (c *Client) Profile(ctx context.Context) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := c.getJSON(ctx, pathProfile, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Fetch loads every collection for [start, end] concurrently. Any failure
// cancels the rest.
func (c *Client) Fetch(ctx context.Context, start, end time.Time) (*models.Dataset, error) {
	ds := &models.Dataset{Start: start, End: end}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ds.Recovery, err = c.Recoveries(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		ds.Sleep, err = c.Sleeps(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		ds.Workouts, err = c.Workouts(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		ds.Cycles, err = c.Cycles(gctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds.FetchedAt = time.Now()
	logger.Debug("fetched dataset",
		"start", start, "end", end,
		"recovery", len(ds.Recovery), "sleep", len(ds.Sleep),
		"workout", len(ds.Workouts), "cycle", len(ds.Cycles))
	return ds, nil
}
