package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/golazo/internal/domain/model"
	"github.com/okian/golazo/pkg/metrics"
)

// Default HTTP client configuration constants.
const (
	defaultTimeout = 4 * time.Second
	defaultRPS     = 5
	defaultBurst   = 1
)

// HTTPClient implements ResultProvider against an HTTP result API.
//
// GET {base}/matches/{id}/result?as_of=RFC3339 returns a resultResponse.
// 404 means no result yet, 429 means throttled, 5xx means unavailable.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// HTTPOption applies a configuration option to the HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTimeout bounds a single provider request.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRequestsPerSecond budgets provider calls across a run.
func WithRequestsPerSecond(rps float64) HTTPOption {
	return func(c *HTTPClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), defaultBurst)
		}
	}
}

// WithHTTPClient replaces the underlying client, mainly for tests.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewHTTPClient creates a provider client for the given base URL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRPS), defaultBurst),
		userAgent:  "golazo-verifier/1.0",
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// resultResponse mirrors the provider's wire schema.
type resultResponse struct {
	MatchID   string  `json:"match_id"`
	Phase     string  `json:"phase"`
	HomeGoals *int    `json:"home_goals"`
	AwayGoals *int    `json:"away_goals"`
	Corrected bool    `json:"corrected"`
	AsOf      string  `json:"as_of"`
	Events    []event `json:"events,omitempty"`
}

// event is an optional provider-reported incident; carried through for
// logging, never interpreted.
type event struct {
	Minute int    `json:"minute"`
	Kind   string `json:"kind"`
	Team   string `json:"team"`
}

// FetchOutcome fetches and validates the provider snapshot for one match.
func (c *HTTPClient) FetchOutcome(ctx context.Context, matchID string, asOf time.Time) (model.Outcome, error) {
	// Honor the client-side budget before touching the network. The wait
	// is bounded by ctx, so a starved limiter surfaces as a timeout.
	if err := c.limiter.Wait(ctx); err != nil {
		return model.Outcome{}, fmt.Errorf("%w: rate budget: %w", ErrTimeout, err)
	}

	u := fmt.Sprintf("%s/matches/%s/result?as_of=%s",
		c.baseURL, url.PathEscape(matchID), url.QueryEscape(asOf.UTC().Format(time.RFC3339)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("%w: creating request: %w", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveProviderLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		if isTimeout(err) {
			return model.Outcome{}, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return model.Outcome{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.Outcome{}, fmt.Errorf("%w: match %s", ErrNotYetAvailable, matchID)
	case resp.StatusCode == http.StatusTooManyRequests:
		return model.Outcome{}, fmt.Errorf("%w: match %s", ErrRateLimited, matchID)
	case resp.StatusCode != http.StatusOK:
		return model.Outcome{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body resultResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Outcome{}, fmt.Errorf("%w: decoding response: %w", ErrInvalidData, err)
	}

	return c.toOutcome(matchID, body)
}

// toOutcome validates the wire snapshot and converts it to the domain type.
func (c *HTTPClient) toOutcome(matchID string, body resultResponse) (model.Outcome, error) {
	phase := model.Phase(body.Phase)
	if _, ok := phase.State(); !ok {
		return model.Outcome{}, fmt.Errorf("%w: phase %q", ErrInvalidData, body.Phase)
	}

	var score *model.Score
	switch {
	case body.HomeGoals != nil && body.AwayGoals != nil:
		if *body.HomeGoals < 0 || *body.AwayGoals < 0 {
			return model.Outcome{}, fmt.Errorf("%w: negative goals", ErrInvalidData)
		}
		score = &model.Score{Home: *body.HomeGoals, Away: *body.AwayGoals}
	case body.HomeGoals != nil || body.AwayGoals != nil:
		// One side missing is worse than none: the snapshot is torn.
		return model.Outcome{}, fmt.Errorf("%w: one-sided score", ErrPartialData)
	case phase == model.PhaseFinished:
		return model.Outcome{}, fmt.Errorf("%w: finished without score", ErrPartialData)
	}

	asOf := time.Time{}
	if body.AsOf != "" {
		ts, err := time.Parse(time.RFC3339, body.AsOf)
		if err != nil {
			return model.Outcome{}, fmt.Errorf("%w: as_of: %w", ErrInvalidData, err)
		}
		asOf = ts
	}

	return model.Outcome{
		MatchID:   matchID,
		Phase:     phase,
		Score:     score,
		Corrected: body.Corrected,
		AsOf:      asOf,
	}, nil
}

// isTimeout reports whether a transport error is deadline-related.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
