package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"farecast/internal/modules/trip"
)

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// BreakerFailures is the number of consecutive failures that opens the
	// circuit. Zero disables the breaker.
	BreakerFailures uint32
	BreakerCooldown time.Duration
	UserAgent       string
}

// Client talks to the remote fare predictor. It never retries.
type Client struct {
	baseURL   string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[Result]
	userAgent string
}

func NewClient(cfg ClientConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      httpClient,
		userAgent: cfg.UserAgent,
	}
	if cfg.BreakerFailures > 0 {
		cooldown := cfg.BreakerCooldown
		if cooldown <= 0 {
			cooldown = 30 * time.Second
		}
		c.breaker = gobreaker.NewCircuitBreaker[Result](gobreaker.Settings{
			Name:        "fare-predictor",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			// Only 5xx and transport failures count against the upstream.
			IsSuccessful: func(err error) bool {
				var se *StatusError
				if errors.As(err, &se) {
					return se.StatusCode < 500
				}
				return err == nil || errors.Is(err, context.Canceled)
			},
		})
	}
	return c
}

// Predict posts req to {base}/predict.
func (c *Client) Predict(ctx context.Context, req trip.Request) (Result, error) {
	if c.breaker == nil {
		return c.predict(ctx, req)
	}
	res, err := c.breaker.Execute(func() (Result, error) {
		return c.predict(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return res, err
}

func (c *Client) predict(ctx context.Context, req trip.Request) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("encode prediction request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build prediction request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("prediction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, &StatusError{StatusCode: resp.StatusCode}
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("decode prediction response: %w", err)
	}
	return res, nil
}

// Health checks {base}/health.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("predictor health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// BreakerState reports the circuit state, "disabled" without a breaker.
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}
