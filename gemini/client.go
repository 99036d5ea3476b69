// Package gemini asks the Gemini generateContent API for property listings
// in a structured JSON shape.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yourorg/domus-api/internal/listing"
)

// Provider names this source in cache envelopes, snapshots and metrics.
const Provider = "gemini"

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-pro"
	DefaultCount   = 15

	maxBody = 4 << 20
)

var (
	ErrNotConfigured   = errors.New("gemini: no api key configured")
	ErrPayloadTooLarge = errors.New("gemini: payload too large")
)

// StatusError is returned for a non-2xx answer that survived the retries.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini error %d: %s", e.Code, e.Body)
}

type Options struct {
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RetryMax          int
	RequestsPerMinute int
	Count             int
	Logger            *zap.Logger
}

type Client struct {
	key     string
	baseURL string
	model   string
	count   int
	http    *retryablehttp.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewClient(apiKey string, opt Options) *Client {
	if opt.BaseURL == "" {
		opt.BaseURL = DefaultBaseURL
	}
	if opt.Model == "" {
		opt.Model = DefaultModel
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 30 * time.Second
	}
	if opt.RetryMax < 0 {
		opt.RetryMax = 0
	}
	if opt.Count <= 0 {
		opt.Count = DefaultCount
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}

	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.RetryMax = opt.RetryMax
	rc.HTTPClient.Timeout = opt.Timeout
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	lim := rate.NewLimiter(rate.Inf, 1)
	if opt.RequestsPerMinute > 0 {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opt.RequestsPerMinute)), 1)
	}

	return &Client{
		key:     apiKey,
		baseURL: strings.TrimRight(opt.BaseURL, "/"),
		model:   opt.Model,
		count:   opt.Count,
		http:    rc,
		limiter: lim,
		log:     opt.Logger,
	}
}

// Configured reports whether the client has credentials to call the API.
func (c *Client) Configured() bool { return c != nil && c.key != "" }

func (c *Client) prompt(location string) string {
	return fmt.Sprintf("Find %d real estate properties for sale or rent in %s. "+
		"Provide a diverse list including houses, apartments, and condos. "+
		"For each property, include a unique ID, full address, city, state, neighborhood, latitude, longitude, "+
		"price in the smallest currency unit (e.g., cents), an ISO 4217 currency code (e.g., GHS for Ghana), "+
		"number of bedrooms, number of bathrooms, square footage, whether it's for sale or rent, "+
		"a \"verified\" status (boolean), a compelling 2-3 sentence description, "+
		"a list of at least 8 high-quality image URLs, and if available, "+
		"the agent's name, WhatsApp-compatible phone number, and email.", c.count, location)
}

func (c *Client) requestBody(location string) ([]byte, error) {
	body := map[string]any{
		"contents": []any{
			map[string]any{
				"role":  "user",
				"parts": []any{map[string]any{"text": c.prompt(location)}},
			},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   responseSchema(),
		},
	}
	return json.Marshal(body)
}

// FindProperties asks the model for listings in location. It returns the
// mapped listings together with the raw response body for snapshotting.
func (c *Client) FindProperties(ctx context.Context, location string) ([]listing.Property, []byte, error) {
	if !c.Configured() {
		return nil, nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("gemini: rate limit: %w", err)
	}

	payload, err := c.requestBody(location)
	if err != nil {
		return nil, nil, err
	}
	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-goog-api-key", c.key)

	// The passthrough error handler hands back the last response alongside
	// a "giving up" error once retries are exhausted.
	resp, err := c.http.Do(req)
	if resp == nil {
		if err == nil {
			err = errors.New("gemini: empty response")
		}
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err != nil {
		return nil, nil, err
	}

	raw, err := readAllLimit(resp.Body, maxBody)
	if err != nil {
		return nil, nil, err
	}
	props, rejected, err := MapResponse(raw)
	if err != nil {
		return nil, raw, err
	}
	for _, r := range rejected {
		c.log.Warn("gemini listing dropped",
			zap.String("location", location),
			zap.Int("index", r.Index),
			zap.String("id", r.ID),
			zap.String("reason", r.Reason))
	}
	return props, raw, nil
}

// Reason classifies a FindProperties error into a short label for logs and metrics.
func Reason(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &se):
		if se.Code == http.StatusTooManyRequests {
			return "rate_limited"
		}
		return "upstream_status"
	case errors.Is(err, ErrNoCandidates):
		return "no_candidates"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, ErrPayloadTooLarge):
		return "payload_too_large"
	default:
		return "transport"
	}
}

func readAllLimit(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrPayloadTooLarge
	}
	return b, nil
}
