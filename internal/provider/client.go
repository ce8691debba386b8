package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/keilerkonzept/popchart/internal/region"
)

const (
	DefaultTimeout = 10 * time.Second

	apiKeyHeader = "X-API-KEY"

	prefecturesEndpoint = "/api/v1/prefectures"
	citiesEndpoint      = "/api/v1/cities"
	populationEndpoint  = "/api/v1/population/composition/perYear"
)

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client is a Provider backed by the population HTTP API.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
}

// New validates opts. Missing or malformed settings yield a
// *region.ConfigurationError.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, &region.ConfigurationError{Field: "base-url", Message: "API base URL is not set"}
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, &region.ConfigurationError{Field: "api-key", Message: "API key is not set"}
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &region.ConfigurationError{Field: "base-url", Message: fmt.Sprintf("invalid URL %q", opts.BaseURL)}
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{base: base, apiKey: opts.APIKey, http: hc}, nil
}

func (c *Client) Prefectures(ctx context.Context) ([]region.Entity, error) {
	out, err := get[[]prefectureRecord](ctx, c, prefecturesEndpoint, nil)
	if err != nil {
		return nil, err
	}
	return toEntities(out), nil
}

func (c *Client) Cities(ctx context.Context, prefCode int) ([]City, error) {
	params := url.Values{"prefCode": {strconv.Itoa(prefCode)}}
	return get[[]City](ctx, c, citiesEndpoint, params)
}

func (c *Client) Population(ctx context.Context, prefCode int) (*region.TimeSeries, error) {
	params := url.Values{"prefCode": {strconv.Itoa(prefCode)}}
	out, err := get[populationRecord](ctx, c, populationEndpoint, params)
	if err != nil {
		return nil, err
	}
	return toTimeSeries(prefCode, out), nil
}

// get performs one API call and unwraps the result envelope.
func get[T any](ctx context.Context, c *Client, endpoint string, params url.Values) (T, error) {
	var zero T
	u := *c.base
	u.Path = c.base.Path + endpoint
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return zero, &region.ProviderError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return zero, &region.ProviderError{Endpoint: endpoint, Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	log.Printf("provider: GET %s -> %d (%s)", u.RequestURI(), resp.StatusCode, time.Since(start).Round(time.Millisecond))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return zero, &region.ProviderError{Status: resp.StatusCode, Endpoint: endpoint, Message: "read body", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, &region.ProviderError{Status: resp.StatusCode, Endpoint: endpoint, Message: errorText(body, resp.Status)}
	}
	return decodeEnvelope[T](endpoint, resp.StatusCode, body)
}

func decodeEnvelope[T any](endpoint string, status int, body []byte) (T, error) {
	var zero T
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, &region.ProviderError{Status: status, Endpoint: endpoint, Message: "decode response", Err: err}
	}
	if env.Result == nil {
		msg := "response has no result"
		if env.Message != nil && *env.Message != "" {
			msg = *env.Message
		}
		if s := statusFromBody(env.StatusCode.String()); s != 0 {
			status = s
		}
		return zero, &region.ProviderError{Status: status, Endpoint: endpoint, Message: msg}
	}
	return *env.Result, nil
}

func errorText(body []byte, fallback string) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return fallback
}
