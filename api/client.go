package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mchkv/vkbot/internal/logging"
	"github.com/mchkv/vkbot/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.vk.com/method/"
	DefaultVersion = "5.131"

	defaultUserAgent = "vkbot-go/0.2"
)

// Config defines transport reliability defaults for one Client.
type Config struct {
	BaseURL        string
	Version        string
	UserAgent      string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	MaxAttempts    int
	Backoff        BackoffConfig
	ProxyURL       string
	HTTPClient     *http.Client
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Version:        DefaultVersion,
		UserAgent:      defaultUserAgent,
		RequestTimeout: 30 * time.Second,
		UploadTimeout:  60 * time.Second,
		MaxAttempts:    4,
		Backoff: BackoffConfig{
			InitialDelay: 500 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = def.BaseURL
	}
	if strings.TrimSpace(c.Version) == "" {
		c.Version = def.Version
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = def.UserAgent
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = def.UploadTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}

// Client issues VK API method calls for one access token.
type Client struct {
	token string
	cfg   Config
	http  *http.Client
	log   zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewClient(token string, cfg Config) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrTokenRequired
	}
	cfg = cfg.WithDefaults()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if proxy := strings.TrimSpace(cfg.ProxyURL); proxy != "" {
			proxyURL, err := url.Parse(proxy)
			if err != nil {
				return nil, fmt.Errorf("api: parse proxy url: %w", err)
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
		httpClient = &http.Client{Transport: transport}
	}

	return &Client{
		token: token,
		cfg:   cfg,
		http:  httpClient,
		log:   logging.Component("api"),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (c *Client) Version() string { return c.cfg.Version }

// Call invokes one VK API method and returns the raw "response" payload.
// Transport failures and 429/5xx statuses are retried with backoff;
// an API error envelope is final and surfaces as *Error.
func (c *Client) Call(ctx context.Context, method string, params Params) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		payload, status, err := c.callOnce(ctx, method, params)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		var apiErr *Error
		if errors.As(err, &apiErr) {
			return nil, err
		}
		if !retryableStatus(status) && status != 0 {
			return nil, err
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}
		c.log.Warn().Str("method", method).Int("attempt", attempt).Err(err).Msg("call retry")
		if err := c.sleepBackoff(ctx, attempt); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("api: %s failed after %d attempts: %w", method, c.cfg.MaxAttempts, lastErr)
}

func (c *Client) callOnce(ctx context.Context, method string, params Params) (json.RawMessage, int, error) {
	vals := Params{}.Merge(params).values()
	vals.Set("access_token", c.token)
	vals.Set("v", c.cfg.Version)

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	endpoint := c.cfg.BaseURL + method + "?" + vals.Encode()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(method, 0, time.Since(start))
		return nil, 0, fmt.Errorf("api: %s: %w", method, err)
	}
	defer resp.Body.Close()
	metrics.RecordAPIRequest(method, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, fmt.Errorf("api: %s: unexpected status %d", method, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("api: read response: %w", err)
	}
	payload, err := decodeEnvelope(body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return payload, resp.StatusCode, nil
}

type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *Error          `json:"error"`
}

func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("api: decode envelope: %w", err)
	}
	if env.Error != nil {
		return nil, env.Error
	}
	if len(env.Response) == 0 {
		return nil, ErrEmptyResponse
	}
	return env.Response, nil
}

func retryableStatus(status int) bool {
	switch status {
	case 0, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	c.rngMu.Lock()
	delay := NextBackoffDelay(c.cfg.Backoff, attempt, c.rng)
	c.rngMu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RandomID produces the dedupe id messages.send requires. Always positive.
func RandomID() int64 {
	id := time.Now().UnixNano() / int64(time.Microsecond)
	if id <= 0 {
		id = 1
	}
	return id
}
