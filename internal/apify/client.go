package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BarkinBalci/dataset-validation-service/internal/config"
	"github.com/BarkinBalci/dataset-validation-service/internal/dataset"
	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

const schemaValidationErrorType = "schema-validation-error"

// Client talks to the hosted storage API. Requests are rate limited on the
// client side and retried on transport errors, 429 and 5xx responses.
// Item pushes are not idempotent and skip the 5xx retry.
type Client struct {
	http    *retryablehttp.Client
	limiter *rate.Limiter
	baseURL string
	token   string
	log     *zap.Logger
}

// apiError is the error envelope returned by the storage API
type apiError struct {
	Error struct {
		Type    string          `json:"type"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"error"`
}

// StatusError is returned for responses the client does not handle itself.
type StatusError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("storage API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("storage API returned status %d (%s): %s", e.StatusCode, e.Type, e.Message)
}

// NewClient creates a new storage API client
func NewClient(cfg config.Apify, log *zap.Logger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = cfg.MaxRetries
	httpClient.RetryWaitMin = 500 * time.Millisecond
	httpClient.RetryWaitMax = 10 * time.Second
	httpClient.HTTPClient.Timeout = time.Duration(cfg.TimeoutSec) * time.Second
	httpClient.Logger = &leveledLogger{log: log.Sugar()}
	httpClient.CheckRetry = checkRetry

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}

	log.Info("Storage API client created",
		zap.String("base_url", cfg.APIBaseURL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Float64("requests_per_second", cfg.RequestsPerSecond))

	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		token:   cfg.Token,
		log:     log,
	}
}

type noServerRetryKey struct{}

// withoutServerErrorRetry marks a request the server may have applied
// before answering with a 5xx. It is retried only on 429 and transport
// errors.
func withoutServerErrorRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noServerRetryKey{}, true)
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if skip, _ := ctx.Value(noServerRetryKey{}).(bool); skip && err == nil && ctx.Err() == nil {
		return resp != nil && resp.StatusCode == http.StatusTooManyRequests, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// do sends a request and returns the response body of a 2xx response.
// Non-2xx responses are returned as *StatusError, or as
// *dataset.ValidationRejectedError for schema rejections. Transport
// failures, auth failures and server errors are marked unavailable.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody interface{}
	if body != nil {
		reqBody = body
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dataset.Unavailable(fmt.Errorf("failed to send %s %s: %w", method, path, err))
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dataset.Unavailable(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	return nil, c.decodeError(resp.StatusCode, respBody)
}

func (c *Client) decodeError(status int, body []byte) error {
	var envelope apiError
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.log.Debug("Failed to decode error response", zap.Int("status", status), zap.Error(err))
		}
	}

	if status == http.StatusBadRequest && envelope.Error.Type == schemaValidationErrorType {
		rejected := &dataset.ValidationRejectedError{Message: envelope.Error.Message}
		if len(envelope.Error.Data) > 0 {
			var data struct {
				InvalidItems []domain.InvalidItem `json:"invalidItems"`
			}
			if err := json.Unmarshal(envelope.Error.Data, &data); err != nil {
				return fmt.Errorf("failed to decode invalid items: %w", err)
			}
			rejected.InvalidItems = data.InvalidItems
		}
		if rejected.InvalidItems == nil {
			rejected.InvalidItems = []domain.InvalidItem{}
		}
		return rejected
	}

	statusErr := &StatusError{
		StatusCode: status,
		Type:       envelope.Error.Type,
		Message:    envelope.Error.Message,
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden || status >= http.StatusInternalServerError {
		return dataset.Unavailable(statusErr)
	}

	return statusErr
}
