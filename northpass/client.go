// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package northpass

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

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

// Errors that can be returned by this package. Since some of these errors are
// returned wrapped, it is safest to use errors.Is() to check for them.
var (
	ErrRateLimited  = errors.New("northpass rejected the request as rate limited")
	ErrNotFound     = errors.New("northpass resource not found")
	ErrAccessDenied = errors.New("northpass denied access to the resource")
	ErrConflict     = errors.New("northpass reported a conflicting resource")
	ErrBadRequest   = errors.New("northpass rejected the request as invalid")
)

var (
	errNonSuccessResponse = errors.New("northpass responded with a non-success status code")
	errNewRequestFailure  = errors.New("failed creating an HTTP request")
	errDoRequestFailure   = errors.New("http client failed while sending request")
	errReadingBodyFailure = errors.New("failed while reading http response body")
	errJSONUnmarshal      = errors.New("failed unmarshaling JSON response payload")
	errJSONMarshal        = errors.New("failed marshaling request payload")
)

const (
	apiV2Path        = "/v2"
	apiKeyHeaderName = "X-Api-Key"
	contentTypeJSON  = "application/json"
	errWrappedFmt    = "%w: %s"
	errStatusCodeFmt = "%w: received status %v"
)

// ClientConfig contains config data for the client that will be used to make
// requests to the Northpass API.
type ClientConfig struct {
	// Address is the Northpass API base URL, either the direct upstream
	// (https://api.northpass.com) or a same-origin proxy path.
	Address string `validate:"required,url"`

	// APIKey is the static key added to every outgoing request.
	APIKey string `validate:"required"`

	// HTTPClient refers to the client that will be used to send requests.
	// (Optional) Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Logger to be used by the client.
	// (Optional) By default a no op logger will be used.
	Logger *zap.Logger

	// Standard shapes the throttle for most endpoints.
	// (Optional) Defaults to 90 requests/minute with 150ms spacing.
	Standard LimiterConfig

	// Properties shapes the throttle for the course properties sub-API,
	// which tolerates far less traffic.
	// (Optional) Defaults to 20 requests/minute with 1s spacing.
	Properties LimiterConfig

	// Retry shapes the backoff for rate-limited requests.
	Retry RetryConfig
}

var defaultStandardLimits = LimiterConfig{Requests: 90, Window: time.Minute, MinDelay: 150 * time.Millisecond}
var defaultPropertiesLimits = LimiterConfig{Requests: 20, Window: time.Minute, MinDelay: time.Second}

// BasicClient is the client used to make requests to Northpass.
type BasicClient struct {
	client    *http.Client
	apiKey    string
	baseURL   string
	address   string
	logger    *zap.Logger
	getLogger func(context.Context) *zap.Logger
	limiters  map[Profile]*Limiter
	retry     Policy
	measures  *Measures
}

type doResponse struct {
	code       int
	body       []byte
	retryAfter time.Duration
}

// NewBasicClient creates a new BasicClient that can be used to make requests
// to Northpass. Measures may be nil; metrics are then skipped.
func NewBasicClient(config ClientConfig, getLogger func(context.Context) *zap.Logger, measures *Measures) (*BasicClient, error) {
	if err := validateClientConfig(&config); err != nil {
		return nil, err
	}
	if getLogger == nil {
		getLogger = sallust.Get
	}
	return &BasicClient{
		client:    config.HTTPClient,
		apiKey:    config.APIKey,
		address:   strings.TrimRight(config.Address, "/"),
		baseURL:   strings.TrimRight(config.Address, "/") + apiV2Path,
		logger:    config.Logger,
		getLogger: getLogger,
		limiters: map[Profile]*Limiter{
			ProfileStandard:   NewLimiter(config.Standard),
			ProfileProperties: NewLimiter(config.Properties),
		},
		retry:    newPolicy(config.Retry),
		measures: measures,
	}, nil
}

func validateClientConfig(config *ClientConfig) error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	config.Standard.applyDefaults(defaultStandardLimits)
	config.Properties.applyDefaults(defaultPropertiesLimits)
	return nil
}

// ctxLogger picks the request-scoped logger when one is present.
func (c *BasicClient) ctxLogger(ctx context.Context) *zap.Logger {
	if l := c.getLogger(ctx); l != nil {
		return l
	}
	return c.logger
}

// sendRequest dispatches one logical request under the given throttle
// profile: wait for the limiter, then run the retry policy around the actual
// HTTP exchange. Bodies are buffered so retried attempts can resend them.
func (c *BasicClient) sendRequest(ctx context.Context, profile Profile, method, url string, payload []byte) (doResponse, error) {
	waited, err := c.limiters[profile].Wait(ctx)
	c.observeThrottle(profile, waited)
	if err != nil {
		return doResponse{}, err
	}

	resp, err := c.retry.Do(ctx, c.ctxLogger(ctx), func(ctx context.Context) (doResponse, error) {
		return c.doOnce(ctx, method, url, payload)
	}, func() { c.countRetry(profile) })

	outcome := SuccessOutcome
	if err != nil || resp.code >= http.StatusBadRequest {
		outcome = FailureOutcome
	}
	c.countRequest(profile, outcome)
	return resp, err
}

func (c *BasicClient) doOnce(ctx context.Context, method, url string, payload []byte) (doResponse, error) {
	var body io.Reader
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
	}
	r, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return doResponse{}, fmt.Errorf(errWrappedFmt, errNewRequestFailure, err.Error())
	}
	r.Header.Set(apiKeyHeaderName, c.apiKey)
	r.Header.Set("Accept", contentTypeJSON)
	if len(payload) > 0 {
		r.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := c.client.Do(r)
	if err != nil {
		return doResponse{}, fmt.Errorf(errWrappedFmt, errDoRequestFailure, err.Error())
	}
	defer resp.Body.Close()

	out := doResponse{
		code:       resp.StatusCode,
		retryAfter: parseRetryAfter(resp.Header),
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf(errWrappedFmt, errReadingBodyFailure, err.Error())
	}
	out.body = bodyBytes
	return out, nil
}

// get wraps sendRequest for GET endpoints, translating non-2xx codes.
func (c *BasicClient) get(ctx context.Context, profile Profile, url string) ([]byte, error) {
	resp, err := c.sendRequest(ctx, profile, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if resp.code != http.StatusOK {
		c.ctxLogger(ctx).Error("northpass responded with a non-200 status for a GET request",
			zap.Int("code", resp.code), zap.String("url", url))
		return nil, fmt.Errorf(errStatusCodeFmt, translateNonSuccessStatusCode(resp.code), resp.code)
	}
	return resp.body, nil
}

// getPages follows links.next from the starting URL, handing each page's
// resources to visit. A 404 on the first page means "nothing here" and is
// not an error.
func (c *BasicClient) getPages(ctx context.Context, profile Profile, startURL string, visit func([]resource)) error {
	url := startURL
	for url != "" {
		resp, err := c.sendRequest(ctx, profile, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if resp.code == http.StatusNotFound {
			return nil
		}
		if resp.code != http.StatusOK {
			c.ctxLogger(ctx).Error("northpass responded with a non-200 status for a paginated GET",
				zap.Int("code", resp.code), zap.String("url", url))
			return fmt.Errorf(errStatusCodeFmt, translateNonSuccessStatusCode(resp.code), resp.code)
		}
		resources, next, err := decodeResourceList(resp.body)
		if err != nil {
			return err
		}
		visit(resources)
		url = c.absoluteURL(next)
	}
	return nil
}

// absoluteURL resolves a links.next cursor, which may be absolute or
// host-relative depending on whether a proxy fronts the API.
func (c *BasicClient) absoluteURL(link string) string {
	if link == "" || strings.Contains(link, "://") {
		return link
	}
	return c.address + "/" + strings.TrimLeft(link, "/")
}

func marshalPayload(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf(errWrappedFmt, errJSONMarshal, err.Error())
	}
	return data, nil
}

// translateNonSuccessStatusCode returns a specific error for known Northpass
// status codes.
func translateNonSuccessStatusCode(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAccessDenied
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return errNonSuccessResponse
	}
}

func (c *BasicClient) countRequest(profile Profile, outcome string) {
	if c.measures == nil {
		return
	}
	c.measures.Requests.With(prometheus.Labels{ProfileLabel: string(profile), OutcomeLabel: outcome}).Add(1)
}

func (c *BasicClient) countRetry(profile Profile) {
	if c.measures == nil {
		return
	}
	c.measures.Retries.With(prometheus.Labels{ProfileLabel: string(profile)}).Add(1)
}

func (c *BasicClient) observeThrottle(profile Profile, waited time.Duration) {
	if c.measures == nil {
		return
	}
	c.measures.ThrottleWait.With(prometheus.Labels{ProfileLabel: string(profile)}).Observe(waited.Seconds())
}
