package rebrickable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/logger"
)

// Config configures the catalog API client
type Config struct {
	BaseURL     string
	APIKey      string
	// UsersURL and UserToken address the account lists; both are needed
	// only for pushing lists back
	UsersURL    string
	UserToken   string
	PageSize    int
	RPS         float64
	HTTPTimeout time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// Client fetches catalog pages from the Rebrickable v3 API. Cursors are page
// numbers; an empty cursor is page one.
type Client struct {
	baseURL     string
	usersURL    string
	userToken   string
	apiKey      string
	pageSize    int
	maxRetries  int
	retryDelay  time.Duration
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a client, filling unset fields with defaults
func NewClient(cfg Config) *Client {
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.RPS <= 0 {
		cfg.RPS = DefaultRPS
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.UsersURL == "" {
		cfg.UsersURL = DefaultUsersURL
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/") + "/",
		usersURL:    strings.TrimRight(cfg.UsersURL, "/") + "/",
		userToken:   cfg.UserToken,
		apiKey:      cfg.APIKey,
		pageSize:    cfg.PageSize,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RPS), DefaultBurst),
	}
}

type listResponse struct {
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
	Results []json.RawMessage `json:"results"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Endpoint returns the collection path for a kind, relative to the base URL
func Endpoint(kind domain.EntityKind, scope string) (string, error) {
	s := url.PathEscape(scope)
	switch kind {
	case domain.KindColors:
		return "colors/", nil
	case domain.KindPartCategories:
		return "part_categories/", nil
	case domain.KindThemes:
		return "themes/", nil
	case domain.KindSets:
		return "sets/", nil
	case domain.KindParts:
		return "parts/", nil
	case domain.KindMinifigs:
		return "minifigs/", nil
	case domain.KindSetParts:
		return "sets/" + s + "/parts/", nil
	case domain.KindSetMinifigs:
		return "sets/" + s + "/minifigs/", nil
	case domain.KindMinifigParts:
		return "minifigs/" + s + "/parts/", nil
	}
	return "", fmt.Errorf("%w: "+ErrMsgUnsupportedKind, domain.ErrInvalidKind, kind)
}

// FetchPage requests one page of kind
func (c *Client) FetchPage(ctx context.Context, kind domain.EntityKind, scope, cursor string) (domain.Page, error) {
	endpoint, err := Endpoint(kind, scope)
	if err != nil {
		return domain.Page{}, err
	}

	page := 1
	if cursor != "" {
		page, err = strconv.Atoi(cursor)
		if err != nil || page < 1 {
			return domain.Page{}, fmt.Errorf("%w: "+ErrMsgInvalidCursor, domain.ErrValidation, cursor)
		}
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(c.pageSize))
	reqURL := c.baseURL + endpoint + "?" + params.Encode()

	logger.FromContext(ctx).Debug(LogMsgFetchingPage, logger.AttrKeyKind, kind, logger.AttrKeyScope, scope, "page", page)

	body, done, err := c.get(ctx, reqURL)
	if err != nil {
		return domain.Page{}, err
	}
	if done {
		return domain.Page{}, nil
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Page{}, fmt.Errorf("%w: "+ErrMsgDecodeResponse, domain.ErrTransport, err)
	}

	out := domain.Page{Records: resp.Results}
	if resp.Next != nil && *resp.Next != "" {
		out.NextCursor = strconv.Itoa(page + 1)
	}
	return out, nil
}

// get performs a rate-limited GET. done is true when the API reports the
// page lies past the end of the collection.
func (c *Client) get(ctx context.Context, reqURL string) (body []byte, done bool, err error) {
	status, body, err := c.send(ctx, http.MethodGet, reqURL, nil, "")
	if err != nil {
		return nil, false, err
	}
	switch {
	case status == http.StatusOK:
		return body, false, nil
	case status == http.StatusNotFound && isInvalidPage(body):
		logger.FromContext(ctx).Debug(LogMsgPastLastPage, "url", reqURL)
		return nil, true, nil
	}
	return nil, false, fmt.Errorf("%w: "+ErrMsgUnexpectedCode, domain.ErrTransport, status, reqURL)
}

// send performs one rate-limited request, retrying on 429 and 5xx. Any other
// status is returned to the caller together with the body.
func (c *Client) send(ctx context.Context, method, reqURL string, payload []byte, contentType string) (int, []byte, error) {
	log := logger.FromContext(ctx)
	delay := c.retryDelay
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("%w: rate limit: %w", domain.ErrTransport, err)
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return 0, nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set(HeaderAccept, contentTypeJSON)
		if contentType != "" {
			req.Header.Set(HeaderContentType, contentType)
		}
		if c.apiKey != "" {
			req.Header.Set(HeaderAuthorization, authScheme+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Warn(LogMsgRequestFailure, "method", method, "url", reqURL, "attempt", attempt, "error", err)
			return 0, nil, fmt.Errorf("%w: "+ErrMsgRequest, domain.ErrTransport, reqURL, err)
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return 0, nil, fmt.Errorf("%w: "+ErrMsgRequest, domain.ErrTransport, reqURL, err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp.Header.Get(HeaderRetryAfter), delay)
			log.Warn(LogMsgRateLimited, "method", method, "url", reqURL, "attempt", attempt, "wait", wait)
			lastErr = fmt.Errorf(ErrMsgUnexpectedCode, resp.StatusCode, reqURL)
			if err := sleep(ctx, wait); err != nil {
				return 0, nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
			}
			delay *= 2

		case resp.StatusCode >= http.StatusInternalServerError:
			log.Warn(LogMsgServerError, "method", method, "url", reqURL, "attempt", attempt, "status", resp.StatusCode)
			lastErr = fmt.Errorf(ErrMsgUnexpectedCode, resp.StatusCode, reqURL)
			if err := sleep(ctx, delay); err != nil {
				return 0, nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
			}
			delay *= 2

		default:
			return resp.StatusCode, body, nil
		}
	}

	return 0, nil, fmt.Errorf("%w: "+ErrMsgRetriesExceeded, domain.ErrTransport, reqURL, c.maxRetries, lastErr)
}

func isInvalidPage(body []byte) bool {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return false
	}
	return e.Detail == invalidPageDetail
}

// retryAfter honors a Retry-After header in seconds, else the fallback
func retryAfter(header string, fallback time.Duration) time.Duration {
	if header == "" {
		return fallback
	}
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
