// Package restclient implements the generic HTTP call primitive used by
// REST-backed storage providers.
//
// The client understands link-header pagination: when a response advertises
// a `rel="next"` URL, the client follows it and concatenates page results.
// Responses are decoded as JSON (objects or arrays) or returned as raw text.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultPerPage is the page-size query value applied to paginated GETs.
const DefaultPerPage = 100

// DefaultTimeout bounds a single HTTP round trip when none is configured.
const DefaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// BaseURL is the provider's REST API root. Relative request URLs are
	// joined onto it.
	BaseURL string

	// AccessKeyID, SecretAccessKey and SessionToken must all be present
	// before any call is dispatched.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Timeout bounds each HTTP round trip. Zero uses DefaultTimeout.
	Timeout time.Duration

	// PerPage overrides the default page-size parameter. Zero uses
	// DefaultPerPage.
	PerPage int

	// RateLimit is the maximum requests per second to the provider.
	// Zero means unlimited.
	RateLimit float64
}

// Request describes one provider call.
type Request struct {
	// URL is absolute, or relative to the configured base URL.
	URL string

	// Method defaults to GET.
	Method string

	// Body, when non-nil, is serialized as JSON.
	Body any

	// RawBody, when non-nil, is sent verbatim. Takes precedence over Body.
	RawBody []byte

	// Params are appended to the URL query string.
	Params url.Values

	// Headers are sent verbatim.
	Headers http.Header

	// ExpectJSON selects JSON decoding of the response body. Non-JSON
	// responses are returned as raw text and never paginated.
	ExpectJSON bool

	// Paginate enables the default page-size parameter and link-header
	// cursor following for JSON GETs.
	Paginate bool
}

// Client issues authenticated provider calls.
//
// Client is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New creates a Client. A nil logger disables debug logging.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c
}

var absoluteURL = regexp.MustCompile(`^https?:`)

// Call dispatches a provider request.
//
// For ExpectJSON requests the result is the decoded JSON value; when
// pagination follows a next link, the result is a []any concatenation of all
// pages in order. For non-JSON requests the result is the raw response text;
// bodies that are not valid UTF-8 fail with a DecodeError, so binary media
// must be fetched through Download instead.
//
// All three credentials must be configured; otherwise the call fails with
// ErrMissingCredentials before any network I/O.
func (c *Client) Call(ctx context.Context, req Request) (any, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	return c.call(ctx, req)
}

func (c *Client) call(ctx context.Context, req Request) (any, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	// The next-link already encodes the relevant query state, so the
	// page-size parameter is only applied to the initial request.
	paginated := req.ExpectJSON && req.Paginate && method == http.MethodGet
	params := req.Params
	if paginated {
		if params == nil {
			params = url.Values{}
		} else {
			cloned := url.Values{}
			for k, vs := range params {
				cloned[k] = vs
			}
			params = cloned
		}
		if params.Get("per_page") == "" {
			perPage := c.cfg.PerPage
			if perPage <= 0 {
				perPage = DefaultPerPage
			}
			params.Set("per_page", strconv.Itoa(perPage))
		}
	}
	rawURL := c.requestURL(req.URL, params)

	var bodyReader io.Reader
	headers := c.requestHeaders(req)
	switch {
	case req.RawBody != nil:
		bodyReader = bytes.NewReader(req.RawBody)
	case req.Body != nil:
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &DecodeError{URL: rawURL, Err: err}
		}
		bodyReader = bytes.NewReader(encoded)
		headers.Set("Content-Type", "application/json")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: rawURL, Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	httpReq.Header = headers

	c.logger.Debug("provider call", zap.String("method", method), zap.String("url", rawURL))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, newProviderError(rawURL, resp.StatusCode, raw)
	}

	if !utf8.Valid(raw) {
		return nil, &DecodeError{URL: rawURL, Err: errInvalidEncoding}
	}

	if !req.ExpectJSON {
		return string(raw), nil
	}

	var page any
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, &DecodeError{URL: rawURL, Err: err}
	}

	nextURL := nextLink(resp.Header.Get("Link"))
	if nextURL == "" {
		if paginated {
			if _, ok := page.([]any); !ok {
				return []any{page}, nil
			}
		}
		return page, nil
	}

	next, err := c.call(ctx, Request{
		URL:        nextURL,
		Method:     method,
		Body:       req.Body,
		RawBody:    req.RawBody,
		Headers:    req.Headers,
		ExpectJSON: req.ExpectJSON,
		Paginate:   false,
	})
	if err != nil {
		return nil, err
	}

	return concatPages(page, next), nil
}

// Download fetches a response body as a raw byte stream. Unlike Call it
// performs no text decoding and no UTF-8 validation, which makes it the
// path for binary media. The caller owns the returned reader; reads are
// bounded by the client's HTTP timeout.
func (c *Client) Download(ctx context.Context, req Request) (io.ReadCloser, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	rawURL := c.requestURL(req.URL, req.Params)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: rawURL, Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	httpReq.Header = c.requestHeaders(req)

	c.logger.Debug("provider download", zap.String("url", rawURL))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, newProviderError(rawURL, resp.StatusCode, raw)
	}
	return resp.Body, nil
}

// HeadResult carries the metadata of a HEAD response.
type HeadResult struct {
	Status        int
	ContentLength int64
	Header        http.Header
}

// Head issues a HEAD request and returns the response metadata.
func (c *Client) Head(ctx context.Context, req Request) (*HeadResult, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	rawURL := c.requestURL(req.URL, req.Params)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: rawURL, Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	httpReq.Header = c.requestHeaders(req)

	c.logger.Debug("provider head", zap.String("url", rawURL))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &ProviderError{URL: rawURL, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return &HeadResult{
		Status:        resp.StatusCode,
		ContentLength: resp.ContentLength,
		Header:        resp.Header,
	}, nil
}

// requestURL joins a relative URL onto the base API URL and appends query
// parameters.
func (c *Client) requestURL(rawURL string, params url.Values) string {
	if !strings.HasPrefix(rawURL, c.cfg.BaseURL) && !absoluteURL.MatchString(rawURL) {
		rawURL = joinURL(c.cfg.BaseURL, rawURL)
	}
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + params.Encode()
	}
	return rawURL
}

// requestHeaders copies the request headers and injects the bearer token
// when none is set.
func (c *Client) requestHeaders(req Request) http.Header {
	headers := http.Header{}
	for k, vs := range req.Headers {
		headers[k] = vs
	}
	if headers.Get("Authorization") == "" && c.cfg.SessionToken != "" {
		headers.Set("Authorization", "Bearer "+c.cfg.SessionToken)
	}
	return headers
}

func (c *Client) checkCredentials() error {
	switch {
	case c.cfg.SessionToken == "":
		return &CredentialsError{Field: "session token"}
	case c.cfg.AccessKeyID == "":
		return &CredentialsError{Field: "access key id"}
	case c.cfg.SecretAccessKey == "":
		return &CredentialsError{Field: "secret access key"}
	}
	return nil
}

// concatPages appends two page results, wrapping either side in a
// one-element sequence when it is not already one.
func concatPages(cur, next any) []any {
	curList, ok := cur.([]any)
	if !ok {
		curList = []any{cur}
	}
	nextList, ok := next.([]any)
	if !ok {
		nextList = []any{next}
	}
	return append(curList, nextList...)
}

// nextLink extracts the rel="next" URL from a Link header.
//
// The header is a comma-separated list of `<url>; rel="relation"` tokens.
func nextLink(header string) string {
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(strings.TrimSpace(part), ";")
		if len(fields) < 2 {
			continue
		}
		target := strings.TrimSpace(fields[0])
		for _, attr := range fields[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(attr), "=")
			if !ok {
				continue
			}
			if strings.TrimSpace(k) == "rel" && strings.Trim(strings.TrimSpace(v), `"`) == "next" {
				return strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">")
			}
		}
	}
	return ""
}

// joinURL joins a relative path onto the base API URL.
func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
