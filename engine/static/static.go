// Package static implements the non-browser, pure-HTTP fetch engine.
package static

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/hshahin/webprowl/adaptor"
	"github.com/hshahin/webprowl/headers"
	"github.com/hshahin/webprowl/logging"
	"github.com/hshahin/webprowl/model"
)

// Config controls one engine's transport behavior. All fields are scalar so
// configs compare by value and can key the engine cache.
type Config struct {
	// Proxy is an optional proxy URI of the form
	// scheme://[user:pass@]host:port.
	Proxy string

	// StealthyHeaders enables the full synthesized browser header set plus
	// a search-shaped referer. Off, only a User-Agent is guaranteed.
	StealthyHeaders bool

	// FollowRedirects makes the transport follow redirect chains; each hop
	// is recorded in the Response history.
	FollowRedirects bool

	// Timeout bounds the whole request including redirects, in seconds
	// granularity (a time.Duration nonetheless).
	Timeout time.Duration

	// Retries is handed to the transport's connect-failure retry policy.
	// The engine itself never loops.
	Retries int
}

// DefaultConfig mirrors the façade defaults.
func DefaultConfig() Config {
	return Config{
		StealthyHeaders: true,
		FollowRedirects: true,
		Timeout:         10 * time.Second,
		Retries:         3,
	}
}

// Engine performs plain HTTP requests. Instances may be shared through the
// engine cache, so callers must not mutate them after construction.
type Engine struct {
	cfg       Config
	parserCfg adaptor.Config
	proxyURL  *url.URL
	logger    logging.Logger
}

// New validates the config and builds an engine. The only rejected input is
// a malformed proxy URI; everything else has a workable default.
func New(cfg Config, parserCfg adaptor.Config, logger logging.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	var proxyURL *url.URL
	if cfg.Proxy != "" {
		u, err := url.Parse(cfg.Proxy)
		if err != nil || u.Hostname() == "" {
			return nil, fmt.Errorf("static: invalid proxy URI %q", cfg.Proxy)
		}
		switch u.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return nil, fmt.Errorf("static: unsupported proxy scheme %q", u.Scheme)
		}
		proxyURL = u
	}

	return &Engine{
		cfg:       cfg,
		parserCfg: parserCfg,
		proxyURL:  proxyURL,
		logger:    logger.With(logging.Field{Key: "engine", Value: "static"}),
	}, nil
}

// RequestOptions carry the per-call extras forwarded to the transport.
type RequestOptions struct {
	// Headers are merged with (never overridden by) the synthesized set.
	Headers map[string]string

	// Body is sent as the request body for POST/PUT/DELETE.
	Body []byte
}

// Get issues a GET request.
func (e *Engine) Get(ctx context.Context, target string, opts *RequestOptions) (*model.Response, error) {
	return e.do(ctx, http.MethodGet, target, opts)
}

// Post issues a POST request.
func (e *Engine) Post(ctx context.Context, target string, opts *RequestOptions) (*model.Response, error) {
	return e.do(ctx, http.MethodPost, target, opts)
}

// Put issues a PUT request.
func (e *Engine) Put(ctx context.Context, target string, opts *RequestOptions) (*model.Response, error) {
	return e.do(ctx, http.MethodPut, target, opts)
}

// Delete issues a DELETE request.
func (e *Engine) Delete(ctx context.Context, target string, opts *RequestOptions) (*model.Response, error) {
	return e.do(ctx, http.MethodDelete, target, opts)
}

// Fetch makes the static engine usable wherever an engine.Engine is
// expected; it is a plain GET.
func (e *Engine) Fetch(ctx context.Context, target string) (*model.Response, error) {
	return e.Get(ctx, target, nil)
}

func (e *Engine) do(ctx context.Context, method, target string, opts *RequestOptions) (*model.Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	finalHeaders := e.headersJob(opts.Headers, target)

	client, transport := e.newClient()
	// One scoped client per request; drop its connections when done.
	defer transport.CloseIdleConnections()

	var rawBody interface{}
	if len(opts.Body) > 0 {
		rawBody = opts.Body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, rawBody)
	if err != nil {
		return nil, fmt.Errorf("static: build request: %w", err)
	}
	for k, v := range finalHeaders {
		req.Header.Set(k, v)
	}

	requestID := uuid.NewString()
	e.logger.Debug("sending request",
		logging.Field{Key: "request_id", Value: requestID},
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "url", Value: target})

	resp, err := client.Do(req)
	if err != nil {
		e.logger.Warn("request failed",
			logging.Field{Key: "request_id", Value: requestID},
			logging.Field{Key: "url", Value: target},
			logging.Field{Key: "error", Value: err.Error()})
		// Transport errors propagate as-is, only wrapped for context.
		return nil, fmt.Errorf("static: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("static: read body: %w", err)
	}

	result, err := e.normalize(resp, body, method)
	if err != nil {
		return nil, err
	}
	e.logger.Info("fetched",
		logging.Field{Key: "request_id", Value: requestID},
		logging.Field{Key: "status", Value: result.Status},
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "url", Value: target})
	return result, nil
}

// headersJob merges synthesized headers into the caller's set. The caller's
// map is never mutated and caller-supplied keys always win, compared
// case-insensitively.
func (e *Engine) headersJob(userHeaders map[string]string, target string) map[string]string {
	final := make(map[string]string, len(userHeaders)+8)
	seen := make(map[string]struct{}, len(userHeaders))
	for k, v := range userHeaders {
		final[k] = v
		seen[strings.ToLower(k)] = struct{}{}
	}

	if e.cfg.StealthyHeaders {
		for k, v := range headers.Generate(false) {
			// The transport negotiates and transparently decodes its own
			// Accept-Encoding; forwarding ours would leave bodies encoded.
			if strings.EqualFold(k, "Accept-Encoding") {
				continue
			}
			if _, taken := seen[strings.ToLower(k)]; !taken {
				final[k] = v
			}
		}
		if _, taken := seen["referer"]; !taken {
			final["Referer"] = headers.ConvincingReferer(target)
		}
		return final
	}

	if _, taken := seen["user-agent"]; !taken {
		ua := headers.UserAgent()
		final["User-Agent"] = ua
		e.logger.Debug("no user agent in headers, synthesized one",
			logging.Field{Key: "user_agent", Value: ua})
	}
	return final
}

// newClient builds the scoped transport for a single request. Retries on
// connection failures are the transport library's concern, parameterized by
// the configured retry count.
func (e *Engine) newClient() (*retryablehttp.Client, *http.Transport) {
	transport := &http.Transport{}
	if e.proxyURL != nil {
		transport.Proxy = http.ProxyURL(e.proxyURL)
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   e.cfg.Timeout,
	}
	if !e.cfg.FollowRedirects {
		httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = httpClient
	client.RetryMax = e.cfg.Retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	// Retry connection failures only. Any status code that made it back is
	// a result, not a failure.
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return err != nil, nil
	}
	return client, transport
}

// normalize turns the transport response into the unified Response,
// recursively folding prior redirect hops into History, oldest first.
func (e *Engine) normalize(resp *http.Response, body []byte, method string) (*model.Response, error) {
	history, err := e.normalizeHistory(resp.Request)
	if err != nil {
		return nil, err
	}

	init := model.ResponseInit{
		URL:            resp.Request.URL.String(),
		Status:         resp.StatusCode,
		Reason:         reasonPhrase(resp.Status),
		ContentType:    resp.Header.Get("Content-Type"),
		Body:           body,
		Method:         method,
		Headers:        flattenHeader(resp.Header),
		Cookies:        cookieMap(resp.Cookies()),
		RequestHeaders: flattenHeader(resp.Request.Header),
		History:        history,
	}
	out, err := model.NewResponse(init, e.parserCfg)
	if err != nil {
		return nil, fmt.Errorf("static: normalize response: %w", err)
	}
	return out, nil
}

// normalizeHistory walks the redirect chain hanging off the final request.
// Intermediate hop bodies were already drained by the transport, so hops
// carry headers and status only.
func (e *Engine) normalizeHistory(req *http.Request) ([]*model.Response, error) {
	var hops []*http.Response
	for prior := req.Response; prior != nil; prior = prior.Request.Response {
		hops = append(hops, prior)
	}
	if len(hops) == 0 {
		return nil, nil
	}

	// The chain is walked newest-to-oldest; history is oldest first.
	history := make([]*model.Response, 0, len(hops))
	for i := len(hops) - 1; i >= 0; i-- {
		hop := hops[i]
		init := model.ResponseInit{
			URL:            hop.Request.URL.String(),
			Status:         hop.StatusCode,
			Reason:         reasonPhrase(hop.Status),
			ContentType:    hop.Header.Get("Content-Type"),
			Method:         hop.Request.Method,
			Headers:        flattenHeader(hop.Header),
			Cookies:        cookieMap(hop.Cookies()),
			RequestHeaders: flattenHeader(hop.Request.Header),
		}
		normalized, err := model.NewResponse(init, e.parserCfg)
		if err != nil {
			return nil, fmt.Errorf("static: normalize redirect hop %s: %w", init.URL, err)
		}
		history = append(history, normalized)
	}
	return history, nil
}

// reasonPhrase strips the status code from a status line like "200 OK".
func reasonPhrase(statusLine string) string {
	parts := strings.SplitN(statusLine, " ", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}

func cookieMap(cookies []*http.Cookie) map[string]string {
	out := make(map[string]string, len(cookies))
	for _, c := range cookies {
		out[c.Name] = c.Value
	}
	return out
}
