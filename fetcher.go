package webprowl

import (
	"context"
	"net/http"
	"time"

	"github.com/hshahin/webprowl/engine/static"
	"github.com/hshahin/webprowl/logging"
	"github.com/hshahin/webprowl/model"
)

// FetchOptions tune a single static fetch. The zero value is not the
// default; start from DefaultFetchOptions when customizing, or pass nil to
// get the defaults.
type FetchOptions struct {
	// FollowRedirects walks redirect chains and records each hop in the
	// Response history.
	FollowRedirects bool

	// StealthyHeaders sends a full realistic browser header set and a
	// search-shaped referer. Off, only a User-Agent is guaranteed.
	StealthyHeaders bool

	// Timeout bounds the whole request including redirects.
	Timeout time.Duration

	// Retries is the connect-failure retry budget. Server status codes
	// are never retried; they come back as responses.
	Retries int

	// Proxy is an optional scheme://[user:pass@]host:port URI.
	Proxy string

	// Headers are merged over the synthesized set; a caller header always
	// wins, compared case-insensitively.
	Headers map[string]string

	// ParserOverrides adjust the document parser for this call only,
	// using the same keys Configure accepts.
	ParserOverrides map[string]any
}

// DefaultFetchOptions are the options used when a call passes nil.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		FollowRedirects: true,
		StealthyHeaders: true,
		Timeout:         10 * time.Second,
		Retries:         3,
	}
}

// Fetcher is the static HTTP façade. It is stateless apart from its logger;
// engines are pooled behind it keyed by configuration, so constructing
// Fetchers is cheap and concurrent use is fine.
type Fetcher struct {
	logger logging.Logger
}

// NewFetcher builds a static fetch façade. A nil logger discards logs.
func NewFetcher(logger logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fetcher{logger: logger}
}

// Get fetches target with a GET request. nil opts means defaults.
func (f *Fetcher) Get(ctx context.Context, target string, opts *FetchOptions) (*model.Response, error) {
	return f.do(ctx, http.MethodGet, target, nil, opts)
}

// Post sends body to target with a POST request.
func (f *Fetcher) Post(ctx context.Context, target string, body []byte, opts *FetchOptions) (*model.Response, error) {
	return f.do(ctx, http.MethodPost, target, body, opts)
}

// Put sends body to target with a PUT request.
func (f *Fetcher) Put(ctx context.Context, target string, body []byte, opts *FetchOptions) (*model.Response, error) {
	return f.do(ctx, http.MethodPut, target, body, opts)
}

// Delete issues a DELETE request.
func (f *Fetcher) Delete(ctx context.Context, target string, opts *FetchOptions) (*model.Response, error) {
	return f.do(ctx, http.MethodDelete, target, nil, opts)
}

func (f *Fetcher) do(ctx context.Context, method, target string, body []byte, opts *FetchOptions) (*model.Response, error) {
	resolved := DefaultFetchOptions()
	if opts != nil {
		resolved = *opts
	}

	parserCfg, err := mergeParserConfig(ParserDefaults(), resolved.ParserOverrides)
	if err != nil {
		return nil, err
	}

	eng, err := static.For(static.Config{
		Proxy:           resolved.Proxy,
		StealthyHeaders: resolved.StealthyHeaders,
		FollowRedirects: resolved.FollowRedirects,
		Timeout:         resolved.Timeout,
		Retries:         resolved.Retries,
	}, parserCfg, f.logger)
	if err != nil {
		return nil, err
	}

	reqOpts := &static.RequestOptions{Headers: resolved.Headers, Body: body}
	switch method {
	case http.MethodGet:
		return eng.Get(ctx, target, reqOpts)
	case http.MethodPost:
		return eng.Post(ctx, target, reqOpts)
	case http.MethodPut:
		return eng.Put(ctx, target, reqOpts)
	default:
		return eng.Delete(ctx, target, reqOpts)
	}
}
