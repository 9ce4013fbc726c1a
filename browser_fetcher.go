package webprowl

import (
	"context"

	"github.com/hshahin/webprowl/engine/browser"
	"github.com/hshahin/webprowl/logging"
	"github.com/hshahin/webprowl/model"
)

// BrowserOptions tune a single browser fetch. Durations are milliseconds.
// Pass nil to Fetch for the defaults; start from DefaultBrowserOptions when
// customizing.
type BrowserOptions struct {
	Headless         bool
	Timeout          int
	Wait             int
	NetworkIdle      bool
	WaitSelector     string
	UserAgent        string
	ExtraHeaders     map[string]string
	Proxy            string
	DisableResources bool
	GoogleSearch     bool

	// ParserOverrides adjust the document parser for this call only.
	ParserOverrides map[string]any
}

// DefaultBrowserOptions are the options used when a call passes nil.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		Headless:     true,
		Timeout:      30000,
		GoogleSearch: true,
	}
}

// BrowserFetcher runs pages through Chromium so scripted content ends up in
// the returned document.
type BrowserFetcher struct {
	logger logging.Logger
}

// NewBrowserFetcher builds a browser fetch façade. A nil logger discards
// logs.
func NewBrowserFetcher(logger logging.Logger) *BrowserFetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &BrowserFetcher{logger: logger}
}

// Fetch navigates to target and returns the rendered document.
func (f *BrowserFetcher) Fetch(ctx context.Context, target string, opts *BrowserOptions) (*model.Response, error) {
	resolved := DefaultBrowserOptions()
	if opts != nil {
		resolved = *opts
	}
	if err := validateProxy(resolved.Proxy); err != nil {
		return nil, err
	}
	parserCfg, err := mergeParserConfig(ParserDefaults(), resolved.ParserOverrides)
	if err != nil {
		return nil, err
	}

	eng := browser.New(browser.Config{
		Headless:         resolved.Headless,
		Timeout:          resolved.Timeout,
		Wait:             resolved.Wait,
		NetworkIdle:      resolved.NetworkIdle,
		WaitSelector:     resolved.WaitSelector,
		UserAgent:        resolved.UserAgent,
		ExtraHeaders:     resolved.ExtraHeaders,
		Proxy:            resolved.Proxy,
		DisableResources: resolved.DisableResources,
		GoogleSearch:     resolved.GoogleSearch,
	}, parserCfg, f.logger)
	return eng.Fetch(ctx, target)
}
