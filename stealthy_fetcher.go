package webprowl

import (
	"context"

	"github.com/hshahin/webprowl/engine/stealth"
	"github.com/hshahin/webprowl/logging"
	"github.com/hshahin/webprowl/model"
)

// StealthOptions tune a single stealth fetch. Durations are milliseconds.
// Pass nil to Fetch for the defaults.
type StealthOptions struct {
	Headless     bool
	Timeout      int
	Wait         int
	NetworkIdle  bool
	WaitSelector string
	UserAgent    string
	ExtraHeaders map[string]string
	Proxy        string
	GoogleSearch bool

	// ParserOverrides adjust the document parser for this call only.
	ParserOverrides map[string]any
}

// DefaultStealthOptions are the options used when a call passes nil.
func DefaultStealthOptions() StealthOptions {
	return StealthOptions{
		Headless:     true,
		Timeout:      30000,
		GoogleSearch: true,
	}
}

// StealthyFetcher runs pages through a fingerprint-hardened browser for
// sites that actively detect automation.
type StealthyFetcher struct {
	logger logging.Logger
}

// NewStealthyFetcher builds a stealth fetch façade. A nil logger discards
// logs.
func NewStealthyFetcher(logger logging.Logger) *StealthyFetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StealthyFetcher{logger: logger}
}

// Fetch navigates to target with evasions applied and returns the rendered
// document.
func (f *StealthyFetcher) Fetch(ctx context.Context, target string, opts *StealthOptions) (*model.Response, error) {
	resolved := DefaultStealthOptions()
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

	eng := stealth.New(stealth.Config{
		Headless:     resolved.Headless,
		Timeout:      resolved.Timeout,
		Wait:         resolved.Wait,
		NetworkIdle:  resolved.NetworkIdle,
		WaitSelector: resolved.WaitSelector,
		UserAgent:    resolved.UserAgent,
		ExtraHeaders: resolved.ExtraHeaders,
		Proxy:        resolved.Proxy,
		GoogleSearch: resolved.GoogleSearch,
	}, parserCfg, f.logger)
	return eng.Fetch(ctx, target)
}
