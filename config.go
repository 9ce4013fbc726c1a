package webprowl

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/hshahin/webprowl/adaptor"
)

// ConfigError reports a rejected option before any network activity.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("webprowl: option %q: %s", e.Option, e.Reason)
}

var (
	parserMu       sync.RWMutex
	parserDefaults = adaptor.DefaultConfig()
)

// ParserDefaults returns a copy of the process-wide parser configuration
// applied to every response unless a call overrides it.
func ParserDefaults() adaptor.Config {
	parserMu.RLock()
	defer parserMu.RUnlock()
	return parserDefaults
}

// Configure updates the process-wide parser defaults. Overrides use the
// same keys accepted per call:
//
//	auto_match       bool    enable element fingerprinting and relocation
//	storage_path     string  where the auto-match database lives
//	automatch_domain string  fingerprint under this domain instead of the page's
//	keep_comments    bool    keep HTML comments in parsed documents
//
// An unknown key or a value of the wrong type returns a *ConfigError and
// leaves the defaults untouched.
func Configure(overrides map[string]any) error {
	merged, err := mergeParserConfig(ParserDefaults(), overrides)
	if err != nil {
		return err
	}
	parserMu.Lock()
	parserDefaults = merged
	parserMu.Unlock()
	return nil
}

// mergeParserConfig applies overrides on top of base. Validation happens on
// a copy, so callers can hand the result straight to an engine knowing the
// shared defaults were never half-updated.
func mergeParserConfig(base adaptor.Config, overrides map[string]any) (adaptor.Config, error) {
	for key, value := range overrides {
		switch key {
		case "auto_match":
			b, ok := value.(bool)
			if !ok {
				return adaptor.Config{}, &ConfigError{Option: key, Reason: fmt.Sprintf("expected bool, got %T", value)}
			}
			base.AutoMatch = b
		case "storage_path":
			s, ok := value.(string)
			if !ok {
				return adaptor.Config{}, &ConfigError{Option: key, Reason: fmt.Sprintf("expected string, got %T", value)}
			}
			base.StoragePath = s
		case "automatch_domain":
			s, ok := value.(string)
			if !ok {
				return adaptor.Config{}, &ConfigError{Option: key, Reason: fmt.Sprintf("expected string, got %T", value)}
			}
			base.AutomatchDomain = s
		case "keep_comments":
			b, ok := value.(bool)
			if !ok {
				return adaptor.Config{}, &ConfigError{Option: key, Reason: fmt.Sprintf("expected bool, got %T", value)}
			}
			base.KeepComments = b
		default:
			return adaptor.Config{}, &ConfigError{Option: key, Reason: "unknown parser option"}
		}
	}
	return base, nil
}

// validateProxy checks a scheme://[user:pass@]host:port proxy URI before a
// browser is launched with it. The static engine runs the same check in its
// constructor.
func validateProxy(proxy string) error {
	if proxy == "" {
		return nil
	}
	u, err := url.Parse(proxy)
	if err != nil || u.Hostname() == "" {
		return &ConfigError{Option: "proxy", Reason: fmt.Sprintf("invalid proxy URI %q", proxy)}
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
		return nil
	default:
		return &ConfigError{Option: "proxy", Reason: fmt.Sprintf("unsupported proxy scheme %q", u.Scheme)}
	}
}
