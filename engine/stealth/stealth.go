// Package stealth fetches pages through a fingerprint-hardened browser.
// It layers the go-rod stealth evasions on top of a real Chromium instance,
// which defeats the common navigator.webdriver style bot checks that the
// plain browser engine does not bother hiding from.
package stealth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	rodstealth "github.com/go-rod/stealth"

	"github.com/hshahin/webprowl/adaptor"
	"github.com/hshahin/webprowl/headers"
	"github.com/hshahin/webprowl/logging"
	"github.com/hshahin/webprowl/model"
)

// Config controls a stealth engine instance. Durations are in milliseconds,
// matching the browser engine's option surface.
type Config struct {
	// Headless runs Chromium without a visible window. Some detection
	// scripts flag headless mode, so turning this off can help on
	// aggressive sites.
	Headless bool
	// Timeout bounds the whole navigation in milliseconds.
	Timeout int
	// Wait adds a fixed pause after the page loads, in milliseconds.
	Wait int
	// NetworkIdle waits for in-flight requests to settle before reading
	// the document.
	NetworkIdle bool
	// WaitSelector, when set, delays extraction until a matching element
	// exists.
	WaitSelector string
	// UserAgent overrides the browser's own user agent string.
	UserAgent string
	// ExtraHeaders are attached to every request the page issues.
	ExtraHeaders map[string]string
	// Proxy routes browser traffic through the given server.
	Proxy string
	// GoogleSearch sends a Referer that looks like a search results click.
	GoogleSearch bool
}

// DefaultConfig matches a headless visit with the search referer on.
func DefaultConfig() Config {
	return Config{
		Headless:     true,
		Timeout:      30000,
		GoogleSearch: true,
	}
}

// Engine drives Chromium through go-rod with the stealth evasions injected.
type Engine struct {
	cfg    Config
	logger logging.Logger
	parser adaptor.Config
}

// New builds a stealth engine. A zero Timeout falls back to the default.
func New(cfg Config, parserCfg adaptor.Config, logger logging.Logger) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger, parser: parserCfg}
}

// Fetch navigates to the target with evasions applied and returns the
// rendered document. The browser is launched per call and torn down before
// returning, so no Chromium process outlives the fetch.
func (e *Engine) Fetch(ctx context.Context, target string) (*model.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.Timeout)*time.Millisecond)
	defer cancel()

	l := launcher.New().Headless(e.cfg.Headless)
	if e.cfg.Proxy != "" {
		l = l.Proxy(e.cfg.Proxy)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("stealth: launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("stealth: connect browser: %w", err)
	}
	defer browser.Close()

	page, err := rodstealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("stealth: open page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if e.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: e.cfg.UserAgent}); err != nil {
			return nil, fmt.Errorf("stealth: set user agent: %w", err)
		}
	}
	reqHeaders := e.requestHeaders(target)
	if len(reqHeaders) > 0 {
		pairs := make([]string, 0, len(reqHeaders)*2)
		for k, v := range reqHeaders {
			pairs = append(pairs, k, v)
		}
		if _, err := page.SetExtraHeaders(pairs); err != nil {
			return nil, fmt.Errorf("stealth: set headers: %w", err)
		}
	}

	// The first document response observed is the one navigation settled
	// on; redirect hops surface as redirectResponse fields, not as their
	// own responseReceived events.
	var docEvent proto.NetworkResponseReceived
	waitResponse := page.WaitEvent(&docEvent)

	e.logger.Debug("stealth navigation", logging.Field{Key: "url", Value: target})
	if err := page.Navigate(target); err != nil {
		return nil, fmt.Errorf("stealth: navigate %s: %w", target, err)
	}
	waitResponse()

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("stealth: wait load %s: %w", target, err)
	}
	if e.cfg.NetworkIdle {
		page.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	}
	if e.cfg.WaitSelector != "" {
		if _, err := page.Element(e.cfg.WaitSelector); err != nil {
			return nil, fmt.Errorf("stealth: wait for %q on %s: %w", e.cfg.WaitSelector, target, err)
		}
	}
	if e.cfg.Wait > 0 {
		time.Sleep(time.Duration(e.cfg.Wait) * time.Millisecond)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("stealth: read document %s: %w", target, err)
	}
	cookies, err := page.Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("stealth: read cookies %s: %w", target, err)
	}

	status := docEvent.Response.Status
	if status == 0 {
		status = 200
	}
	respHeaders := make(map[string]string, len(docEvent.Response.Headers))
	for k, v := range docEvent.Response.Headers {
		respHeaders[k] = v.Str()
	}
	e.logger.Info("stealth fetch complete",
		logging.Field{Key: "url", Value: target},
		logging.Field{Key: "status", Value: status},
	)

	return model.NewResponse(model.ResponseInit{
		URL:            target,
		Status:         status,
		Reason:         docEvent.Response.StatusText,
		ContentType:    headerValue(respHeaders, "Content-Type"),
		Text:           html,
		Body:           []byte(html),
		Method:         "GET",
		Headers:        respHeaders,
		Cookies:        cookieMap(cookies),
		RequestHeaders: reqHeaders,
	}, e.parser)
}

// requestHeaders merges caller headers with the optional search referer.
func (e *Engine) requestHeaders(target string) map[string]string {
	merged := make(map[string]string, len(e.cfg.ExtraHeaders)+1)
	hasReferer := false
	for k, v := range e.cfg.ExtraHeaders {
		merged[k] = v
		if strings.EqualFold(k, "Referer") {
			hasReferer = true
		}
	}
	if e.cfg.GoogleSearch && !hasReferer {
		merged["Referer"] = headers.ConvincingReferer(target)
	}
	return merged
}

func headerValue(hdrs map[string]string, name string) string {
	for k, v := range hdrs {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func cookieMap(cookies []*proto.NetworkCookie) map[string]string {
	out := make(map[string]string, len(cookies))
	for _, c := range cookies {
		out[c.Name] = c.Value
	}
	return out
}
