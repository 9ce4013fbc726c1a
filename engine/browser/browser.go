// Package browser fetches pages through a real Chromium instance so that
// JavaScript-rendered content ends up in the returned document.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/hshahin/webprowl/adaptor"
	"github.com/hshahin/webprowl/headers"
	"github.com/hshahin/webprowl/logging"
	"github.com/hshahin/webprowl/model"
)

// blockedResourcePatterns is handed to the browser when DisableResources is
// set. Fonts, images and styling do not affect the extracted markup.
var blockedResourcePatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg", "*.ico",
	"*.css", "*.woff", "*.woff2", "*.ttf", "*.otf",
	"*.mp3", "*.mp4", "*.webm", "*.avi",
}

// Config controls a single browser engine instance. Durations are expressed
// in milliseconds to keep the option surface uniform across engines.
type Config struct {
	// Headless runs Chromium without a visible window.
	Headless bool
	// Timeout bounds the whole navigation in milliseconds.
	Timeout int
	// Wait adds a fixed pause after the page loads, in milliseconds.
	Wait int
	// NetworkIdle waits for in-flight requests to settle before reading
	// the document.
	NetworkIdle bool
	// WaitSelector, when set, delays extraction until a matching element
	// is visible.
	WaitSelector string
	// UserAgent overrides the browser's own user agent string.
	UserAgent string
	// ExtraHeaders are attached to every request the page issues.
	ExtraHeaders map[string]string
	// Proxy routes browser traffic through the given server.
	Proxy string
	// DisableResources blocks images, fonts and media to cut bandwidth.
	DisableResources bool
	// GoogleSearch sends a Referer that looks like a search results click.
	GoogleSearch bool
}

// DefaultConfig matches a plain headless visit with no waiting tricks.
func DefaultConfig() Config {
	return Config{
		Headless:     true,
		Timeout:      30000,
		GoogleSearch: true,
	}
}

// Engine drives Chromium through the DevTools protocol.
type Engine struct {
	cfg    Config
	logger logging.Logger
	parser adaptor.Config
}

// New builds a browser engine. A zero Timeout falls back to the default.
func New(cfg Config, parserCfg adaptor.Config, logger logging.Logger) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger, parser: parserCfg}
}

// documentInfo holds what the DevTools network events tell us about the
// top-level navigation. Chromium follows redirects internally, so the last
// document response observed is the one the page settled on.
type documentInfo struct {
	mu      sync.Mutex
	status  int
	reason  string
	headers map[string]string
}

func (d *documentInfo) record(ev *network.EventResponseReceived) {
	if ev.Type != network.ResourceTypeDocument {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = int(ev.Response.Status)
	d.reason = ev.Response.StatusText
	d.headers = make(map[string]string, len(ev.Response.Headers))
	for k, v := range ev.Response.Headers {
		d.headers[k] = fmt.Sprint(v)
	}
}

func (d *documentInfo) snapshot() (int, string, map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status, d.reason, d.headers
}

// Fetch navigates to the target and returns the rendered document.
func (e *Engine) Fetch(ctx context.Context, target string) (*model.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.Timeout)*time.Millisecond)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.cfg.Headless),
	)
	if e.cfg.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(e.cfg.Proxy))
	}
	if e.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(e.cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	doc := &documentInfo{}
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			doc.record(resp)
		}
	})

	var idleChan chan struct{}
	if e.cfg.NetworkIdle {
		idleChan = waitNetworkIdle(tabCtx, 500*time.Millisecond)
	}

	tasks := chromedp.Tasks{network.Enable()}
	if extra := e.requestHeaders(target); len(extra) > 0 {
		hdrs := make(network.Headers, len(extra))
		for k, v := range extra {
			hdrs[k] = v
		}
		tasks = append(tasks, network.SetExtraHTTPHeaders(hdrs))
	}
	if e.cfg.DisableResources {
		tasks = append(tasks, network.SetBlockedURLS(blockedResourcePatterns))
	}
	tasks = append(tasks, chromedp.Navigate(target))
	if e.cfg.WaitSelector != "" {
		tasks = append(tasks, chromedp.WaitVisible(e.cfg.WaitSelector))
	}
	if e.cfg.Wait > 0 {
		tasks = append(tasks, chromedp.Sleep(time.Duration(e.cfg.Wait)*time.Millisecond))
	}

	e.logger.Debug("browser navigation", logging.Field{Key: "url", Value: target})
	if err := chromedp.Run(tabCtx, tasks...); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", target, err)
	}

	if idleChan != nil {
		select {
		case <-idleChan:
		case <-tabCtx.Done():
			return nil, fmt.Errorf("browser: navigate %s: %w", target, tabCtx.Err())
		}
	}

	var html, cookieStr string
	if err := chromedp.Run(tabCtx,
		chromedp.OuterHTML("html", &html),
		chromedp.Evaluate(`document.cookie`, &cookieStr),
	); err != nil {
		return nil, fmt.Errorf("browser: extract %s: %w", target, err)
	}

	status, reason, respHeaders := doc.snapshot()
	if status == 0 {
		status = 200
	}
	e.logger.Info("browser fetch complete",
		logging.Field{Key: "url", Value: target},
		logging.Field{Key: "status", Value: status},
	)

	return model.NewResponse(model.ResponseInit{
		URL:            target,
		Status:         status,
		Reason:         reason,
		ContentType:    headerValue(respHeaders, "Content-Type"),
		Text:           html,
		Body:           []byte(html),
		Method:         "GET",
		Headers:        respHeaders,
		Cookies:        parseCookieString(cookieStr),
		RequestHeaders: e.requestHeaders(target),
	}, e.parser)
}

// requestHeaders merges caller headers with the optional search referer.
// Chromium already sends a believable browser header set, so nothing else
// is synthesized here.
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

// headerValue looks a header up without caring how the server cased it.
func headerValue(hdrs map[string]string, name string) string {
	for k, v := range hdrs {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// parseCookieString splits a document.cookie value into name/value pairs.
func parseCookieString(raw string) map[string]string {
	cookies := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		if !found || name == "" {
			continue
		}
		cookies[name] = value
	}
	return cookies
}

// waitNetworkIdle closes the returned channel once no request has been in
// flight for idleAfter. Loading events fire per request, so the counter
// dips to zero between bursts and the timer restarts on every dip.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timerMu sync.Mutex
	var timer *time.Timer
	var once sync.Once

	startTimer := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idleChan) })
			}
		})
	}
	startTimer()

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})

	return idleChan
}
