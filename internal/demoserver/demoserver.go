// Package demoserver is a local target for trying the fetchers against:
// pages in different charsets, redirect chains, header and cookie echoes,
// arbitrary status codes and slow responses.
package demoserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hshahin/webprowl/logging"
)

// Server serves the demo pages. Handler() exposes the routes for embedding
// in tests; Start() binds a real listener.
type Server struct {
	cfg    Config
	router chi.Router
	logger logging.Logger
}

// New creates a demo server. A nil logger discards logs.
func New(cfg Config, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.routes()
	return s
}

// Handler returns the route tree for use with httptest or embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("demo server starting", logging.Field{Key: "addr", Value: addr})
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) routes() {
	r := s.router

	r.Get("/", s.handleIndex)

	// Charset behavior
	r.Get("/charset/utf8", s.handleCharsetUTF8)
	r.Get("/charset/latin1", s.handleCharsetLatin1)
	r.Get("/charset/none", s.handleCharsetNone)

	// Redirects
	r.Get("/redirect/{hops}", s.handleRedirect)
	r.Get("/target", s.handleTarget)

	// Echoes
	r.Get("/echo/headers", s.handleEchoHeaders)
	r.Get("/echo/cookies", s.handleEchoCookies)

	// Misc
	r.Get("/status/{code}", s.handleStatus)
	r.Get("/delay/{ms}", s.handleDelay)
}

// handleIndex serves a small product catalog, enough structure for
// selector and auto-match demos.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>webprowl demo</title></head>
<body>
  <h1>Demo Catalog</h1>
  <ul class="products">
    <li class="product" data-sku="A-100"><span class="name">Alpha Widget</span><span class="price">19.99</span></li>
    <li class="product" data-sku="B-200"><span class="name">Beta Widget</span><span class="price">24.50</span></li>
    <li class="product" data-sku="C-300"><span class="name">Gamma Widget</span><span class="price">7.25</span></li>
  </ul>
  <p><a href="/charset/latin1">latin1 page</a> <a href="/redirect/2">redirect chain</a></p>
</body>
</html>`)
}

func (s *Server) handleCharsetUTF8(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><p id=\"text\">héllo wörld — ünïcode</p></body></html>")
}

func (s *Server) handleCharsetLatin1(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
	// "café" with an ISO-8859-1 encoded é.
	w.Write([]byte("<html><body><p id=\"text\">caf\xe9</p></body></html>"))
}

func (s *Server) handleCharsetNone(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "plain text, no charset declared")
}

// handleRedirect counts its hop parameter down to zero, then lands on
// /target. Two hops means /redirect/2 -> /redirect/1 -> /target.
func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	hops, err := strconv.Atoi(chi.URLParam(r, "hops"))
	if err != nil || hops < 1 {
		http.Error(w, "hops must be a positive integer", http.StatusBadRequest)
		return
	}
	next := "/target"
	if hops > 1 {
		next = fmt.Sprintf("/redirect/%d", hops-1)
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>landed</h1></body></html>")
}

// handleEchoHeaders returns the request headers as JSON, which makes the
// stealth header synthesis visible.
func (s *Server) handleEchoHeaders(w http.ResponseWriter, r *http.Request) {
	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(headers); err != nil {
		s.logger.Error("encoding header echo", logging.Field{Key: "error", Value: err.Error()})
	}
}

// handleEchoCookies sets a session cookie and echoes whatever cookies the
// client sent.
func (s *Server) handleEchoCookies(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:  "demo_session",
		Value: "s-12345",
		Path:  "/",
	})
	received := make(map[string]string)
	for _, c := range r.Cookies() {
		received[c.Name] = c.Value
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(received); err != nil {
		s.logger.Error("encoding cookie echo", logging.Field{Key: "error", Value: err.Error()})
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil || code < 100 || code > 599 {
		http.Error(w, "code must be a valid HTTP status", http.StatusBadRequest)
		return
	}
	w.WriteHeader(code)
	fmt.Fprintf(w, "status %d", code)
}

func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	ms, err := strconv.Atoi(chi.URLParam(r, "ms"))
	if err != nil || ms < 0 || ms > 30000 {
		http.Error(w, "ms must be between 0 and 30000", http.StatusBadRequest)
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><body><p>waited %dms</p></body></html>", ms)
}
