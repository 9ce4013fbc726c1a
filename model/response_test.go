package model_test

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/hshahin/webprowl/adaptor"
	"github.com/hshahin/webprowl/model"
)

func TestNewResponse_Basic(t *testing.T) {
	t.Parallel()
	resp, err := model.NewResponse(model.ResponseInit{
		URL:         "https://example.com/",
		Status:      200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte("<html><body><h1>hello</h1></body></html>"),
		Method:      "GET",
		Headers:     map[string]string{"Content-Type": "text/html; charset=utf-8"},
	}, adaptor.DefaultConfig())
	if err != nil {
		t.Fatalf("NewResponse: %v", err)
	}

	if resp.Status != 200 {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if resp.Reason != "OK" {
		t.Errorf("Reason = %q, want OK", resp.Reason)
	}
	if resp.Encoding != "utf-8" {
		t.Errorf("Encoding = %q, want utf-8", resp.Encoding)
	}
	if got := resp.Find("h1").Text(); got != "hello" {
		t.Errorf("document selection returned %q, want hello", got)
	}
	if len(resp.History) != 0 {
		t.Errorf("expected empty history, got %d entries", len(resp.History))
	}
}

func TestNewResponse_DecodesLegacyCharset(t *testing.T) {
	t.Parallel()
	// "café" encoded as latin-1; invalid as UTF-8.
	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("<p>café</p>"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	resp, err := model.NewResponse(model.ResponseInit{
		URL:         "https://example.com/",
		Status:      200,
		ContentType: "text/html",
		Body:        raw,
		Method:      "GET",
	}, adaptor.DefaultConfig())
	if err != nil {
		t.Fatalf("NewResponse: %v", err)
	}

	if resp.Encoding != "ISO-8859-1" {
		t.Errorf("Encoding = %q, want ISO-8859-1", resp.Encoding)
	}
	if !strings.Contains(resp.Text(), "café") {
		t.Errorf("expected body decoded to café, got %q", resp.Text())
	}
}

func TestNewResponse_PreDecodedTextWins(t *testing.T) {
	t.Parallel()
	resp, err := model.NewResponse(model.ResponseInit{
		URL:         "https://example.com/",
		Status:      200,
		ContentType: "text/html; charset=utf-8",
		Text:        "<p>from browser</p>",
		Body:        []byte("ignored raw bytes"),
		Method:      "GET",
	}, adaptor.DefaultConfig())
	if err != nil {
		t.Fatalf("NewResponse: %v", err)
	}
	if got := resp.Find("p").Text(); got != "from browser" {
		t.Errorf("expected pre-decoded text to be used, got %q", got)
	}
	if string(resp.Body()) != "ignored raw bytes" {
		t.Errorf("raw body should be preserved, got %q", resp.Body())
	}
}

func TestNewResponse_FillsReasonFromStatus(t *testing.T) {
	t.Parallel()
	resp, err := model.NewResponse(model.ResponseInit{
		URL:    "https://example.com/",
		Status: 404,
		Method: "GET",
	}, adaptor.DefaultConfig())
	if err != nil {
		t.Fatalf("NewResponse: %v", err)
	}
	if resp.Reason != "Not Found" {
		t.Errorf("Reason = %q, want Not Found", resp.Reason)
	}
}

func TestStatusText(t *testing.T) {
	t.Parallel()
	if got := model.StatusText(200); got != "OK" {
		t.Errorf("StatusText(200) = %q", got)
	}
	if got := model.StatusText(429); got != "Too Many Requests" {
		t.Errorf("StatusText(429) = %q", got)
	}
	if got := model.StatusText(999); got != "Unknown Status Code" {
		t.Errorf("StatusText(999) = %q", got)
	}
}

func TestNewResponse_CopiesHeaderMaps(t *testing.T) {
	t.Parallel()
	hdrs := map[string]string{"X-Test": "1"}
	resp, err := model.NewResponse(model.ResponseInit{
		URL:     "https://example.com/",
		Status:  200,
		Method:  "GET",
		Headers: hdrs,
	}, adaptor.DefaultConfig())
	if err != nil {
		t.Fatalf("NewResponse: %v", err)
	}

	hdrs["X-Test"] = "mutated"
	if resp.Headers["X-Test"] != "1" {
		t.Error("Response must keep a defensive copy of the headers map")
	}
}
