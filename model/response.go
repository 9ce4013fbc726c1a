// Package model holds the unified response record every engine returns and
// the content-encoding resolution rules behind it.
package model

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/html/charset"

	"github.com/hshahin/webprowl/adaptor"
)

// Response is the unified result of a fetch, regardless of which engine
// produced it. Transport metadata lives on the struct; the parsed document
// is reachable through the embedded Adaptor. Read-only after construction.
type Response struct {
	*adaptor.Adaptor

	// Status is the HTTP status code of the final response.
	Status int

	// Reason is the status phrase ("OK", "Not Found", ...).
	Reason string

	// Encoding is the charset the body was decoded with.
	Encoding string

	// Method is the HTTP method of the originating request.
	Method string

	// Headers, Cookies and RequestHeaders are single-value maps with
	// canonical (case-insensitive) keys.
	Headers        map[string]string
	Cookies        map[string]string
	RequestHeaders map[string]string

	// History holds prior redirect hops, oldest first. Each hop is itself a
	// fully formed Response.
	History []*Response
}

// ResponseInit carries everything an engine collected for one hop.
type ResponseInit struct {
	URL    string
	Status int

	// Reason may be empty; StatusText fills it in.
	Reason string

	// ContentType is the raw Content-Type header value, used for encoding
	// resolution.
	ContentType string

	// Text is the decoded document text. Leave empty to have it decoded
	// from Body using the resolved encoding.
	Text string

	// Body is the raw transport bytes.
	Body []byte

	Method         string
	Headers        map[string]string
	Cookies        map[string]string
	RequestHeaders map[string]string
	History        []*Response
}

// NewResponse normalizes one hop into a Response: resolves the encoding,
// decodes the body when no pre-decoded text was supplied, and parses the
// document with the given parser configuration.
func NewResponse(init ResponseInit, cfg adaptor.Config) (*Response, error) {
	probe := init.Text
	if probe == "" {
		probe = string(init.Body)
	}
	enc := ResolveEncoding(init.ContentType, probe)

	text := init.Text
	if text == "" && len(init.Body) > 0 {
		text = decodeBody(init.Body, enc)
	}

	pageURL := init.URL
	if cfg.AutomatchDomain != "" {
		pageURL = cfg.AutomatchDomain
	}
	doc, err := adaptor.New(text, init.Body, pageURL, enc, cfg)
	if err != nil {
		return nil, fmt.Errorf("model: build adaptor: %w", err)
	}

	reason := init.Reason
	if reason == "" {
		reason = StatusText(init.Status)
	}

	return &Response{
		Adaptor:        doc,
		Status:         init.Status,
		Reason:         reason,
		Encoding:       enc,
		Method:         init.Method,
		Headers:        copyMap(init.Headers),
		Cookies:        copyMap(init.Cookies),
		RequestHeaders: copyMap(init.RequestHeaders),
		History:        init.History,
	}, nil
}

// StatusText returns the phrase for an HTTP status code.
func StatusText(code int) string {
	if s := http.StatusText(code); s != "" {
		return s
	}
	return "Unknown Status Code"
}

// decodeBody converts raw bytes in the named charset to UTF-8 text. Unknown
// labels degrade to interpreting the bytes as-is.
func decodeBody(body []byte, label string) string {
	rd, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(rd)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
