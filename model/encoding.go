package model

import (
	"mime"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/encoding/ianaindex"
)

const defaultEncoding = "utf-8"

// Content types the HTTP/1.1 spec defaults to latin-1 when no charset is
// declared.
var iso88591ContentTypes = map[string]struct{}{
	"text/plain":      {},
	"text/html":       {},
	"text/css":        {},
	"text/javascript": {},
}

type encodingKey struct {
	contentType string
	sample      string
}

// Resolution is pure, so results are memoized. Entries are idempotent to
// recompute; the cache is an optimization, not a correctness requirement.
var encodingCache, _ = lru.New[encodingKey, string](128)

// ResolveEncoding determines the character encoding for a response from its
// Content-Type header value, in order:
//
//  1. no content type: utf-8
//  2. explicit charset parameter: that charset
//  3. legacy text types (text/plain, text/html, text/css, text/javascript):
//     ISO-8859-1
//  4. application/json: utf-8
//  5. anything else, unknown charsets, or charsets that cannot encode the
//     sample text: utf-8
func ResolveEncoding(contentType, sample string) string {
	if contentType == "" {
		return defaultEncoding
	}
	sample = probeText(sample)

	key := encodingKey{contentType: contentType, sample: sample}
	if cached, ok := encodingCache.Get(key); ok {
		return cached
	}

	resolved := resolveEncoding(contentType, sample)
	encodingCache.Add(key, resolved)
	return resolved
}

func resolveEncoding(contentType, sample string) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return defaultEncoding
	}

	var candidate string
	if cs, ok := params["charset"]; ok {
		candidate = strings.Trim(cs, `'"`)
	} else if _, ok := iso88591ContentTypes[mediaType]; ok {
		candidate = "ISO-8859-1"
	} else if mediaType == "application/json" {
		candidate = defaultEncoding
	}

	if candidate != "" && canEncode(candidate, sample) {
		return candidate
	}
	return defaultEncoding
}

// canEncode reports whether name is a known charset able to represent the
// sample text.
func canEncode(name, sample string) bool {
	if strings.EqualFold(name, defaultEncoding) || strings.EqualFold(name, "utf8") {
		return true
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return false
	}
	if _, err := enc.NewEncoder().String(sample); err != nil {
		return false
	}
	return true
}

// probeText trims the sample to a short, valid UTF-8 probe. Responses that
// are not valid UTF-8 cannot be used as an encode probe at all, so a fixed
// one stands in.
func probeText(sample string) string {
	const maxProbe = 256
	if sample == "" || !utf8.ValidString(sample) {
		return "test"
	}
	if len(sample) <= maxProbe {
		return sample
	}
	cut := maxProbe
	for cut > 0 && !utf8.RuneStart(sample[cut]) {
		cut--
	}
	return sample[:cut]
}
