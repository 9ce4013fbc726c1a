package model_test

import (
	"testing"

	"github.com/hshahin/webprowl/model"
)

func TestResolveEncoding_EmptyContentType(t *testing.T) {
	t.Parallel()
	if got := model.ResolveEncoding("", "test"); got != "utf-8" {
		t.Errorf("expected utf-8 for empty content type, got %q", got)
	}
}

func TestResolveEncoding_ExplicitCharset(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		contentType string
		sample      string
		want        string
	}{
		{"plain charset", "text/html; charset=utf-8", "test", "utf-8"},
		{"quoted charset", `text/html; charset="iso-8859-1"`, "test", "iso-8859-1"},
		{"single quoted charset", "text/html; charset='windows-1252'", "test", "windows-1252"},
		{"gbk", "text/html; charset=gbk", "test", "gbk"},
		{"extra params", "text/html; boundary=x; charset=iso-8859-1", "test", "iso-8859-1"},
		{"unknown charset falls back", "text/html; charset=not-a-charset", "test", "utf-8"},
		{"unencodable text falls back", "text/plain; charset=iso-8859-1", "日本語テキスト", "utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := model.ResolveEncoding(tt.contentType, tt.sample); got != tt.want {
				t.Errorf("ResolveEncoding(%q, %q) = %q, want %q", tt.contentType, tt.sample, got, tt.want)
			}
		})
	}
}

func TestResolveEncoding_LegacyTextTypes(t *testing.T) {
	t.Parallel()
	for _, ct := range []string{"text/plain", "text/html", "text/css", "text/javascript"} {
		if got := model.ResolveEncoding(ct, "test"); got != "ISO-8859-1" {
			t.Errorf("ResolveEncoding(%q) = %q, want ISO-8859-1", ct, got)
		}
	}
}

func TestResolveEncoding_JSON(t *testing.T) {
	t.Parallel()
	if got := model.ResolveEncoding("application/json", "test"); got != "utf-8" {
		t.Errorf("expected utf-8 for application/json, got %q", got)
	}
}

func TestResolveEncoding_UnknownMediaType(t *testing.T) {
	t.Parallel()
	if got := model.ResolveEncoding("application/octet-stream", "test"); got != "utf-8" {
		t.Errorf("expected utf-8 for unmatched media type, got %q", got)
	}
}

func TestResolveEncoding_MalformedHeader(t *testing.T) {
	t.Parallel()
	if got := model.ResolveEncoding(";;;===", "test"); got != "utf-8" {
		t.Errorf("expected utf-8 for malformed header, got %q", got)
	}
}

func TestResolveEncoding_RepeatedCallsStable(t *testing.T) {
	t.Parallel()
	// Exercises the memoized path.
	for i := 0; i < 3; i++ {
		if got := model.ResolveEncoding("text/html", "sample"); got != "ISO-8859-1" {
			t.Fatalf("call %d: got %q", i, got)
		}
	}
}
