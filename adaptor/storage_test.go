package adaptor_test

import (
	"path/filepath"
	"testing"

	"github.com/hshahin/webprowl/adaptor"
)

func openTestStorage(t *testing.T) *adaptor.Storage {
	t.Helper()
	s, err := adaptor.OpenStorage(filepath.Join(t.TempDir(), "automatch.db"))
	if err != nil {
		t.Fatalf("OpenStorage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage_SaveAndLoad(t *testing.T) {
	t.Parallel()
	s := openTestStorage(t)

	fp := adaptor.Fingerprint{
		Tag:        "span",
		Attributes: map[string]string{"class": "price"},
		Text:       "$29",
		Path:       []string{"html", "body", "span"},
	}
	if err := s.Save("example.com", "price", fp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load("example.com", "price")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("expected a fingerprint, got nil")
	}
	if got.Tag != "span" || got.Text != "$29" || got.Attributes["class"] != "price" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestStorage_LoadMissingReturnsNil(t *testing.T) {
	t.Parallel()
	s := openTestStorage(t)

	got, err := s.Load("example.com", "nope")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing key, got %+v", got)
	}
}

func TestStorage_SaveOverwrites(t *testing.T) {
	t.Parallel()
	s := openTestStorage(t)

	if err := s.Save("example.com", "k", adaptor.Fingerprint{Tag: "a"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save("example.com", "k", adaptor.Fingerprint{Tag: "b"}); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}

	got, err := s.Load("example.com", "k")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Tag != "b" {
		t.Errorf("expected overwritten tag 'b', got %q", got.Tag)
	}
}

func TestStorage_DomainsAreIsolated(t *testing.T) {
	t.Parallel()
	s := openTestStorage(t)

	if err := s.Save("a.com", "k", adaptor.Fingerprint{Tag: "div"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("b.com", "k")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for other domain, got %+v", got)
	}
}

func TestOpenStorage_EmptyPath(t *testing.T) {
	t.Parallel()
	if _, err := adaptor.OpenStorage(""); err == nil {
		t.Error("expected error for empty path")
	}
}
