package cli_test

import (
	"testing"

	"github.com/hshahin/webprowl/internal/cli"
)

func TestParseArgsDefaults(t *testing.T) {
	t.Parallel()

	args, err := cli.ParseArgs([]string{"-url", "https://example.com"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.Target != "https://example.com" {
		t.Errorf("Target = %q, want %q", args.Target, "https://example.com")
	}
	if args.Engine != "static" {
		t.Errorf("Engine = %q, want static by default", args.Engine)
	}
	if args.NoStealth || args.NoRedirects {
		t.Error("stealth headers and redirects should default to on")
	}
}

func TestParseArgsFullForm(t *testing.T) {
	t.Parallel()

	args, err := cli.ParseArgs([]string{
		"-url", "https://example.com/products",
		"-engine", "browser",
		"-select", ".price",
		"-proxy", "http://127.0.0.1:8080",
		"-timeout", "30",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.Engine != "browser" {
		t.Errorf("Engine = %q, want browser", args.Engine)
	}
	if args.Selector != ".price" {
		t.Errorf("Selector = %q, want .price", args.Selector)
	}
	if args.TimeoutSec != 30 {
		t.Errorf("TimeoutSec = %d, want 30", args.TimeoutSec)
	}
}

func TestParseArgsRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
	}{
		{"missing url", []string{"-engine", "static"}},
		{"unknown engine", []string{"-url", "http://x.test", "-engine", "warp"}},
		{"negative timeout", []string{"-url", "http://x.test", "-timeout", "-5"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := cli.ParseArgs(tc.args); err == nil {
				t.Errorf("ParseArgs(%v) accepted invalid input", tc.args)
			}
		})
	}
}
