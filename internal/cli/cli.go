package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// CLIArgs are the command-line arguments for a single fetch.
type CLIArgs struct {
	// Target is the URL to fetch (required).
	Target string

	// Engine picks the fetch path: static, browser or stealth.
	Engine string

	// Selector, when set, prints only the text of matching elements
	// instead of the whole document.
	Selector string

	// Proxy is an optional scheme://[user:pass@]host:port URI.
	Proxy string

	// TimeoutSec bounds the fetch; 0 means "use the engine default".
	TimeoutSec int

	// NoStealth turns off the synthesized browser headers on the static
	// engine.
	NoStealth bool

	// NoRedirects stops the static engine from following redirects.
	NoRedirects bool

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

var validEngines = map[string]bool{
	"static":  true,
	"browser": true,
	"stealth": true,
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by
// passing arbitrary slices. The function is deterministic and does not read
// os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("webprowl", flag.ContinueOnError)
	var (
		target      = fs.String("url", "", "URL to fetch (required)")
		engine      = fs.String("engine", "static", "Fetch engine: static|browser|stealth")
		selector    = fs.String("select", "", "CSS selector; print matching text instead of the document")
		proxy       = fs.String("proxy", "", "Proxy URI (scheme://[user:pass@]host:port)")
		timeoutSec  = fs.Int("timeout", 0, "Fetch timeout in seconds (0=engine default)")
		noStealth   = fs.Bool("no-stealth", false, "Disable synthesized browser headers (static engine)")
		noRedirects = fs.Bool("no-redirects", false, "Do not follow redirects (static engine)")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		// Flag parsing errors are useful to return to caller
		return nil, err
	}

	if strings.TrimSpace(*target) == "" {
		return nil, fmt.Errorf("missing required -url argument")
	}
	if !validEngines[*engine] {
		return nil, fmt.Errorf("unknown engine %q (want static, browser or stealth)", *engine)
	}
	if *timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must not be negative")
	}

	return &CLIArgs{
		Target:      *target,
		Engine:      *engine,
		Selector:    *selector,
		Proxy:       *proxy,
		TimeoutSec:  *timeoutSec,
		NoStealth:   *noStealth,
		NoRedirects: *noRedirects,
		RawArgs:     args,
	}, nil
}
