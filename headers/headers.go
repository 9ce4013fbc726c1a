// Package headers synthesizes plausible browser request headers and a
// search-engine shaped referer, used by the engines to blend fetches in
// with organic traffic.
package headers

import (
	"fmt"
	"math/rand"
	"net"
	"net/url"
	"strings"
)

// Profile is a complete header set for one browser/OS combination.
type Profile struct {
	UserAgent       string
	Accept          string
	AcceptLanguage  string
	AcceptEncoding  string
	SecFetchDest    string
	SecFetchMode    string
	SecFetchSite    string
	SecFetchUser    string
	SecChUa         string
	SecChUaMobile   string
	SecChUaPlatform string
}

var profiles = []Profile{
	{
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Accept:          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		AcceptLanguage:  "en-US,en;q=0.9",
		AcceptEncoding:  "gzip, deflate, br, zstd",
		SecFetchDest:    "document",
		SecFetchMode:    "navigate",
		SecFetchSite:    "none",
		SecFetchUser:    "?1",
		SecChUa:         `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
		SecChUaMobile:   "?0",
		SecChUaPlatform: `"Windows"`,
	},
	{
		UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Accept:          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		AcceptLanguage:  "en-US,en;q=0.9",
		AcceptEncoding:  "gzip, deflate, br, zstd",
		SecFetchDest:    "document",
		SecFetchMode:    "navigate",
		SecFetchSite:    "none",
		SecFetchUser:    "?1",
		SecChUa:         `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
		SecChUaMobile:   "?0",
		SecChUaPlatform: `"macOS"`,
	},
	{
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Accept:          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		AcceptLanguage:  "en-US,en;q=0.9",
		AcceptEncoding:  "gzip, deflate, br, zstd",
		SecFetchDest:    "document",
		SecFetchMode:    "navigate",
		SecFetchSite:    "none",
		SecFetchUser:    "?1",
		SecChUa:         `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
		SecChUaMobile:   "?0",
		SecChUaPlatform: `"Linux"`,
	},
	{
		UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.2 Safari/605.1.15",
		Accept:          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage:  "en-US,en;q=0.9",
		AcceptEncoding:  "gzip, deflate, br",
		SecFetchDest:    "document",
		SecFetchMode:    "navigate",
		SecFetchSite:    "none",
		SecFetchUser:    "?1",
	},
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/png,image/svg+xml,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.5",
		AcceptEncoding: "gzip, deflate, br, zstd",
		SecFetchDest:   "document",
		SecFetchMode:   "navigate",
		SecFetchSite:   "none",
		SecFetchUser:   "?1",
	},
}

// Generate returns a realistic header set picked from the known profiles.
// With browserMode, headers a real browser injects itself (Accept-Encoding,
// Sec-Fetch-*) are left out so the automation driver does not send them
// twice.
func Generate(browserMode bool) map[string]string {
	p := profiles[rand.Intn(len(profiles))]

	h := map[string]string{
		"User-Agent":                p.UserAgent,
		"Accept":                    p.Accept,
		"Accept-Language":           p.AcceptLanguage,
		"Upgrade-Insecure-Requests": "1",
	}
	if p.SecChUa != "" {
		h["Sec-Ch-Ua"] = p.SecChUa
		h["Sec-Ch-Ua-Mobile"] = p.SecChUaMobile
		h["Sec-Ch-Ua-Platform"] = p.SecChUaPlatform
	}
	if !browserMode {
		h["Accept-Encoding"] = p.AcceptEncoding
		if p.SecFetchDest != "" {
			h["Sec-Fetch-Dest"] = p.SecFetchDest
			h["Sec-Fetch-Mode"] = p.SecFetchMode
			h["Sec-Fetch-Site"] = p.SecFetchSite
			h["Sec-Fetch-User"] = p.SecFetchUser
		}
	}
	return h
}

// UserAgent returns just a plausible User-Agent string.
func UserAgent() string {
	return profiles[rand.Intn(len(profiles))].UserAgent
}

// ConvincingReferer builds a referer that looks like the request came from a
// Google search for the target's domain name. Invalid target URLs fall back
// to the bare search page.
func ConvincingReferer(target string) string {
	host := registrableLabel(target)
	if host == "" {
		return "https://www.google.com/search"
	}
	return fmt.Sprintf("https://www.google.com/search?q=%s", url.QueryEscape(host))
}

// registrableLabel extracts the interesting part of the hostname, e.g.
// "example" from "www.example.co.uk".
func registrableLabel(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		// Maybe a bare host was passed without a scheme.
		host = strings.SplitN(target, "/", 2)[0]
	}
	if ip := net.ParseIP(host); ip != nil {
		return host
	}
	host = strings.TrimPrefix(host, "www.")
	parts := strings.Split(host, ".")
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		// Second-level domains like co.uk keep the label before them.
		if len(parts) >= 3 && len(parts[len(parts)-2]) <= 3 {
			return parts[len(parts)-3]
		}
		return parts[len(parts)-2]
	}
}
