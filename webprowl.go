// Package webprowl is a web scraping convenience layer. It bundles three
// fetch engines behind small façades: a static HTTP engine with stealthy
// header synthesis, a chromedp-driven browser engine for JavaScript-heavy
// pages, and a go-rod engine with fingerprint evasions for sites that
// actively detect automation. Every engine returns the same Response value,
// a parsed document with CSS selection, adaptive element relocation and
// normalized status, headers and redirect history.
//
// The quickest path is a Fetcher:
//
//	f := webprowl.NewFetcher(nil)
//	resp, err := f.Get(ctx, "https://example.com", nil)
//	if err != nil {
//		return err
//	}
//	title := resp.Find("title").Text()
//
// Engines registered through the engine package plug in via CustomFetcher.
package webprowl
