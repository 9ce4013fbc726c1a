// Package adaptor wraps a parsed HTML document behind a small selection API.
// Besides plain CSS selection it can fingerprint elements and relocate them
// later when the page layout drifted and the original selector stopped
// matching.
package adaptor

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrNoMatch is returned when a selector matches nothing and relocation
// found no stored fingerprint or no candidate scored above the threshold.
var ErrNoMatch = errors.New("adaptor: no element matched")

// Config holds the parser options forwarded opaquely by the fetchers.
// The zero value is usable; DefaultConfig spells the defaults out.
type Config struct {
	// AutoMatch enables element fingerprinting and relocation.
	AutoMatch bool

	// StoragePath is the SQLite file fingerprints are kept in. Empty means
	// a file under the user cache dir.
	StoragePath string

	// AutomatchDomain keys stored fingerprints under this domain instead of
	// the page's own, so mirrors share one fingerprint set.
	AutomatchDomain string

	// KeepComments leaves HTML comments in the parsed tree.
	KeepComments bool
}

// DefaultConfig returns the stock parser configuration.
func DefaultConfig() Config {
	return Config{}
}

// Adaptor is a parsed document plus the page metadata selection needs.
// It is read-only after construction and safe for concurrent use as long as
// auto-match storage is not shared with writes from another process.
type Adaptor struct {
	url      string
	encoding string
	text     string
	body     []byte
	doc      *goquery.Document
	cfg      Config
}

// New parses the given text into a document. body keeps the raw transport
// bytes around for callers that need them (binary responses, hashing).
func New(text string, body []byte, pageURL, encoding string, cfg Config) (*Adaptor, error) {
	var r *strings.Reader
	if text == "" && len(body) > 0 {
		text = string(body)
	}
	r = strings.NewReader(text)

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("adaptor: parse document: %w", err)
	}

	if !cfg.KeepComments {
		stripComments(doc)
	}

	return &Adaptor{
		url:      pageURL,
		encoding: encoding,
		text:     text,
		body:     body,
		doc:      doc,
		cfg:      cfg,
	}, nil
}

// URL returns the page URL the document was fetched from.
func (a *Adaptor) URL() string { return a.url }

// DocEncoding returns the character encoding the body was decoded with.
func (a *Adaptor) DocEncoding() string { return a.encoding }

// Text returns the decoded document text.
func (a *Adaptor) Text() string { return a.text }

// Body returns the raw transport bytes.
func (a *Adaptor) Body() []byte { return a.body }

// HTML serializes the parsed document back to markup.
func (a *Adaptor) HTML() (string, error) {
	return a.doc.Html()
}

// Find runs a CSS selector against the document.
func (a *Adaptor) Find(selector string) *goquery.Selection {
	return a.doc.Find(selector)
}

// Document exposes the underlying goquery document for anything the
// wrapper doesn't cover.
func (a *Adaptor) Document() *goquery.Document {
	return a.doc
}

// FindOrRelocate runs the selector and, with auto-match enabled, falls back
// to fingerprint relocation when the selector matches nothing. On a
// successful plain match the first matched element's fingerprint is stored
// under key for later relocation.
func (a *Adaptor) FindOrRelocate(selector, key string) (*goquery.Selection, error) {
	sel := a.doc.Find(selector)
	if sel.Length() > 0 {
		if a.cfg.AutoMatch {
			if err := a.saveFingerprint(key, sel.First()); err != nil {
				// Storage trouble must not fail a successful selection.
				return sel, nil
			}
		}
		return sel, nil
	}

	if !a.cfg.AutoMatch {
		return nil, fmt.Errorf("%w: selector %q", ErrNoMatch, selector)
	}
	return a.relocate(selector, key)
}

func (a *Adaptor) relocate(selector, key string) (*goquery.Selection, error) {
	store, err := OpenStorage(a.storagePath())
	if err != nil {
		return nil, fmt.Errorf("adaptor: open automatch storage: %w", err)
	}
	defer store.Close()

	want, err := store.Load(a.domainKey(), key)
	if err != nil {
		return nil, fmt.Errorf("adaptor: load fingerprint: %w", err)
	}
	if want == nil {
		return nil, fmt.Errorf("%w: selector %q and no stored fingerprint for %q", ErrNoMatch, selector, key)
	}

	best, score := a.bestCandidate(*want)
	if best == nil || score < relocateThreshold {
		return nil, fmt.Errorf("%w: selector %q, best relocation score %.2f", ErrNoMatch, selector, score)
	}
	return best, nil
}

// bestCandidate scans the document for the element most similar to the
// wanted fingerprint. Candidates are narrowed to the stored tag first since
// relocated elements nearly always keep their tag.
func (a *Adaptor) bestCandidate(want Fingerprint) (*goquery.Selection, float64) {
	scope := want.Tag
	if scope == "" {
		scope = "*"
	}

	var best *goquery.Selection
	bestScore := 0.0
	a.doc.Find(scope).Each(func(_ int, s *goquery.Selection) {
		fp := FingerprintOf(s)
		if score := Similarity(want, fp); score > bestScore {
			bestScore = score
			best = s
		}
	})
	return best, bestScore
}

func (a *Adaptor) saveFingerprint(key string, s *goquery.Selection) error {
	store, err := OpenStorage(a.storagePath())
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(a.domainKey(), key, FingerprintOf(s))
}

func (a *Adaptor) domainKey() string {
	if a.cfg.AutomatchDomain != "" {
		return a.cfg.AutomatchDomain
	}
	if u, err := url.Parse(a.url); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return "default"
}

func (a *Adaptor) storagePath() string {
	if a.cfg.StoragePath != "" {
		return a.cfg.StoragePath
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "webprowl", "automatch.db")
}

// stripComments drops comment nodes from the parsed tree.
func stripComments(doc *goquery.Document) {
	for _, root := range doc.Nodes {
		removeCommentNodes(root)
	}
}

func removeCommentNodes(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
			continue
		}
		removeCommentNodes(c)
	}
}

// FingerprintOf captures the structural identity of the selection's first
// element: tag, cleaned attributes, trimmed text and the ancestor path plus
// the immediate family.
func FingerprintOf(s *goquery.Selection) Fingerprint {
	fp := Fingerprint{Attributes: map[string]string{}}
	node := s.Get(0)
	if node == nil {
		return fp
	}

	fp.Tag = node.Data
	for _, attr := range node.Attr {
		v := strings.TrimSpace(attr.Val)
		if v != "" {
			fp.Attributes[attr.Key] = v
		}
	}
	fp.Text = strings.TrimSpace(ownText(node))
	fp.Path = nodePath(node)

	if parent := node.Parent; parent != nil && parent.Type == html.ElementNode {
		fp.ParentTag = parent.Data
		for c := parent.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c != node {
				fp.SiblingTags = append(fp.SiblingTags, c.Data)
			}
		}
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			fp.ChildTags = append(fp.ChildTags, c.Data)
		}
	}
	return fp
}

// ownText collects the direct text children of a node, not descendants.
func ownText(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			buf.WriteString(c.Data)
		}
	}
	return buf.String()
}

func nodePath(n *html.Node) []string {
	var path []string
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			path = append([]string{cur.Data}, path...)
		}
	}
	return path
}
