package adaptor_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/hshahin/webprowl/adaptor"
)

const samplePage = `<html><head><title>Catalog</title></head><body>
<!-- build 1412 -->
<div id="products">
	<article class="product" data-sku="A-100"><h2>Red Kettle</h2><span class="price">$29</span></article>
	<article class="product" data-sku="A-101"><h2>Blue Kettle</h2><span class="price">$31</span></article>
</div>
</body></html>`

func TestNew_ParsesAndSelects(t *testing.T) {
	t.Parallel()
	a, err := adaptor.New(samplePage, []byte(samplePage), "https://example.com/catalog", "utf-8", adaptor.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := a.Find(".product").Length(); got != 2 {
		t.Errorf("expected 2 products, got %d", got)
	}
	if title := a.Find("title").Text(); title != "Catalog" {
		t.Errorf("expected title 'Catalog', got %q", title)
	}
	if a.URL() != "https://example.com/catalog" {
		t.Errorf("unexpected URL %q", a.URL())
	}
	if a.DocEncoding() != "utf-8" {
		t.Errorf("unexpected encoding %q", a.DocEncoding())
	}
}

func TestNew_StripsCommentsByDefault(t *testing.T) {
	t.Parallel()
	a, err := adaptor.New(samplePage, nil, "https://example.com", "utf-8", adaptor.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := a.HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if strings.Contains(out, "build 1412") {
		t.Error("expected comments to be stripped")
	}

	kept, err := adaptor.New(samplePage, nil, "https://example.com", "utf-8", adaptor.Config{KeepComments: true})
	if err != nil {
		t.Fatalf("New with KeepComments: %v", err)
	}
	out, err = kept.HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(out, "build 1412") {
		t.Error("expected comments to be kept with KeepComments")
	}
}

func TestNew_FallsBackToBodyBytes(t *testing.T) {
	t.Parallel()
	a, err := adaptor.New("", []byte("<p>hi</p>"), "https://example.com", "utf-8", adaptor.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := a.Find("p").Text(); got != "hi" {
		t.Errorf("expected 'hi', got %q", got)
	}
}

func TestFindOrRelocate_NoAutoMatch(t *testing.T) {
	t.Parallel()
	a, err := adaptor.New(samplePage, nil, "https://example.com", "utf-8", adaptor.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sel, err := a.FindOrRelocate(".price", "price")
	if err != nil {
		t.Fatalf("FindOrRelocate: %v", err)
	}
	if sel.Length() != 2 {
		t.Errorf("expected 2 matches, got %d", sel.Length())
	}

	if _, err := a.FindOrRelocate(".missing", "missing"); err == nil {
		t.Error("expected ErrNoMatch for unmatched selector without auto-match")
	}
}

func TestFindOrRelocate_RelocatesAfterLayoutChange(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "automatch.db")
	cfg := adaptor.Config{AutoMatch: true, StoragePath: dbPath}

	a, err := adaptor.New(samplePage, nil, "https://example.com/catalog", "utf-8", cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Stores the fingerprint of the first matched element.
	if _, err := a.FindOrRelocate("article.product[data-sku='A-100']", "first-product"); err != nil {
		t.Fatalf("initial FindOrRelocate: %v", err)
	}

	// Same element, but the site renamed the class and re-nested the list.
	changed := `<html><body>
	<section id="products">
		<ul><li><article class="item" data-sku="A-100"><h2>Red Kettle</h2><span class="cost">$29</span></article></li>
		<li><article class="item" data-sku="A-999"><h2>Green Toaster</h2><span class="cost">$45</span></article></li></ul>
	</section>
	</body></html>`
	b, err := adaptor.New(changed, nil, "https://example.com/catalog", "utf-8", cfg)
	if err != nil {
		t.Fatalf("New changed: %v", err)
	}

	sel, err := b.FindOrRelocate("article.product[data-sku='A-100']", "first-product")
	if err != nil {
		t.Fatalf("relocation failed: %v", err)
	}
	if sku, _ := sel.Attr("data-sku"); sku != "A-100" {
		t.Errorf("relocated wrong element, data-sku=%q", sku)
	}
}

func TestFingerprintOf(t *testing.T) {
	t.Parallel()
	a, err := adaptor.New(samplePage, nil, "https://example.com", "utf-8", adaptor.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	fp := adaptor.FingerprintOf(a.Find("article.product").First())
	if fp.Tag != "article" {
		t.Errorf("expected tag article, got %q", fp.Tag)
	}
	if fp.Attributes["data-sku"] != "A-100" {
		t.Errorf("expected data-sku attribute, got %v", fp.Attributes)
	}
	if fp.ParentTag != "div" {
		t.Errorf("expected parent div, got %q", fp.ParentTag)
	}
	if len(fp.ChildTags) != 2 {
		t.Errorf("expected 2 child tags, got %v", fp.ChildTags)
	}
	if len(fp.Path) == 0 || fp.Path[len(fp.Path)-1] != "article" {
		t.Errorf("unexpected path %v", fp.Path)
	}
}
