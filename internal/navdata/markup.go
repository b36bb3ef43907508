package navdata

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// typeAnchorSelector matches the anchor classes rustdoc uses for the
// right-hand side of an impl header.
const typeAnchorSelector = "a.struct, a.enum, a.union, a.primitive, a.type, a.traitalias"

// ImplementingType recovers the implementing type name from an impl-header
// snippet, e.g. "Color" from
//
//	impl <a class="trait" href="...">Clone</a> for <a class="struct" href="...">Color</a>
//
// Returns "" for blanket impls (impl<T> Trait for T), whose right-hand side
// has no anchor.
func ImplementingType(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find(typeAnchorSelector).First().Text())
}

// CheckMarkup verifies that an impl-header snippet is well-formed enough to
// display: anchor tags balance, it contains an impl header, and every anchor
// carries an href. The html5 parser auto-repairs broken snippets instead of
// failing, so the tag balance is checked at the tokenizer level first.
func CheckMarkup(markup string) error {
	tz := html.NewTokenizer(strings.NewReader(markup))
	depth := 0
	for {
		tt := tz.Next()
		if tt == html.ErrorToken {
			break
		}
		name, _ := tz.TagName()
		if string(name) != "a" {
			continue
		}
		switch tt {
		case html.StartTagToken:
			depth++
		case html.EndTagToken:
			depth--
		}
	}
	if depth != 0 {
		return fmt.Errorf("unbalanced anchor tags")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("parsing markup: %w", err)
	}
	if !strings.Contains(doc.Text(), "impl") {
		return fmt.Errorf("markup carries no impl header")
	}

	var missing int
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("href"); !ok {
			missing++
		}
	})
	if missing > 0 {
		return fmt.Errorf("%d anchors without href", missing)
	}
	return nil
}

// AbsolutizeMarkup rewrites the relative hrefs rustdoc emits in impl headers
// ("../../cosmic_text/struct.Color.html") to absolute URLs under base, so
// snippets stay navigable outside the generated doc tree.
func AbsolutizeMarkup(markup, base string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parsing markup: %w", err)
	}

	base = strings.TrimSuffix(base, "/")
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.Contains(href, "://") || strings.HasPrefix(href, "#") {
			return
		}
		for strings.HasPrefix(href, "../") {
			href = href[3:]
		}
		s.SetAttr("href", base+"/"+href)
	})

	// goquery wraps snippets in html/body; unwrap before returning.
	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serializing markup: %w", err)
	}
	return out, nil
}
