// Package extract pulls an event's body content and banner image out of an
// announcement page, anchored on the event's title text.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// searchSelector covers the element kinds an event title can be rendered
// in. Bare <b> appears in older posts.
const searchSelector = "p, strong, span, h1, h2, h3, b"

// sectionHeadingRe matches the bold lead-in of the next section ("2. ..."),
// which terminates content collection.
var sectionHeadingRe = regexp.MustCompile(`^\d+\.\s`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeTitle strips all whitespace and the 【】 brackets so titles
// compare stably against rendered page text.
func NormalizeTitle(title string) string {
	s := whitespaceRe.ReplaceAllString(title, "")
	s = strings.ReplaceAll(s, "【", "")
	return strings.ReplaceAll(s, "】", "")
}

// findStart locates the first element whose text contains the normalized
// title.
func findStart(doc *goquery.Document, title string) *goquery.Selection {
	want := NormalizeTitle(title)
	if want == "" {
		return nil
	}

	var found *goquery.Selection
	doc.Find(searchSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(whitespaceRe.ReplaceAllString(s.Text(), ""), want) {
			found = s
			return false
		}
		return true
	})
	return found
}

// FindContent collects the event's body starting at the paragraph holding
// the title and walking forward through siblings until the next numbered
// section heading. Tables and image-bearing elements keep their markup;
// everything else is flattened to text.
func FindContent(doc *goquery.Document, title string) string {
	start := findStart(doc, title)
	if start == nil {
		return ""
	}

	first := start.Closest("p")
	if first.Length() == 0 {
		return ""
	}

	var b strings.Builder
	for cur := first; cur.Length() > 0; cur = cur.Next() {
		bold := strings.TrimSpace(cur.Find("b, strong").First().Text())
		if !cur.IsSelection(first) && bold != "" && sectionHeadingRe.MatchString(bold) {
			break
		}

		if goquery.NodeName(cur) == "table" || cur.Find("img").Length() > 0 {
			if markup, err := goquery.OuterHtml(cur); err == nil {
				b.WriteString(markup)
			}
		} else {
			b.WriteString(cur.Text())
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FindImage looks for the banner image preceding the title: starting at
// the title element it scans earlier siblings nearest-first, ascending up
// to five ancestor levels. The returned URL is resolved against base.
func FindImage(doc *goquery.Document, title string, base *url.URL) string {
	start := findStart(doc, title)
	if start == nil {
		return ""
	}

	cur := start
	for level := 0; level < 5 && cur.Length() > 0; level++ {
		for sib := cur.Prev(); sib.Length() > 0; sib = sib.Prev() {
			src, ok := sib.Find("img").First().Attr("src")
			if !ok || src == "" {
				continue
			}
			if base != nil {
				if ref, err := url.Parse(src); err == nil {
					return base.ResolveReference(ref).String()
				}
			}
			return src
		}
		cur = cur.Parent()
	}
	return ""
}
