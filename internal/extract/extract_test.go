package extract

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseDoc(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"【更新】 新角色 實裝", "更新新角色實裝"},
		{"夏日活動\n開跑", "夏日活動開跑"},
		{"無括號", "無括號"},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

const contentPage = `<html><body>
<p><b>1. 夏日活動開跑</b></p>
<p>活動期間為兩週。</p>
<table><tr><td>獎勵一覽</td></tr></table>
<p><img src="/img/banner.png"></p>
<p><b>2. 總力戰開放</b></p>
<p>不屬於上一節的內容。</p>
</body></html>`

func TestFindContent(t *testing.T) {
	doc := parseDoc(t, contentPage)
	got := FindContent(doc, "夏日活動開跑")

	if !strings.Contains(got, "活動期間為兩週") {
		t.Errorf("content missing body paragraph: %q", got)
	}
	if !strings.Contains(got, "<table>") {
		t.Errorf("table markup not preserved: %q", got)
	}
	if !strings.Contains(got, `<img src="/img/banner.png"`) {
		t.Errorf("image markup not preserved: %q", got)
	}
	if strings.Contains(got, "總力戰") || strings.Contains(got, "不屬於上一節") {
		t.Errorf("collection did not stop at the next section heading: %q", got)
	}
}

func TestFindContentTitleWithBrackets(t *testing.T) {
	doc := parseDoc(t, contentPage)
	// Brackets and spacing in the queried title must not defeat the match.
	if got := FindContent(doc, "【夏日活動 開跑】"); !strings.Contains(got, "活動期間為兩週") {
		t.Errorf("bracketed title did not match: %q", got)
	}
}

func TestFindContentMissingTitle(t *testing.T) {
	doc := parseDoc(t, contentPage)
	if got := FindContent(doc, "不存在的標題"); got != "" {
		t.Errorf("FindContent(miss) = %q, want empty", got)
	}
}

func TestFindContentStartOutsideParagraph(t *testing.T) {
	doc := parseDoc(t, `<html><body><div><span>孤立標題</span></div></body></html>`)
	if got := FindContent(doc, "孤立標題"); got != "" {
		t.Errorf("FindContent without enclosing paragraph = %q, want empty", got)
	}
}

const imagePage = `<html><body>
<div>
  <p><img src="far.png"></p>
  <p><img src="/img/summer-banner.png"></p>
  <p><b>1. 夏日活動開跑</b></p>
</div>
</body></html>`

func TestFindImage(t *testing.T) {
	doc := parseDoc(t, imagePage)
	base, _ := url.Parse("https://example.com/forum/thread/42")

	got := FindImage(doc, "夏日活動開跑", base)
	if want := "https://example.com/img/summer-banner.png"; got != want {
		t.Errorf("FindImage = %q, want %q", got, want)
	}
}

func TestFindImageAscendsLevels(t *testing.T) {
	// The image precedes the title's grandparent, not the title itself.
	const page = `<html><body>
<div><p><img src="deep.png"></p></div>
<div><div><p><span>夏日活動開跑</span></p></div></div>
</body></html>`

	doc := parseDoc(t, page)
	if got := FindImage(doc, "夏日活動開跑", nil); got != "deep.png" {
		t.Errorf("FindImage = %q, want deep.png", got)
	}
}

func TestFindImageNone(t *testing.T) {
	doc := parseDoc(t, contentPage)
	// The only image sits after the title, never before it.
	if got := FindImage(doc, "夏日活動開跑", nil); got != "" {
		t.Errorf("FindImage = %q, want empty", got)
	}
}
