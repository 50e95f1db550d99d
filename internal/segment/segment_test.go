package segment

import (
	"strings"
	"testing"

	"github.com/gamewatch/gamewatch/internal/config"
)

var testCfg = config.Segment{MinSectionLength: 50, MajorSectionLength: 300}

// filler returns n CJK characters of padding.
func filler(n int) string {
	return strings.Repeat("內容", n/2+1)[:n*3]
}

func TestSplitBasic(t *testing.T) {
	body := "前言文字。\n" +
		"1. [新學生介紹] " + filler(120) + "\n" +
		"2. [活動劇情] " + filler(200) + "\n"

	sections := Split(body, testCfg)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}

	if sections[0].Number != "1" {
		t.Errorf("expected number 1, got %q", sections[0].Number)
	}
	if sections[0].Title != "1. 新學生介紹" {
		t.Errorf("unexpected title %q", sections[0].Title)
	}
	if sections[0].OriginalTitle != "新學生介紹" {
		t.Errorf("unexpected original title %q", sections[0].OriginalTitle)
	}
	for i, s := range sections {
		if s.Content == "" {
			t.Errorf("section %d has empty content", i)
		}
	}
}

func TestSplitAtMostOneSectionPerHeading(t *testing.T) {
	// N headings must never produce more than N sections.
	var b strings.Builder
	for i := 0; i < 7; i++ {
		b.WriteString("[標題] ")
		b.WriteString(filler(80))
		b.WriteString("\n")
	}
	sections := Split(b.String(), testCfg)
	if len(sections) > 7 {
		t.Fatalf("expected <= 7 sections, got %d", len(sections))
	}
}

func TestSplitContentPreservation(t *testing.T) {
	// With all-major sections, concatenating contents in order must
	// reproduce the non-heading substrings verbatim.
	parts := []string{filler(400), filler(350), filler(320)}
	body := "1. [甲]" + parts[0] + "2. [乙]" + parts[1] + "3. [丙]" + parts[2]

	sections := Split(body, testCfg)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	for i, s := range sections {
		if s.Content != parts[i] {
			t.Errorf("section %d content mismatch:\n got %q\nwant %q", i, s.Content, parts[i])
		}
	}
}

func TestSplitDropsShortSections(t *testing.T) {
	body := "1. [真活動] " + filler(120) + "\n[分隔線] ---\n2. [另一活動] " + filler(120)
	sections := Split(body, testCfg)
	if len(sections) != 2 {
		t.Fatalf("expected short section dropped, got %d sections", len(sections))
	}
	for _, s := range sections {
		if s.OriginalTitle == "分隔線" {
			t.Error("insignificant section survived the filter")
		}
	}
}

func TestSplitMergesMinorIntoMajor(t *testing.T) {
	body := "1. [主活動] " + filler(120) +
		"\n[補充說明] " + filler(80) +
		"\n2. [次活動] " + filler(120)

	sections := Split(body, testCfg)
	if len(sections) != 2 {
		t.Fatalf("expected minor section merged, got %d sections", len(sections))
	}
	if !strings.Contains(sections[0].Content, "補充說明") {
		t.Error("minor section title not appended into major section content")
	}
	if !strings.Contains(sections[0].Content, filler(80)) {
		t.Error("minor section content not appended into major section content")
	}
}

func TestSplitMinorWithoutPrecedingMajor(t *testing.T) {
	// An unnumbered short-ish section leading the document stands alone.
	body := "[前置公告] " + filler(90) + "\n1. [主活動] " + filler(150)
	sections := Split(body, testCfg)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].OriginalTitle != "前置公告" {
		t.Errorf("expected leading minor section kept, got %q", sections[0].OriginalTitle)
	}
}

func TestSplitLongUnnumberedIsMajor(t *testing.T) {
	body := "[大型公告] " + filler(400) + "\n[小補充] " + filler(60)
	sections := Split(body, testCfg)
	if len(sections) != 1 {
		t.Fatalf("expected 1 consolidated section, got %d", len(sections))
	}
	if !strings.Contains(sections[0].Content, "小補充") {
		t.Error("minor section should merge into long unnumbered major")
	}
}

func TestSplitThresholdsCountCharacters(t *testing.T) {
	// CJK text is three bytes per character. A 40-character note must fall
	// under the 50-character minimum and a 120-character unnumbered section
	// must stay minor against the 300-character major cutoff, even though
	// their byte lengths clear both limits.
	body := "1. [主活動] " + filler(120) +
		"\n[短註記] " + filler(40) +
		"\n[中篇公告] " + filler(120)

	sections := Split(body, testCfg)
	if len(sections) != 1 {
		t.Fatalf("expected 1 consolidated section, got %d", len(sections))
	}
	if strings.Contains(sections[0].Content, "短註記") {
		t.Error("sub-minimum section survived the character-count filter")
	}
	if !strings.Contains(sections[0].Content, "中篇公告") {
		t.Error("medium unnumbered section should merge into the preceding major")
	}
}

func TestSplitNoHeadings(t *testing.T) {
	sections := Split("沒有任何標題的純文字內容。"+filler(100), testCfg)
	if len(sections) != 0 {
		t.Fatalf("expected empty output for heading-less input, got %d", len(sections))
	}
}

func TestSplitFirstBracketTerminatesTitle(t *testing.T) {
	body := "1. [外層[內層]] " + filler(120)
	sections := Split(body, testCfg)
	if len(sections) == 0 {
		t.Fatal("expected a section")
	}
	if sections[0].OriginalTitle != "外層[內層" {
		t.Errorf("first ']' must terminate the title, got %q", sections[0].OriginalTitle)
	}
}

func BenchmarkSplit(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("1. [活動] ")
		sb.WriteString(filler(500))
		sb.WriteString("\n")
	}
	body := sb.String()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Split(body, testCfg)
	}
}
