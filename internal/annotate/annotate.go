// Package annotate enriches crawled announcements with an LLM: a summary
// and the mentioned character names for thread sections, and a structured
// text summary with embedded event dates for listing items. Annotation
// never fails; when the model is unreachable or returns garbage the result
// degrades to a local heuristic.
package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gamewatch/gamewatch/internal/ai"
	"github.com/gamewatch/gamewatch/internal/classify"
	"github.com/gamewatch/gamewatch/internal/types"
)

// maxContentRunes bounds how much body text goes into a prompt.
const maxContentRunes = 2500

// heuristicSummaryRunes bounds the degraded summary taken from the body.
const heuristicSummaryRunes = 200

// Generator is the LLM capability the annotator consumes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Result is the annotation outcome. It is always well formed; Degraded
// marks results produced by the fallback heuristic instead of the model.
type Result struct {
	Summary        string
	CharacterNames []string
	Degraded       bool
}

// Annotator builds category-specific prompts and parses model output.
type Annotator struct {
	llm    Generator
	logger *slog.Logger
}

// New creates an annotator on top of an LLM client.
func New(llm Generator, logger *slog.Logger) *Annotator {
	return &Annotator{llm: llm, logger: logger.With("component", "annotator")}
}

// Annotate summarizes one announcement section. The prompt asks for strict
// JSON; the response is sliced to its outermost braces before parsing
// since models like to wrap objects in prose. Any failure degrades to the
// heuristic result.
func (a *Annotator) Annotate(ctx context.Context, title, content string, category types.Category) Result {
	// Nothing to summarize means nothing to prompt for.
	if a.llm == nil || strings.TrimSpace(content) == "" {
		return a.heuristic(title, content)
	}

	prompt := buildPrompt(title, content, category)

	raw, err := a.llm.GenerateJSON(ctx, prompt)
	if err != nil {
		a.logger.Warn("annotation degraded", "title", title, "error", err)
		return a.heuristic(title, content)
	}

	var parsed struct {
		Summary        string   `json:"summary"`
		CharacterNames []string `json:"character_names"`
	}
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &parsed); err != nil || parsed.Summary == "" {
		a.logger.Warn("annotation degraded", "title", title, "reason", "unparseable response")
		return a.heuristic(title, content)
	}

	return Result{
		Summary:        strings.TrimSpace(parsed.Summary),
		CharacterNames: parsed.CharacterNames,
	}
}

// Summarize produces the structured text summary used by the listing flow:
// a numbered block carrying the event name, start/end times and a short
// description, from which ExtractEventDates later pulls the dates.
func (a *Annotator) Summarize(ctx context.Context, title, content string) Result {
	if a.llm == nil {
		return a.heuristic(title, content)
	}

	prompt := fmt.Sprintf(`你是一個遊戲公告分析專家。請根據以下提供的公告標題和內容，嚴格按照下面的格式提取並回傳資訊，不要包含任何多餘的說明文字、開頭或結尾、以及任何 Markdown 符號 (例如 **)。

回傳格式範例：
1. 活動名稱：(活動的官方名稱)
2. 活動開始時間：(YYYY/MM/DD HH:mm 格式，如果沒有請留空)
3. 活動結束時間：(YYYY/MM/DD HH:mm 格式，如果沒有請留空)
4. 活動摘要：(一段簡潔的活動內容摘要，請不要在摘要中提及任何日期或時間)

公告標題：%s
公告內容：
%s`, title, truncateRunes(content, maxContentRunes))

	raw, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		a.logger.Warn("summary degraded", "title", title, "error", err)
		return a.heuristic(title, content)
	}

	summary := strings.TrimSpace(strings.ReplaceAll(raw, "**", ""))
	if summary == "" {
		return a.heuristic(title, content)
	}
	return Result{
		Summary:        summary,
		CharacterNames: classify.CharacterNames(title + " " + content),
	}
}

// heuristic is the degrade path: leading body text as the summary plus a
// token scan for character names.
func (a *Annotator) heuristic(title, content string) Result {
	summary := strings.TrimSpace(truncateRunes(content, heuristicSummaryRunes))
	if summary == "" {
		summary = strings.TrimSpace(title)
	}
	return Result{
		Summary:        summary,
		CharacterNames: classify.CharacterNames(title + " " + content),
		Degraded:       true,
	}
}

// buildPrompt assembles the section prompt. Raid, recruitment and activity
// categories each ask the model to surface different fields.
func buildPrompt(title, content string, category types.Category) string {
	var b strings.Builder
	b.WriteString(`你是一位專業的遊戲公告分析師。請基於以下公告內容，完成兩項任務：
1. 生成摘要：用繁體中文、條列式的方式，簡潔地總結公告的重點。
2. 提取角色名稱：如果公告中明確提到了任何學生的名字，將他們提取出來。如果沒有，返回空陣列。`)

	cat := string(category)
	switch {
	case strings.Contains(cat, "總力戰") || strings.Contains(cat, "大決戰"):
		b.WriteString("\n請特別關注並提取「頭目名稱」、「活動時間」和「主要獎勵」。")
	case strings.Contains(cat, "招募"):
		b.WriteString("\n請特別關注並提取「Pick Up 學生」、「招募期間」和「是否有免費招募」。")
	case strings.Contains(cat, "活動"):
		b.WriteString("\n請特別關注並提取「活動類型」（例如：劇情活動、登入獎勵等）、「活動時間」和「關鍵獎勵」。")
	}

	fmt.Fprintf(&b, `

公告類別：%s
公告標題：%s
公告內容：
%s

請嚴格按照以下 JSON 格式輸出，不要有任何額外的文字或解釋：
{
  "summary": "摘要內容",
  "character_names": ["角色1", "角色2"]
}`, cat, title, truncateRunes(content, maxContentRunes))

	return b.String()
}

var (
	startDateRe = regexp.MustCompile(`活動開始時間：\s*(\d{4})/(\d{2})/(\d{2})\s*(\d{2}):(\d{2})`)
	endDateRe   = regexp.MustCompile(`活動結束時間：\s*(\d{4})/(\d{2})/(\d{2})\s*(\d{2}):(\d{2})`)
)

// ExtractEventDates pulls the start and end times out of a structured
// summary produced by Summarize. A missing or blank field yields nil.
func ExtractEventDates(summary string) (start, end *time.Time) {
	return matchDate(startDateRe, summary), matchDate(endDateRe, summary)
}

// IsEventEnded reports whether the summary's end time has passed. Without
// a summary or a parseable end time the event is assumed ongoing.
func IsEventEnded(summary string, now time.Time) bool {
	_, end := ExtractEventDates(summary)
	return end != nil && end.Before(now)
}

func matchDate(re *regexp.Regexp, s string) *time.Time {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	return &t
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
