package annotate

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gamewatch/gamewatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

// fakeLLM returns a canned response or error and records the last prompt.
type fakeLLM struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	f.calls++
	return f.response, f.err
}

func TestAnnotate(t *testing.T) {
	llm := &fakeLLM{response: `{"summary": "活動重點整理", "character_names": ["佳澄"]}`}
	a := New(llm, testLogger)

	got := a.Annotate(context.Background(), "夏日活動", "活動內容", types.CategoryActivity)
	if got.Degraded {
		t.Fatal("result degraded with a healthy model")
	}
	if got.Summary != "活動重點整理" {
		t.Errorf("Summary = %q", got.Summary)
	}
	if len(got.CharacterNames) != 1 || got.CharacterNames[0] != "佳澄" {
		t.Errorf("CharacterNames = %v", got.CharacterNames)
	}
}

func TestAnnotateEmptyContentSkipsModel(t *testing.T) {
	llm := &fakeLLM{response: `{"summary": "不該出現的摘要", "character_names": []}`}
	a := New(llm, testLogger)

	got := a.Annotate(context.Background(), "找不到內文的公告", "  \n ", types.CategoryActivity)
	if llm.calls != 0 {
		t.Errorf("model called %d times on empty content, want 0", llm.calls)
	}
	if !got.Degraded {
		t.Error("result not degraded for empty content")
	}
	if got.Summary != "找不到內文的公告" {
		t.Errorf("Summary = %q, want the title fallback", got.Summary)
	}
}

func TestAnnotateRecoversWrappedJSON(t *testing.T) {
	llm := &fakeLLM{response: "好的，以下是分析結果：\n```json\n{\"summary\": \"重點\", \"character_names\": []}\n```\n希望有幫助。"}
	a := New(llm, testLogger)

	got := a.Annotate(context.Background(), "標題", "內容", types.CategoryOther)
	if got.Degraded || got.Summary != "重點" {
		t.Errorf("result = %+v, want summary recovered from wrapped JSON", got)
	}
}

func TestAnnotateDegradesOnError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection refused")}
	a := New(llm, testLogger)

	got := a.Annotate(context.Background(), "特選招募", "本次對象為佳澄與一花", types.CategoryRecruitment)
	if !got.Degraded {
		t.Fatal("expected degraded result")
	}
	if got.Summary == "" {
		t.Error("degraded result has empty summary")
	}
	if len(got.CharacterNames) != 2 {
		t.Errorf("CharacterNames = %v, want token scan to find 佳澄 and 一花", got.CharacterNames)
	}
}

func TestAnnotateDegradesOnGarbage(t *testing.T) {
	llm := &fakeLLM{response: "抱歉，我無法處理這個請求。"}
	a := New(llm, testLogger)

	got := a.Annotate(context.Background(), "標題", "內容", types.CategoryOther)
	if !got.Degraded {
		t.Error("expected degraded result for a response without JSON")
	}
	if got.Summary == "" {
		t.Error("degraded result has empty summary")
	}
}

func TestAnnotatePromptVariants(t *testing.T) {
	tests := []struct {
		category types.Category
		wantHint string
	}{
		{types.CategoryTotalAssault, "頭目名稱"},
		{types.CategoryGrandAssault, "頭目名稱"},
		{types.CategoryRecruitment, "Pick Up 學生"},
		{types.CategoryActivity, "活動類型"},
	}

	for _, tt := range tests {
		llm := &fakeLLM{response: `{"summary": "x", "character_names": []}`}
		a := New(llm, testLogger)
		a.Annotate(context.Background(), "標題", "內容", tt.category)
		if !strings.Contains(llm.prompt, tt.wantHint) {
			t.Errorf("prompt for %q missing emphasis %q", tt.category, tt.wantHint)
		}
	}

	// The generic variant carries no emphasis line.
	llm := &fakeLLM{response: `{"summary": "x", "character_names": []}`}
	a := New(llm, testLogger)
	a.Annotate(context.Background(), "標題", "內容", types.CategoryOther)
	if strings.Contains(llm.prompt, "請特別關注") {
		t.Error("generic prompt carries a category emphasis line")
	}
}

func TestAnnotateTruncatesContent(t *testing.T) {
	llm := &fakeLLM{response: `{"summary": "x", "character_names": []}`}
	a := New(llm, testLogger)

	long := strings.Repeat("內", 4000)
	a.Annotate(context.Background(), "標題", long, types.CategoryOther)
	if strings.Contains(llm.prompt, strings.Repeat("內", maxContentRunes+1)) {
		t.Error("prompt carries more body text than the rune budget allows")
	}
}

func TestSummarize(t *testing.T) {
	llm := &fakeLLM{response: "1. 活動名稱：夏日祭典\n2. 活動開始時間：2025/06/10 11:00\n3. 活動結束時間：2025/06/24 04:59\n4. 活動摘要：**限時**活動。"}
	a := New(llm, testLogger)

	got := a.Summarize(context.Background(), "夏日祭典", "內容")
	if got.Degraded {
		t.Fatal("result degraded with a healthy model")
	}
	if strings.Contains(got.Summary, "**") {
		t.Errorf("markdown residue not stripped: %q", got.Summary)
	}

	start, end := ExtractEventDates(got.Summary)
	if start == nil || end == nil {
		t.Fatalf("ExtractEventDates = (%v, %v), want both set", start, end)
	}
	if want := time.Date(2025, time.June, 10, 11, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
}

func TestExtractEventDatesMissing(t *testing.T) {
	start, end := ExtractEventDates("1. 活動名稱：夏日祭典\n2. 活動開始時間：\n3. 活動結束時間：")
	if start != nil || end != nil {
		t.Errorf("ExtractEventDates = (%v, %v), want (nil, nil)", start, end)
	}
}

func TestIsEventEnded(t *testing.T) {
	now := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	ended := "活動結束時間：2025/06/24 04:59"
	if !IsEventEnded(ended, now) {
		t.Error("past end time not detected")
	}

	ongoing := "活動結束時間：2025/07/24 04:59"
	if IsEventEnded(ongoing, now) {
		t.Error("future end time treated as ended")
	}

	if IsEventEnded("無日期資訊", now) {
		t.Error("summary without end time treated as ended")
	}
	if IsEventEnded("", now) {
		t.Error("empty summary treated as ended")
	}
}
