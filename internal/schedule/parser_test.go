package schedule

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/gamewatch/gamewatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

const schedulePage = `<!DOCTYPE html>
<html><body>
<div class="post-body">
  <p>各位老師好</p>
  <p><strong>更新主要日程</strong></p>
  <div>
    <table>
      <tbody>
        <tr><td>日期</td><td>種類</td><td>內容</td></tr>
        <tr><td>6月10日(週二) 上午10點 ~ 下午1:00</td><td>維護與補償</td><td>定期維護開始</td></tr>
        <tr><td>6月10日(週二) ~ 6月24日(週二)</td><td>活動劇情</td><td>夏日活動開跑</td></tr>
        <tr><td>6月10日(週二) ~ 6月24日(週二)</td><td>特選招募</td><td>佳澄(泳裝) 特選招募</td></tr>
        <tr><td>incomplete</td><td>活動</td></tr>
        <tr><td>6月10日(週二)</td><td></td><td>空白種類</td></tr>
      </tbody>
    </table>
  </div>
</div>
</body></html>`

const noTablePage = `<html><body>
<p><strong>更新主要日程</strong></p>
<p>本次更新沒有日程表。</p>
</body></html>`

const noAnchorPage = `<html><body>
<p>一般公告</p>
<table><tr><td>6月10日</td><td>活動</td><td>內容</td></tr></table>
</body></html>`

func TestValidate(t *testing.T) {
	p := NewParser(testLogger)

	if err := p.Validate(schedulePage); err != nil {
		t.Fatalf("Validate(schedulePage) = %v, want nil", err)
	}
	if err := p.Validate(noAnchorPage); !errors.Is(err, types.ErrStructuralDrift) {
		t.Errorf("Validate(noAnchorPage) = %v, want ErrStructuralDrift", err)
	}
	if err := p.Validate(noTablePage); !errors.Is(err, types.ErrStructuralDrift) {
		t.Errorf("Validate(noTablePage) = %v, want ErrStructuralDrift", err)
	}
}

func TestParse(t *testing.T) {
	p := NewParser(testLogger)

	events, reference, err := p.Parse(schedulePage)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// Header row, the two-cell row and the empty-type row are all dropped.
	if len(events) != 3 {
		t.Fatalf("Parse returned %d events, want 3: %+v", len(events), events)
	}

	if events[0].Content != "定期維護開始" || events[0].TypeRaw != "維護與補償" {
		t.Errorf("events[0] = %+v, want maintenance row first", events[0])
	}
	if events[1].Content != "夏日活動開跑" || events[1].TypeRaw != "活動劇情" {
		t.Errorf("events[1] = %+v, want activity row", events[1])
	}
	if events[2].TypeRaw != "特選招募" {
		t.Errorf("events[2] = %+v, want recruitment row", events[2])
	}

	if want := "6月10日(週二) 上午10點"; reference != want {
		t.Errorf("reference = %q, want %q", reference, want)
	}
}

func TestParseWithoutMaintenanceRow(t *testing.T) {
	const page = `<html><body>
<p><span>更新主要日程</span></p>
<table>
  <tr><td>6月10日 ~ 6月24日</td><td>活動劇情</td><td>夏日活動開跑</td></tr>
</table>
</body></html>`

	p := NewParser(testLogger)
	events, reference, err := p.Parse(page)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Parse returned %d events, want 1", len(events))
	}
	if reference != "" {
		t.Errorf("reference = %q, want empty without a maintenance row", reference)
	}
}

func TestParseNoAnchor(t *testing.T) {
	p := NewParser(testLogger)
	if _, _, err := p.Parse(noAnchorPage); !errors.Is(err, types.ErrStructuralDrift) {
		t.Errorf("Parse(noAnchorPage) = %v, want ErrStructuralDrift", err)
	}
}

func TestParseTableAboveAnchorDepth(t *testing.T) {
	// The table sits next to the anchor's parent, not the anchor itself;
	// the walk has to ascend before it finds it.
	const page = `<html><body>
<div><p><strong>更新主要日程</strong></p></div>
<table>
  <tr><td>6月10日 ~ 6月24日</td><td>活動</td><td>總力戰開放</td></tr>
</table>
</body></html>`

	p := NewParser(testLogger)
	events, _, err := p.Parse(page)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 || events[0].Content != "總力戰開放" {
		t.Fatalf("events = %+v, want single 總力戰 row", events)
	}
}

func TestIsMaintenanceRow(t *testing.T) {
	if !IsMaintenanceRow(types.ScheduleEvent{Content: "定期維護開始"}) {
		t.Error("maintenance row not detected")
	}
	if IsMaintenanceRow(types.ScheduleEvent{Content: "夏日活動開跑"}) {
		t.Error("activity row misdetected as maintenance")
	}
}
