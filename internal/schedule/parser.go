// Package schedule extracts the main update-schedule table from an
// announcement thread and resolves its locale-specific date ranges into
// absolute timestamps.
package schedule

import (
	"log/slog"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/gamewatch/gamewatch/internal/types"
)

// AnchorPhrase marks the heading directly above the schedule table.
const AnchorPhrase = "更新主要日程"

// headerTypeCell is the type-column value of the table's header row.
const headerTypeCell = "種類"

// maintenanceMarker identifies the row whose start boundary anchors every
// other event's time-of-day.
const maintenanceMarker = "定期維護開始"

// Parser locates and parses the schedule table.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a schedule parser.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger.With("component", "schedule_parser")}
}

// Validate is the pre-parse structural gate: both the anchor phrase and a
// table reachable from it must exist. A failure returns ErrStructuralDrift,
// which aborts the thread but never the process — drift in the source
// markup is expected over time.
func (p *Parser) Validate(pageHTML string) error {
	doc, err := htmlquery.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return err
	}

	anchor := findAnchor(doc)
	if anchor == nil {
		p.logger.Error("structure check failed", "missing", "anchor phrase", "anchor", AnchorPhrase)
		return types.ErrStructuralDrift
	}
	if findTableFrom(anchor) == nil {
		p.logger.Error("structure check failed", "missing", "schedule table", "anchor", AnchorPhrase)
		return types.ErrStructuralDrift
	}
	return nil
}

// Parse extracts the schedule rows in table order, plus the maintenance
// reference fragment ("6月10日 上午10點") used to resolve every row's
// time-of-day. The reference is empty when no maintenance row is present.
func (p *Parser) Parse(pageHTML string) ([]types.ScheduleEvent, string, error) {
	doc, err := htmlquery.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil, "", err
	}

	anchor := findAnchor(doc)
	if anchor == nil {
		return nil, "", types.ErrStructuralDrift
	}
	table := findTableFrom(anchor)
	if table == nil {
		return nil, "", types.ErrStructuralDrift
	}

	var events []types.ScheduleEvent
	for _, row := range htmlquery.Find(table, "//tr") {
		cells := htmlquery.Find(row, "//td")
		if len(cells) < 3 {
			continue
		}
		ev := types.ScheduleEvent{
			DateRangeRaw: strings.TrimSpace(htmlquery.InnerText(cells[0])),
			TypeRaw:      strings.TrimSpace(htmlquery.InnerText(cells[1])),
			Content:      strings.TrimSpace(htmlquery.InnerText(cells[2])),
		}
		if ev.TypeRaw == "" || ev.Content == "" || ev.TypeRaw == headerTypeCell {
			continue
		}
		events = append(events, ev)
	}

	reference := ""
	for _, ev := range events {
		if strings.Contains(ev.Content, maintenanceMarker) {
			reference, _ = SplitRange(ev.DateRangeRaw)
			break
		}
	}

	p.logger.Debug("schedule parsed", "events", len(events), "reference", reference)
	return events, reference, nil
}

// IsMaintenanceRow reports whether an event is the maintenance-start row,
// which anchors the timeline but is not itself a news item.
func IsMaintenanceRow(ev types.ScheduleEvent) bool {
	return strings.Contains(ev.Content, maintenanceMarker)
}

// findAnchor scans heading-like elements for the first one whose text
// contains the anchor phrase.
func findAnchor(doc *html.Node) *html.Node {
	for _, n := range htmlquery.Find(doc, "//p|//strong|//span") {
		if strings.Contains(strings.TrimSpace(htmlquery.InnerText(n)), AnchorPhrase) {
			return n
		}
	}
	return nil
}

// findTableFrom walks forward through following siblings looking for a
// table; when the current nesting level has none it ascends to the parent
// and retries. The anchor and the table live at different depths across
// page revisions, so the walk is upward as well as forward. It is bounded
// by the document root and side-effect free.
func findTableFrom(anchor *html.Node) *html.Node {
	for node := anchor; node != nil; node = node.Parent {
		for sib := node.NextSibling; sib != nil; sib = sib.NextSibling {
			if t := firstTable(sib); t != nil {
				return t
			}
		}
	}
	return nil
}

// firstTable returns n itself when it is a table, or the first table in
// its subtree.
func firstTable(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "table" {
		return n
	}
	if n.Type != html.ElementNode {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := firstTable(c); t != nil {
			return t
		}
	}
	return nil
}
