package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The source publishes wall-clock times for UTC+8 (Asia/Taipei). Resolved
// instants are shifted back by this offset to land on UTC.
const sourceUTCOffset = 8 * time.Hour

var (
	monthRe = regexp.MustCompile(`(\d{1,2})月`)
	dayRe   = regexp.MustCompile(`(\d{1,2})日`)
	clockRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	hourRe  = regexp.MustCompile(`(\d{1,2})點`)
)

// ResolveDate combines a month/day fragment ("6月12日") with a time-of-day
// fragment carrying an AM/PM marker ("上午10點", "下午1:00") into an absolute
// UTC instant, anchored to now's year. It returns nil when either fragment
// is missing or the day cannot be parsed; a nil result means "unknown", not
// an error.
//
// Month-only fragments crossing a December→January boundary resolve into
// the wrong year; the source never schedules that far ahead, so the
// rollover is left unhandled.
func ResolveDate(dateStr, timeStr string, now time.Time) *time.Time {
	if dateStr == "" || timeStr == "" {
		return nil
	}

	month := int(now.Month())
	if m := monthRe.FindStringSubmatch(dateStr); m != nil {
		month, _ = strconv.Atoi(m[1])
	}

	dm := dayRe.FindStringSubmatch(dateStr)
	if dm == nil {
		return nil
	}
	day, _ := strconv.Atoi(dm[1])

	hour, minute := 0, 0
	if tm := clockRe.FindStringSubmatch(timeStr); tm != nil {
		hour, _ = strconv.Atoi(tm[1])
		minute, _ = strconv.Atoi(tm[2])
	} else if tm := hourRe.FindStringSubmatch(timeStr); tm != nil {
		hour, _ = strconv.Atoi(tm[1])
	}

	if strings.Contains(timeStr, "下午") && hour < 12 {
		hour += 12
	}
	if strings.Contains(timeStr, "上午") && hour == 12 {
		hour = 0
	}

	local := time.Date(now.Year(), time.Month(month), day, hour, minute, 0, 0, time.UTC)
	utc := local.Add(-sourceUTCOffset)
	return &utc
}

// ResolveRange resolves "start ~ end" against the reference time-of-day
// fragment. Either bound may come back nil; a nil end means the event is
// ongoing or unbounded.
func ResolveRange(dateRange, reference string, now time.Time) (start, end *time.Time) {
	startStr, endStr := SplitRange(dateRange)
	if startStr != "" && reference != "" {
		start = ResolveDate(startStr, reference, now)
	}
	if endStr != "" && reference != "" {
		end = ResolveDate(endStr, reference, now)
	}
	return start, end
}

// SplitRange splits a "6月10日 ~ 6月24日" cell into trimmed bounds. The end
// is empty when the cell has no separator.
func SplitRange(dateRange string) (start, end string) {
	parts := strings.SplitN(dateRange, "~", 2)
	start = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		end = strings.TrimSpace(parts[1])
	}
	return start, end
}
