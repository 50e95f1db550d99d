// Package classify maps announcement text and schedule-table labels onto
// the fixed category set used across the store and the feed.
package classify

import (
	"strings"

	"github.com/gamewatch/gamewatch/internal/types"
)

// labelCategories maps schedule-table type labels to categories. Lookup is
// by substring so decorated labels ("維護與補償(止)") still resolve.
var labelCategories = []struct {
	label    string
	category types.Category
}{
	{"維護與補償", types.CategoryUpdate},
	{"招募活動", types.CategoryRecruitment},
	{"活動劇情", types.CategoryActivity},
	{"戰術考試", types.CategoryExam},
	{"商店與系統更新", types.CategoryUpdate},
	{"新增內容", types.CategoryUpdate},
	{"獎勵加倍活動", types.CategoryActivity},
	{"大決戰", types.CategoryGrandAssault},
	{"總力戰", types.CategoryTotalAssault},
	{"其他", types.CategoryOther},
}

// blockedTitleKeywords drop a listing item outright; these are operational
// notices (bans, maintenance completion, bug reports) with no feed value.
var blockedTitleKeywords = []string{
	"停權", "維護完成", "維護預告", "更新完成", "異常", "問題",
	"補償", "道具", "修正", "禁止", "規範", "聲明",
}

// updateTitleKeywords route a listing item into the updates collection
// instead of the news collection.
var updateTitleKeywords = []string{
	"更新", "實裝", "追加", "新增", "裝備", "角色",
}

// includedListingCategories are the listing-page category tags worth
// crawling when the title carries no update keyword.
var includedListingCategories = []string{"活動", "轉蛋", "戰隊", "競賽"}

// characterTokens are the student names (and outfit variants) scanned for
// when tagging recruitment and event banners.
var characterTokens = []string{
	"佳澄", "一花", "伊織", "惠", "優香", "瑪麗", "詠葉",
	"亞都梨", "乃愛", "羽留奈", "體育服", "應援團",
}

// FromLabel resolves a schedule-table type label. The second return is
// false when no known label matches.
func FromLabel(label string) (types.Category, bool) {
	for _, m := range labelCategories {
		if strings.Contains(label, m.label) {
			return m.category, true
		}
	}
	return "", false
}

// FromLabelOrOther resolves a label, falling back to 其他.
func FromLabelOrOther(label string) types.Category {
	if c, ok := FromLabel(label); ok {
		return c
	}
	return types.CategoryOther
}

// FromScheduleType standardizes a schedule row's type cell: 活動劇情 rows
// are activities, 特選招募 rows are recruitment, anything else keeps the
// raw label as its own category.
func FromScheduleType(typeRaw string) types.Category {
	if strings.Contains(typeRaw, "活動劇情") {
		return types.CategoryActivity
	}
	if strings.Contains(typeRaw, "特選招募") {
		return types.CategoryRecruitment
	}
	return types.Category(typeRaw)
}

// Classify derives a category from title and body text. Rules earlier in
// the chain win; a recruitment banner that also mentions an event is still
// recruitment.
func Classify(title, content string) types.Category {
	text := title + " " + content

	switch {
	case containsAny(text, "招募", "特選"):
		return types.CategoryRecruitment
	case containsAny(text, "Story", "活動貨幣", "Challenge", "Quest") ||
		(strings.Contains(text, "活動") && strings.Contains(text, "期間")):
		return types.CategoryActivity
	case strings.Contains(text, "考試"):
		return types.CategoryExam
	case strings.Contains(text, "大決戰"):
		return types.CategoryGrandAssault
	case strings.Contains(text, "總力戰"):
		return types.CategoryTotalAssault
	case containsAny(text, "2倍", "獎勵", "倍率"):
		return types.CategoryActivity
	case containsAny(text, "商店", "購買", "販售"):
		return types.CategoryUpdate
	case containsAny(text, "維護", "補償", "更新"):
		return types.CategoryUpdate
	case strings.Contains(text, "活動"):
		return types.CategoryActivity
	default:
		return types.CategoryOther
	}
}

// CharacterNames returns the known character tokens present in the text,
// in token-table order, without duplicates.
func CharacterNames(text string) []string {
	var names []string
	for _, tok := range characterTokens {
		if strings.Contains(text, tok) {
			names = append(names, tok)
		}
	}
	return names
}

// DetermineListingCategory classifies a news-listing title by its bracket
// prefix and keywords: 【更新】/【優惠】 announcements are updates, clan
// battles and gacha have their own buckets, the rest are activities.
func DetermineListingCategory(title string) types.Category {
	switch {
	case containsAny(title, "【更新】", "【優惠】"):
		return types.CategoryUpdate
	case strings.Contains(title, "戰隊"):
		return types.CategoryClanBattle
	case strings.Contains(title, "轉蛋"):
		return types.CategoryGacha
	default:
		return types.CategoryActivity
	}
}

// IsBlockedTitle reports whether a listing title matches the blocklist.
func IsBlockedTitle(title string) bool {
	return containsAny(title, blockedTitleKeywords...)
}

// IsUpdateTitle reports whether a listing title announces a game update.
func IsUpdateTitle(title string) bool {
	return containsAny(title, updateTitleKeywords...)
}

// IsIncludedCategory reports whether a listing category tag is one of the
// crawl-worthy buckets.
func IsIncludedCategory(category string) bool {
	return containsAny(category, includedListingCategories...)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
