package types

import (
	"time"
)

// Category is the fixed taxonomy a news record is filed under. The values
// are the raw strings the read-side site filters on, so they stay in the
// source language.
type Category string

const (
	CategoryRecruitment  Category = "招募"
	CategoryActivity     Category = "活動"
	CategoryExam         Category = "考試"
	CategoryGrandAssault Category = "大決戰"
	CategoryTotalAssault Category = "總力戰"
	CategoryUpdate       Category = "更新"
	CategoryGacha        Category = "轉蛋"
	CategoryClanBattle   Category = "戰隊戰"
	CategoryOther        Category = "其他"
)

// NewsItem is the persisted record produced once per discovered event or
// section during a crawl run. It is never updated in place; re-crawls either
// skip existing records or follow an explicit collection clear.
type NewsItem struct {
	ID             string     `bson:"_id,omitempty"     json:"id,omitempty"`
	Title          string     `bson:"title"             json:"title"`
	Content        string     `bson:"content"           json:"content"`
	Summary        string     `bson:"summary"           json:"summary"`
	Date           time.Time  `bson:"date"              json:"date"`
	StartDate      *time.Time `bson:"start_date"        json:"start_date"`
	EndDate        *time.Time `bson:"end_date"          json:"end_date"`
	Category       Category   `bson:"category"          json:"category"`
	SubCategory    string     `bson:"sub_category,omitempty"    json:"sub_category,omitempty"`
	CharacterNames []string   `bson:"character_names"   json:"character_names"`
	OriginalURL    string     `bson:"original_url"      json:"original_url"`
	ThreadID       string     `bson:"thread_id,omitempty"       json:"thread_id,omitempty"`
	ImageURL       string     `bson:"image_url,omitempty"       json:"image_url,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"        json:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"        json:"updated_at"`
}

// Stamp fills the bookkeeping timestamps before insert.
func (n *NewsItem) Stamp(now time.Time) {
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.Date.IsZero() {
		n.Date = now
	}
	if n.CharacterNames == nil {
		n.CharacterNames = []string{}
	}
}

// RawSection is one titled slice of an article body, produced by the
// segmenter in document order and consumed immediately into NewsItem
// candidates.
type RawSection struct {
	// Number is the leading ordinal ("3" in "3. [x]"), empty when the
	// heading was unnumbered.
	Number string

	// Title is the display title, including the ordinal when present.
	Title string

	// OriginalTitle is the bracketed text alone.
	OriginalTitle string

	// StartOffset is the byte offset of the heading in the article body.
	StartOffset int

	// Content is the text between this heading and the next one.
	Content string
}

// ScheduleEvent is one row of the main update-schedule table.
type ScheduleEvent struct {
	DateRangeRaw string
	TypeRaw      string
	Content      string
}

// ListingItem is one entry scraped off a news listing page, before its
// detail page has been visited.
type ListingItem struct {
	Title    string
	URL      string
	Date     time.Time
	Category string
}
