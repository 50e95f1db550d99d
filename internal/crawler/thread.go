package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gamewatch/gamewatch/internal/classify"
	"github.com/gamewatch/gamewatch/internal/extract"
	"github.com/gamewatch/gamewatch/internal/schedule"
	"github.com/gamewatch/gamewatch/internal/segment"
	"github.com/gamewatch/gamewatch/internal/types"
)

const (
	popupCloseSelector = "#nx-full-alert-close"
	boardPostSelector  = "div.link-area > a"

	// recruitmentSearchTitle replaces the schedule row text when locating
	// a recruitment section: those sections are headed 「新學生介紹」, not
	// the row's own wording.
	recruitmentSearchTitle = "新學生介紹"
)

var threadIDRe = regexp.MustCompile(`thread=(\d+)`)

// CrawlThread processes the newest announcement thread on the forum
// board: locate it, verify it is unseen, validate its structure, then
// turn every schedule row into a stored item. When the page carries no
// schedule table rows, the body is segmented into sections and those are
// processed instead.
//
// A types.ErrStructuralDrift return means the page layout changed; the
// thread is unusable but the process should exit cleanly.
func (c *Crawler) CrawlThread(ctx context.Context) error {
	threadURL, threadID, err := c.findNewestThread(ctx)
	if err != nil {
		return err
	}
	logger := c.logger.With("thread_id", threadID)

	if c.cfg.Mode != ModeFull {
		seen, err := c.store.ExistsByThread(ctx, c.cfg.ThreadCollection, threadID)
		if err != nil {
			return err
		}
		if seen {
			logger.Info("thread already processed")
			return nil
		}
	}

	logger.Info("processing thread", "url", threadURL)
	if err := c.navigate(ctx, threadURL); err != nil {
		return err
	}
	html, err := c.page.HTML(ctx)
	if err != nil {
		return err
	}

	if err := c.parser.Validate(html); err != nil {
		if errors.Is(err, types.ErrStructuralDrift) {
			c.metrics.StructuralDrifts.Add(1)
		}
		return err
	}

	events, reference, err := c.parser.Parse(html)
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}
	base, _ := url.Parse(threadURL)

	if len(events) == 0 {
		logger.Info("schedule table empty, falling back to section segmentation")
		return c.processSections(ctx, doc, base, threadURL, threadID)
	}

	c.metrics.ItemsDiscovered.Add(int64(len(events)))
	logger.Info("schedule parsed", "events", len(events))

	for _, ev := range events {
		if schedule.IsMaintenanceRow(ev) {
			c.metrics.ItemsSkipped.Add(1)
			logger.Debug("skipping maintenance row", "content", ev.Content)
			continue
		}

		outcome := c.processEvent(ctx, doc, base, ev, reference, threadURL, threadID)
		if !c.record(outcome) {
			return nil
		}
		if err := c.pause(ctx); err != nil {
			return err
		}
	}

	logger.Info("thread done", "stats", c.metrics.Snapshot())
	return nil
}

// findNewestThread opens the board, dismisses the interstitial popup when
// present and resolves the first post's URL and thread id.
func (c *Crawler) findNewestThread(ctx context.Context) (threadURL, threadID string, err error) {
	if err := c.navigate(ctx, c.cfg.BoardURL); err != nil {
		return "", "", err
	}

	// The popup only shows on some visits; a failed click is not an error.
	// The bounded lookup keeps an absent popup from stalling the crawl.
	if err := c.page.Click(ctx, popupCloseSelector, c.cfg.SelectorTimeout); err != nil {
		c.logger.Debug("no popup to dismiss")
	}

	if err := c.waitSelector(ctx, boardPostSelector); err != nil {
		return "", "", err
	}
	html, err := c.page.HTML(ctx)
	if err != nil {
		return "", "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	href, ok := doc.Find(boardPostSelector).First().Attr("href")
	if !ok || href == "" {
		return "", "", fmt.Errorf("board post link: %w", types.ErrNoThread)
	}
	if base, err := url.Parse(c.cfg.BoardURL); err == nil {
		if ref, err := url.Parse(href); err == nil {
			href = base.ResolveReference(ref).String()
		}
	}

	m := threadIDRe.FindStringSubmatch(href)
	if m == nil {
		return "", "", fmt.Errorf("no thread id in %q: %w", href, types.ErrNoThread)
	}
	return href, m[1], nil
}

// processEvent turns one schedule row into a stored item: locate the
// section body and banner, resolve the date range, annotate, insert.
func (c *Crawler) processEvent(ctx context.Context, doc *goquery.Document, base *url.URL, ev types.ScheduleEvent, reference, threadURL, threadID string) types.Outcome {
	title := ev.Content
	category := classify.FromScheduleType(ev.TypeRaw)

	searchTitle := strings.ReplaceAll(title, "\n", " ")
	if category == types.CategoryRecruitment {
		searchTitle = recruitmentSearchTitle
	}

	content := extract.FindContent(doc, searchTitle)
	imageURL := extract.FindImage(doc, searchTitle, base)

	result := c.annotator.Annotate(ctx, title, content, category)
	if result.Degraded {
		c.metrics.AnnotationsDegraded.Add(1)
	}

	now := c.now()
	start, end := schedule.ResolveRange(ev.DateRangeRaw, reference, now)

	date := now
	if start != nil {
		date = *start
	}

	news := &types.NewsItem{
		Title:          title,
		Content:        content,
		Summary:        result.Summary,
		Date:           date,
		StartDate:      start,
		EndDate:        end,
		Category:       category,
		SubCategory:    ev.TypeRaw,
		CharacterNames: result.CharacterNames,
		OriginalURL:    threadURL,
		ThreadID:       threadID,
		ImageURL:       imageURL,
	}
	news.Stamp(now)

	if err := c.store.Insert(ctx, c.cfg.ThreadCollection, news); err != nil {
		return types.Skip("insert failed", &types.ItemError{Title: title, URL: threadURL, Err: err})
	}
	c.metrics.ItemsStored.Add(1)
	return types.Proceed()
}

// processSections is the schedule-less fallback: segment the post body
// into sections and store each as its own item, classified by keywords.
// Segmentation is scoped to the post's content container so board chrome
// (navigation, tag lists) does not leak into section text; pages without
// one fall back to the whole body.
func (c *Crawler) processSections(ctx context.Context, doc *goquery.Document, base *url.URL, threadURL, threadID string) error {
	body := doc.Find(`[class*="content"]`).First()
	if body.Length() == 0 {
		body = doc.Find("body")
	}
	sections := segment.Split(body.Text(), c.segCfg)
	if len(sections) == 0 {
		return fmt.Errorf("thread %s: %w", threadID, types.ErrEmptyContent)
	}
	c.metrics.ItemsDiscovered.Add(int64(len(sections)))

	now := c.now()
	for _, sec := range sections {
		category := classify.Classify(sec.Title, sec.Content)

		result := c.annotator.Annotate(ctx, sec.Title, sec.Content, category)
		if result.Degraded {
			c.metrics.AnnotationsDegraded.Add(1)
		}

		news := &types.NewsItem{
			Title:          sec.Title,
			Content:        sec.Content,
			Summary:        result.Summary,
			Date:           now,
			Category:       category,
			CharacterNames: result.CharacterNames,
			OriginalURL:    threadURL,
			ThreadID:       threadID,
			ImageURL:       extract.FindImage(doc, sec.Title, base),
		}
		news.Stamp(now)

		outcome := types.Proceed()
		if err := c.store.Insert(ctx, c.cfg.ThreadCollection, news); err != nil {
			outcome = types.Skip("insert failed", &types.ItemError{Title: sec.Title, URL: threadURL, Err: err})
		} else {
			c.metrics.ItemsStored.Add(1)
		}
		if !c.record(outcome) {
			return nil
		}
		if err := c.pause(ctx); err != nil {
			return err
		}
	}
	return nil
}
