package crawler

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gamewatch/gamewatch/internal/annotate"
	"github.com/gamewatch/gamewatch/internal/classify"
	"github.com/gamewatch/gamewatch/internal/types"
)

const (
	listingItemSelector = "article.news_con dl dd"
	nextPageSelector    = `div.paging a[title="下一頁"]`
	articleSelector     = "article.news_con"
)

var listingDateRe = regexp.MustCompile(`(\d{4})\.(\d{2})\.(\d{2})`)

// CrawlListing walks the paginated news index. Incremental mode stops at
// the first item that is already stored; full mode visits every page and
// relies on insert-time dedup.
func (c *Crawler) CrawlListing(ctx context.Context) error {
	base, err := url.Parse(c.cfg.ListingURL)
	if err != nil {
		return fmt.Errorf("listing url: %w", err)
	}

	for pageNum := 1; ; pageNum++ {
		pageURL := fmt.Sprintf("%s?page=%d", c.cfg.ListingURL, pageNum)
		c.logger.Info("visiting listing page", "url", pageURL)

		if err := c.navigate(ctx, pageURL); err != nil {
			return err
		}
		html, err := c.page.HTML(ctx)
		if err != nil {
			return err
		}

		items, hasNext, err := parseListing(html, base)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			c.logger.Info("empty listing page, crawl done", "page", pageNum)
			return nil
		}
		c.metrics.ItemsDiscovered.Add(int64(len(items)))

		for _, item := range items {
			outcome, err := c.routeListingItem(ctx, item)
			if err != nil {
				return err
			}
			if !c.record(outcome) {
				return nil
			}
		}

		if !hasNext {
			c.logger.Info("no next-page control, crawl done", "page", pageNum)
			return nil
		}
	}
}

// routeListingItem applies the exclusion filters and dedup policy, then
// processes the item. Only context failures return an error; everything
// local folds into the outcome.
func (c *Crawler) routeListingItem(ctx context.Context, item types.ListingItem) (types.Outcome, error) {
	if classify.IsBlockedTitle(item.Title) {
		c.metrics.ItemsExcluded.Add(1)
		return types.Skip("title blocklisted", nil), nil
	}

	isUpdate := classify.IsUpdateTitle(item.Title)
	collection := c.cfg.NewsCollection
	if isUpdate {
		collection = c.cfg.UpdatesCollection
	}

	// The incremental stop has to fire on the dedup check even for items
	// the category gate below would drop, or the stop point drifts with
	// the gate's tuning.
	exists, err := c.store.ExistsByURL(ctx, collection, item.URL)
	if err != nil {
		return types.Skip("existence check failed", err), nil
	}
	if exists {
		if c.cfg.Mode == ModeFull {
			return types.Skip("already stored", nil), nil
		}
		return types.AbortRun("reached already-stored item"), nil
	}

	if !isUpdate && !classify.IsIncludedCategory(item.Category) {
		c.metrics.ItemsExcluded.Add(1)
		return types.Skip("category not included", nil), nil
	}

	if err := ctx.Err(); err != nil {
		return types.Outcome{}, err
	}

	outcome := c.processListingItem(ctx, item, collection)
	if err := c.pause(ctx); err != nil {
		return types.Outcome{}, err
	}
	return outcome, nil
}

// processListingItem fetches the detail page, summarizes it and stores the
// result. Failures skip the item; siblings keep going.
func (c *Crawler) processListingItem(ctx context.Context, item types.ListingItem, collection string) types.Outcome {
	c.logger.Info("processing item", "title", item.Title, "collection", collection)

	if err := c.navigate(ctx, item.URL); err != nil {
		return types.Skip("detail navigation failed", &types.ItemError{Title: item.Title, URL: item.URL, Err: err})
	}
	html, err := c.page.HTML(ctx)
	if err != nil {
		return types.Skip("detail read failed", &types.ItemError{Title: item.Title, URL: item.URL, Err: err})
	}

	content, imageURL, err := parseListingDetail(html, item.URL)
	if err != nil {
		return types.Skip("detail parse failed", &types.ItemError{Title: item.Title, URL: item.URL, Err: err})
	}
	if content == "" {
		return types.Skip("empty content", &types.ItemError{Title: item.Title, URL: item.URL, Err: types.ErrEmptyContent})
	}

	result := c.annotator.Summarize(ctx, item.Title, content)
	if result.Degraded {
		c.metrics.AnnotationsDegraded.Add(1)
	}
	start, end := annotate.ExtractEventDates(result.Summary)

	news := &types.NewsItem{
		Title:          item.Title,
		Content:        content,
		Summary:        result.Summary,
		Date:           item.Date,
		StartDate:      start,
		EndDate:        end,
		Category:       classify.DetermineListingCategory(item.Title),
		CharacterNames: result.CharacterNames,
		OriginalURL:    item.URL,
		ImageURL:       imageURL,
	}
	news.Stamp(c.now())

	if err := c.store.Insert(ctx, collection, news); err != nil {
		return types.Skip("insert failed", &types.ItemError{Title: item.Title, URL: item.URL, Err: err})
	}
	c.metrics.ItemsStored.Add(1)
	return types.Proceed()
}

// parseListing extracts the item rows from a listing page. Each dd holds
// the link; its preceding dt carries the date and category tag. Rows with
// any field missing are dropped. hasNext reports whether the 「下一頁」
// control is present.
func parseListing(html string, base *url.URL) ([]types.ListingItem, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false, err
	}

	var items []types.ListingItem
	doc.Find(listingItemSelector).Each(func(_ int, dd *goquery.Selection) {
		dt := dd.Prev()
		if goquery.NodeName(dt) != "dt" {
			return
		}

		link := dd.Find("a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		category := strings.TrimSpace(dt.Find("span").First().Text())

		m := listingDateRe.FindStringSubmatch(dt.Text())
		if href == "" || title == "" || category == "" || m == nil {
			return
		}

		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])

		itemURL := href
		if ref, err := url.Parse(href); err == nil {
			itemURL = base.ResolveReference(ref).String()
		}

		items = append(items, types.ListingItem{
			Title:    title,
			URL:      itemURL,
			Date:     time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
			Category: category,
		})
	})

	return items, doc.Find(nextPageSelector).Length() > 0, nil
}

// parseListingDetail pulls the article text and its first image from a
// detail page.
func parseListingDetail(html, pageURL string) (content, imageURL string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	article := doc.Find(articleSelector).First()
	if article.Length() == 0 {
		return "", "", nil
	}

	content = strings.TrimSpace(article.Text())

	if src, ok := article.Find("img").First().Attr("src"); ok {
		imageURL = src
		if base, err := url.Parse(pageURL); err == nil {
			if ref, err := url.Parse(src); err == nil {
				imageURL = base.ResolveReference(ref).String()
			}
		}
	}
	return content, imageURL, nil
}
