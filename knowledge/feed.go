package knowledge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const maxParallelFeeds = 4

// FeedItem is one announcement from a tender feed.
type FeedItem struct {
	Title           string
	Description     string
	Link            string
	PublicationDate time.Time
}

// FeedProcessor fetches RSS and Atom feeds of tender announcements.
type FeedProcessor struct {
	newParser func() *gofeed.Parser
}

func NewFeedProcessor() *FeedProcessor {
	return &FeedProcessor{newParser: gofeed.NewParser}
}

func (fp *FeedProcessor) ParseFeedFromURL(ctx context.Context, url string) ([]*FeedItem, error) {
	feed, err := fp.newParser().ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed from URL %s: %w", url, err)
	}
	return extractItems(feed), nil
}

func (fp *FeedProcessor) ParseFeedFromString(feedContent string) ([]*FeedItem, error) {
	feed, err := fp.newParser().ParseString(feedContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed from string: %w", err)
	}
	return extractItems(feed), nil
}

func extractItems(feed *gofeed.Feed) []*FeedItem {
	items := make([]*FeedItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		fi := &FeedItem{
			Title:       strings.TrimSpace(item.Title),
			Description: strings.TrimSpace(item.Description),
			Link:        item.Link,
		}
		if fi.Description == "" {
			fi.Description = strings.TrimSpace(item.Content)
		}

		switch {
		case item.PublishedParsed != nil:
			fi.PublicationDate = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			fi.PublicationDate = *item.UpdatedParsed
		}
		items = append(items, fi)
	}
	return items
}

// Markdown renders the item as a knowledge base document.
func (fi *FeedItem) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", fi.Title)
	if !fi.PublicationDate.IsZero() {
		fmt.Fprintf(&b, "Publicat: %s\n\n", fi.PublicationDate.Format("2006-01-02"))
	}
	if fi.Link != "" {
		fmt.Fprintf(&b, "Link: %s\n\n", fi.Link)
	}
	b.WriteString(fi.Description)
	b.WriteString("\n")
	return b.String()
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// FileName derives a stable, path-safe file name for the item.
func (fi *FeedItem) FileName() string {
	slug := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(fi.Title), "-"), "-")
	if r := []rune(slug); len(r) > 60 {
		slug = strings.TrimRight(string(r[:60]), "-")
	}
	if slug == "" {
		slug = "anunt"
	}
	if !fi.PublicationDate.IsZero() {
		slug = fi.PublicationDate.Format("2006-01-02") + "-" + slug
	}
	return slug + ".md"
}

// Ingest fetches every feed, a few at a time, and stores each item as a
// markdown file. It returns the number of files written. The first failing
// feed cancels the rest. Items whose file names collide get a numeric
// suffix; exact repeats are stored once.
func (s *Store) Ingest(ctx context.Context, fp *FeedProcessor, urls []string) (int, error) {
	results := make([][]*FeedItem, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFeeds)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			items, err := fp.ParseFeedFromURL(gctx, url)
			if err != nil {
				return err
			}
			results[i] = items
			s.logger.Info("Fetched tender feed", "url", url, "items", len(items))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	written := make(map[string]string)
	for _, items := range results {
		for _, item := range items {
			content := item.Markdown()
			name, dup := uniqueName(item.FileName(), content, written)
			if dup {
				continue
			}
			if err := s.Save(name, []byte(content)); err != nil {
				return len(written), err
			}
			written[name] = content
		}
	}
	return len(written), nil
}

// uniqueName returns name, or name with a "-N" suffix when another item
// already took it in this run. dup reports that the same content was
// already written.
func uniqueName(name, content string, written map[string]string) (string, bool) {
	base := strings.TrimSuffix(name, ".md")
	for n := 2; ; n++ {
		prev, taken := written[name]
		if !taken {
			return name, false
		}
		if prev == content {
			return name, true
		}
		name = fmt.Sprintf("%s-%d.md", base, n)
	}
}
