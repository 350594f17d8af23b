package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"
)

const duckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the HTML results page, which needs no API key.
type DuckDuckGo struct {
	endpoint   string
	maxResults int
	client     *http.Client
	logger     *log.Logger
}

func NewDuckDuckGo(cfg Config) *DuckDuckGo {
	return &DuckDuckGo{
		endpoint:   duckDuckGoURL,
		maxResults: cfg.MaxResults,
		client:     cfg.HTTPClient,
		logger:     cfg.Logger,
	}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "tender-crew/1.0")

	res, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("duckduckgo request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("duckduckgo error: HTTP %d", res.StatusCode)
	}

	results, err := parseDuckDuckGo(io.LimitReader(res.Body, 2*1024*1024), d.maxResults)
	if err != nil {
		return "", fmt.Errorf("failed to parse duckduckgo results: %w", err)
	}

	d.logger.Debug("DuckDuckGo search completed", "query", query, "results", len(results))
	return formatResults(results), nil
}

// parseDuckDuckGo walks the results page. Each hit is a result__a anchor
// followed by a result__snippet element.
func parseDuckDuckGo(r io.Reader, limit int) ([]Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var results []Result
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(results) > limit {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				results = append(results, Result{
					Title: strings.TrimSpace(textContent(n)),
					Link:  resolveLink(attr(n, "href")),
				})
				return
			case hasClass(n, "result__snippet") && len(results) > 0:
				results[len(results)-1].Snippet = strings.Join(strings.Fields(textContent(n)), " ")
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

// resolveLink unwraps DuckDuckGo's redirect links (//duckduckgo.com/l/?uddg=...).
func resolveLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}
