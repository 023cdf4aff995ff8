package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// page is a parsed product page with the text views the extractors work on.
type page struct {
	doc        *goquery.Document
	url        *url.URL
	text       string
	structured *structuredProduct
}

var (
	skipTags = map[string]bool{
		"script": true, "style": true, "noscript": true, "template": true,
		"svg": true, "iframe": true, "head": true,
	}
	blockTags = map[string]bool{
		"p": true, "div": true, "li": true, "ul": true, "ol": true, "tr": true,
		"td": true, "th": true, "table": true, "section": true, "article": true,
		"header": true, "footer": true, "nav": true, "aside": true, "main": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"dt": true, "dd": true, "dl": true, "form": true, "option": true,
		"figure": true, "figcaption": true, "blockquote": true, "label": true,
	}
	inlineSpace = regexp.MustCompile(`[ \t\f\r\x{00a0}\x{2009}\x{202f}]+`)
	anySpace    = regexp.MustCompile(`\s+`)
)

func loadPage(rawHTML, pageURL string) (*page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page URL: %w", err)
	}

	p := &page{
		doc:        doc,
		url:        u,
		structured: readStructuredProduct(doc),
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	p.text = blockText(body)

	return p, nil
}

// blockText renders the visible text of sel with one line per block element.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if skipTags[n.Data] {
				return
			}
			if n.Data == "br" {
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			b.WriteByte('\n')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return normalizeLines(b.String())
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func cleanText(s string) string {
	return strings.TrimSpace(anySpace.ReplaceAllString(s, " "))
}

// firstText returns the cleaned text of the first non-empty match among selectors.
func (p *page) firstText(selectors []string) string {
	for _, selector := range selectors {
		var found string
		p.doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = cleanText(blockText(s))
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// joinedText concatenates the block text of every match of selectors.
func (p *page) joinedText(selectors []string) string {
	var parts []string
	for _, selector := range selectors {
		p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if t := blockText(s); t != "" {
				parts = append(parts, t)
			}
		})
	}
	return strings.Join(parts, "\n")
}

func (p *page) meta(names ...string) string {
	for _, name := range names {
		selector := fmt.Sprintf(`meta[property="%s"], meta[name="%s"], meta[itemprop="%s"]`, name, name, name)
		if content, ok := p.doc.Find(selector).First().Attr("content"); ok {
			if content = cleanText(content); content != "" {
				return content
			}
		}
	}
	return ""
}

func (p *page) title() string {
	return cleanText(p.doc.Find("title").First().Text())
}

// resolve turns href into an absolute URL against the page URL.
func (p *page) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "data:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "#") {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = p.url.Scheme + ":" + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := p.url.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

// hostName strips a leading www. from the host of u.
func hostName(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
