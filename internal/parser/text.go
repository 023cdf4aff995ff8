package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var noiseSelectors = []string{
	"script", "style", "noscript", "template", "iframe", "svg", "form",
	"nav", "header", "footer", "aside",
	`[class*="cookie"]`, `[id*="cookie"]`, `[class*="newsletter"]`, `[class*="banner"]`,
	`[class*="advert"]`, `.ads`, `.ad`, `[aria-hidden="true"]`,
}

// CleanPageText returns the readable text of a page with navigation, scripts and
// advertising removed, truncated to limit runes. A limit of 0 means no truncation.
func CleanPageText(rawHTML string, limit int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	doc.Find(strings.Join(noiseSelectors, ", ")).Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	return truncateRunes(blockText(body), limit)
}
