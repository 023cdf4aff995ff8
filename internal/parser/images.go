package parser

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/yarn-scraper/internal/models"
)

var (
	defaultImageSelectors = []string{
		`.product-gallery img`,
		`.product__media img`,
		`.product-images img`,
		`.woocommerce-product-gallery img`,
		`[data-zoom-image]`,
		`.product img`,
		`main img`,
	}
	imageSourceAttrs = []string{
		"data-zoom-image", "data-large_image", "data-large", "data-full", "data-src", "data-original", "src",
	}
	imageSkipMarkers = []string{
		"logo", "icon", "sprite", "placeholder", "spinner", "loading", "payment", "klarna",
		"vipps", "flag", "badge", "avatar", "pixel", "tracking", "facebook", "trustpilot", ".svg",
	}
)

// discoverImages returns the plausible product images in page order: structured data,
// og:image, then gallery elements. None is marked primary.
func (e *Extractor) discoverImages(p *page, selectors []string) []models.Image {
	var images []models.Image
	add := func(raw, alt string) {
		u := p.resolve(raw)
		if u == "" || !plausibleImageURL(u) {
			return
		}
		images = append(images, models.Image{URL: u, Alt: cleanText(alt)})
	}

	if sp := p.structured; sp != nil {
		for _, img := range sp.Images {
			add(img, sp.Name)
		}
	}
	if og := p.meta("og:image", "og:image:secure_url", "twitter:image"); og != "" {
		add(og, p.meta("og:image:alt"))
	}

	gallerySelectors := append(append([]string{}, selectors...), defaultImageSelectors...)
	for _, selector := range gallerySelectors {
		p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if tooSmall(s) {
				return
			}
			add(imageSource(s), s.AttrOr("alt", ""))
		})
	}

	images = models.DedupeImages(images)
	if e.limits.MaxImages > 0 && len(images) > e.limits.MaxImages {
		images = images[:e.limits.MaxImages]
	}
	return images
}

func imageSource(s *goquery.Selection) string {
	for _, attr := range imageSourceAttrs {
		if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return largestSrcset(s.AttrOr("srcset", s.AttrOr("data-srcset", "")))
}

// largestSrcset picks the last entry of a srcset, which shops list in ascending width.
func largestSrcset(srcset string) string {
	entries := strings.Split(srcset, ",")
	for i := len(entries) - 1; i >= 0; i-- {
		if fields := strings.Fields(entries[i]); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

func plausibleImageURL(u string) bool {
	return !containsAny(strings.ToLower(u), imageSkipMarkers)
}

func tooSmall(s *goquery.Selection) bool {
	for _, attr := range []string{"width", "height"} {
		if v, err := strconv.Atoi(strings.TrimSuffix(s.AttrOr(attr, ""), "px")); err == nil && v > 0 && v < 50 {
			return true
		}
	}
	return false
}
