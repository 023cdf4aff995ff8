package parser

import (
	"regexp"
	"strings"
)

type brand struct {
	token     string
	canonical string
	pattern   *regexp.Regexp
}

func newBrand(token, canonical string) brand {
	return brand{
		token:     token,
		canonical: canonical,
		pattern:   regexp.MustCompile(`(?i)(?:^|[^\p{L}])` + regexp.QuoteMeta(token) + `(?:[^\p{L}]|$)`),
	}
}

// knownBrands is ordered so that longer tokens are tried before their prefixes.
var knownBrands = []brand{
	newBrand("drops design", "Drops Design"),
	newBrand("garnstudio", "Drops Design"),
	newBrand("drops", "Drops Design"),
	newBrand("sandnes garn", "Sandnes Garn"),
	newBrand("sandnes", "Sandnes Garn"),
	newBrand("rauma garn", "Rauma Garn"),
	newBrand("rauma", "Rauma Garn"),
	newBrand("dale garn", "Dale Garn"),
	newBrand("dale of norway", "Dale Garn"),
	newBrand("du store alpakka", "Du Store Alpakka"),
	newBrand("viking of norway", "Viking of Norway"),
	newBrand("viking", "Viking of Norway"),
	newBrand("gjestal", "Gjestal Garn"),
	newBrand("hobbii", "Hobbii"),
	newBrand("filcolana", "Filcolana"),
	newBrand("isager", "Isager"),
	newBrand("permin", "Permin"),
	newBrand("lang yarns", "Lang Yarns"),
	newBrand("lana grossa", "Lana Grossa"),
	newBrand("schachenmayr", "Schachenmayr"),
	newBrand("rowan", "Rowan"),
	newBrand("katia", "Katia"),
	newBrand("scheepjes", "Scheepjes"),
	newBrand("hjertegarn", "Hjertegarn"),
	newBrand("pickles", "Pickles"),
	newBrand("cewec", "CeWeC"),
	newBrand("mayflower", "Mayflower"),
	newBrand("knitting for olive", "Knitting for Olive"),
	newBrand("biches & bûches", "Biches & Bûches"),
	newBrand("dale", "Dale Garn"),
}

// CanonicalProducer maps a brand token to its producer name, e.g. "DROPS" to "Drops Design".
// Unknown names come back cleaned but otherwise unchanged.
func CanonicalProducer(name string) string {
	name = strings.Trim(cleanText(name), " .,:;-|")
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)
	for _, b := range knownBrands {
		if lower == b.token || strings.HasPrefix(lower, b.token+" ") {
			return b.canonical
		}
	}
	return name
}

// brandInText returns the canonical producer of the first known brand named in text.
func brandInText(text string) string {
	for _, b := range knownBrands {
		if b.pattern.MatchString(text) {
			return b.canonical
		}
	}
	return ""
}

var defaultBrandSelectors = []string{
	`[itemprop="brand"] [itemprop="name"]`,
	`[itemprop="brand"]`,
	`meta[property="product:brand"]`,
	`.product-brand`,
	`.product__vendor`,
	`.product-vendor`,
	`.brand`,
	`.vendor`,
}

// extractProducer falls back through structured data, labelled text, brand elements
// and finally known brand names in the product name.
func (e *Extractor) extractProducer(p *page, productName, description string, selectors []string) string {
	if sp := p.structured; sp != nil && sp.Brand != "" {
		return CanonicalProducer(sp.Brand)
	}

	for _, text := range []string{description, p.text} {
		for _, pattern := range e.producerPatterns {
			if m := pattern.FindStringSubmatch(text); m != nil {
				if producer := CanonicalProducer(m[1]); len([]rune(producer)) >= 2 {
					return producer
				}
			}
		}
		for _, m := range e.byPattern.FindAllStringSubmatch(text, -1) {
			if producer := brandInText(m[1]); producer != "" {
				return producer
			}
		}
	}

	brandSelectors := append(append([]string{}, selectors...), defaultBrandSelectors...)
	for _, selector := range brandSelectors {
		sel := p.doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		value, ok := sel.Attr("content")
		if !ok {
			value = sel.AttrOr("data-brand", "")
		}
		if value == "" {
			value = sel.Text()
		}
		if producer := CanonicalProducer(value); producer != "" && len([]rune(producer)) <= 40 {
			return producer
		}
	}

	return brandInText(productName)
}
