package parser

import (
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	certificationTerms = []struct {
		term  string
		label string
	}{
		{"oeko-tex", "OEKO-TEX"},
		{"oeko tex", "OEKO-TEX"},
		{"öko-tex", "OEKO-TEX"},
		{"gots", "GOTS"},
		{"global organic textile", "GOTS"},
		{"responsible wool standard", "RWS"},
		{"rws", "RWS"},
		{"mulesing-fri", "Mulesing-fri"},
		{"mulesingfri", "Mulesing-fri"},
		{"mulesing free", "Mulesing-fri"},
		{"mulesing-free", "Mulesing-fri"},
		{"svanemerket", "Svanemerket"},
		{"bluesign", "bluesign"},
		{"eu ecolabel", "EU Ecolabel"},
		{"fsc", "FSC"},
	}
	availabilityTerms = []struct {
		term  string
		label string
	}{
		{"ikke på lager", "Utsolgt"},
		{"utsolgt", "Utsolgt"},
		{"out of stock", "Utsolgt"},
		{"sold out", "Utsolgt"},
		{"få igjen", "Få på lager"},
		{"bestillingsvare", "Bestillingsvare"},
		{"forhåndsbestill", "Bestillingsvare"},
		{"på lager", "På lager"},
		{"in stock", "På lager"},
	}
	patternLinkTerms = []string{"oppskrift", "opskrift", "pattern", "mønster", "strikkeoppskrift"}

	defaultNameSelectors        = []string{"h1.product-title", "h1.product__title", "h1", ".product-title", ".product-name"}
	defaultDescriptionSelectors = []string{
		`[itemprop="description"]`,
		`.product-description`,
		`.product__description`,
		`.woocommerce-product-details__short-description`,
		`#tab-description`,
	}
	defaultSpecSelectors = []string{
		`.product-specs`,
		`.product-specifications`,
		`.product-attributes`,
		`.woocommerce-product-attributes`,
		`table.specifications`,
		`#tab-additional_information`,
	}
)

func (e *Extractor) extractName(p *page, selectors []string) string {
	if sp := p.structured; sp != nil && sp.Name != "" {
		return sp.Name
	}
	nameSelectors := append(append([]string{}, selectors...), defaultNameSelectors...)
	if name := p.firstText(nameSelectors); name != "" {
		return name
	}
	if name := p.meta("og:title", "twitter:title"); name != "" {
		return name
	}
	return stripSiteSuffix(p.title(), p.url)
}

var titleSeparators = []string{" | ", " – ", " - ", " :: "}

// stripSiteSuffix removes one trailing site segment from a <title>, as in
// "Drops Air | Garnius". The tail is only dropped when it names the shop's host, or
// when it follows a pipe and is at most three words.
func stripSiteSuffix(title string, u *url.URL) string {
	title = strings.TrimSpace(title)
	cut, sep := -1, ""
	for _, s := range titleSeparators {
		if i := strings.LastIndex(title, s); i > cut {
			cut, sep = i, s
		}
	}
	if cut <= 0 {
		return title
	}

	tail := strings.TrimSpace(title[cut+len(sep):])
	if namesHost(tail, u) || (sep == " | " && len(strings.Fields(tail)) <= 3) {
		return strings.TrimSpace(title[:cut])
	}
	return title
}

// namesHost reports whether text is the shop name the host is built from, e.g.
// "Garnius" or "Garnius.no" for www.garnius.no.
func namesHost(text string, u *url.URL) bool {
	if u == nil {
		return false
	}
	label := hostName(u)
	if i := strings.LastIndexByte(label, '.'); i > 0 {
		label = label[:i]
	}
	label = alnumKey(label)
	key := alnumKey(text)
	if len(label) < 3 || len(key) < 3 {
		return false
	}
	return strings.Contains(key, label) || strings.Contains(label, key)
}

func alnumKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

func (e *Extractor) extractDescription(p *page, selectors []string) string {
	descSelectors := append(append([]string{}, selectors...), defaultDescriptionSelectors...)
	for _, selector := range descSelectors {
		if text := p.joinedText([]string{selector}); text != "" {
			return text
		}
	}
	if sp := p.structured; sp != nil && sp.Description != "" {
		return sp.Description
	}
	return p.meta("og:description", "description")
}

func (e *Extractor) specificationText(p *page, selectors []string) string {
	return p.joinedText(append(append([]string{}, selectors...), defaultSpecSelectors...))
}

func (e *Extractor) extractCertifications(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, c := range certificationTerms {
		if containsWord(lower, c.term) {
			out = append(out, c.label)
		}
	}
	return out
}

func (e *Extractor) extractAvailability(p *page) string {
	if sp := p.structured; sp != nil && sp.Availability != "" {
		return sp.Availability
	}
	if link, ok := p.doc.Find(`[itemprop="availability"]`).First().Attr("href"); ok {
		if label := availabilityLabel(link); label != "" {
			return label
		}
	}
	if content := p.meta("availability", "product:availability"); content != "" {
		if label := availabilityLabel(strings.ReplaceAll(content, " ", "")); label != "" {
			return label
		}
	}
	lower := strings.ToLower(p.text)
	for _, a := range availabilityTerms {
		if strings.Contains(lower, a.term) {
			return a.label
		}
	}
	return ""
}

func (e *Extractor) extractCountry(sources ...string) string {
	for _, text := range sources {
		for _, pattern := range e.countryPatterns {
			if m := pattern.FindStringSubmatch(text); m != nil {
				return upperFirst(strings.TrimSpace(m[1]))
			}
		}
	}
	return ""
}

func (e *Extractor) extractDeliveryInfo(text string) string {
	for _, m := range e.deliveryPattern.FindAllStringSubmatch(text, -1) {
		info := strings.Trim(cleanText(m[1]), " .,;:")
		if utf8.RuneCountInString(info) >= 10 {
			return truncateRunes(info, 120)
		}
	}
	return ""
}

func (e *Extractor) extractSKU(p *page) string {
	if sp := p.structured; sp != nil && sp.SKU != "" {
		return sp.SKU
	}
	sel := p.doc.Find(`[itemprop="sku"]`).First()
	if sku := firstAttr(sel, "content"); sku != "" {
		return sku
	}
	if sku := cleanText(sel.Text()); sku != "" {
		return sku
	}
	for _, pattern := range e.skuPatterns {
		if m := pattern.FindStringSubmatch(p.text); m != nil {
			return strings.TrimRight(m[1], ".")
		}
	}
	return ""
}

func (e *Extractor) extractRating(p *page) (*float64, *int) {
	var rating *float64
	var count *int
	if sp := p.structured; sp != nil {
		rating, count = sp.Rating, sp.ReviewCount
	}
	if rating == nil {
		sel := p.doc.Find(`[itemprop="ratingValue"]`).First()
		value := firstAttr(sel, "content")
		if value == "" {
			value = cleanText(sel.Text())
		}
		if v, ok := parseDecimal(value); ok {
			rating = &v
		}
	}
	if rating != nil && (*rating < 0 || *rating > 5) {
		rating = nil
	}

	if count == nil {
		sel := p.doc.Find(`[itemprop="reviewCount"], [itemprop="ratingCount"]`).First()
		value := firstAttr(sel, "content")
		if value == "" {
			value = cleanText(sel.Text())
		}
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			count = &n
		} else if m := e.reviewPattern.FindStringSubmatch(p.text); m != nil {
			n := atoi(m[1])
			count = &n
		}
	}
	return rating, count
}

// extractSpecifications reads key/value rows from spec tables and definition lists.
func (e *Extractor) extractSpecifications(p *page) map[string]string {
	specs := make(map[string]string)
	add := func(key, value string) {
		key = strings.Trim(cleanText(key), " :")
		value = cleanText(value)
		if key == "" || value == "" || len(specs) >= e.limits.MaxSpecifications {
			return
		}
		if utf8.RuneCountInString(key) > e.limits.SpecKeyMaxLength ||
			utf8.RuneCountInString(value) > e.limits.SpecValueMaxLength {
			return
		}
		if _, exists := specs[key]; !exists {
			specs[key] = value
		}
	}

	p.doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() != 2 {
			return
		}
		add(cells.Eq(0).Text(), cells.Eq(1).Text())
	})
	p.doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		dl.Find("dt").Each(func(_ int, dt *goquery.Selection) {
			add(dt.Text(), dt.NextFiltered("dd").Text())
		})
	})

	if len(specs) == 0 {
		return nil
	}
	return specs
}

// extractRelatedPatterns collects links that point at knitting patterns.
func (e *Extractor) extractRelatedPatterns(p *page) []string {
	var patterns []string
	seen := map[string]bool{p.url.String(): true}
	p.doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := p.resolve(a.AttrOr("href", ""))
		if href == "" || seen[href] {
			return true
		}
		u, err := url.Parse(href)
		if err != nil || strings.Trim(u.Path, "/") == "" {
			return true
		}
		haystack := strings.ToLower(u.Path + " " + a.Text())
		if !containsAny(haystack, patternLinkTerms) {
			return true
		}
		seen[href] = true
		patterns = append(patterns, href)
		return len(patterns) < e.limits.MaxRelatedPatterns
	})
	return patterns
}

// containsWord reports whether term occurs in s with non-letter characters around it.
func containsWord(s, term string) bool {
	for offset := 0; ; {
		i := strings.Index(s[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if !isLetter(before) && !isLetter(after) {
			return true
		}
		offset = start + 1
	}
}

func isLetter(r rune) bool {
	return r != utf8.RuneError && unicode.IsLetter(r)
}
