package parser

import (
	"net/url"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/yarn-scraper/internal/models"
)

var (
	defaultColorSelectors = []string{
		`[data-color-name]`,
		`.swatch-element[data-value]`,
		`.color-swatch[title]`,
		`.swatch[data-value]`,
	}
	colorStopPhrases = []string{
		"legg i", "les mer", "se alle", "mer info", "logg inn", "handlekurv", "kjøp",
		"oppskrift", "pattern", "frakt", "gratis", "tilbud", "kontakt", "nyhet", "vis ",
	}
	colorStopWords = map[string]bool{
		"garn": true, "hjem": true, "meny": true, "sale": true, "alle": true, "mer": true,
		"neste": true, "forrige": true, "tilbake": true, "produkter": true, "nøste": true,
	}
	soldOutMarkers = []string{"sold-out", "soldout", "utsolgt", "disabled", "unavailable"}
)

// extractColors collects color variants from swatch elements and from links to sibling
// product pages of the same family.
func (e *Extractor) extractColors(p *page, productName string, selectors []string) []models.Color {
	var colors []models.Color

	swatchSelectors := append(append([]string{}, selectors...), defaultColorSelectors...)
	for _, selector := range swatchSelectors {
		p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			label := firstAttr(s, "data-color-name", "data-option-label", "data-shade-name", "data-title", "data-color", "data-value", "title", "aria-label")
			if label == "" {
				label = cleanText(s.Text())
			}
			if c, ok := e.parseColor(label, productName); ok {
				c.SKU = s.AttrOr("data-sku", "")
				c.Available = availability(s)
				colors = append(colors, c)
			}
		})
	}

	current := lastSegment(p.url.Path)
	family := slugFamily(current)
	if utf8.RuneCountInString(family) >= 2 {
		p.doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href := p.resolve(a.AttrOr("href", ""))
			if href == "" {
				return
			}
			u, err := url.Parse(href)
			if err != nil || hostName(u) != hostName(p.url) {
				return
			}
			seg := lastSegment(u.Path)
			if !isSibling(current, family, seg) {
				return
			}

			label := cleanText(a.Text())
			if label == "" {
				label = firstAttr(a, "title", "aria-label")
			}
			if label == "" {
				label = cleanText(a.Find("img").AttrOr("alt", ""))
			}
			if label == "" {
				label = strings.ReplaceAll(strings.TrimPrefix(seg, family+"-"), "-", " ")
			}
			if c, ok := e.parseColor(label, productName); ok {
				c.Available = availability(a)
				colors = append(colors, c)
			}
		})
	}

	return models.DedupeColors(colors, e.limits.MaxColors)
}

// parseColor splits a label such as "01 Natur" or "Natur (01)" into name and code.
func (e *Extractor) parseColor(label, productName string) (models.Color, bool) {
	label = cleanText(label)
	if productName != "" && len(label) > len(productName) &&
		strings.EqualFold(label[:len(productName)], productName) {
		label = strings.TrimLeft(label[len(productName):], " -–:,")
	}
	if label == "" {
		return models.Color{}, false
	}

	m := e.colorTextPattern.FindStringSubmatch(label)
	if m == nil {
		return models.Color{}, false
	}
	name := strings.Trim(m[2], " -–/'’")
	code := m[1]
	if code == "" {
		code = m[3]
	}

	n := utf8.RuneCountInString(name)
	if n < e.limits.ColorNameMinLength || n > e.limits.ColorNameMaxLength {
		return models.Color{}, false
	}
	lower := strings.ToLower(name)
	if containsAny(lower+" ", colorStopPhrases) {
		return models.Color{}, false
	}
	for _, word := range strings.Fields(lower) {
		if colorStopWords[word] {
			return models.Color{}, false
		}
	}

	return models.Color{Name: upperFirst(name), ColorCode: code}, true
}

func isSibling(current, family, candidate string) bool {
	if candidate == "" || candidate == current {
		return false
	}
	if family != current {
		return slugFamily(candidate) == family
	}
	return strings.HasPrefix(candidate, current+"-")
}

// slugFamily returns the slug tokens before the first token that carries a digit.
func slugFamily(slug string) string {
	var family []string
	for _, token := range strings.Split(slug, "-") {
		if strings.IndexFunc(token, unicode.IsDigit) >= 0 {
			break
		}
		family = append(family, token)
	}
	return strings.Join(family, "-")
}

func lastSegment(p string) string {
	seg := path.Base(strings.TrimRight(p, "/"))
	if seg == "." || seg == "/" {
		return ""
	}
	for _, ext := range []string{".html", ".htm", ".aspx", ".php"} {
		seg = strings.TrimSuffix(seg, ext)
	}
	return strings.ToLower(seg)
}

func availability(s *goquery.Selection) *bool {
	class := strings.ToLower(s.AttrOr("class", ""))
	if containsAny(class, soldOutMarkers) || s.AttrOr("aria-disabled", "") == "true" {
		available := false
		return &available
	}
	return nil
}

func firstAttr(s *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v := cleanText(s.AttrOr(name, "")); v != "" {
			return v
		}
	}
	return ""
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
