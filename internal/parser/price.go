package parser

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// amountPattern matches "189", "89,90", "1 299" and "1.299,00". Grouped thousands come
// first so a grouped amount is never read as its last group.
const amountPattern = `\d{1,3}(?:[ \x{00A0}.]\d{3})+(?:,\d{1,2})?|\d{1,5}(?:[.,]\d{1,2})?`

var groupedAmount = regexp.MustCompile(`^\d{1,3}(?:[ \x{00A0}.]\d{3})+(?:,\d{1,2})?$`)

var (
	defaultPriceSelectors = []string{
		`[itemprop="price"]`,
		`meta[property="product:price:amount"]`,
		`.product-price .price`,
		`.price--sale`,
		`.product__price`,
		`.product-price`,
		`.price`,
	}
	defaultOriginalPriceSelectors = []string{
		`.price--compare`,
		`.compare-at-price`,
		`.old-price`,
		`.was-price`,
		`.price del`,
		`.price s`,
		`del .amount`,
	}
)

type priceCandidate struct {
	value float64
	start int
}

// priceCandidates returns every plausible currency amount in text, in document order.
// Amounts whose surrounding text mentions shipping or delivery are dropped.
func (e *Extractor) priceCandidates(text string) []priceCandidate {
	taken := make(map[int]bool)
	var out []priceCandidate
	for _, pattern := range e.pricePatterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			numStart, numEnd := loc[2], loc[3]
			if taken[numStart] {
				continue
			}
			if numStart > 0 && isDigit(text[numStart-1]) {
				continue
			}
			if followsDigitGroup(text[:numStart]) {
				continue
			}
			if numEnd < len(text) && isDigit(text[numEnd]) {
				continue
			}
			v, ok := parseAmount(text[numStart:numEnd])
			if !ok || !e.limits.plausiblePrice(v) {
				continue
			}
			if e.shippingContext(text, loc[0], loc[1]) {
				continue
			}
			taken[numStart] = true
			out = append(out, priceCandidate{value: v, start: numStart})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// shippingContext looks at the same line around a match for shipping vocabulary.
func (e *Extractor) shippingContext(text string, start, end int) bool {
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := len(text)
	if i := strings.IndexByte(text[end:], '\n'); i >= 0 {
		lineEnd = end + i
	}
	from := max(lineStart, start-40)
	to := min(lineEnd, end+20)
	return containsAny(strings.ToLower(text[from:to]), e.shippingTerms)
}

// rankPrices picks the most frequent candidate. Ties go to the larger value.
func rankPrices(candidates []priceCandidate) (float64, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	counts := make(map[float64]int, len(candidates))
	for _, c := range candidates {
		counts[c.value]++
	}
	best := candidates[0].value
	for v, n := range counts {
		if n > counts[best] || (n == counts[best] && v > best) {
			best = v
		}
	}
	return best, true
}

const compareAtSelector = "del, s, .price--compare, .compare-at-price, .old-price, .was-price"

// selectorPrices reads amounts from the first selector that yields any. Unless compareAt
// is set, struck-through and compare-at prices are ignored.
func (e *Extractor) selectorPrices(p *page, selectors []string, compareAt bool) []priceCandidate {
	var out []priceCandidate
	for _, selector := range selectors {
		p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if !compareAt && (s.Is(compareAtSelector) || s.ParentsFiltered(compareAtSelector).Length() > 0) {
				return
			}
			if content, ok := s.Attr("content"); ok {
				if v, ok := parseDecimal(content); ok && e.limits.plausiblePrice(v) {
					out = append(out, priceCandidate{value: v})
				}
				return
			}
			current := s.Clone()
			if !compareAt {
				current.Find(compareAtSelector).Remove()
			}
			text := cleanText(blockText(current))
			found := e.priceCandidates(text)
			if len(found) == 0 {
				bare := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(strings.ToLower(text)), "kr"))
				if v, ok := parseAmount(bare); ok && e.limits.plausiblePrice(v) {
					found = append(found, priceCandidate{value: v})
				}
			}
			out = append(out, found...)
		})
		if len(out) > 0 {
			return out
		}
	}
	return out
}

// extractPrice tries structured data, then price selectors, then the page text.
func (e *Extractor) extractPrice(p *page, selectors []string) (float64, bool) {
	if sp := p.structured; sp != nil && sp.Price != nil && e.limits.plausiblePrice(*sp.Price) {
		return *sp.Price, true
	}
	if v, ok := rankPrices(e.selectorPrices(p, selectors, false)); ok {
		return v, true
	}
	return rankPrices(e.priceCandidates(p.text))
}

// extractOriginalPrice returns a compare-at price only when it exceeds price.
func (e *Extractor) extractOriginalPrice(p *page, selectors []string, price float64) (float64, bool) {
	for _, c := range e.selectorPrices(p, selectors, true) {
		if c.value > price {
			return c.value, true
		}
	}
	return 0, false
}

// firstPrice returns the first plausible amount in document order.
func (e *Extractor) firstPrice(text string) (float64, bool) {
	candidates := e.priceCandidates(text)
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[0].value, true
}

func (e *Extractor) currency(p *page) string {
	if sp := p.structured; sp != nil && sp.Currency != "" {
		return sp.Currency
	}
	if e.currencyPattern.MatchString(p.text) {
		return "NOK"
	}
	return ""
}

// parseAmount reads a displayed price. Dot-grouped thousands such as "1.299" are
// thousands, not decimals.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ",-")
	s = strings.TrimSuffix(s, ".-")
	if groupedAmount.MatchString(s) {
		s = strings.NewReplacer(" ", "", "\u00a0", "", ".", "").Replace(s)
	}
	return parseDecimal(s)
}

// ParsePrice reads an amount as it appears on a page, with or without a kr/NOK marker.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, marker := range []string{"nok", "kr.", "kr"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, marker))
		s = strings.TrimSpace(strings.TrimSuffix(s, marker))
	}
	if s == "" {
		return 0, false
	}
	return parseAmount(s)
}

// followsDigitGroup reports whether before ends with a digit and a group separator,
// meaning a match starting here is the tail of a larger number.
func followsDigitGroup(before string) bool {
	sep, size := utf8.DecodeLastRuneInString(before)
	if sep != ' ' && sep != '\u00a0' && sep != '.' {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(before[:len(before)-size])
	return unicode.IsDigit(prev)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
