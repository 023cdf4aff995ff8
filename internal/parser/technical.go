package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// technical holds the yarn-specific fields read from free text.
type technical struct {
	Composition      string
	Weight           string
	WeightCategory   string
	Yardage          string
	NeedleSize       string
	Gauge            string
	CareInstructions string
}

// extractTechnical scans sources in order. Each field keeps the first plausible match.
func (e *Extractor) extractTechnical(sources ...string) technical {
	var t technical
	for _, text := range sources {
		if text == "" {
			continue
		}
		if t.Weight == "" || t.Yardage == "" {
			w, y := e.weightAndYardage(text)
			if t.Weight == "" {
				t.Weight = w
			}
			if t.Yardage == "" {
				t.Yardage = y
			}
		}
		if t.Composition == "" {
			t.Composition = e.composition(text)
		}
		if t.NeedleSize == "" {
			t.NeedleSize = e.needleSize(text)
		}
		if t.Gauge == "" {
			t.Gauge = e.gauge(text)
		}
		if t.CareInstructions == "" {
			t.CareInstructions = e.careInstructions(text)
		}
		if t.WeightCategory == "" {
			t.WeightCategory = e.weightCategory(text)
		}
	}
	return t
}

func (e *Extractor) plausibleWeight(v int) bool {
	return v >= e.limits.WeightMinGrams && v <= e.limits.WeightMaxGrams
}

func (e *Extractor) plausibleYardage(v int) bool {
	return v >= e.limits.YardageMinMeters && v <= e.limits.YardageMaxMeters
}

func (e *Extractor) weightAndYardage(text string) (weight, yardage string) {
	for i, pattern := range e.weightYardagePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			g, m1 := atoi(m[1]), atoi(m[2])
			if i == 1 {
				g, m1 = m1, g
			}
			if e.plausibleWeight(g) && e.plausibleYardage(m1) {
				return fmt.Sprintf("%dg", g), fmt.Sprintf("%dm", m1)
			}
		}
	}

	for _, pattern := range e.weightPatterns {
		if weight = firstInt(pattern, text, e.plausibleWeight); weight != "" {
			weight += "g"
			break
		}
	}
	for _, pattern := range e.yardagePatterns {
		if yardage = firstInt(pattern, text, e.plausibleYardage); yardage != "" {
			yardage += "m"
			break
		}
	}
	return weight, yardage
}

// firstInt returns the first integer capture of pattern accepted by ok. Matches that are
// the stitch half of a gauge ("22 m x 30 p") are skipped.
func firstInt(pattern *regexp.Regexp, text string, ok func(int) bool) string {
	for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
		if isGaugeTail(text[loc[1]:]) {
			continue
		}
		v := atoi(text[loc[2]:loc[3]])
		if ok(v) {
			return strconv.Itoa(v)
		}
	}
	return ""
}

func isGaugeTail(rest string) bool {
	rest = strings.TrimLeft(rest, " \t")
	return strings.HasPrefix(rest, "x ") || strings.HasPrefix(rest, "×") ||
		strings.HasPrefix(rest, "X ") || strings.HasPrefix(rest, "og ")
}

func (e *Extractor) needleSize(text string) string {
	for _, pattern := range e.needlePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			from, ok := parseDecimal(m[1])
			if !ok || from < e.limits.NeedleMinMM || from > e.limits.NeedleMaxMM {
				continue
			}
			if m[2] == "" {
				return formatNumber(from) + "mm"
			}
			to, ok := parseDecimal(m[2])
			if !ok || to <= from || to > e.limits.NeedleMaxMM {
				return formatNumber(from) + "mm"
			}
			return formatNumber(from) + "-" + formatNumber(to) + "mm"
		}
	}
	return ""
}

func (e *Extractor) gauge(text string) string {
	for _, pattern := range e.gaugePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			stitches, rows := atoi(m[1]), atoi(m[2])
			if stitches < 5 || stitches > 60 || rows < 5 || rows > 90 {
				continue
			}
			return fmt.Sprintf("%d m x %d p = 10 cm", stitches, rows)
		}
	}
	return ""
}

var careVocabulary = []string{
	"vask", "wash", "tørk", "tørr", "dry", "rens", "klor", "bleach", "stryk", "iron", "°",
}

func (e *Extractor) careInstructions(text string) string {
	for _, pattern := range e.carePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			care := strings.Trim(cleanText(m[1]), " .,;:")
			if care == "" || !containsAny(strings.ToLower(care), careVocabulary) {
				continue
			}
			return truncateRunes(care, e.limits.CareMaxLength)
		}
	}
	return ""
}

var weightCategoryNames = map[string]string{
	"lace":         "Lace",
	"fingering":    "Fingering",
	"sport":        "Sport",
	"dk":           "DK",
	"worsted":      "Worsted",
	"aran":         "Aran",
	"bulky":        "Bulky",
	"chunky":       "Chunky",
	"super bulky":  "Super Bulky",
	"super chunky": "Super Chunky",
	"tynt":         "Tynt",
	"medium":       "Medium",
	"tykt":         "Tykt",
	"ekstra tykt":  "Ekstra tykt",
}

func (e *Extractor) weightCategory(text string) string {
	for i, pattern := range e.categoryPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if i == 0 {
			return "Garngruppe " + strings.ToUpper(m[1])
		}
		if name, ok := weightCategoryNames[strings.ToLower(cleanText(m[1]))]; ok {
			return name
		}
	}
	return ""
}

// composition finds a run of "N% fiber" items on one line that adds up to roughly 100%.
func (e *Extractor) composition(text string) string {
	for _, line := range strings.Split(text, "\n") {
		matches := e.compositionPattern.FindAllStringSubmatchIndex(line, -1)
		var parts []string
		var total float64
		prevEnd := -1
		for _, loc := range matches {
			if prevEnd >= 0 && !isListSeparator(line[prevEnd:loc[0]]) {
				parts, total = nil, 0
			}
			pct, ok := parseDecimal(line[loc[2]:loc[3]])
			prevEnd = loc[1]
			if !ok || pct <= 0 || pct > 100 {
				parts, total = nil, 0
				continue
			}
			fiber := line[loc[4]:loc[5]]
			parts = append(parts, formatNumber(pct)+"% "+fiber)
			total += pct
			if total >= 95 && total <= 105 {
				return strings.Join(parts, ", ")
			}
			if total > 105 {
				parts, total = nil, 0
			}
		}
	}
	return ""
}

func isListSeparator(gap string) bool {
	gap = strings.ToLower(strings.TrimSpace(gap))
	switch gap {
	case "", ",", "/", "+", "&", "-", "og", "and", ";":
		return true
	}
	return false
}

func atoi(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:limit]))
}
