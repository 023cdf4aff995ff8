package parser

import (
	"regexp"
)

// Extractor runs the shared heuristic field extraction. Each field has an ordered list
// of patterns; the first match that passes the field's plausibility check wins.
type Extractor struct {
	limits Limits

	weightYardagePatterns []*regexp.Regexp
	weightPatterns        []*regexp.Regexp
	yardagePatterns       []*regexp.Regexp
	needlePatterns        []*regexp.Regexp
	gaugePatterns         []*regexp.Regexp
	carePatterns          []*regexp.Regexp
	categoryPatterns      []*regexp.Regexp
	compositionPattern    *regexp.Regexp

	pricePatterns    []*regexp.Regexp
	currencyPattern  *regexp.Regexp
	shippingTerms    []string
	producerPatterns []*regexp.Regexp
	byPattern        *regexp.Regexp

	skuPatterns      []*regexp.Regexp
	countryPatterns  []*regexp.Regexp
	deliveryPattern  *regexp.Regexp
	reviewPattern    *regexp.Regexp
	colorTextPattern *regexp.Regexp
}

func NewExtractor(limits Limits) *Extractor {
	return &Extractor{
		limits: limits,
		weightYardagePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:ca\.?\s*)?(\d{2,4})\s*(?:g|gr|gram)\b\.?\s*(?:=|/|:|-|–|tilsvarer|gir|er)?\s*(?:ca\.?\s*)?(\d{2,4})\s*(?:m|meter)\b`),
			regexp.MustCompile(`(?i)(\d{2,4})\s*(?:m|meter)\b\.?\s*(?:pr\.?|per|på|/)\s*(\d{2,4})\s*(?:g|gr|gram)\b`),
		},
		weightPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:nøstevekt|vekt|weight)\s*:?\s*(?:ca\.?\s*)?(\d{2,4})\s*(?:g|gr|gram)\b`),
			regexp.MustCompile(`(?i)(\d{2,4})\s*(?:g|gr|gram)\s*(?:nøste|per nøste|pr\.? nøste|/\s*nøste)`),
			regexp.MustCompile(`(?i)\b(\d{2,4})\s*(?:g|gr|gram)\b`),
		},
		yardagePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:løpelengde|lengde|meterlengde|yardage)\s*:?\s*(?:ca\.?\s*)?(\d{2,4})\s*(?:m|meter)\b`),
			regexp.MustCompile(`(?i)(\d{2,4})\s*(?:m|meter)\s*(?:per|pr\.?|/)\s*(?:nøste|\d{2,4}\s*g)`),
			regexp.MustCompile(`(?i)\b(\d{2,4})\s*(?:m|meter)\b`),
		},
		needlePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:anbefalt(?:e)?\s+)?(?:pinnestørrelse|pinner|pinne|heklenål|needle size|needles?)\s*(?:nr\.?|str\.?)?\s*:?\s*(\d{1,2}(?:[.,]\d{1,2})?)(?:\s*(?:-|–|til)\s*(\d{1,2}(?:[.,]\d{1,2})?))?\s*mm`),
			regexp.MustCompile(`(?i)(\d{1,2}(?:[.,]\d{1,2})?)(?:\s*(?:-|–)\s*(\d{1,2}(?:[.,]\d{1,2})?))?\s*mm\s*(?:pinner|pinne|rundpinne|strikkepinner|heklenål)`),
		},
		gaugePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d{1,2})\s*(?:m|masker|st|sts|stitches)\.?\s*(?:x|×|og|\*)\s*(\d{1,3})\s*(?:p|pinner|omganger|omg|rader|r|rows)\.?\s*(?:=|på|per|pr\.?|i)\s*10\s*(?:x\s*10\s*)?cm`),
			regexp.MustCompile(`(?i)10\s*(?:x\s*10\s*)?cm\s*(?:=|:)\s*(\d{1,2})\s*(?:m|masker|st|sts|stitches)\.?\s*(?:x|×|og)\s*(\d{1,3})\s*(?:p|pinner|omganger|omg|rader|r|rows)\b`),
		},
		carePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:vaskeanvisning|vaskeråd|vaskeinstruksjon|pleieråd|pleie|vask|care)\s*:\s*([^\n]{3,200})`),
			regexp.MustCompile(`(?i)((?:håndvask|maskinvask|ullvask|vaskes|tåler maskinvask|machine wash|hand wash)[^\n]{0,150})`),
		},
		categoryPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)garngruppe\s*:?\s*([A-F])\b`),
			regexp.MustCompile(`(?i)(?:garntykkelse|tykkelse|garnvekt|weight category|kategori)\s*:?\s*(lace|fingering|sport|dk|worsted|aran|super bulky|super chunky|bulky|chunky|tynt|medium|ekstra tykt|tykt)`),
			regexp.MustCompile(`(?i)\b(lace|fingering|dk|worsted|aran|super bulky|super chunky|bulky|chunky)[\s-]*(?:weight|garn|yarn)\b`),
		},
		compositionPattern: regexp.MustCompile(`(\d{1,3}(?:[.,]\d)?)\s*%\s*([\p{L}][\p{L}\-]*(?:\s+(?:ull|wool|bomull|silke|alpakka|mohair|merino|cotton|silk|lin|nylon)\b)?)`),

		pricePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:kr|nok)\.?[ \t\x{00A0}]*(` + amountPattern + `)`),
			regexp.MustCompile(`(?i)(` + amountPattern + `)[ \t\x{00A0}]*(?:,-|\.-|kr\b|nok\b)`),
		},
		currencyPattern: regexp.MustCompile(`(?i)\b(?:kr|nok)\b|\d,-`),
		shippingTerms: []string{
			"frakt", "fraktfri", "levering", "leveres", "porto", "sending", "forsendelse",
			"shipping", "delivery", "handle for", "kjøp for", "bestill for", "over ",
		},
		producerPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:merke|produsent|leverandør|brand|garnprodusent)\s*:\s*([^\n]{2,40})`),
		},
		byPattern: regexp.MustCompile(`\b(?:[Ff]ra|[Aa]v)\s+([A-ZÆØÅ][\p{L}&]+(?:\s+[A-ZÆØÅ][\p{L}&]+){0,2})`),

		skuPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:varenummer|varenr\.?|artikkelnummer|art\.?\s*nr\.?|sku)\s*:?\s*([A-Za-z0-9][A-Za-z0-9\-_.]{2,29})`),
		},
		countryPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i:produsert i|laget i|made in|opprinnelsesland|produksjonsland|country of origin)\s*:?\s*([A-ZÆØÅ][\p{L}]+(?:\s+[A-ZÆØÅ][\p{L}]+)?)`),
		},
		deliveryPattern:  regexp.MustCompile(`(?i)((?:forventet levering|leveringstid|sendes innen|sendes samme dag|sendes fra lager|levering)[^\n]{0,100})`),
		reviewPattern:    regexp.MustCompile(`(?i)(\d{1,6})\s*(?:anmeldelser|anmeldelse|omtaler|vurderinger|reviews?)`),
		colorTextPattern: regexp.MustCompile(`^(?:(\d{1,4}[A-Za-z]?)\s*[-–:.]?\s*)?([\p{L}][\p{L}'’ /\-]*?)(?:\s*[-–(]?\s*(\d{1,4}[A-Za-z]?)\)?)?$`),
	}
}
