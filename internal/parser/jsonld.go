package parser

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// structuredProduct is the schema.org Product block a shop embeds as JSON-LD.
type structuredProduct struct {
	Name         string
	Brand        string
	Description  string
	SKU          string
	Price        *float64
	Currency     string
	Availability string
	Rating       *float64
	ReviewCount  *int
	Images       []string
}

func readStructuredProduct(doc *goquery.Document) *structuredProduct {
	var product *structuredProduct
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			return true
		}
		if node := findProductNode(data); node != nil {
			product = toStructuredProduct(node)
			return false
		}
		return true
	})
	return product
}

func findProductNode(data any) map[string]any {
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			if node := findProductNode(item); node != nil {
				return node
			}
		}
	case map[string]any:
		if hasType(v["@type"], "Product", "ProductGroup", "IndividualProduct") {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return findProductNode(graph)
		}
		if main, ok := v["mainEntity"]; ok {
			return findProductNode(main)
		}
	}
	return nil
}

func hasType(v any, types ...string) bool {
	switch t := v.(type) {
	case string:
		for _, want := range types {
			if strings.EqualFold(t, want) {
				return true
			}
		}
	case []any:
		for _, item := range t {
			if hasType(item, types...) {
				return true
			}
		}
	}
	return false
}

func toStructuredProduct(node map[string]any) *structuredProduct {
	sp := &structuredProduct{
		Name:        cleanText(jsonString(node["name"])),
		Brand:       cleanText(jsonString(node["brand"])),
		Description: cleanText(jsonString(node["description"])),
		SKU:         cleanText(jsonString(node["sku"])),
		Images:      jsonImages(node["image"]),
	}

	if offer := firstOffer(node["offers"]); offer != nil {
		price := offer["price"]
		if price == nil {
			price = offer["lowPrice"]
		}
		sp.Price = jsonNumber(price)
		sp.Currency = strings.ToUpper(cleanText(jsonString(offer["priceCurrency"])))
		sp.Availability = availabilityLabel(jsonString(offer["availability"]))
	}

	if rating, ok := node["aggregateRating"].(map[string]any); ok {
		sp.Rating = jsonNumber(rating["ratingValue"])
		count := rating["reviewCount"]
		if count == nil {
			count = rating["ratingCount"]
		}
		if n := jsonNumber(count); n != nil {
			sp.ReviewCount = reviewCount(*n)
		}
	}

	return sp
}

func firstOffer(v any) map[string]any {
	switch o := v.(type) {
	case map[string]any:
		if nested, ok := o["offers"]; ok && o["price"] == nil && o["lowPrice"] == nil {
			if inner := firstOffer(nested); inner != nil {
				return inner
			}
		}
		return o
	case []any:
		for _, item := range o {
			if offer := firstOffer(item); offer != nil {
				return offer
			}
		}
	}
	return nil
}

func jsonString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case map[string]any:
		if name := jsonString(s["name"]); name != "" {
			return name
		}
		return jsonString(s["@value"])
	case []any:
		if len(s) > 0 {
			return jsonString(s[0])
		}
	}
	return ""
}

func jsonNumber(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		if f, ok := parseDecimal(n); ok {
			return &f
		}
	}
	return nil
}

func jsonImages(v any) []string {
	switch img := v.(type) {
	case string:
		if img != "" {
			return []string{img}
		}
	case map[string]any:
		if u := jsonString(img["url"]); u != "" {
			return []string{u}
		}
		if u := jsonString(img["contentUrl"]); u != "" {
			return []string{u}
		}
	case []any:
		var out []string
		for _, item := range img {
			out = append(out, jsonImages(item)...)
		}
		return out
	}
	return nil
}

func availabilityLabel(v string) string {
	v = strings.ToLower(v)
	switch {
	case v == "":
		return ""
	case strings.Contains(v, "instock"), strings.Contains(v, "limitedavailability"):
		return "På lager"
	case strings.Contains(v, "outofstock"), strings.Contains(v, "soldout"), strings.Contains(v, "discontinued"):
		return "Utsolgt"
	case strings.Contains(v, "preorder"), strings.Contains(v, "backorder"):
		return "Bestillingsvare"
	}
	return ""
}

// parseDecimal reads numbers written either as 189.00, 189,00 or 189,-.
// reviewCount accepts only whole, non-negative counts that fit an int32.
func reviewCount(n float64) *int {
	if n < 0 || n > math.MaxInt32 || n != math.Trunc(n) {
		return nil
	}
	c := int(n)
	return &c
}

func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ",-")
	s = strings.TrimSuffix(s, ".-")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	} else {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
