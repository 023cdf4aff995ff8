package models

import "strings"

// ProductFields is the subset of a product record a language model is asked to fill in.
// A nil field means the model returned null or left the key out.
type ProductFields struct {
	Name             *string  `json:"name"`
	Producer         *string  `json:"producer"`
	Composition      *string  `json:"composition"`
	Weight           *string  `json:"weight"`
	WeightCategory   *string  `json:"weightCategory"`
	Yardage          *string  `json:"yardage"`
	NeedleSize       *string  `json:"needleSize"`
	Gauge            *string  `json:"gauge"`
	CareInstructions *string  `json:"careInstructions"`
	Availability     *string  `json:"availability"`
	CountryOfOrigin  *string  `json:"countryOfOrigin"`
	SKU              *string  `json:"sku"`
	Currency         *string  `json:"currency"`
	Price            *float64 `json:"price"`
	OriginalPrice    *float64 `json:"originalPrice"`
	Certifications   []string `json:"certifications"`
}

// Merge returns a copy of heuristic where every field the model defined replaces the
// heuristic value. Description, images and source always come from heuristic.
func Merge(heuristic *YarnProductData, model *ProductFields) *YarnProductData {
	merged := *heuristic
	if model == nil {
		return &merged
	}

	overrideString(&merged.Name, model.Name)
	overrideString(&merged.Producer, model.Producer)
	overrideString(&merged.Composition, model.Composition)
	overrideString(&merged.Weight, model.Weight)
	overrideString(&merged.WeightCategory, model.WeightCategory)
	overrideString(&merged.Yardage, model.Yardage)
	overrideString(&merged.NeedleSize, model.NeedleSize)
	overrideString(&merged.Gauge, model.Gauge)
	overrideString(&merged.CareInstructions, model.CareInstructions)
	overrideString(&merged.Availability, model.Availability)
	overrideString(&merged.CountryOfOrigin, model.CountryOfOrigin)
	overrideString(&merged.SKU, model.SKU)
	overrideString(&merged.Currency, model.Currency)

	if model.Price != nil {
		v := *model.Price
		merged.Price = &v
	}
	if model.OriginalPrice != nil {
		v := *model.OriginalPrice
		merged.OriginalPrice = &v
	}
	if len(model.Certifications) > 0 {
		merged.Certifications = DedupeStrings(model.Certifications, 0)
	}

	return &merged
}

func overrideString(dst *string, v *string) {
	if v == nil {
		return
	}
	if s := strings.TrimSpace(*v); s != "" {
		*dst = s
	}
}
