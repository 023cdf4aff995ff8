package models

import (
	"strings"
	"time"
)

const (
	MinNameLength      = 2
	MaxColors          = 25
	MaxRelatedPatterns = 10
)

type YarnProductData struct {
	Name             string            `json:"name"`
	Producer         string            `json:"producer,omitempty"`
	Description      string            `json:"description,omitempty"`
	Composition      string            `json:"composition,omitempty"`
	Weight           string            `json:"weight,omitempty"`
	WeightCategory   string            `json:"weightCategory,omitempty"`
	Yardage          string            `json:"yardage,omitempty"`
	NeedleSize       string            `json:"needleSize,omitempty"`
	Gauge            string            `json:"gauge,omitempty"`
	CareInstructions string            `json:"careInstructions,omitempty"`
	Availability     string            `json:"availability,omitempty"`
	CountryOfOrigin  string            `json:"countryOfOrigin,omitempty"`
	DeliveryInfo     string            `json:"deliveryInfo,omitempty"`
	SKU              string            `json:"sku,omitempty"`
	Price            *float64          `json:"price,omitempty"`
	OriginalPrice    *float64          `json:"originalPrice,omitempty"`
	Currency         string            `json:"currency,omitempty"`
	Rating           *float64          `json:"rating,omitempty"`
	ReviewCount      *int              `json:"reviewCount,omitempty"`
	Certifications   []string          `json:"certifications,omitempty"`
	RelatedPatterns  []string          `json:"relatedPatterns,omitempty"`
	Images           []Image           `json:"images,omitempty"`
	Colors           []Color           `json:"colors,omitempty"`
	Specifications   map[string]string `json:"specifications,omitempty"`
	Source           Source            `json:"source"`
}

type Image struct {
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"isPrimary,omitempty"`
}

type Color struct {
	Name      string `json:"name"`
	ColorCode string `json:"colorCode,omitempty"`
	Available *bool  `json:"available,omitempty"`
	SKU       string `json:"sku,omitempty"`
}

type Source struct {
	URL       string    `json:"url"`
	SiteName  string    `json:"siteName"`
	ScrapedAt time.Time `json:"scrapedAt"`
}

func NewYarnProduct(pageURL, siteName string) *YarnProductData {
	return &YarnProductData{
		Source: Source{
			URL:       pageURL,
			SiteName:  siteName,
			ScrapedAt: time.Now(),
		},
	}
}

// HasValidName reports whether the record may be handed to a caller.
func (p *YarnProductData) HasValidName() bool {
	return len([]rune(strings.TrimSpace(p.Name))) >= MinNameLength
}

// PrimaryImage returns the image flagged as primary, if any.
func (p *YarnProductData) PrimaryImage() (Image, bool) {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img, true
		}
	}
	return Image{}, false
}

// SetPrimaryImage flags image i as the primary one and clears the flag on the rest.
func (p *YarnProductData) SetPrimaryImage(i int) bool {
	if i < 0 || i >= len(p.Images) {
		return false
	}
	for j := range p.Images {
		p.Images[j].IsPrimary = j == i
	}
	return true
}

// Normalize enforces the deduplication and the default size caps on the list fields.
func (p *YarnProductData) Normalize() {
	p.NormalizeWithCaps(MaxColors, MaxRelatedPatterns)
}

// NormalizeWithCaps is Normalize with caller-chosen caps. A cap of 0 keeps everything.
func (p *YarnProductData) NormalizeWithCaps(maxColors, maxRelatedPatterns int) {
	p.Certifications = DedupeStrings(p.Certifications, 0)
	p.RelatedPatterns = DedupeStrings(p.RelatedPatterns, maxRelatedPatterns)
	p.Colors = DedupeColors(p.Colors, maxColors)
	p.Images = DedupeImages(p.Images)
}

// DedupeStrings keeps the first occurrence of every value. A limit of 0 means no cap.
func DedupeStrings(values []string, limit int) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// DedupeColors drops colors whose name repeats an earlier one ignoring case.
func DedupeColors(colors []Color, limit int) []Color {
	if len(colors) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(colors))
	out := make([]Color, 0, len(colors))
	for _, c := range colors {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func DedupeImages(images []Image) []Image {
	if len(images) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(images))
	out := make([]Image, 0, len(images))
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		if _, ok := seen[img.URL]; ok {
			continue
		}
		seen[img.URL] = struct{}{}
		out = append(out, img)
	}
	return out
}
