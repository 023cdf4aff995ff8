package parser

import (
	"net/url"
	"strings"

	"github.com/maltedev/yarn-scraper/internal/models"
)

// SiteProfile describes one vendor: which hosts it serves and where its pages keep
// the fields. Empty selector lists fall back to the shared defaults.
type SiteProfile struct {
	Name            string
	Domains         []string
	DefaultProducer string

	NameSelectors          []string
	PriceSelectors         []string
	OriginalPriceSelectors []string
	BrandSelectors         []string
	DescriptionSelectors   []string
	SpecSelectors          []string
	ImageSelectors         []string
	ColorSelectors         []string
}

// SiteParser is the layered heuristic extractor configured for one vendor.
type SiteParser struct {
	profile   SiteProfile
	extractor *Extractor
}

func NewSiteParser(profile SiteProfile, limits Limits) *SiteParser {
	return &SiteParser{
		profile:   profile,
		extractor: NewExtractor(limits),
	}
}

func (s *SiteParser) Name() string {
	return s.profile.Name
}

func (s *SiteParser) CanHandle(u *url.URL) bool {
	host := hostName(u)
	for _, domain := range s.profile.Domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func (s *SiteParser) Scrape(html string, pageURL string) (*models.YarnProductData, error) {
	p, err := loadPage(html, pageURL)
	if err != nil {
		return nil, err
	}

	e := s.extractor
	profile := s.profile
	product := models.NewYarnProduct(pageURL, profile.Name)

	product.Name = e.extractName(p, profile.NameSelectors)
	product.Description = e.extractDescription(p, profile.DescriptionSelectors)
	specText := e.specificationText(p, profile.SpecSelectors)

	tech := e.extractTechnical(product.Description, p.text, specText)
	product.Composition = tech.Composition
	product.Weight = tech.Weight
	product.WeightCategory = tech.WeightCategory
	product.Yardage = tech.Yardage
	product.NeedleSize = tech.NeedleSize
	product.Gauge = tech.Gauge
	product.CareInstructions = tech.CareInstructions

	product.Producer = e.extractProducer(p, product.Name, product.Description, profile.BrandSelectors)
	if product.Producer == "" {
		product.Producer = profile.DefaultProducer
	}

	if price, ok := e.extractPrice(p, withDefaults(profile.PriceSelectors, defaultPriceSelectors)); ok {
		product.Price = &price
		if orig, ok := e.extractOriginalPrice(p, withDefaults(profile.OriginalPriceSelectors, defaultOriginalPriceSelectors), price); ok {
			product.OriginalPrice = &orig
		}
	}
	product.Currency = e.currency(p)

	product.Availability = e.extractAvailability(p)
	product.CountryOfOrigin = e.extractCountry(product.Description, specText, p.text)
	product.DeliveryInfo = e.extractDeliveryInfo(p.text)
	product.SKU = e.extractSKU(p)
	product.Rating, product.ReviewCount = e.extractRating(p)
	product.Certifications = e.extractCertifications(product.Description + "\n" + specText + "\n" + p.text)
	product.Specifications = e.extractSpecifications(p)
	product.RelatedPatterns = e.extractRelatedPatterns(p)
	product.Images = e.discoverImages(p, profile.ImageSelectors)
	product.Colors = e.extractColors(p, product.Name, profile.ColorSelectors)

	product.NormalizeWithCaps(e.limits.MaxColors, e.limits.MaxRelatedPatterns)
	return product, nil
}

func withDefaults(site, defaults []string) []string {
	return append(append([]string{}, site...), defaults...)
}
