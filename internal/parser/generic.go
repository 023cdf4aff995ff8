package parser

import (
	"net/url"

	"github.com/maltedev/yarn-scraper/internal/models"
)

// GenericParser handles any page no site parser claims. It only reads the title,
// the meta description, the first currency amount and the images.
type GenericParser struct {
	extractor *Extractor
}

func NewGenericParser(limits Limits) *GenericParser {
	return &GenericParser{extractor: NewExtractor(limits)}
}

func (g *GenericParser) Name() string {
	return "generic"
}

func (g *GenericParser) CanHandle(*url.URL) bool {
	return true
}

func (g *GenericParser) Scrape(html string, pageURL string) (*models.YarnProductData, error) {
	p, err := loadPage(html, pageURL)
	if err != nil {
		return nil, err
	}

	e := g.extractor
	product := models.NewYarnProduct(pageURL, hostName(p.url))

	if name := p.meta("og:title"); name != "" {
		product.Name = name
	} else if title := p.title(); title != "" {
		product.Name = stripSiteSuffix(title, p.url)
	} else {
		product.Name = p.firstText([]string{"h1"})
	}
	product.Description = p.meta("og:description", "description")

	if price, ok := e.firstPrice(p.text); ok {
		product.Price = &price
	}
	product.Currency = e.currency(p)
	product.Images = e.discoverImages(p, nil)

	product.NormalizeWithCaps(e.limits.MaxColors, e.limits.MaxRelatedPatterns)
	return product, nil
}
