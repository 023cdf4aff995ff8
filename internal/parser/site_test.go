package parser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteParserDropsMelody(t *testing.T) {
	html := `<html><head><title>Drops Melody | Garnius</title></head><body>
		<h1>Drops Melody</h1>
		<div class="woocommerce-product-details__short-description"><p>Luftig og myk alpakkablanding.</p></div>
		<ul>
			<li>ca 50 gr = 140 m</li>
			<li>Anbefalte pinner: 7 mm</li>
			<li>71% Alpakka, 25% Ull, 4% Polyamid</li>
		</ul>
	</body></html>`

	product, err := NewSiteParser(garniusProfile(t), DefaultLimits()).
		Scrape(html, "https://garnius.no/produkt/drops-melody/")
	require.NoError(t, err)

	assert.Equal(t, "Drops Melody", product.Name)
	assert.Equal(t, "Drops Design", product.Producer)
	assert.Equal(t, "50g", product.Weight)
	assert.Equal(t, "140m", product.Yardage)
	assert.Equal(t, "7mm", product.NeedleSize)
	assert.Equal(t, "71% Alpakka, 25% Ull, 4% Polyamid", product.Composition)
	assert.Equal(t, "Luftig og myk alpakkablanding.", product.Description)
	assert.Equal(t, "Garnius", product.Source.SiteName)
	assert.Equal(t, "https://garnius.no/produkt/drops-melody/", product.Source.URL)
	assert.False(t, product.Source.ScrapedAt.IsZero())
}

func TestSiteParserStructuredData(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@context":"https://schema.org","@graph":[
			{"@type":"WebPage","name":"Hobbii"},
			{"@type":"Product","name":"Friends Cotton 8/8","brand":{"@type":"Brand","name":"hobbii"},
			 "sku":"FC88-01","description":"Bomullsgarn",
			 "image":["https://cdn.hobbii.com/fc88-hero.jpg","https://cdn.hobbii.com/fc88-detail.jpg"],
			 "offers":[{"@type":"Offer","price":"29.95","priceCurrency":"nok","availability":"https://schema.org/InStock"}],
			 "aggregateRating":{"ratingValue":"4.6","reviewCount":"128"}}
		]}
		</script>
		<meta property="og:image" content="https://cdn.hobbii.com/fc88-hero.jpg">
	</head><body>
		<h1 class="product-single__title">Friends Cotton 8/8 - Hobbii</h1>
		<img src="/icons/logo.svg" alt="logo">
		<div class="product__media"><img src="https://cdn.hobbii.com/fc88-swatch.jpg" alt="Friends Cotton farge 01"></div>
		<p>Sertifisert etter OEKO-TEX Standard 100. Produsert i Tyrkia.</p>
		<table><tr><th>Fiber</th><td>100% Bomull</td></tr><tr><th>Garngruppe</th><td>A</td></tr></table>
		<a href="/patterns/summer-top">Oppskrift: Summer Top</a>
		<a href="/patterns/summer-top">Summer Top</a>
	</body></html>`

	product, err := NewSiteParser(DefaultSiteProfiles()[0], DefaultLimits()).
		Scrape(html, "https://hobbii.no/products/friends-cotton-8-8")
	require.NoError(t, err)

	assert.Equal(t, "Friends Cotton 8/8", product.Name)
	assert.Equal(t, "Hobbii", product.Producer)
	assert.Equal(t, "FC88-01", product.SKU)
	require.NotNil(t, product.Price)
	assert.Equal(t, 29.95, *product.Price)
	assert.Equal(t, "NOK", product.Currency)
	assert.Equal(t, "På lager", product.Availability)
	require.NotNil(t, product.Rating)
	assert.Equal(t, 4.6, *product.Rating)
	require.NotNil(t, product.ReviewCount)
	assert.Equal(t, 128, *product.ReviewCount)
	assert.Equal(t, "100% Bomull", product.Composition)
	assert.Equal(t, "Garngruppe A", product.WeightCategory)
	assert.Equal(t, "Tyrkia", product.CountryOfOrigin)
	assert.Equal(t, []string{"OEKO-TEX"}, product.Certifications)
	assert.Equal(t, map[string]string{"Fiber": "100% Bomull", "Garngruppe": "A"}, product.Specifications)
	assert.Equal(t, []string{"https://hobbii.no/patterns/summer-top"}, product.RelatedPatterns)

	urls := make([]string, 0, len(product.Images))
	for _, img := range product.Images {
		urls = append(urls, img.URL)
		assert.False(t, img.IsPrimary)
	}
	assert.Equal(t, []string{
		"https://cdn.hobbii.com/fc88-hero.jpg",
		"https://cdn.hobbii.com/fc88-detail.jpg",
		"https://cdn.hobbii.com/fc88-swatch.jpg",
	}, urls)
}

func TestSiteDefaultProducer(t *testing.T) {
	html := `<html><body><h1 class="product-name">Tynn Merinoull</h1><p>Pris 89,-</p></body></html>`

	product, err := NewSiteParser(DefaultSiteProfiles()[3], DefaultLimits()).
		Scrape(html, "https://www.sandnesgarn.no/garn/tynn-merinoull")
	require.NoError(t, err)

	assert.Equal(t, "Tynn Merinoull", product.Name)
	assert.Equal(t, "Sandnes Garn", product.Producer)
}

func TestCanonicalProducer(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Drops", "Drops Design"},
		{"DROPS", "Drops Design"},
		{"Drops Design", "Drops Design"},
		{"Garnstudio", "Drops Design"},
		{"sandnes", "Sandnes Garn"},
		{"Du Store Alpakka", "Du Store Alpakka"},
		{"  Pickles  ", "Pickles"},
		{"Ukjent Spinneri", "Ukjent Spinneri"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalProducer(tt.input))
		})
	}
}

func TestProducerFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "labelled text",
			html:     `<h1>Sølvlin</h1><p>Produsent: Isager</p>`,
			expected: "Isager",
		},
		{
			name:     "from phrase",
			html:     `<h1>Alpakka Silke</h1><p>Et nydelig garn fra Rauma som passer til alt.</p>`,
			expected: "Rauma Garn",
		},
		{
			name:     "brand element",
			html:     `<h1>Sølvlin</h1><div class="product_meta"><span class="brand"><a href="/merke/permin">Permin</a></span></div>`,
			expected: "Permin",
		},
		{
			name:     "brand in product name",
			html:     `<h1>Viking Alpaca Bris</h1>`,
			expected: "Viking of Norway",
		},
		{
			name:     "nothing found",
			html:     `<h1>Ullgarn</h1>`,
			expected: "",
		},
	}

	parser := NewSiteParser(garniusProfile(t), DefaultLimits())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := parser.Scrape("<html><body>"+tt.html+"</body></html>", "https://garnius.no/produkt/x/")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, product.Producer)
		})
	}
}

func TestCleanPageText(t *testing.T) {
	html := `<html><head><style>.a{}</style></head><body>
		<header>Meny</header><nav>Garn | Oppskrifter</nav>
		<div class="cookie-banner">Vi bruker informasjonskapsler</div>
		<h1>Drops Melody</h1><p>ca 50 gr = 140 m</p>
		<script>var x = 1;</script>
		<footer>Kontakt oss</footer>
	</body></html>`

	assert.Equal(t, "Drops Melody\nca 50 gr = 140 m", CleanPageText(html, 0))
	assert.Equal(t, "Drops", CleanPageText(html, 5))
}

func TestReviewCount(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  *int
	}{
		{"whole", 128, intPtr(128)},
		{"zero", 0, intPtr(0)},
		{"negative", -1, nil},
		{"fractional", 12.5, nil},
		{"too large", 1e12, nil},
		{"not a number", math.NaN(), nil},
		{"infinite", math.Inf(1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reviewCount(tt.input))
		})
	}
}

func TestStructuredReviewCountOutOfRange(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
		{"@type":"Product","name":"Drops Air","aggregateRating":{"ratingValue":4.2,"reviewCount":1e15}}
	</script></head><body></body></html>`

	product, err := NewSiteParser(garniusProfile(t), DefaultLimits()).
		Scrape(html, "https://garnius.no/produkt/drops-air/")
	require.NoError(t, err)
	require.NotNil(t, product.Rating)
	assert.Nil(t, product.ReviewCount)
}

func intPtr(n int) *int { return &n }
