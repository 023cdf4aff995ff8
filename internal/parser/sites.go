package parser

// DefaultSiteProfiles lists the vendors with a dedicated parser, in dispatch order.
func DefaultSiteProfiles() []SiteProfile {
	return []SiteProfile{
		{
			Name:            "Hobbii",
			Domains:         []string{"hobbii.no", "hobbii.com", "hobbii.dk", "hobbii.se"},
			DefaultProducer: "Hobbii",
			NameSelectors:   []string{"h1.product-single__title", "h1.product__title"},
			PriceSelectors: []string{
				`.product-single__price .price-item--sale`,
				`.price__sale .price-item`,
				`.price-item--regular`,
			},
			OriginalPriceSelectors: []string{`.price__sale s.price-item--regular`, `.price-item--compare`},
			DescriptionSelectors:   []string{`.product-single__description`, `.product__description`},
			SpecSelectors:          []string{`.product-single__specs`, `.product-info__specs`},
			ImageSelectors:         []string{`.product-single__media img`, `.product__media img`},
			ColorSelectors:         []string{`.variant-picker__option[data-color]`, `.color-swatch__item[title]`},
		},
		{
			Name:                   "Garnius",
			Domains:                []string{"garnius.no"},
			NameSelectors:          []string{"h1.product_title", "h1.entry-title"},
			PriceSelectors:         []string{`.summary .price ins .amount`, `.summary .price .amount`},
			OriginalPriceSelectors: []string{`.summary .price del .amount`},
			BrandSelectors:         []string{`.product_meta .brand a`, `.pwb-single-product-brands a`},
			DescriptionSelectors:   []string{`.woocommerce-product-details__short-description`, `#tab-description`},
			SpecSelectors:          []string{`.woocommerce-product-attributes`, `#tab-additional_information`},
			ImageSelectors:         []string{`.woocommerce-product-gallery__image img`, `[data-large_image]`},
			ColorSelectors:         []string{`.variable-items-wrapper li[data-title]`, `.tawcvs-swatches .swatch[data-value]`},
		},
		{
			Name:                 "DROPS Design",
			Domains:              []string{"garnstudio.com", "dropsdesign.com"},
			DefaultProducer:      "Drops Design",
			NameSelectors:        []string{"h1.yarn-name", "h1"},
			PriceSelectors:       []string{`.yarn-price`, `.price-info`},
			DescriptionSelectors: []string{`.yarn-description`, `#yarn-info`},
			SpecSelectors:        []string{`.yarn-facts`, `.yarn-info-table`},
			ImageSelectors:       []string{`.yarn-image img`, `.shade-card img`},
			ColorSelectors:       []string{`.shade-card [data-shade-name]`, `.color-card a[title]`},
		},
		{
			Name:                 "Sandnes Garn",
			Domains:              []string{"sandnesgarn.no", "sandnesgarn.com"},
			DefaultProducer:      "Sandnes Garn",
			NameSelectors:        []string{"h1.product-name", "h1.page-title"},
			PriceSelectors:       []string{`.product-info-price .price`, `[data-price-type="finalPrice"] .price`},
			DescriptionSelectors: []string{`.product.attribute.description`, `.product-description`},
			SpecSelectors:        []string{`.additional-attributes`, `.product-facts`},
			ImageSelectors:       []string{`.gallery-placeholder img`, `.fotorama__stage img`},
			ColorSelectors:       []string{`.swatch-option.color[data-option-label]`},
		},
	}
}
