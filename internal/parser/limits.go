package parser

// Limits holds the plausibility windows used to accept or reject heuristic matches.
// The defaults are tuned for Norwegian yarn shops.
type Limits struct {
	PriceMin           float64
	PriceMax           float64
	WeightMinGrams     int
	WeightMaxGrams     int
	YardageMinMeters   int
	YardageMaxMeters   int
	NeedleMinMM        float64
	NeedleMaxMM        float64
	CareMaxLength      int
	ColorNameMinLength int
	ColorNameMaxLength int
	MaxColors          int
	MaxRelatedPatterns int
	MaxImages          int
	MaxSpecifications  int
	SpecKeyMaxLength   int
	SpecValueMaxLength int
}

func DefaultLimits() Limits {
	return Limits{
		PriceMin:           1,
		PriceMax:           1000,
		WeightMinGrams:     10,
		WeightMaxGrams:     1000,
		YardageMinMeters:   10,
		YardageMaxMeters:   5000,
		NeedleMinMM:        1,
		NeedleMaxMM:        25,
		CareMaxLength:      100,
		ColorNameMinLength: 2,
		ColorNameMaxLength: 30,
		MaxColors:          25,
		MaxRelatedPatterns: 10,
		MaxImages:          20,
		MaxSpecifications:  30,
		SpecKeyMaxLength:   40,
		SpecValueMaxLength: 100,
	}
}

func (l Limits) plausiblePrice(v float64) bool {
	return v >= l.PriceMin && v <= l.PriceMax
}
