package models

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestMerge(t *testing.T) {
	heuristic := &YarnProductData{
		Name:             "Drops Melody",
		Producer:         "Drops Design",
		Description:      "Luftig alpakkagarn",
		Gauge:            "13 m x 17 p = 10 cm",
		CareInstructions: "Håndvask",
		Yardage:          "140m",
		Price:            floatPtr(49),
		Images:           []Image{{URL: "https://example.com/a.jpg"}},
		Source:           Source{URL: "https://example.com/p", SiteName: "Example"},
	}

	tests := []struct {
		name  string
		model *ProductFields
		check func(t *testing.T, merged *YarnProductData)
	}{
		{
			name:  "nil model keeps heuristic values",
			model: nil,
			check: func(t *testing.T, merged *YarnProductData) {
				assert.Equal(t, *heuristic, *merged)
			},
		},
		{
			name: "defined model values win",
			model: &ProductFields{
				Gauge:            strPtr("12 m x 16 p = 10 cm"),
				CareInstructions: strPtr("Håndvask 30°, tørkes flatt"),
				Price:            floatPtr(59),
			},
			check: func(t *testing.T, merged *YarnProductData) {
				assert.Equal(t, "12 m x 16 p = 10 cm", merged.Gauge)
				assert.Equal(t, "Håndvask 30°, tørkes flatt", merged.CareInstructions)
				require.NotNil(t, merged.Price)
				assert.Equal(t, 59.0, *merged.Price)
				assert.Equal(t, "140m", merged.Yardage)
			},
		},
		{
			name: "null and blank model values keep heuristic",
			model: &ProductFields{
				Name:     strPtr("   "),
				Producer: nil,
				Yardage:  nil,
			},
			check: func(t *testing.T, merged *YarnProductData) {
				assert.Equal(t, "Drops Melody", merged.Name)
				assert.Equal(t, "Drops Design", merged.Producer)
				assert.Equal(t, "140m", merged.Yardage)
				require.NotNil(t, merged.Price)
				assert.Equal(t, 49.0, *merged.Price)
			},
		},
		{
			name: "description images and source untouched",
			model: &ProductFields{
				Name: strPtr("Melody"),
			},
			check: func(t *testing.T, merged *YarnProductData) {
				assert.Equal(t, "Melody", merged.Name)
				assert.Equal(t, heuristic.Description, merged.Description)
				assert.Equal(t, heuristic.Images, merged.Images)
				assert.Equal(t, heuristic.Source, merged.Source)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Merge(heuristic, tt.model)
			tt.check(t, merged)
		})
	}

	assert.Equal(t, "13 m x 17 p = 10 cm", heuristic.Gauge, "heuristic record must not be mutated")
}

func TestDedupeColors(t *testing.T) {
	colors := []Color{{Name: "Natur"}, {Name: "NATUR"}, {Name: "natur "}}
	for i := 0; i < 40; i++ {
		colors = append(colors, Color{Name: fmt.Sprintf("Farge %d", i)})
	}

	out := DedupeColors(colors, MaxColors)

	assert.Len(t, out, MaxColors)
	assert.Equal(t, "Natur", out[0].Name)
	seen := map[string]bool{}
	for _, c := range out {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		assert.Falsef(t, seen[key], "duplicate color %q", c.Name)
		seen[key] = true
	}
}

func TestNormalize(t *testing.T) {
	p := &YarnProductData{
		Certifications: []string{"OEKO-TEX", "OEKO-TEX", "GOTS"},
		Images: []Image{
			{URL: "https://example.com/a.jpg"},
			{URL: "https://example.com/a.jpg", Alt: "dup"},
			{URL: "https://example.com/b.jpg"},
		},
	}
	for i := 0; i < 15; i++ {
		p.RelatedPatterns = append(p.RelatedPatterns, "https://example.com/pattern/"+string(rune('a'+i)))
	}
	p.RelatedPatterns = append(p.RelatedPatterns, p.RelatedPatterns[0])

	p.Normalize()

	assert.Equal(t, []string{"OEKO-TEX", "GOTS"}, p.Certifications)
	assert.Len(t, p.RelatedPatterns, MaxRelatedPatterns)
	assert.Len(t, p.Images, 2)
}

func TestHasValidName(t *testing.T) {
	assert.False(t, (&YarnProductData{Name: ""}).HasValidName())
	assert.False(t, (&YarnProductData{Name: " A "}).HasValidName())
	assert.True(t, (&YarnProductData{Name: "Ål"}).HasValidName())
}

func TestSetPrimaryImage(t *testing.T) {
	p := &YarnProductData{Images: []Image{
		{URL: "https://cdn.example.com/a.jpg", IsPrimary: true},
		{URL: "https://cdn.example.com/b.jpg"},
		{URL: "https://cdn.example.com/c.jpg"},
	}}

	require.True(t, p.SetPrimaryImage(2))
	primary, ok := p.PrimaryImage()
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/c.jpg", primary.URL)
	assert.False(t, p.Images[0].IsPrimary)
	assert.False(t, p.Images[1].IsPrimary)

	assert.False(t, p.SetPrimaryImage(3))
	assert.False(t, p.SetPrimaryImage(-1))
	assert.True(t, p.Images[2].IsPrimary)
}

func TestNormalizeWithCaps(t *testing.T) {
	p := &YarnProductData{Name: "Drops Air"}
	for i := 0; i < 30; i++ {
		p.Colors = append(p.Colors, Color{Name: "Farge " + string(rune('A'+i))})
		p.RelatedPatterns = append(p.RelatedPatterns, "https://example.com/pattern/"+string(rune('a'+i)))
	}

	p.NormalizeWithCaps(28, 12)
	assert.Len(t, p.Colors, 28)
	assert.Len(t, p.RelatedPatterns, 12)

	p.NormalizeWithCaps(0, 0)
	assert.Len(t, p.Colors, 28)
	assert.Len(t, p.RelatedPatterns, 12)
}
