package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/maltedev/yarn-scraper/internal/models"
	"github.com/maltedev/yarn-scraper/internal/parser"
)

const reconcileSystemPrompt = `Du er en presis dataekstraktor for garnprodukter fra norske nettbutikker.
Svar kun med ett JSON-objekt, uten forklaring og uten markdown.
Bruk null for alle felt som ikke står tydelig i teksten. Ikke gjett.`

const reconcilePromptTemplate = `Hent ut produktinformasjon fra teksten under.

Returner et JSON-objekt med nøyaktig disse feltene:
{
  "name": string | null,
  "producer": string | null,
  "composition": string | null,          // f.eks. "71%% Alpakka, 25%% Ull, 4%% Polyamid"
  "weight": string | null,               // nøstevekt, f.eks. "50g"
  "weightCategory": string | null,       // f.eks. "Garngruppe C" eller "DK"
  "yardage": string | null,              // løpelengde per nøste, f.eks. "140m"
  "needleSize": string | null,           // anbefalt pinnestørrelse, f.eks. "7mm" eller "3.5-4mm"
  "gauge": string | null,                // strikkefasthet, format "22 m x 30 p = 10 cm"
  "careInstructions": string | null,     // vaskeanvisning, maks 100 tegn
  "availability": string | null,
  "countryOfOrigin": string | null,
  "sku": string | null,
  "currency": string | null,
  "price": number | null,                // produktpris, aldri fraktgrense
  "originalPrice": number | null,
  "certifications": string[] | null
}

Produktside: %s

Tekst:
"""
%s
"""`

// Reconciler asks a language model to extract the product fields independently of
// the heuristic parsers.
type Reconciler struct {
	completer Completer
	opts      Options
	logger    *slog.Logger
}

func NewReconciler(completer Completer, opts Options, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		completer: completer,
		opts:      opts,
		logger:    logger.With("component", "reconciler"),
	}
}

// Enabled reports whether a model is configured.
func (r *Reconciler) Enabled() bool {
	return r != nil && r.completer != nil
}

// Reconcile returns the fields the model found in the page. Any error means the model
// contributed nothing; callers continue with the heuristic record.
func (r *Reconciler) Reconcile(ctx context.Context, html, pageURL string) (*models.ProductFields, error) {
	if !r.Enabled() {
		return nil, nil
	}

	text := parser.CleanPageText(html, r.opts.TextLimit)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("page has no readable text")
	}

	response, err := r.completer.Complete(ctx, CompletionRequest{
		System:      reconcileSystemPrompt,
		Prompt:      fmt.Sprintf(reconcilePromptTemplate, pageURL, text),
		MaxTokens:   r.opts.MaxTokens,
		Temperature: r.opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("reconciliation request failed: %w", err)
	}

	fields, dropped, err := parseFields(response)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		r.logger.Debug("dropped mistyped model fields", "url", pageURL, "fields", dropped)
	}
	r.sanitize(fields)

	r.logger.Debug("model reconciliation complete", "url", pageURL)
	return fields, nil
}

// parseFields decodes the reply one key at a time so a single mistyped value only
// costs that field. Only a reply that is not a JSON object fails as a whole.
func parseFields(response string) (*models.ProductFields, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extractJSON(response)), &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}

	var fields models.ProductFields
	text := map[string]**string{
		"name":             &fields.Name,
		"producer":         &fields.Producer,
		"composition":      &fields.Composition,
		"weight":           &fields.Weight,
		"weightCategory":   &fields.WeightCategory,
		"yardage":          &fields.Yardage,
		"needleSize":       &fields.NeedleSize,
		"gauge":            &fields.Gauge,
		"careInstructions": &fields.CareInstructions,
		"availability":     &fields.Availability,
		"countryOfOrigin":  &fields.CountryOfOrigin,
		"sku":              &fields.SKU,
		"currency":         &fields.Currency,
	}
	numbers := map[string]**float64{
		"price":         &fields.Price,
		"originalPrice": &fields.OriginalPrice,
	}

	var dropped []string
	for key, value := range raw {
		var ok bool
		switch {
		case text[key] != nil:
			*text[key], ok = decodeString(value)
		case numbers[key] != nil:
			*numbers[key], ok = decodeNumber(value)
		case key == "certifications":
			fields.Certifications, ok = decodeStringList(value)
		default:
			continue
		}
		if !ok {
			dropped = append(dropped, key)
		}
	}
	sort.Strings(dropped)
	return &fields, dropped, nil
}

func isNull(value json.RawMessage) bool {
	return len(value) == 0 || string(value) == "null"
}

// decodeString accepts a string or a number written without quotes.
func decodeString(value json.RawMessage) (*string, bool) {
	if isNull(value) {
		return nil, true
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return &s, true
	}
	var n json.Number
	if err := json.Unmarshal(value, &n); err == nil {
		s = n.String()
		return &s, true
	}
	return nil, false
}

// decodeNumber accepts a number or a displayed amount such as "119" or "1.299,00 kr".
func decodeNumber(value json.RawMessage) (*float64, bool) {
	if isNull(value) {
		return nil, true
	}
	var f float64
	if err := json.Unmarshal(value, &f); err == nil {
		return &f, true
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		if f, ok := parser.ParsePrice(s); ok {
			return &f, true
		}
	}
	return nil, false
}

// decodeStringList accepts an array of strings or a single string. Non-string array
// elements are skipped.
func decodeStringList(value json.RawMessage) ([]string, bool) {
	if isNull(value) {
		return nil, true
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		if s = strings.TrimSpace(s); s == "" {
			return nil, true
		}
		return []string{s}, true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		return nil, false
	}
	var out []string
	for _, item := range items {
		if v, ok := decodeString(item); ok && v != nil && strings.TrimSpace(*v) != "" {
			out = append(out, strings.TrimSpace(*v))
		}
	}
	return out, true
}

// sanitize drops model values outside the same windows the heuristics enforce.
func (r *Reconciler) sanitize(fields *models.ProductFields) {
	if fields.Price != nil && (*fields.Price < r.opts.PriceMin || *fields.Price > r.opts.PriceMax) {
		fields.Price = nil
	}
	if fields.OriginalPrice != nil && (*fields.OriginalPrice < r.opts.PriceMin || *fields.OriginalPrice > r.opts.PriceMax) {
		fields.OriginalPrice = nil
	}
	if fields.Producer != nil {
		producer := parser.CanonicalProducer(*fields.Producer)
		fields.Producer = &producer
	}
	if fields.CareInstructions != nil {
		care := []rune(strings.TrimSpace(*fields.CareInstructions))
		if r.opts.CareMaxLength > 0 && len(care) > r.opts.CareMaxLength {
			care = care[:r.opts.CareMaxLength]
		}
		s := string(care)
		fields.CareInstructions = &s
	}
}
