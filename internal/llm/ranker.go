package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/maltedev/yarn-scraper/internal/models"
)

const rankSystemPrompt = `Du velger det beste produktbildet for en nettbutikk.
Svar kun med indeksen til bildet som et heltall, eller null hvis ingen passer.`

// ImageRanker asks a language model which candidate image best represents a product.
type ImageRanker struct {
	completer Completer
	opts      Options
	logger    *slog.Logger
}

func NewImageRanker(completer Completer, opts Options, logger *slog.Logger) *ImageRanker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageRanker{
		completer: completer,
		opts:      opts,
		logger:    logger.With("component", "image_ranker"),
	}
}

func (r *ImageRanker) Enabled() bool {
	return r != nil && r.completer != nil
}

// Rank returns the index of the best image. ok is false when the model declines, answers
// with something other than an in-range integer, or there is nothing to choose between.
func (r *ImageRanker) Rank(ctx context.Context, productName string, images []models.Image) (index int, ok bool, err error) {
	if !r.Enabled() || len(images) < 2 {
		return 0, false, nil
	}

	response, err := r.completer.Complete(ctx, CompletionRequest{
		System:      rankSystemPrompt,
		Prompt:      rankPrompt(productName, images),
		MaxTokens:   16,
		Temperature: 0,
	})
	if err != nil {
		return 0, false, fmt.Errorf("image ranking request failed: %w", err)
	}

	index, ok = parseIndex(response, len(images))
	r.logger.Debug("image ranking complete", "product", productName, "response", response, "selected", ok)
	return index, ok, nil
}

func rankPrompt(productName string, images []models.Image) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Produkt: %s\n\n", productName)
	b.WriteString("Velg hovedbildet for produktet. Foretrekk bilder der URL eller alt-tekst viser til produktnavnet.\n")
	b.WriteString("Unngå miniatyrbilder, logoer, ikoner og bilder av andre produkter.\n\nBilder:\n")
	for i, img := range images {
		fmt.Fprintf(&b, "%d: %s", i, img.URL)
		if img.Alt != "" {
			fmt.Fprintf(&b, " (alt: %s)", img.Alt)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nSvar med et heltall fra 0 til %d, eller null.", len(images)-1)
	return b.String()
}

func parseIndex(response string, n int) (int, bool) {
	answer := strings.Trim(strings.TrimSpace(response), ".\"' \n\t")
	if strings.EqualFold(answer, "null") {
		return 0, false
	}
	i, err := strconv.Atoi(answer)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}
