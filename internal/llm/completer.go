package llm

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyResponse = errors.New("empty model response")

// CompletionRequest is a single-turn prompt for a text-completion model.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer sends one prompt to a language model and returns the text of its reply.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Options tunes the prompts sent by the reconciler and the image ranker.
type Options struct {
	TextLimit     int
	MaxTokens     int
	Temperature   float64
	PriceMin      float64
	PriceMax      float64
	CareMaxLength int
}

func DefaultOptions() Options {
	return Options{
		TextLimit:     4000,
		MaxTokens:     1024,
		Temperature:   0.1,
		PriceMin:      1,
		PriceMax:      1000,
		CareMaxLength: 100,
	}
}

// extractJSON strips markdown fences and any prose around the first JSON object.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return response[start : end+1]
	}
	return response
}
