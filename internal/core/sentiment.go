package core

import (
	_ "embed"
	"fmt"
	"strings"

	"review-backend/pkg/api"

	"gopkg.in/yaml.v2"
)

// Classifier assigns a sentiment label and a confidence in [0, 1] to a piece
// of text. Implementations must be safe for concurrent use. The labeling
// method is swappable, only this contract is fixed.
type Classifier interface {
	Classify(text string) (sentiment string, confidence float64, err error)
}

//go:embed lexicon.yaml
var lexiconYAML []byte

// KeywordClassifier labels text by case-insensitive substring matches against
// a fixed lexicon. Whichever polarity matches more lexicon entries wins, ties
// are neutral. It is deterministic, which the tests rely on.
type KeywordClassifier struct {
	positive []string
	negative []string
}

func NewKeywordClassifier() (*KeywordClassifier, error) {
	raw := struct {
		Positive []string `yaml:"positive"`
		Negative []string `yaml:"negative"`
	}{}

	if err := yaml.Unmarshal(lexiconYAML, &raw); err != nil {
		return nil, fmt.Errorf("error parsing sentiment lexicon: %w", err)
	}

	if len(raw.Positive) == 0 || len(raw.Negative) == 0 {
		return nil, fmt.Errorf("sentiment lexicon is missing positive or negative entries")
	}

	return &KeywordClassifier{
		positive: lowercaseAll(raw.Positive),
		negative: lowercaseAll(raw.Negative),
	}, nil
}

func lowercaseAll(words []string) []string {
	out := make([]string, len(words))
	for i, word := range words {
		out[i] = strings.ToLower(word)
	}
	return out
}

func countMatches(text string, words []string) int {
	count := 0
	for _, word := range words {
		if strings.Contains(text, word) {
			count++
		}
	}
	return count
}

func (c *KeywordClassifier) Classify(text string) (string, float64, error) {
	if text == "" {
		return api.SentimentNeutral, 0.5, nil
	}

	lower := strings.ToLower(text)

	positive := countMatches(lower, c.positive)
	negative := countMatches(lower, c.negative)

	switch {
	case positive > negative:
		return api.SentimentPositive, 0.85, nil
	case negative > positive:
		return api.SentimentNegative, 0.80, nil
	default:
		return api.SentimentNeutral, 0.60, nil
	}
}
