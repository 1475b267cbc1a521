package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"review-backend/internal/core"
	"review-backend/pkg/api"
)

// Classifies a reviews file offline and prints per-review labels plus the
// aggregate summary. Useful for checking lexicon changes without a server.
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <reviews file (.txt, .csv or .json)>", os.Args[0])
	}

	filename := os.Args[1]

	if _, ok := core.FileFormat(filename); !ok {
		log.Fatalf("unsupported file format for %s, expected one of %v", filename, core.SupportedFormats)
	}

	f, err := os.Open(filename)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	defer f.Close()

	classifier, err := core.NewKeywordClassifier()
	if err != nil {
		log.Fatalf("error creating classifier: %v", err)
	}

	items, err := core.ParseReviews(filename, f)
	if err != nil {
		log.Fatalf("error parsing reviews: %v", err)
	}

	var positive, negative, neutral int
	for _, text := range items {
		if strings.TrimSpace(text) == "" {
			continue
		}

		sentiment, confidence, err := classifier.Classify(text)
		if err != nil {
			log.Fatalf("error classifying review: %v", err)
		}

		switch sentiment {
		case api.SentimentPositive:
			positive++
		case api.SentimentNegative:
			negative++
		default:
			neutral++
		}

		fmt.Printf("%-8s %.2f  %s\n", sentiment, confidence, text)
	}

	summary := core.SummarizeCounts(positive, negative, neutral)

	fmt.Println()
	fmt.Printf("total:    %d\n", summary.TotalReviews)
	fmt.Printf("positive: %d (%.1f%%)\n", summary.Positive, summary.PositivePercentage)
	fmt.Printf("negative: %d (%.1f%%)\n", summary.Negative, summary.NegativePercentage)
	fmt.Printf("neutral:  %d (%.1f%%)\n", summary.Neutral, summary.NeutralPercentage)
}
