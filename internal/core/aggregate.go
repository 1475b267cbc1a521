package core

import "math"

// BatchSummary aggregates per-class counts and percentages for a batch of
// classified reviews. Counts always sum exactly to TotalReviews; the three
// percentages sum to 100 within 0.1.
type BatchSummary struct {
	TotalReviews int
	Positive     int
	Negative     int
	Neutral      int

	PositivePercentage float64
	NegativePercentage float64
	NeutralPercentage  float64
}

// SummarizeCounts builds a BatchSummary from per-class counts, with
// percentages rounded to one decimal place. A zero total leaves the
// percentages at zero.
func SummarizeCounts(positive, negative, neutral int) BatchSummary {
	total := positive + negative + neutral

	summary := BatchSummary{
		TotalReviews: total,
		Positive:     positive,
		Negative:     negative,
		Neutral:      neutral,
	}
	if total == 0 {
		return summary
	}

	summary.PositivePercentage = Percentage(int64(positive), int64(total), 1)
	summary.NegativePercentage = Percentage(int64(negative), int64(total), 1)
	summary.NeutralPercentage = Percentage(int64(neutral), int64(total), 1)

	return summary
}

// Percentage returns count/total as a percentage rounded to the given number
// of decimal places. A zero total yields zero.
func Percentage(count, total int64, decimals int) float64 {
	if total == 0 {
		return 0
	}
	shift := math.Pow(10, float64(decimals))
	return math.Round(float64(count)/float64(total)*100*shift) / shift
}
