package signal

import (
	"fmt"
	"strings"

	"purchase-verdict/internal/engine"
	"purchase-verdict/internal/store"
)

// reflectionValue maps a feedback label onto the reflection scale.
// Regret scores lowest and satisfaction highest, so a higher mean means the
// category has historically caused less regret. The inversion is deliberate
// and consumers must not flip it.
func reflectionValue(label string) float64 {
	switch label {
	case store.FeedbackRegret:
		return 0
	case store.FeedbackSatisfied:
		return 1
	default:
		return 0.5
	}
}

// PatternRepetition aggregates the category-scoped regret history into a
// single repetition-risk score: the unweighted mean of reflection values.
func PatternRepetition(feedbacks []store.Feedback, category string) engine.ScoreExplanation {
	category = strings.TrimSpace(category)
	if len(feedbacks) == 0 {
		label := category
		if label == "" {
			label = "this category"
		}
		return engine.NewScoreExplanation(0, fmt.Sprintf("No feedback history for %s; treating repetition risk as unknown.", label))
	}

	var sum float64
	for _, fb := range feedbacks {
		sum += reflectionValue(fb.Label)
	}
	mean := sum / float64(len(feedbacks))

	return engine.NewScoreExplanation(mean, fmt.Sprintf(
		"Unweighted average of %d reflection(s) for %s purchases: %.2f (0 = consistent regret, 1 = consistent satisfaction).",
		len(feedbacks), category, mean))
}
