package signal

import (
	"context"

	"purchase-verdict/internal/engine"
)

// PsychScores are the normalized psychometric trait scores derived from
// onboarding answers. Each value lies in [0,1].
type PsychScores struct {
	Neuroticism    float64
	Materialism    float64
	LocusOfControl float64
}

// EvaluationContext aggregates every context-builder output for one
// evaluation. It lives only for the duration of that call.
type EvaluationContext struct {
	Profile         string
	RecentSimilar   string
	LongTermSimilar string
	RecentHistory   string
	LongTermHistory string

	Vendor       *engine.VendorMatch
	WeeklyBudget *float64

	PatternRepetition engine.ScoreExplanation
	FinancialStrain   engine.ScoreExplanation

	Psych      PsychScores
	CoreValues []string

	HasRegretHistory bool
}

// EmptyContext returns a context with every signal at its neutral value,
// used when gathering was cut short.
func EmptyContext() *EvaluationContext {
	return &EvaluationContext{
		Profile:           "No profile information available.",
		Psych:             neutralPsych(),
		PatternRepetition: engine.NewScoreExplanation(0, "No feedback history available."),
		FinancialStrain:   engine.NewScoreExplanation(0, "No price or budget information; financial strain unknown."),
	}
}

// VendorMatcher resolves a free-text vendor name to a catalog entry.
type VendorMatcher interface {
	Match(name, category string) (*engine.VendorMatch, error)
}

// Embedder is a batched text-to-vector provider. Absence of a credential is
// a supported mode, reported through Enabled.
type Embedder interface {
	Enabled() bool
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}
