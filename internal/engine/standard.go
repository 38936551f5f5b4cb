package engine

import "math"

// StandardModel resolves the weighted linear score through fixed thresholds.
type StandardModel struct {
	cfg ModelConfig
}

// NewStandardModel constructs the standard weighted strategy.
func NewStandardModel(cfg ModelConfig) *StandardModel {
	return &StandardModel{cfg: cfg}
}

func (m *StandardModel) Name() string {
	return AlgorithmStandard
}

// Decide computes decisionScore = intercept + sum(weight x feature) and
// thresholds it: >= skip threshold -> skip, >= hold threshold -> hold,
// else buy.
func (m *StandardModel) Decide(f Features) Decision {
	score := clampFloat(m.cfg.Weights.combine(m.cfg.Intercept, f), 0, 1)
	return Decision{
		Outcome:       resolveStandardOutcome(m.cfg, score),
		Confidence:    standardConfidence(score),
		DecisionScore: score,
	}
}

func resolveStandardOutcome(cfg ModelConfig, score float64) Outcome {
	switch {
	case score >= cfg.SkipThreshold:
		return OutcomeSkip
	case score >= cfg.HoldThreshold:
		return OutcomeHold
	default:
		return OutcomeBuy
	}
}

// standardConfidence shrinks toward 0.5 as the score approaches the
// ambivalent midpoint.
func standardConfidence(score float64) float64 {
	distance := math.Min(1, math.Abs(score-0.5))
	return clampConfidence(0.95 - 0.45*distance)
}
