package engine

import (
	"math"
	"math/rand"
	"testing"
)

func TestStandardOutcomeThresholds(t *testing.T) {
	cfg := DefaultModelConfig()

	tests := []struct {
		name     string
		score    float64
		expected Outcome
	}{
		{"well below hold", 0.1, OutcomeBuy},
		{"just below hold", 0.39, OutcomeBuy},
		{"at hold", 0.4, OutcomeHold},
		{"mid band", 0.55, OutcomeHold},
		{"just below skip", 0.69, OutcomeHold},
		{"at skip", 0.7, OutcomeSkip},
		{"maximum", 1.0, OutcomeSkip},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveStandardOutcome(cfg, tc.score); got != tc.expected {
				t.Fatalf("expected %s got %s", tc.expected, got)
			}
		})
	}
}

func TestStandardOutcomeMonotonic(t *testing.T) {
	cfg := DefaultModelConfig()
	rank := map[Outcome]int{OutcomeBuy: 0, OutcomeHold: 1, OutcomeSkip: 2}

	prev := -1
	for score := 0.0; score <= 1.0; score += 0.01 {
		current := rank[resolveStandardOutcome(cfg, score)]
		if current < prev {
			t.Fatalf("outcome regressed at score %.2f", score)
		}
		prev = current
	}
}

func TestStandardConfidence(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected float64
	}{
		{"midpoint", 0.5, 0.95},
		{"scenario a", 0.95, 0.7475},
		{"zero", 0, 0.725},
		{"one", 1, 0.725},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := standardConfidence(tc.score)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Fatalf("expected %.4f got %.4f", tc.expected, got)
			}
		})
	}
}

func randomFeatures(rng *rand.Rand) Features {
	// Deliberately out-of-range values exercise the clamping invariants.
	f := func() float64 { return rng.Float64()*4 - 2 }
	return Features{
		ValueConflict:     f(),
		PatternRepetition: f(),
		EmotionalImpulse:  f(),
		FinancialStrain:   f(),
		Neuroticism:       f(),
		Materialism:       f(),
		LocusOfControl:    f(),
		LongTermUtility:   f(),
		EmotionalSupport:  f(),
	}
}

func TestStrategyInvariants(t *testing.T) {
	cfg := DefaultModelConfig()
	strategies := []Strategy{NewStandardModel(cfg), NewCalibratedModel(cfg)}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		features := randomFeatures(rng)
		for _, strategy := range strategies {
			decision := strategy.Decide(features)
			if decision.Confidence < 0.5 || decision.Confidence > 0.95 {
				t.Fatalf("%s confidence %.4f out of [0.5,0.95]", strategy.Name(), decision.Confidence)
			}
			if decision.DecisionScore < 0 || decision.DecisionScore > 1 {
				t.Fatalf("%s decision score %.4f out of [0,1]", strategy.Name(), decision.DecisionScore)
			}
			switch decision.Outcome {
			case OutcomeBuy, OutcomeHold, OutcomeSkip:
			default:
				t.Fatalf("%s produced unknown outcome %q", strategy.Name(), decision.Outcome)
			}
		}
	}
}

func TestScoreExplanationClamped(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected float64
	}{
		{"below range", -0.3, 0},
		{"above range", 1.8, 1},
		{"nan", math.NaN(), 0},
		{"in range", 0.42, 0.42},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewScoreExplanation(tc.score, "x").Score; got != tc.expected {
				t.Fatalf("expected %.2f got %.2f", tc.expected, got)
			}
		})
	}
}
