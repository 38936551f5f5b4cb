package engine

import "math"

// Outcome is the engine's recommendation for a candidate purchase.
type Outcome string

const (
	OutcomeBuy  Outcome = "buy"
	OutcomeHold Outcome = "hold"
	OutcomeSkip Outcome = "skip"
)

// Algorithm tags identify which scoring path produced a result.
const (
	AlgorithmStandard   = "standard_v1"
	AlgorithmCalibrated = "calibrated_v1"
	AlgorithmFallback   = "fallback_v1"
)

// PurchaseInput describes the candidate purchase under evaluation. It is
// constructed once per request and never modified afterwards.
type PurchaseInput struct {
	Title         string
	Price         *float64
	Category      string
	Vendor        string
	Justification string
	IsImportant   bool
}

// VendorMatch is a resolved catalog entry for the candidate's vendor.
type VendorMatch struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Quality     string `json:"quality"`
	Reliability string `json:"reliability"`
	PriceTier   string `json:"price_tier"`
}

// Quality and reliability levels.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Price tiers.
const (
	TierBudget   = "budget"
	TierMidRange = "mid_range"
	TierPremium  = "premium"
	TierLuxury   = "luxury"
)

// ScoreExplanation pairs a [0,1] score with its narrative.
type ScoreExplanation struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// NewScoreExplanation clamps the score into [0,1] before wrapping it.
func NewScoreExplanation(score float64, explanation string) ScoreExplanation {
	return ScoreExplanation{Score: clampFloat(score, 0, 1), Explanation: explanation}
}

// Features is the fixed input vector shared by every scoring strategy.
type Features struct {
	ValueConflict     float64
	PatternRepetition float64
	EmotionalImpulse  float64
	FinancialStrain   float64
	Neuroticism       float64
	Materialism       float64
	LocusOfControl    float64
	LongTermUtility   float64
	EmotionalSupport  float64
}

// Reasoning is the auditable breakdown attached to every result.
type Reasoning struct {
	ValueConflict       ScoreExplanation  `json:"value_conflict"`
	PatternRepetition   ScoreExplanation  `json:"pattern_repetition"`
	EmotionalImpulse    ScoreExplanation  `json:"emotional_impulse"`
	FinancialStrain     ScoreExplanation  `json:"financial_strain"`
	LongTermUtility     ScoreExplanation  `json:"long_term_utility"`
	EmotionalSupport    ScoreExplanation  `json:"emotional_support"`
	ShortTermRegret     *ScoreExplanation `json:"short_term_regret,omitempty"`
	LongTermRegret      *ScoreExplanation `json:"long_term_regret,omitempty"`
	DecisionScore       float64           `json:"decision_score"`
	RawScore            *float64          `json:"raw_score,omitempty"`
	AlternativeSolution string            `json:"alternative_solution,omitempty"`
	Rationale           string            `json:"rationale"`
	ImportantPurchase   bool              `json:"important_purchase"`
	Algorithm           string            `json:"algorithm"`
}

// EvaluationResult is the final verdict for a candidate purchase. Instances
// are never mutated after construction; regeneration produces a new value.
type EvaluationResult struct {
	Outcome    Outcome   `json:"outcome"`
	Confidence float64   `json:"confidence"`
	Reasoning  Reasoning `json:"reasoning"`
}

func clampFloat(value, min, max float64) float64 {
	if math.IsNaN(value) {
		return min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func clampConfidence(value float64) float64 {
	return clampFloat(value, 0.5, 0.95)
}
