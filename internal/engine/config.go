package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Weights holds the published coefficients of the linear model. Positive
// features raise risk; utility and support are subtracted.
type Weights struct {
	ValueConflict     float64 `json:"value_conflict"`
	PatternRepetition float64 `json:"pattern_repetition"`
	EmotionalImpulse  float64 `json:"emotional_impulse"`
	FinancialStrain   float64 `json:"financial_strain"`
	Neuroticism       float64 `json:"neuroticism"`
	Materialism       float64 `json:"materialism"`
	LocusOfControl    float64 `json:"locus_of_control"`
	LongTermUtility   float64 `json:"long_term_utility"`
	EmotionalSupport  float64 `json:"emotional_support"`
}

// FallbackConfig carries the rule table for the deterministic scorer.
type FallbackConfig struct {
	HighPricePoints       int      `json:"high_price_points"`
	MediumPricePoints     int      `json:"medium_price_points"`
	ImpulseCategoryPoints int      `json:"impulse_category_points"`
	NoJustificationPoints int      `json:"no_justification_points"`
	WantWithoutNeedPoints int      `json:"want_without_need_points"`
	UrgencyPoints         int      `json:"urgency_points"`
	MinJustificationLen   int      `json:"min_justification_len"`
	PriceHighDefault      float64  `json:"price_high_default"`
	PriceMediumDefault    float64  `json:"price_medium_default"`
	NeutralUtility        float64  `json:"neutral_utility"`
	ImpulseCategories     []string `json:"impulse_categories"`
	UrgencyKeywords       []string `json:"urgency_keywords"`
	TierPoints            map[string]int `json:"tier_points"`
}

// OverrideConfig carries the essential-override constants. They are kept as
// data rather than literals so a retuned model can ship without code changes.
type OverrideConfig struct {
	ConfidenceFloor  float64  `json:"confidence_floor"`
	UtilityThreshold float64  `json:"utility_threshold"`
	EssentialTokens  []string `json:"essential_tokens"`
}

// ModelConfig is the versioned, immutable parameter set injected into the
// decision engine at startup.
type ModelConfig struct {
	Version string  `json:"version"`
	Intercept float64 `json:"intercept"`
	Weights   Weights `json:"weights"`

	SkipThreshold float64 `json:"skip_threshold"`
	HoldThreshold float64 `json:"hold_threshold"`

	CalibratedSkipThreshold float64    `json:"calibrated_skip_threshold"`
	CalibratedHoldThreshold float64    `json:"calibrated_hold_threshold"`
	CalibrationAnchors      []float64  `json:"calibration_anchors"`

	// Budget-derived price classification used by the prompt policy block
	// and the essential override: monthly = weekly x 4, high = 0.8 x monthly,
	// medium = 0.4 x monthly.
	PolicyHighDefault   float64 `json:"policy_high_default"`
	PolicyMediumDefault float64 `json:"policy_medium_default"`

	Fallback FallbackConfig `json:"fallback"`
	Override OverrideConfig `json:"override"`
}

// DefaultModelConfig returns the v1 parameter set.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Version:   "v1",
		Intercept: 0.12,
		Weights: Weights{
			ValueConflict:     0.18,
			PatternRepetition: 0.15,
			EmotionalImpulse:  0.17,
			FinancialStrain:   0.22,
			Neuroticism:       0.08,
			Materialism:       0.08,
			LocusOfControl:    0.06,
			LongTermUtility:   0.20,
			EmotionalSupport:  0.10,
		},
		SkipThreshold:           0.7,
		HoldThreshold:           0.4,
		CalibratedSkipThreshold: 0.65,
		CalibratedHoldThreshold: 0.35,
		CalibrationAnchors:      []float64{0, 0, 0, 0, 0.2, 0.25, 0.35, 0.45, 0.6, 0.8, 1.0},
		PolicyHighDefault:       800,
		PolicyMediumDefault:     400,
		Fallback: FallbackConfig{
			HighPricePoints:       30,
			MediumPricePoints:     15,
			ImpulseCategoryPoints: 20,
			NoJustificationPoints: 25,
			WantWithoutNeedPoints: 10,
			UrgencyPoints:         20,
			MinJustificationLen:   20,
			PriceHighDefault:      200,
			PriceMediumDefault:    100,
			NeutralUtility:        0.4,
			ImpulseCategories: []string{
				"electronics", "gadgets", "gaming", "fashion", "shoes",
				"jewelry", "accessories", "toys", "collectibles", "beauty",
			},
			UrgencyKeywords: []string{
				"flash", "limited", "last chance", "hurry", "sale ends",
				"today only", "clearance", "final hours", "while supplies",
				"act now", "don't miss",
			},
			TierPoints: map[string]int{
				TierBudget:   0,
				TierMidRange: 4,
				TierPremium:  8,
				TierLuxury:   12,
			},
		},
		Override: OverrideConfig{
			ConfidenceFloor:  0.65,
			UtilityThreshold: 0.65,
			EssentialTokens: []string{
				"essential", "for work", "required", "need",
				"photo", "video", "editing", "machine learning", "ml",
			},
		},
	}
}

// LoadModelConfig reads a JSON parameter file, overlaying it on the defaults
// so partial files stay valid.
func LoadModelConfig(path string) (ModelConfig, error) {
	cfg := DefaultModelConfig()
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("read model config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal model config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate ensures the loaded parameters are internally consistent.
func (c ModelConfig) Validate() error {
	if c.Version == "" {
		return errors.New("model config version missing")
	}
	if len(c.CalibrationAnchors) != 11 {
		return fmt.Errorf("calibration anchors: expected 11 points, got %d", len(c.CalibrationAnchors))
	}
	for i := 1; i < len(c.CalibrationAnchors); i++ {
		if c.CalibrationAnchors[i] < c.CalibrationAnchors[i-1] {
			return fmt.Errorf("calibration anchors not monotonic at index %d", i)
		}
	}
	if c.SkipThreshold <= c.HoldThreshold {
		return errors.New("skip threshold must exceed hold threshold")
	}
	if c.CalibratedSkipThreshold <= c.CalibratedHoldThreshold {
		return errors.New("calibrated skip threshold must exceed hold threshold")
	}
	return nil
}

// PriceThresholds derives the high/medium price cut-offs from the weekly
// budget (monthly = weekly x 4), falling back to the fixed policy defaults
// when no budget is set.
func (c ModelConfig) PriceThresholds(weeklyBudget *float64) (high, medium float64) {
	if weeklyBudget == nil || *weeklyBudget <= 0 {
		return c.PolicyHighDefault, c.PolicyMediumDefault
	}
	monthly := *weeklyBudget * 4
	return 0.8 * monthly, 0.4 * monthly
}

// PriceIsHigh classifies the candidate price against the budget-derived
// high threshold.
func (c ModelConfig) PriceIsHigh(price, weeklyBudget *float64) bool {
	if price == nil {
		return false
	}
	high, _ := c.PriceThresholds(weeklyBudget)
	return *price >= high
}
