package engine

import (
	"fmt"
	"strings"
)

// FallbackInput bundles everything the deterministic scorer needs. No field
// is required; absent signals degrade to their neutral values.
type FallbackInput struct {
	Purchase          PurchaseInput
	Vendor            *VendorMatch
	WeeklyBudget      *float64
	PatternRepetition ScoreExplanation
	FinancialStrain   ScoreExplanation
	CoreValues        []string
	HasRegretHistory  bool
}

// FallbackScorer derives a verdict without the judge using an additive risk
// rule table. Identical inputs always produce identical output.
type FallbackScorer struct {
	cfg ModelConfig
}

// NewFallbackScorer constructs the deterministic fallback strategy.
func NewFallbackScorer(cfg ModelConfig) *FallbackScorer {
	return &FallbackScorer{cfg: cfg}
}

func (s *FallbackScorer) Name() string {
	return AlgorithmFallback
}

// Evaluate accumulates risk points, normalizes them into a decision score,
// and resolves the outcome through the standard-model thresholds.
func (s *FallbackScorer) Evaluate(in FallbackInput) EvaluationResult {
	rules := s.cfg.Fallback
	points := 0
	var reasons []string

	pricePoints, priceReason := s.priceRisk(in.Purchase.Price, in.WeeklyBudget)
	if pricePoints > 0 {
		points += pricePoints
		reasons = append(reasons, priceReason)
	}

	categoryHit := matchKeyword(in.Purchase.Category, rules.ImpulseCategories)
	if categoryHit != "" {
		points += rules.ImpulseCategoryPoints
		reasons = append(reasons, fmt.Sprintf("the %q category is prone to impulse purchases", categoryHit))
	}

	justification := strings.TrimSpace(in.Purchase.Justification)
	missingJustification := len(justification) < rules.MinJustificationLen
	if missingJustification {
		points += rules.NoJustificationPoints
		reasons = append(reasons, "no substantial justification was given")
	} else if wantWithoutNeed(justification) {
		points += rules.WantWithoutNeedPoints
		reasons = append(reasons, "the justification expresses wanting rather than needing")
	}

	urgencyHit := matchKeyword(in.Purchase.Title, rules.UrgencyKeywords)
	if urgencyHit != "" {
		points += rules.UrgencyPoints
		reasons = append(reasons, fmt.Sprintf("the title uses urgency or scarcity language (%q)", urgencyHit))
	}

	if in.Vendor != nil {
		if tierPoints := rules.TierPoints[in.Vendor.PriceTier]; tierPoints > 0 {
			points += tierPoints
			reasons = append(reasons, fmt.Sprintf("the matched vendor sits in the %s price tier", in.Vendor.PriceTier))
		}
	}

	score := clampFloat(float64(points)/100, 0, 1)
	outcome := resolveStandardOutcome(s.cfg, score)
	confidence := standardConfidence(score)

	utility := s.longTermUtility(in.Vendor)

	reasoning := Reasoning{
		ValueConflict:     s.valueConflict(in, missingJustification),
		PatternRepetition: in.PatternRepetition,
		EmotionalImpulse:  s.emotionalImpulse(categoryHit, urgencyHit, justification, rules),
		FinancialStrain:   in.FinancialStrain,
		LongTermUtility:   utility,
		EmotionalSupport:  NewScoreExplanation(0.3, "No direct signal for emotional support; assumed modest."),
		DecisionScore:     score,
		Rationale:         s.composeRationale(in, outcome, reasons),
		ImportantPurchase: in.Purchase.IsImportant,
		Algorithm:         AlgorithmFallback,
	}

	return EvaluationResult{
		Outcome:    outcome,
		Confidence: confidence,
		Reasoning:  reasoning,
	}
}

func (s *FallbackScorer) priceRisk(price, weeklyBudget *float64) (int, string) {
	if price == nil {
		return 0, ""
	}
	rules := s.cfg.Fallback
	high, medium := rules.PriceHighDefault, rules.PriceMediumDefault
	relative := false
	if weeklyBudget != nil && *weeklyBudget > 0 {
		high, medium = s.cfg.PriceThresholds(weeklyBudget)
		relative = true
	}
	switch {
	case *price > high:
		if relative {
			return rules.HighPricePoints, fmt.Sprintf("the price ($%.2f) is high relative to the monthly budget", *price)
		}
		return rules.HighPricePoints, fmt.Sprintf("the price ($%.2f) is high", *price)
	case *price > medium:
		if relative {
			return rules.MediumPricePoints, fmt.Sprintf("the price ($%.2f) is elevated relative to the monthly budget", *price)
		}
		return rules.MediumPricePoints, fmt.Sprintf("the price ($%.2f) is elevated", *price)
	default:
		return 0, ""
	}
}

func (s *FallbackScorer) valueConflict(in FallbackInput, missingJustification bool) ScoreExplanation {
	if missingJustification {
		return NewScoreExplanation(0.6, "Without a justification the purchase cannot be tied to any stated value.")
	}
	if len(in.CoreValues) == 0 {
		return NewScoreExplanation(0.2, "No stated values on file to conflict with.")
	}
	return NewScoreExplanation(0.1, "The stated justification does not obviously conflict with recorded values.")
}

func (s *FallbackScorer) emotionalImpulse(categoryHit, urgencyHit, justification string, rules FallbackConfig) ScoreExplanation {
	score := 0.0
	var notes []string
	if categoryHit != "" {
		score += 0.35
		notes = append(notes, "impulse-prone category")
	}
	if urgencyHit != "" {
		score += 0.35
		notes = append(notes, "urgency framing in the title")
	}
	if wantWithoutNeed(justification) {
		score += 0.2
		notes = append(notes, "want-driven justification")
	}
	if len(notes) == 0 {
		return NewScoreExplanation(0.1, "No impulse markers detected.")
	}
	return NewScoreExplanation(score, "Impulse markers: "+strings.Join(notes, ", ")+".")
}

// longTermUtility is derived from vendor quality and reliability when a
// catalog match exists, otherwise a neutral default.
func (s *FallbackScorer) longTermUtility(vendor *VendorMatch) ScoreExplanation {
	if vendor == nil {
		return NewScoreExplanation(s.cfg.Fallback.NeutralUtility, "No vendor match; assuming neutral long-term utility.")
	}
	score := 0.55
	switch vendor.Quality {
	case LevelLow:
		score = 0.25
	case LevelHigh:
		score = 0.8
	}
	switch vendor.Reliability {
	case LevelLow:
		score -= 0.1
	case LevelHigh:
		score += 0.1
	}
	return NewScoreExplanation(score, fmt.Sprintf(
		"Estimated from %s's %s quality and %s reliability.", vendor.Name, vendor.Quality, vendor.Reliability))
}

func (s *FallbackScorer) composeRationale(in FallbackInput, outcome Outcome, reasons []string) string {
	var b strings.Builder
	switch outcome {
	case OutcomeSkip:
		b.WriteString("Recommend skipping this purchase")
	case OutcomeHold:
		b.WriteString("Recommend waiting 24 hours before this purchase")
	default:
		b.WriteString("This purchase looks reasonable")
	}
	if len(reasons) > 0 {
		b.WriteString(" because ")
		b.WriteString(joinReasons(reasons))
	}
	b.WriteString(".")

	if in.HasRegretHistory {
		b.WriteString(" Your past feedback in this category factored into the recommendation.")
	} else if len(in.CoreValues) > 0 {
		b.WriteString(fmt.Sprintf(" Weighed against your stated values (%s).", strings.Join(in.CoreValues, ", ")))
	}

	if in.FinancialStrain.Score > 0.5 {
		b.WriteString(" Relative to your weekly budget this is a significant outlay.")
	}

	if in.Vendor != nil {
		b.WriteString(fmt.Sprintf(" %s is rated %s quality with %s reliability.",
			in.Vendor.Name, in.Vendor.Quality, in.Vendor.Reliability))
	}
	return b.String()
}

func joinReasons(reasons []string) string {
	switch len(reasons) {
	case 0:
		return ""
	case 1:
		return reasons[0]
	default:
		return strings.Join(reasons[:len(reasons)-1], ", ") + ", and " + reasons[len(reasons)-1]
	}
}

func matchKeyword(text string, keywords []string) string {
	lowered := strings.ToLower(text)
	if lowered == "" {
		return ""
	}
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			return keyword
		}
	}
	return ""
}

func wantWithoutNeed(justification string) bool {
	lowered := strings.ToLower(justification)
	return strings.Contains(lowered, "want") && !strings.Contains(lowered, "need")
}
