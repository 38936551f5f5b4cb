package engine

import "strings"

// OverridePolicy forces reconsideration of a skip verdict for important,
// essential, high-utility purchases. It only applies to judge-path results.
type OverridePolicy struct {
	cfg ModelConfig
}

// NewOverridePolicy constructs the policy from the injected model config.
func NewOverridePolicy(cfg ModelConfig) OverridePolicy {
	return OverridePolicy{cfg: cfg}
}

// IsEssentialImportantHighUtility reports whether the candidate qualifies for
// the essential override: marked important, justified with an essential
// token, long-term utility at or above the configured threshold, and either
// a high price relative to budget or a premium/luxury vendor tier.
func (p OverridePolicy) IsEssentialImportantHighUtility(in PurchaseInput, longTermUtility float64, vendor *VendorMatch, weeklyBudget *float64) bool {
	if !in.IsImportant {
		return false
	}
	if !containsEssentialToken(in.Justification, p.cfg.Override.EssentialTokens) {
		return false
	}
	if longTermUtility < p.cfg.Override.UtilityThreshold {
		return false
	}
	if p.cfg.PriceIsHigh(in.Price, weeklyBudget) {
		return true
	}
	return vendor != nil && (vendor.PriceTier == TierPremium || vendor.PriceTier == TierLuxury)
}

// Apply rewrites a skip result to buy when the essential predicate holds,
// raising confidence to the configured floor and appending a financing
// suggestion. The input result is left untouched; a new value is returned.
func (p OverridePolicy) Apply(result EvaluationResult, in PurchaseInput, vendor *VendorMatch, weeklyBudget *float64) EvaluationResult {
	if result.Outcome != OutcomeSkip {
		return result
	}
	if !p.IsEssentialImportantHighUtility(in, result.Reasoning.LongTermUtility.Score, vendor, weeklyBudget) {
		return result
	}

	overridden := result
	overridden.Outcome = OutcomeBuy
	if overridden.Confidence < p.cfg.Override.ConfidenceFloor {
		overridden.Confidence = p.cfg.Override.ConfidenceFloor
	}
	suggestion := "Since this is an essential, high-utility purchase, consider financing options or a payment plan rather than skipping it."
	overridden.Reasoning.Rationale = strings.TrimSpace(result.Reasoning.Rationale + " " + suggestion)
	if overridden.Reasoning.AlternativeSolution == "" {
		overridden.Reasoning.AlternativeSolution = suggestion
	}
	return overridden
}

func containsEssentialToken(justification string, tokens []string) bool {
	lowered := strings.ToLower(justification)
	if strings.TrimSpace(lowered) == "" {
		return false
	}
	for _, token := range tokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}
