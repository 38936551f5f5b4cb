package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"purchase-verdict/internal/engine"
)

// ContentError describes a judge response that failed validation. Its reason
// is fed back to the judge on the retry attempt.
type ContentError struct {
	Reason string
}

func (e *ContentError) Error() string {
	return e.Reason
}

// Retry reasons surfaced to the judge verbatim.
const (
	ReasonEmptyContent  = "empty content"
	ReasonTokenLimit    = "token limit"
	ReasonNotStructured = "not valid structured data"
	ReasonLeakedPrompt  = "leaked prompt template text"
)

// leakMarkers are phrases from the prompt template; their presence in the
// rationale or alternative solution means the judge echoed its instructions
// instead of reasoning.
var leakMarkers = []string{
	"exact json",
	"score constraints",
	"verdict must be lowercase",
	"confidence must be a number",
	"alternative_solution may be empty",
	"respond with this exact",
}

// Phrase patterns for the importance-policy checks. Kept declarative so each
// list can be unit-tested in isolation.
var (
	importanceAckPatterns = []string{
		"important purchase",
		"is important",
		"high-priority",
		"priority purchase",
	}

	priceTolerancePatterns = []string{
		"price is reasonable",
		"price is justified",
		"price is acceptable",
		"worth the cost",
		"worth the price",
		"not a dealbreaker",
		"price is tolerated",
		"elevated price is tolerated",
		"tolerated for important",
	}

	priceNegativePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:price|cost)\s+(?:is|seems|feels|appears)\s+(?:too\s+|very\s+)?(?:high|steep|excessive|expensive)`),
		regexp.MustCompile(`(?i)\b(?:too\s+|very\s+)?(?:high|steep|excessive)\s+(?:price|cost)\b`),
	}

	affordabilityEvidencePatterns = []string{
		"afford",
		"financial strain",
		"budget strain",
		"over budget",
		"stretch the budget",
		"beyond the budget",
	}

	lowUtilityEvidencePatterns = []string{
		"low long-term utility",
		"limited long-term",
		"little long-term value",
		"low utility",
		"marginal utility",
	}
)

// ParseResponse turns raw judge content into a JudgeResponse or a
// ContentError naming the retry reason.
func ParseResponse(completion Completion) (*JudgeResponse, error) {
	content := normalizeJSONBlock(completion.Content)
	if content == "" {
		if completion.Truncated {
			return nil, &ContentError{Reason: ReasonTokenLimit}
		}
		return nil, &ContentError{Reason: ReasonEmptyContent}
	}

	var resp JudgeResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, &ContentError{Reason: ReasonNotStructured}
	}
	return &resp, nil
}

// ValidateShape enforces the wire contract: the six core dimensions present
// with finite scores, a lowercase verdict, a finite confidence, a rationale,
// and an alternative solution for anything but a buy verdict.
func ValidateShape(resp *JudgeResponse) error {
	required := map[string]*ScorePayload{
		"value_conflict":     resp.ValueConflict,
		"pattern_repetition": resp.PatternRepetition,
		"emotional_impulse":  resp.EmotionalImpulse,
		"financial_strain":   resp.FinancialStrain,
		"long_term_utility":  resp.LongTermUtility,
		"emotional_support":  resp.EmotionalSupport,
	}
	for field, payload := range required {
		if payload == nil || payload.Score == nil {
			return &ContentError{Reason: fmt.Sprintf("missing %s score", field)}
		}
		if !isFinite(*payload.Score) {
			return &ContentError{Reason: fmt.Sprintf("%s score is not a finite number", field)}
		}
	}
	for field, payload := range map[string]*ScorePayload{
		"short_term_regret": resp.ShortTermRegret,
		"long_term_regret":  resp.LongTermRegret,
	} {
		if payload != nil && (payload.Score == nil || !isFinite(*payload.Score)) {
			return &ContentError{Reason: fmt.Sprintf("%s score is not a finite number", field)}
		}
	}

	switch resp.Verdict {
	case string(engine.OutcomeBuy), string(engine.OutcomeHold), string(engine.OutcomeSkip):
	default:
		return &ContentError{Reason: fmt.Sprintf("verdict %q is not one of buy, hold, skip", resp.Verdict)}
	}

	if resp.Confidence == nil || !isFinite(*resp.Confidence) {
		return &ContentError{Reason: "confidence is not a finite number"}
	}
	if strings.TrimSpace(resp.Rationale) == "" {
		return &ContentError{Reason: "rationale is empty"}
	}
	if resp.Verdict != string(engine.OutcomeBuy) && strings.TrimSpace(resp.AlternativeSolution) == "" {
		return &ContentError{Reason: "alternative_solution is empty for a non-buy verdict"}
	}
	return nil
}

// CheckLeaks rejects responses whose free-text fields echo the prompt
// template.
func CheckLeaks(resp *JudgeResponse) error {
	for _, text := range []string{resp.Rationale, resp.AlternativeSolution} {
		lowered := strings.ToLower(text)
		for _, marker := range leakMarkers {
			if strings.Contains(lowered, marker) {
				return &ContentError{Reason: ReasonLeakedPrompt}
			}
		}
	}
	return nil
}

// ValidateImportancePolicy applies the important-purchase rules to a parsed
// response. essentialOverride reports whether the essential-override
// predicate holds for this candidate; skip combined with a true predicate is
// always invalid.
func ValidateImportancePolicy(resp *JudgeResponse, essentialOverride bool) error {
	rationale := strings.ToLower(strings.TrimSpace(resp.Rationale))
	if rationale == "" {
		return &ContentError{Reason: "rationale is empty for an important purchase"}
	}
	if !containsAny(rationale, importanceAckPatterns) {
		return &ContentError{Reason: "rationale does not acknowledge the purchase is important"}
	}
	if !containsAny(rationale, priceTolerancePatterns) {
		return &ContentError{Reason: "rationale does not state that the price is tolerated for an important purchase"}
	}
	if framesPriceAsPrimaryNegative(rationale) &&
		!containsAny(rationale, affordabilityEvidencePatterns) &&
		!containsAny(rationale, lowUtilityEvidencePatterns) {
		return &ContentError{Reason: "rationale frames price as the primary negative without affordability or utility evidence"}
	}
	if resp.Verdict == string(engine.OutcomeSkip) && essentialOverride {
		return &ContentError{Reason: "skip verdict for an essential, high-utility, important purchase"}
	}
	return nil
}

func framesPriceAsPrimaryNegative(rationale string) bool {
	for _, pattern := range priceNegativePatterns {
		if pattern.MatchString(rationale) {
			return true
		}
	}
	return false
}

func containsAny(text string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
