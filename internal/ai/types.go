package ai

// ScorePayload is one scored dimension in the judge's wire response. Score
// is a pointer so a missing field can be told apart from an explicit zero.
type ScorePayload struct {
	Score       *float64 `json:"score"`
	Explanation string   `json:"explanation"`
}

// JudgeResponse is the structured shape the judge must return. It is
// untrusted input: every field goes through validation before use.
type JudgeResponse struct {
	ValueConflict     *ScorePayload `json:"value_conflict"`
	PatternRepetition *ScorePayload `json:"pattern_repetition"`
	EmotionalImpulse  *ScorePayload `json:"emotional_impulse"`
	FinancialStrain   *ScorePayload `json:"financial_strain"`
	LongTermUtility   *ScorePayload `json:"long_term_utility"`
	EmotionalSupport  *ScorePayload `json:"emotional_support"`
	ShortTermRegret   *ScorePayload `json:"short_term_regret"`
	LongTermRegret    *ScorePayload `json:"long_term_regret"`

	Verdict             string   `json:"verdict"`
	Confidence          *float64 `json:"confidence"`
	AlternativeSolution string   `json:"alternative_solution"`
	Rationale           string   `json:"rationale"`
}
