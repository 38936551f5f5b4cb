package signal

import (
	"fmt"

	"purchase-verdict/internal/engine"
)

// FinancialStrain measures how much the price burdens the weekly budget.
// Rules:
//   - no price, no budget, or a non-positive budget scores 0;
//   - a non-important purchase above a third of the weekly budget always
//     scores the maximum 1, regardless of how far above it is;
//   - otherwise the raw price/budget ratio, clamped to [0,1].
func FinancialStrain(price, weeklyBudget *float64, isImportant bool) engine.ScoreExplanation {
	if price == nil || weeklyBudget == nil || *weeklyBudget <= 0 {
		return engine.NewScoreExplanation(0, "No price or budget information; financial strain unknown.")
	}
	if !isImportant && *price > *weeklyBudget/3 {
		return engine.NewScoreExplanation(1, fmt.Sprintf(
			"At $%.2f this non-important purchase exceeds a third of the $%.2f weekly budget.", *price, *weeklyBudget))
	}
	ratio := *price / *weeklyBudget
	return engine.NewScoreExplanation(ratio, fmt.Sprintf(
		"$%.2f consumes %.0f%% of the $%.2f weekly budget.", *price, ratio*100, *weeklyBudget))
}
