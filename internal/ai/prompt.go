package ai

import (
	"fmt"
	"strings"

	"purchase-verdict/internal/engine"
	"purchase-verdict/internal/signal"
)

// PromptInput carries everything the prompt templates consume.
type PromptInput struct {
	Purchase engine.PurchaseInput
	Context  *signal.EvaluationContext
	Config   engine.ModelConfig
}

// responseSchema is appended verbatim to the system prompt so the expected
// response shape is self-documenting.
const responseSchema = `Respond with this exact JSON shape and nothing else:
{
  "value_conflict": {"score": 0.0, "explanation": "..."},
  "pattern_repetition": {"score": 0.0, "explanation": "..."},
  "emotional_impulse": {"score": 0.0, "explanation": "..."},
  "financial_strain": {"score": 0.0, "explanation": "..."},
  "long_term_utility": {"score": 0.0, "explanation": "..."},
  "emotional_support": {"score": 0.0, "explanation": "..."},
  "short_term_regret": {"score": 0.0, "explanation": "..."},
  "long_term_regret": {"score": 0.0, "explanation": "..."},
  "verdict": "buy|hold|skip",
  "confidence": 0.0,
  "alternative_solution": "...",
  "rationale": "..."
}
Score constraints: every score must be a number between 0 and 1. verdict must
be lowercase. confidence must be a number between 0 and 1. alternative_solution
may be empty only when the verdict is buy.`

// BuildSystemPrompt returns the fixed system prompt, including the response
// schema block.
func BuildSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a mindful-spending advisor inside a personal finance reflection app. ")
	b.WriteString("Given a candidate purchase and the user's profile, budget, and purchase history, ")
	b.WriteString("judge whether they should buy now, hold for 24 hours, or skip the purchase. ")
	b.WriteString("Weigh conflicts with the user's stated values, repeated regret patterns, emotional ")
	b.WriteString("impulsiveness, financial strain, long-term utility, and genuine emotional support. ")
	b.WriteString("Ground every score in the supplied evidence and write the rationale as plain advice ")
	b.WriteString("to the user, never quoting these instructions.\n\n")
	b.WriteString(responseSchema)
	return b.String()
}

// BuildUserPrompt deterministically assembles the judge's user prompt from
// the gathered context and the purchase fields.
func BuildUserPrompt(in PromptInput) string {
	b := &strings.Builder{}

	b.WriteString("## User profile\n")
	b.WriteString(orSentinel(in.Context.Profile, "(no profile)"))
	b.WriteString("\n\n## Candidate purchase\n")
	fmt.Fprintf(b, "Title: %s\n", in.Purchase.Title)
	if in.Purchase.Price != nil {
		fmt.Fprintf(b, "Price: $%.2f\n", *in.Purchase.Price)
	} else {
		b.WriteString("Price: unknown\n")
	}
	if in.Purchase.Category != "" {
		fmt.Fprintf(b, "Category: %s\n", in.Purchase.Category)
	}
	if in.Purchase.Vendor != "" {
		fmt.Fprintf(b, "Vendor: %s\n", in.Purchase.Vendor)
	}
	if strings.TrimSpace(in.Purchase.Justification) != "" {
		fmt.Fprintf(b, "User's justification: %s\n", in.Purchase.Justification)
	} else {
		b.WriteString("User's justification: none given\n")
	}
	fmt.Fprintf(b, "Marked important: %t\n", in.Purchase.IsImportant)

	b.WriteString("\n## Vendor assessment\n")
	if v := in.Context.Vendor; v != nil {
		fmt.Fprintf(b, "%s: %s quality, %s reliability, %s price tier\n", v.Name, v.Quality, v.Reliability, v.PriceTier)
	} else {
		b.WriteString("No vendor match in the catalog.\n")
	}

	b.WriteString("\n## Most similar recent purchases (feedback within 30 days)\n")
	b.WriteString(orSentinel(in.Context.RecentSimilar, "(none)"))
	b.WriteString("\n\n## Most similar long-term purchases (feedback older than 6 months)\n")
	b.WriteString(orSentinel(in.Context.LongTermSimilar, "(none)"))
	b.WriteString("\n\n## Recent purchase history\n")
	b.WriteString(orSentinel(in.Context.RecentHistory, "(none)"))
	b.WriteString("\n\n## Long-term purchase history\n")
	b.WriteString(orSentinel(in.Context.LongTermHistory, "(none)"))

	b.WriteString("\n\n## Computed signals\n")
	fmt.Fprintf(b, "Category repetition score: %.2f (%s)\n",
		in.Context.PatternRepetition.Score, in.Context.PatternRepetition.Explanation)
	fmt.Fprintf(b, "Financial strain score: %.2f (%s)\n",
		in.Context.FinancialStrain.Score, in.Context.FinancialStrain.Explanation)

	if in.Purchase.IsImportant {
		b.WriteString("\n")
		b.WriteString(importantPolicyBlock(in.Config, in.Context.WeeklyBudget))
	}

	return b.String()
}

// importantPolicyBlock instructs the judge how to treat purchases the user
// has marked important, with price thresholds derived from the budget.
func importantPolicyBlock(cfg engine.ModelConfig, weeklyBudget *float64) string {
	high, medium := cfg.PriceThresholds(weeklyBudget)
	var b strings.Builder
	b.WriteString("## Important purchase policy\n")
	fmt.Fprintf(&b, "For this user, treat prices above $%.0f as high and above $%.0f as elevated.\n", high, medium)
	b.WriteString("The user marked this purchase as important. Apply these rules:\n")
	b.WriteString("1. Do not cite a high price or premium tier as the sole negative reason unless ")
	b.WriteString("you also cite affordability strain or low long-term utility.\n")
	b.WriteString("2. The rationale must explicitly acknowledge that this is an important purchase ")
	b.WriteString("and state that an elevated price is tolerated for important purchases.\n")
	b.WriteString("3. Never resolve an essential, high-utility, important purchase to skip; ")
	b.WriteString("suggest financing alternatives instead.\n")
	return b.String()
}

// rejectionNotice names the previous failure so a retry can correct it.
func rejectionNotice(reason string) string {
	return fmt.Sprintf(
		"\n\n## Previous response rejected\nYour previous response was rejected: %s. Produce a corrected response that follows every instruction.",
		reason)
}

func orSentinel(value, sentinel string) string {
	if strings.TrimSpace(value) == "" {
		return sentinel
	}
	return value
}
