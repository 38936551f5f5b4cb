package signal

import (
	"fmt"
	"strings"

	"purchase-verdict/internal/store"
)

// Psychometric trait keys used in onboarding answers.
const (
	TraitNeuroticism    = "neuroticism"
	TraitMaterialism    = "materialism"
	TraitLocusOfControl = "locus_of_control"
)

// BuildProfile renders the user's stated values, budget, and onboarding
// answers into a compact text summary and derives the psychometric scores.
func BuildProfile(user *store.User) (string, PsychScores) {
	if user == nil {
		return "No profile information available.", neutralPsych()
	}

	var b strings.Builder
	if name := strings.TrimSpace(user.DisplayName); name != "" {
		fmt.Fprintf(&b, "User: %s\n", name)
	}
	if summary := strings.TrimSpace(user.ProfileSummary); summary != "" {
		fmt.Fprintf(&b, "Self-description: %s\n", summary)
	}
	if values := user.CoreValues(); len(values) > 0 {
		fmt.Fprintf(&b, "Stated values: %s\n", strings.Join(values, ", "))
	}
	if user.WeeklyBudget != nil && *user.WeeklyBudget > 0 {
		fmt.Fprintf(&b, "Weekly discretionary budget: $%.2f\n", *user.WeeklyBudget)
	} else {
		b.WriteString("Weekly discretionary budget: not set\n")
	}

	psych := PsychFromAnswers(user.OnboardingAnswers())
	fmt.Fprintf(&b, "Psychometric profile: neuroticism %.2f, materialism %.2f, locus of control %.2f\n",
		psych.Neuroticism, psych.Materialism, psych.LocusOfControl)

	for _, answer := range user.OnboardingAnswers() {
		if q := strings.TrimSpace(answer.Question); q != "" {
			fmt.Fprintf(&b, "Onboarding (%s): %s -> %d/5\n", answer.Trait, q, answer.Value)
		}
	}

	return strings.TrimSpace(b.String()), psych
}

// PsychFromAnswers averages the 1-5 Likert answers per trait and normalizes
// each mean to [0,1]. Traits without answers stay at the neutral 0.5.
func PsychFromAnswers(answers []store.OnboardingAnswer) PsychScores {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, answer := range answers {
		value := answer.Value
		if value < 1 {
			value = 1
		}
		if value > 5 {
			value = 5
		}
		trait := strings.ToLower(strings.TrimSpace(answer.Trait))
		sums[trait] += float64(value-1) / 4
		counts[trait]++
	}

	score := func(trait string) float64 {
		if counts[trait] == 0 {
			return 0.5
		}
		return sums[trait] / float64(counts[trait])
	}

	return PsychScores{
		Neuroticism:    score(TraitNeuroticism),
		Materialism:    score(TraitMaterialism),
		LocusOfControl: score(TraitLocusOfControl),
	}
}

func neutralPsych() PsychScores {
	return PsychScores{Neuroticism: 0.5, Materialism: 0.5, LocusOfControl: 0.5}
}
