package ai

import (
	"strings"
	"testing"

	"purchase-verdict/internal/engine"
	"purchase-verdict/internal/signal"
)

func TestBuildUserPrompt(t *testing.T) {
	price := 120.0
	budget := 150.0
	ec := signal.EmptyContext()
	ec.Profile = "User: Sam\nStated values: frugality"
	ec.WeeklyBudget = &budget
	ec.RecentHistory = "- Desk Lamp (home, $29.99)"
	ec.Vendor = &engine.VendorMatch{Name: "TechBay", Quality: "high", Reliability: "medium", PriceTier: "mid_range"}

	in := PromptInput{
		Purchase: engine.PurchaseInput{
			Title:         "Monitor",
			Price:         &price,
			Category:      "electronics",
			Vendor:        "TechBay",
			Justification: "My current monitor flickers.",
		},
		Context: ec,
		Config:  engine.DefaultModelConfig(),
	}

	prompt := BuildUserPrompt(in)
	for _, fragment := range []string{
		"Title: Monitor",
		"Price: $120.00",
		"User: Sam",
		"TechBay: high quality, medium reliability, mid_range price tier",
		"- Desk Lamp (home, $29.99)",
		"My current monitor flickers.",
		"Marked important: false",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
	if strings.Contains(prompt, "Important purchase policy") {
		t.Fatal("policy block must only appear for important purchases")
	}
}

func TestBuildUserPromptSentinels(t *testing.T) {
	in := PromptInput{
		Purchase: engine.PurchaseInput{Title: "Mystery Box"},
		Context:  signal.EmptyContext(),
		Config:   engine.DefaultModelConfig(),
	}
	prompt := BuildUserPrompt(in)
	for _, fragment := range []string{
		"Price: unknown",
		"User's justification: none given",
		"No vendor match in the catalog.",
		"(none)",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

func TestImportantPolicyBlock(t *testing.T) {
	cfg := engine.DefaultModelConfig()

	t.Run("default thresholds", func(t *testing.T) {
		block := importantPolicyBlock(cfg, nil)
		if !strings.Contains(block, "$800") || !strings.Contains(block, "$400") {
			t.Fatalf("expected default thresholds in:\n%s", block)
		}
	})

	t.Run("budget-derived thresholds", func(t *testing.T) {
		weekly := 250.0
		// monthly 1000 -> high 800, medium 400
		block := importantPolicyBlock(cfg, &weekly)
		if !strings.Contains(block, "$800") || !strings.Contains(block, "$400") {
			t.Fatalf("expected derived thresholds in:\n%s", block)
		}
	})

	t.Run("appears only when marked important", func(t *testing.T) {
		in := PromptInput{
			Purchase: engine.PurchaseInput{Title: "Camera", IsImportant: true},
			Context:  signal.EmptyContext(),
			Config:   cfg,
		}
		prompt := BuildUserPrompt(in)
		if !strings.Contains(prompt, "Important purchase policy") {
			t.Fatalf("expected policy block in:\n%s", prompt)
		}
	})
}

func TestBuildUserPromptDeterministic(t *testing.T) {
	in := PromptInput{
		Purchase: engine.PurchaseInput{Title: "Monitor", Category: "electronics"},
		Context:  signal.EmptyContext(),
		Config:   engine.DefaultModelConfig(),
	}
	if BuildUserPrompt(in) != BuildUserPrompt(in) {
		t.Fatal("identical inputs produced different prompts")
	}
}
