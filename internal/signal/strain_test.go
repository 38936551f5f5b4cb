package signal

import (
	"math"
	"strings"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func TestFinancialStrain(t *testing.T) {
	tests := []struct {
		name      string
		price     *float64
		budget    *float64
		important bool
		expected  float64
	}{
		{"no price", nil, floatPtr(100), false, 0},
		{"no budget", floatPtr(40), nil, false, 0},
		{"zero budget", floatPtr(40), floatPtr(0), false, 0},
		{"non-important over a third maxes out", floatPtr(40), floatPtr(100), false, 1},
		{"non-important well over a third still one", floatPtr(900), floatPtr(100), false, 1},
		{"non-important under a third uses ratio", floatPtr(30), floatPtr(100), false, 0.3},
		{"important uses raw ratio", floatPtr(40), floatPtr(100), true, 0.4},
		{"important ratio clamped", floatPtr(250), floatPtr(100), true, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FinancialStrain(tc.price, tc.budget, tc.important)
			if math.Abs(got.Score-tc.expected) > 1e-9 {
				t.Fatalf("expected %.2f got %.2f", tc.expected, got.Score)
			}
			if got.Explanation == "" {
				t.Fatal("expected a non-empty explanation")
			}
		})
	}
}

func TestFinancialStrainExplanations(t *testing.T) {
	unknown := FinancialStrain(nil, nil, false)
	if !strings.Contains(unknown.Explanation, "unknown") {
		t.Fatalf("unexpected explanation: %s", unknown.Explanation)
	}

	maxed := FinancialStrain(floatPtr(40), floatPtr(100), false)
	if !strings.Contains(maxed.Explanation, "third") {
		t.Fatalf("unexpected explanation: %s", maxed.Explanation)
	}
}
