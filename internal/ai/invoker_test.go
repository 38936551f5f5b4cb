package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"purchase-verdict/internal/engine"
)

type scriptedJudge struct {
	completions []Completion
	errs        []error
	calls       int
	userPrompts []string
	disabled    bool
}

func (j *scriptedJudge) Enabled() bool { return !j.disabled }

func (j *scriptedJudge) Complete(_ context.Context, _, user string) (Completion, error) {
	idx := j.calls
	j.calls++
	j.userPrompts = append(j.userPrompts, user)
	if idx < len(j.errs) && j.errs[idx] != nil {
		return Completion{}, j.errs[idx]
	}
	if idx < len(j.completions) {
		return j.completions[idx], nil
	}
	return Completion{}, nil
}

const validJudgeJSON = `{
	"value_conflict": {"score": 0.2, "explanation": "aligned"},
	"pattern_repetition": {"score": 0.3, "explanation": "little history"},
	"emotional_impulse": {"score": 0.4, "explanation": "some urgency"},
	"financial_strain": {"score": 0.5, "explanation": "half the budget"},
	"long_term_utility": {"score": 0.7, "explanation": "daily use"},
	"emotional_support": {"score": 0.3, "explanation": "modest"},
	"verdict": "hold",
	"confidence": 0.6,
	"alternative_solution": "Wait for the next sale.",
	"rationale": "Mixed signals; a day of reflection costs nothing."
}`

func invokeInput() InvokeInput {
	return InvokeInput{
		SystemPrompt: "system",
		UserPrompt:   "user",
		Purchase:     engine.PurchaseInput{Title: "Monitor", Category: "electronics"},
	}
}

func newTestInvoker(judge Judge) *Invoker {
	return NewInvoker(judge, engine.NewOverridePolicy(engine.DefaultModelConfig()))
}

func TestInvokeSuccessFirstAttempt(t *testing.T) {
	judge := &scriptedJudge{completions: []Completion{{Content: validJudgeJSON}}}
	resp, outcomes, err := newTestInvoker(judge).Invoke(context.Background(), invokeInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if judge.calls != 1 {
		t.Fatalf("expected 1 call got %d", judge.calls)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected no failed attempts got %d", len(outcomes))
	}
	if resp.Verdict != "hold" {
		t.Fatalf("expected verdict hold got %q", resp.Verdict)
	}
}

func TestInvokeRetriesOnContentError(t *testing.T) {
	judge := &scriptedJudge{completions: []Completion{
		{Content: "not json at all"},
		{Content: validJudgeJSON},
	}}
	resp, outcomes, err := newTestInvoker(judge).Invoke(context.Background(), invokeInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if judge.calls != 2 {
		t.Fatalf("expected 2 calls got %d", judge.calls)
	}
	if len(outcomes) != 1 || outcomes[0].Attempt != 1 || outcomes[0].Reason != ReasonNotStructured {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
	if resp == nil {
		t.Fatal("expected a response")
	}
	// The retry prompt carries the first rejection reason back to the judge.
	if !strings.Contains(judge.userPrompts[1], ReasonNotStructured) {
		t.Fatalf("retry prompt missing rejection reason:\n%s", judge.userPrompts[1])
	}
	if strings.Contains(judge.userPrompts[0], ReasonNotStructured) {
		t.Fatal("first prompt must not carry a rejection notice")
	}
}

func TestInvokeGivesUpAfterSecondRejection(t *testing.T) {
	judge := &scriptedJudge{completions: []Completion{
		{Content: "garbage"},
		{Truncated: true},
	}}
	resp, outcomes, err := newTestInvoker(judge).Invoke(context.Background(), invokeInput())
	if resp != nil {
		t.Fatal("expected no response")
	}
	if judge.calls != 2 {
		t.Fatalf("expected 2 calls got %d", judge.calls)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 recorded attempts got %d", len(outcomes))
	}
	var contentErr *ContentError
	if !errors.As(err, &contentErr) {
		t.Fatalf("expected *ContentError got %T: %v", err, err)
	}
	if contentErr.Reason != ReasonTokenLimit {
		t.Fatalf("expected final reason %q got %q", ReasonTokenLimit, contentErr.Reason)
	}
}

func TestInvokeTransportErrorIsNotRetried(t *testing.T) {
	transport := errors.New("connection refused")
	judge := &scriptedJudge{errs: []error{transport}}
	_, _, err := newTestInvoker(judge).Invoke(context.Background(), invokeInput())
	if !errors.Is(err, transport) {
		t.Fatalf("expected transport error got %v", err)
	}
	if judge.calls != 1 {
		t.Fatalf("expected 1 call got %d", judge.calls)
	}
}

func TestInvokeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	judge := &scriptedJudge{errs: []error{errors.New("request aborted")}}
	_, _, err := newTestInvoker(judge).Invoke(ctx, invokeInput())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled got %v", err)
	}
}

func TestInvokeDisabledJudge(t *testing.T) {
	judge := &scriptedJudge{disabled: true}
	_, _, err := newTestInvoker(judge).Invoke(context.Background(), invokeInput())
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled got %v", err)
	}
	if judge.calls != 0 {
		t.Fatal("disabled judge must not be called")
	}
}

func TestInvokeRejectsEssentialSkip(t *testing.T) {
	skipJSON := strings.Replace(validJudgeJSON, `"verdict": "hold"`, `"verdict": "skip"`, 1)
	skipJSON = strings.Replace(skipJSON,
		`"rationale": "Mixed signals; a day of reflection costs nothing."`,
		`"rationale": "This is an important purchase and the price is justified, yet skipping is safer."`, 1)

	judge := &scriptedJudge{completions: []Completion{
		{Content: skipJSON},
		{Content: skipJSON},
	}}

	price := 1800.0
	in := invokeInput()
	in.Purchase = engine.PurchaseInput{
		Title:         "Editing Workstation",
		Price:         &price,
		Category:      "electronics",
		Justification: "Required for work, mostly video editing.",
		IsImportant:   true,
	}
	in.Vendor = &engine.VendorMatch{Name: "ProGear", PriceTier: engine.TierLuxury}

	resp, outcomes, err := newTestInvoker(judge).Invoke(context.Background(), in)
	if resp != nil {
		t.Fatal("expected no response")
	}
	var contentErr *ContentError
	if !errors.As(err, &contentErr) {
		t.Fatalf("expected *ContentError got %T: %v", err, err)
	}
	if !strings.Contains(contentErr.Reason, "essential") {
		t.Fatalf("unexpected reason: %q", contentErr.Reason)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected both attempts rejected, got %d", len(outcomes))
	}
}

func TestSanitizeClampsAndTrims(t *testing.T) {
	resp := validResponse()
	resp.ValueConflict.Score = fptr(1.7)
	resp.FinancialStrain.Score = fptr(-0.4)
	resp.Confidence = fptr(2)
	resp.Rationale = "  padded rationale  "
	resp.AlternativeSolution = " wait a week "

	sanitize(resp)

	if *resp.ValueConflict.Score != 1 {
		t.Fatalf("expected clamp to 1 got %.2f", *resp.ValueConflict.Score)
	}
	if *resp.FinancialStrain.Score != 0 {
		t.Fatalf("expected clamp to 0 got %.2f", *resp.FinancialStrain.Score)
	}
	if *resp.Confidence != 1 {
		t.Fatalf("expected confidence clamp to 1 got %.2f", *resp.Confidence)
	}
	if resp.Rationale != "padded rationale" || resp.AlternativeSolution != "wait a week" {
		t.Fatal("free text not trimmed")
	}
}
