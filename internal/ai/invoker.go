package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"purchase-verdict/internal/engine"
)

// maxAttempts bounds the judge retry loop. It caps latency and cost, not
// shared state.
const maxAttempts = 2

// AttemptOutcome records why one attempt failed. The invoker threads an
// immutable list of these through the loop so every transition is auditable.
type AttemptOutcome struct {
	Attempt int
	Reason  string
}

// InvokeInput carries the prompts plus the fields the importance-policy
// validation needs.
type InvokeInput struct {
	SystemPrompt string
	UserPrompt   string
	Purchase     engine.PurchaseInput
	Vendor       *engine.VendorMatch
	WeeklyBudget *float64
}

// Invoker drives the judge call as a small state machine: ATTEMPT(n) moves
// to SUCCESS on a valid response, retries once on a content failure, and
// terminates in FALLBACK on transport failure or a second rejection.
type Invoker struct {
	judge  Judge
	policy engine.OverridePolicy
}

// NewInvoker wires the judge client and the override policy used during
// importance validation.
func NewInvoker(judge Judge, policy engine.OverridePolicy) *Invoker {
	return &Invoker{judge: judge, policy: policy}
}

// Enabled reports whether the judge path is available at all.
func (iv *Invoker) Enabled() bool {
	return iv != nil && iv.judge != nil && iv.judge.Enabled()
}

// Invoke runs the bounded retry loop. On success it returns the sanitized
// response plus the outcomes of any failed attempts. Any returned error
// means the caller must use the deterministic fallback.
func (iv *Invoker) Invoke(ctx context.Context, in InvokeInput) (*JudgeResponse, []AttemptOutcome, error) {
	if !iv.Enabled() {
		return nil, nil, ErrDisabled
	}

	var outcomes []AttemptOutcome
	userPrompt := in.UserPrompt

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			userPrompt = in.UserPrompt + rejectionNotice(outcomes[len(outcomes)-1].Reason)
		}

		completion, err := iv.judge.Complete(ctx, in.SystemPrompt, userPrompt)
		if err != nil {
			if ctx.Err() != nil {
				// A caller-imposed timeout counts as a transport failure.
				err = ctx.Err()
			}
			return nil, outcomes, err
		}

		resp, err := iv.validate(completion, in)
		if err == nil {
			sanitize(resp)
			return resp, outcomes, nil
		}

		var contentErr *ContentError
		if !errors.As(err, &contentErr) {
			return nil, outcomes, err
		}
		outcomes = append(outcomes, AttemptOutcome{Attempt: attempt, Reason: contentErr.Reason})
		logrus.WithFields(logrus.Fields{
			"attempt": attempt,
			"reason":  contentErr.Reason,
		}).Warn("judge response rejected")
	}

	return nil, outcomes, &ContentError{Reason: outcomes[len(outcomes)-1].Reason}
}

// validate runs the per-attempt checks in their fixed order: parse, leak
// markers, wire shape, then the importance policy.
func (iv *Invoker) validate(completion Completion, in InvokeInput) (*JudgeResponse, error) {
	resp, err := ParseResponse(completion)
	if err != nil {
		return nil, err
	}
	if err := CheckLeaks(resp); err != nil {
		return nil, err
	}
	if err := ValidateShape(resp); err != nil {
		return nil, err
	}
	if in.Purchase.IsImportant {
		essential := iv.policy.IsEssentialImportantHighUtility(
			in.Purchase, scoreOrZero(resp.LongTermUtility), in.Vendor, in.WeeklyBudget)
		if err := ValidateImportancePolicy(resp, essential); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// sanitize clamps every numeric field and trims the free text. It only runs
// on responses that already passed validation.
func sanitize(resp *JudgeResponse) {
	for _, payload := range []*ScorePayload{
		resp.ValueConflict, resp.PatternRepetition, resp.EmotionalImpulse,
		resp.FinancialStrain, resp.LongTermUtility, resp.EmotionalSupport,
		resp.ShortTermRegret, resp.LongTermRegret,
	} {
		if payload != nil && payload.Score != nil {
			clamped := clamp01(*payload.Score)
			payload.Score = &clamped
			payload.Explanation = strings.TrimSpace(payload.Explanation)
		}
	}
	if resp.Confidence != nil {
		clamped := clamp01(*resp.Confidence)
		resp.Confidence = &clamped
	}
	resp.Rationale = strings.TrimSpace(resp.Rationale)
	resp.AlternativeSolution = strings.TrimSpace(resp.AlternativeSolution)
}

func scoreOrZero(payload *ScorePayload) float64 {
	if payload == nil || payload.Score == nil {
		return 0
	}
	return *payload.Score
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
