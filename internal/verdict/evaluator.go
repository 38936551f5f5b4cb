package verdict

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"purchase-verdict/internal/ai"
	"purchase-verdict/internal/engine"
	"purchase-verdict/internal/signal"
)

// Request is one evaluation request.
type Request struct {
	UserID   uint
	Purchase engine.PurchaseInput
}

// Evaluator runs the full pipeline for one candidate purchase: concurrent
// context assembly, the judge path when a credential is present, and the
// deterministic fallback otherwise. Every path terminates in a valid result.
type Evaluator struct {
	signals  *signal.Assembler
	invoker  *ai.Invoker
	strategy engine.Strategy
	fallback *engine.FallbackScorer
	override engine.OverridePolicy
	cfg      engine.ModelConfig
}

// NewEvaluator wires the pipeline. invoker may be nil or disabled; the
// evaluator then always takes the fallback path.
func NewEvaluator(signals *signal.Assembler, invoker *ai.Invoker, strategy engine.Strategy, cfg engine.ModelConfig) *Evaluator {
	return &Evaluator{
		signals:  signals,
		invoker:  invoker,
		strategy: strategy,
		fallback: engine.NewFallbackScorer(cfg),
		override: engine.NewOverridePolicy(cfg),
		cfg:      cfg,
	}
}

// Evaluate produces a verdict for the candidate purchase. It never returns
// an error: degraded inputs shrink to neutral signals and a failed judge
// path falls back to the deterministic scorer.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) engine.EvaluationResult {
	started := time.Now()

	ec, err := e.signals.Build(ctx, req.UserID, req.Purchase)
	if err != nil {
		logrus.WithError(err).Warn("context assembly interrupted; evaluating with neutral signals")
		ec = signal.EmptyContext()
	}

	var result engine.EvaluationResult
	if e.invoker != nil && e.invoker.Enabled() && ctx.Err() == nil {
		judged, ok := e.judgePath(ctx, req.Purchase, ec)
		if ok {
			result = judged
		} else {
			result = e.fallbackPath(req.Purchase, ec)
		}
	} else {
		result = e.fallbackPath(req.Purchase, ec)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     req.UserID,
		"outcome":     result.Outcome,
		"confidence":  result.Confidence,
		"algorithm":   result.Reasoning.Algorithm,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("purchase evaluated")

	return result
}

func (e *Evaluator) judgePath(ctx context.Context, purchase engine.PurchaseInput, ec *signal.EvaluationContext) (engine.EvaluationResult, bool) {
	input := ai.InvokeInput{
		SystemPrompt: ai.BuildSystemPrompt(),
		UserPrompt: ai.BuildUserPrompt(ai.PromptInput{
			Purchase: purchase,
			Context:  ec,
			Config:   e.cfg,
		}),
		Purchase:     purchase,
		Vendor:       ec.Vendor,
		WeeklyBudget: ec.WeeklyBudget,
	}

	resp, attempts, err := e.invoker.Invoke(ctx, input)
	if err != nil {
		logrus.WithError(err).WithField("attempts", len(attempts)).Warn("judge path failed; using deterministic fallback")
		return engine.EvaluationResult{}, false
	}

	features := engine.Features{
		ValueConflict:     score(resp.ValueConflict),
		PatternRepetition: score(resp.PatternRepetition),
		EmotionalImpulse:  score(resp.EmotionalImpulse),
		FinancialStrain:   score(resp.FinancialStrain),
		Neuroticism:       ec.Psych.Neuroticism,
		Materialism:       ec.Psych.Materialism,
		LocusOfControl:    ec.Psych.LocusOfControl,
		LongTermUtility:   score(resp.LongTermUtility),
		EmotionalSupport:  score(resp.EmotionalSupport),
	}
	decision := e.strategy.Decide(features)

	reasoning := engine.Reasoning{
		ValueConflict:       explanation(resp.ValueConflict),
		PatternRepetition:   explanation(resp.PatternRepetition),
		EmotionalImpulse:    explanation(resp.EmotionalImpulse),
		FinancialStrain:     explanation(resp.FinancialStrain),
		LongTermUtility:     explanation(resp.LongTermUtility),
		EmotionalSupport:    explanation(resp.EmotionalSupport),
		ShortTermRegret:     optionalExplanation(resp.ShortTermRegret),
		LongTermRegret:      optionalExplanation(resp.LongTermRegret),
		DecisionScore:       decision.DecisionScore,
		RawScore:            decision.RawScore,
		AlternativeSolution: resp.AlternativeSolution,
		Rationale:           normalizeRationale(resp.Rationale),
		ImportantPurchase:   purchase.IsImportant,
		Algorithm:           e.strategy.Name(),
	}

	result := engine.EvaluationResult{
		Outcome:    decision.Outcome,
		Confidence: decision.Confidence,
		Reasoning:  reasoning,
	}

	// The override is a judge-path-only exception to the score-to-outcome
	// mapping.
	result = e.override.Apply(result, purchase, ec.Vendor, ec.WeeklyBudget)
	return result, true
}

func (e *Evaluator) fallbackPath(purchase engine.PurchaseInput, ec *signal.EvaluationContext) engine.EvaluationResult {
	return e.fallback.Evaluate(engine.FallbackInput{
		Purchase:          purchase,
		Vendor:            ec.Vendor,
		WeeklyBudget:      ec.WeeklyBudget,
		PatternRepetition: ec.PatternRepetition,
		FinancialStrain:   ec.FinancialStrain,
		CoreValues:        ec.CoreValues,
		HasRegretHistory:  ec.HasRegretHistory,
	})
}

func score(payload *ai.ScorePayload) float64 {
	if payload == nil || payload.Score == nil {
		return 0
	}
	return *payload.Score
}

func explanation(payload *ai.ScorePayload) engine.ScoreExplanation {
	if payload == nil || payload.Score == nil {
		return engine.NewScoreExplanation(0, "")
	}
	return engine.NewScoreExplanation(*payload.Score, payload.Explanation)
}

func optionalExplanation(payload *ai.ScorePayload) *engine.ScoreExplanation {
	if payload == nil || payload.Score == nil {
		return nil
	}
	se := engine.NewScoreExplanation(*payload.Score, payload.Explanation)
	return &se
}

// normalizeRationale collapses whitespace runs so persisted rationales stay
// single-paragraph.
func normalizeRationale(rationale string) string {
	return strings.Join(strings.Fields(rationale), " ")
}
