package signal

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"purchase-verdict/internal/engine"
	"purchase-verdict/internal/store"
)

// Assembler gathers every decision-relevant signal for one evaluation.
type Assembler struct {
	db       *store.Database
	vendors  VendorMatcher
	embedder Embedder
}

// NewAssembler wires the context builders to their collaborators. The
// embedder may be nil when no credential is configured.
func NewAssembler(db *store.Database, vendors VendorMatcher, embedder Embedder) *Assembler {
	return &Assembler{db: db, vendors: vendors, embedder: embedder}
}

// Build fans the independent context builders out concurrently and joins
// them into one EvaluationContext. A failing builder degrades to its neutral
// value; the assembly itself only fails when the context is cancelled.
func (a *Assembler) Build(ctx context.Context, userID uint, input engine.PurchaseInput) (*EvaluationContext, error) {
	ec := &EvaluationContext{Psych: neutralPsych()}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if a.vendors == nil || input.Vendor == "" {
			return nil
		}
		match, err := a.vendors.Match(input.Vendor, input.Category)
		if err != nil {
			logrus.WithError(err).Warn("vendor lookup failed; continuing without a match")
			return nil
		}
		ec.Vendor = match
		return nil
	})

	g.Go(func() error {
		user, err := a.db.UserByID(userID)
		if err != nil {
			logrus.WithError(err).Warn("profile fetch failed; continuing with empty profile")
			ec.Profile = "No profile information available."
			return nil
		}
		ec.Profile, ec.Psych = BuildProfile(user)
		ec.WeeklyBudget = user.WeeklyBudget
		ec.CoreValues = user.CoreValues()
		return nil
	})

	g.Go(func() error {
		ec.RecentHistory, ec.RecentSimilar = a.buildWindow(gctx, userID, input, store.WindowRecent)
		return nil
	})

	g.Go(func() error {
		ec.LongTermHistory, ec.LongTermSimilar = a.buildWindow(gctx, userID, input, store.WindowLongTerm)
		return nil
	})

	g.Go(func() error {
		feedbacks, err := a.db.FeedbackByCategory(userID, input.Category)
		if err != nil {
			logrus.WithError(err).Warn("feedback fetch failed; repetition risk unknown")
			feedbacks = nil
		}
		ec.PatternRepetition = PatternRepetition(feedbacks, input.Category)
		ec.HasRegretHistory = len(feedbacks) > 0
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Strain needs the budget, so it runs after the join.
	ec.FinancialStrain = FinancialStrain(input.Price, ec.WeeklyBudget, input.IsImportant)

	return ec, nil
}

func (a *Assembler) buildWindow(ctx context.Context, userID uint, input engine.PurchaseInput, window store.FeedbackWindow) (history, similar string) {
	records, err := a.db.PurchaseHistory(userID, window)
	if err != nil {
		logrus.WithError(err).WithField("window", window).Warn("history fetch failed; continuing without it")
		return "(history unavailable)", "(history unavailable)"
	}
	items := HistoryItems(records)
	return FormatHistory(items), RankSimilar(ctx, input, items, a.embedder, TopSimilar)
}
