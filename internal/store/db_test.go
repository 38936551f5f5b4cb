package store

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertUser(t *testing.T) {
	db := openTestDB(t)

	budget := 120.0
	user := &User{Email: "Sam@Example.com", DisplayName: "Sam", WeeklyBudget: &budget}
	if err := db.UpsertUser(user); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if user.Email != "sam@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}

	update := &User{Email: "sam@example.com", DisplayName: "Samuel"}
	if err := db.UpsertUser(update); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.UserByID(user.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.DisplayName != "Samuel" {
		t.Fatalf("expected updated display name got %s", got.DisplayName)
	}
}

func TestSaveVerdictUpsert(t *testing.T) {
	db := openTestDB(t)

	verdict := &Verdict{PublicID: "v-1", UserID: 7, Title: "Headphones", Outcome: "hold", Confidence: 0.6, Algorithm: "standard_v1"}
	if err := db.SaveVerdict(verdict); err != nil {
		t.Fatalf("insert: %v", err)
	}

	update := &Verdict{PublicID: "v-1", UserID: 7, Title: "Headphones", Outcome: "skip", Confidence: 0.8, Algorithm: "standard_v1"}
	if err := db.SaveVerdict(update); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.VerdictByPublicID("v-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Outcome != "skip" || got.Confidence != 0.8 {
		t.Fatalf("expected updated verdict got %+v", got)
	}

	if _, err := db.VerdictByPublicID("missing"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound got %v", err)
	}
}

func TestListVerdicts(t *testing.T) {
	db := openTestDB(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		v := &Verdict{
			PublicID:  "list-" + string(rune('a'+i)),
			UserID:    3,
			Title:     "Item",
			Outcome:   "buy",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.SaveVerdict(v); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if err := db.SaveVerdict(&Verdict{PublicID: "other", UserID: 9, Outcome: "buy"}); err != nil {
		t.Fatalf("insert other user: %v", err)
	}

	verdicts, total, err := db.ListVerdicts(3, 0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5 got %d", total)
	}
	if len(verdicts) != 2 {
		t.Fatalf("expected 2 rows got %d", len(verdicts))
	}
	if verdicts[0].PublicID != "list-e" || verdicts[1].PublicID != "list-d" {
		t.Fatalf("expected newest first got %s, %s", verdicts[0].PublicID, verdicts[1].PublicID)
	}

	page2, _, err := db.ListVerdicts(3, 2, 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if page2[0].PublicID != "list-c" {
		t.Fatalf("unexpected page 2 head: %s", page2[0].PublicID)
	}
}

func seedPurchaseWithFeedback(t *testing.T, db *Database, userID uint, title, category string, ages ...time.Duration) Purchase {
	t.Helper()
	purchase := Purchase{UserID: userID, Title: title, Category: category}
	if err := db.CreatePurchase(&purchase); err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	for _, age := range ages {
		fb := Feedback{
			PurchaseID: purchase.ID,
			UserID:     userID,
			Label:      FeedbackRegret,
			Checkpoint: "1w",
			CreatedAt:  time.Now().Add(-age),
		}
		if err := db.CreateFeedback(&fb); err != nil {
			t.Fatalf("create feedback: %v", err)
		}
	}
	return purchase
}

func TestPurchaseHistoryWindows(t *testing.T) {
	db := openTestDB(t)
	const userID = 1

	day := 24 * time.Hour
	recent := seedPurchaseWithFeedback(t, db, userID, "Recent Buy", "electronics", 2*day)
	old := seedPurchaseWithFeedback(t, db, userID, "Old Buy", "electronics", 200*day)
	seedPurchaseWithFeedback(t, db, userID, "Mid Buy", "electronics", 100*day)
	seedPurchaseWithFeedback(t, db, 2, "Other User", "electronics", 2*day)

	t.Run("recent window", func(t *testing.T) {
		records, err := db.PurchaseHistory(userID, WindowRecent)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(records) != 1 || records[0].Purchase.ID != recent.ID {
			t.Fatalf("expected only the recent purchase got %+v", records)
		}
	})

	t.Run("long-term window", func(t *testing.T) {
		records, err := db.PurchaseHistory(userID, WindowLongTerm)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(records) != 1 || records[0].Purchase.ID != old.ID {
			t.Fatalf("expected only the old purchase got %+v", records)
		}
	})

	t.Run("empty window", func(t *testing.T) {
		records, err := db.PurchaseHistory(42, WindowRecent)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if records != nil {
			t.Fatalf("expected nil got %+v", records)
		}
	})
}

func TestPurchaseHistoryGroupsFeedback(t *testing.T) {
	db := openTestDB(t)
	day := 24 * time.Hour
	purchase := seedPurchaseWithFeedback(t, db, 1, "Keyboard", "electronics", 1*day, 5*day)

	records, err := db.PurchaseHistory(1, WindowRecent)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one grouped record got %d", len(records))
	}
	if records[0].Purchase.ID != purchase.ID || len(records[0].Feedbacks) != 2 {
		t.Fatalf("expected 2 feedbacks on one purchase got %+v", records[0])
	}
}

func TestFeedbackByCategory(t *testing.T) {
	db := openTestDB(t)
	day := 24 * time.Hour
	seedPurchaseWithFeedback(t, db, 1, "Monitor", "electronics", 3*day, 300*day)
	seedPurchaseWithFeedback(t, db, 1, "Novel", "books", 3*day)
	seedPurchaseWithFeedback(t, db, 2, "Tablet", "electronics", 3*day)

	feedbacks, err := db.FeedbackByCategory(1, "electronics")
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	// Category scope spans every window.
	if len(feedbacks) != 2 {
		t.Fatalf("expected 2 feedbacks got %d", len(feedbacks))
	}
}
