package store

import (
	"time"
)

// FeedbackWindow selects which slice of feedback history to read.
type FeedbackWindow string

const (
	// WindowRecent covers purchases whose feedback arrived within the last
	// 30 days.
	WindowRecent FeedbackWindow = "recent"
	// WindowLongTerm covers purchases whose feedback is older than six
	// months.
	WindowLongTerm FeedbackWindow = "long_term"
)

const (
	recentWindow   = 30 * 24 * time.Hour
	longTermWindow = 182 * 24 * time.Hour
)

// HistoryRecord joins a purchase with the feedback events that selected it
// into a window.
type HistoryRecord struct {
	Purchase  Purchase
	Feedbacks []Feedback
}

// PurchaseHistory returns the user's purchases joined with feedback for the
// requested window, most recent feedback first.
func (d *Database) PurchaseHistory(userID uint, window FeedbackWindow) ([]HistoryRecord, error) {
	now := time.Now()
	query := d.gorm.Model(&Feedback{}).Where("user_id = ?", userID)
	switch window {
	case WindowLongTerm:
		query = query.Where("created_at <= ?", now.Add(-longTermWindow))
	default:
		query = query.Where("created_at >= ?", now.Add(-recentWindow))
	}

	var feedbacks []Feedback
	if err := query.Order("created_at DESC").Find(&feedbacks).Error; err != nil {
		return nil, err
	}
	if len(feedbacks) == 0 {
		return nil, nil
	}

	byPurchase := make(map[uint][]Feedback, len(feedbacks))
	order := make([]uint, 0, len(feedbacks))
	for _, fb := range feedbacks {
		if _, seen := byPurchase[fb.PurchaseID]; !seen {
			order = append(order, fb.PurchaseID)
		}
		byPurchase[fb.PurchaseID] = append(byPurchase[fb.PurchaseID], fb)
	}

	var purchases []Purchase
	if err := d.gorm.Where("id IN ?", order).Find(&purchases).Error; err != nil {
		return nil, err
	}
	purchaseByID := make(map[uint]Purchase, len(purchases))
	for _, p := range purchases {
		purchaseByID[p.ID] = p
	}

	records := make([]HistoryRecord, 0, len(order))
	for _, id := range order {
		purchase, ok := purchaseByID[id]
		if !ok {
			continue
		}
		records = append(records, HistoryRecord{Purchase: purchase, Feedbacks: byPurchase[id]})
	}
	return records, nil
}

// FeedbackByCategory returns every feedback event attached to the user's
// purchases in the given category.
func (d *Database) FeedbackByCategory(userID uint, category string) ([]Feedback, error) {
	var feedbacks []Feedback
	err := d.gorm.Model(&Feedback{}).
		Joins("JOIN purchases ON purchases.id = feedbacks.purchase_id").
		Where("feedbacks.user_id = ? AND purchases.category = ?", userID, category).
		Order("feedbacks.created_at DESC").
		Find(&feedbacks).Error
	if err != nil {
		return nil, err
	}
	return feedbacks, nil
}
