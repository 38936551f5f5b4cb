package signal

import (
	"fmt"
	"strings"
	"time"

	"purchase-verdict/internal/store"
)

// HistoryItem is a flattened purchase+feedback record consumed by the
// similarity ranker and the prompt builder.
type HistoryItem struct {
	Title          string
	Category       string
	Vendor         string
	Justification  string
	Price          *float64
	Feedbacks      []FeedbackPoint
	LatestFeedback time.Time
}

// FeedbackPoint is one regret signal at a timing checkpoint.
type FeedbackPoint struct {
	Label      string
	Checkpoint string
}

// HistoryItems flattens store records into ranker inputs.
func HistoryItems(records []store.HistoryRecord) []HistoryItem {
	items := make([]HistoryItem, 0, len(records))
	for _, record := range records {
		item := HistoryItem{
			Title:         record.Purchase.Title,
			Category:      record.Purchase.Category,
			Vendor:        record.Purchase.Vendor,
			Justification: record.Purchase.Justification,
			Price:         record.Purchase.Price,
		}
		for _, fb := range record.Feedbacks {
			item.Feedbacks = append(item.Feedbacks, FeedbackPoint{Label: fb.Label, Checkpoint: fb.Checkpoint})
			if fb.CreatedAt.After(item.LatestFeedback) {
				item.LatestFeedback = fb.CreatedAt
			}
		}
		items = append(items, item)
	}
	return items
}

// FormatHistory renders history items as a plain bulleted block for the
// judge prompt.
func FormatHistory(items []HistoryItem) string {
	if len(items) == 0 {
		return "(no purchases in this window)"
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, formatItem(item))
	}
	return strings.Join(lines, "\n")
}

func formatItem(item HistoryItem) string {
	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(item.Title)
	var details []string
	if item.Category != "" {
		details = append(details, item.Category)
	}
	if item.Price != nil {
		details = append(details, fmt.Sprintf("$%.2f", *item.Price))
	}
	if item.Vendor != "" {
		details = append(details, "from "+item.Vendor)
	}
	if len(details) > 0 {
		b.WriteString(" (" + strings.Join(details, ", ") + ")")
	}
	if len(item.Feedbacks) > 0 {
		signals := make([]string, 0, len(item.Feedbacks))
		for _, fb := range item.Feedbacks {
			if fb.Checkpoint != "" {
				signals = append(signals, fmt.Sprintf("%s@%s", fb.Label, fb.Checkpoint))
			} else {
				signals = append(signals, fb.Label)
			}
		}
		b.WriteString("; feedback: " + strings.Join(signals, ", "))
	}
	return b.String()
}
