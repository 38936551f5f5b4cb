package signal

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"purchase-verdict/internal/engine"
)

const (
	// TopSimilar caps how many ranked history lines feed the prompt.
	TopSimilar = 5

	compositeTextLimit = 500
)

// RankSimilar ranks historical purchases by semantic closeness to the
// candidate and returns the top-k formatted lines. With no embedder (or on
// embedding failure) it falls back to exact category matches ordered by most
// recent feedback. Pure function of its inputs; no side effects.
func RankSimilar(ctx context.Context, input engine.PurchaseInput, items []HistoryItem, embedder Embedder, k int) string {
	if len(items) == 0 {
		return "(no comparable purchases)"
	}
	if k <= 0 {
		k = TopSimilar
	}

	if embedder != nil && embedder.Enabled() {
		ranked, err := rankByEmbedding(ctx, input, items, embedder, k)
		if err == nil {
			return FormatHistory(ranked)
		}
		logrus.WithError(err).Debug("embedding ranking failed; using category fallback")
	}

	return FormatHistory(rankByCategory(input.Category, items, k))
}

func rankByEmbedding(ctx context.Context, input engine.PurchaseInput, items []HistoryItem, embedder Embedder, k int) ([]HistoryItem, error) {
	texts := make([]string, 0, len(items)+1)
	texts = append(texts, compositeText(input.Title, input.Category, input.Vendor, input.Justification))
	for _, item := range items {
		texts = append(texts, compositeText(item.Title, item.Category, item.Vendor, item.Justification))
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	candidate := vectors[0]
	type scored struct {
		item  HistoryItem
		score float64
	}
	ranked := make([]scored, 0, len(items))
	for i, item := range items {
		ranked = append(ranked, scored{item: item, score: cosineSimilarity(candidate, vectors[i+1])})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]HistoryItem, 0, len(ranked))
	for _, entry := range ranked {
		out = append(out, entry.item)
	}
	return out, nil
}

func rankByCategory(category string, items []HistoryItem, k int) []HistoryItem {
	target := strings.ToLower(strings.TrimSpace(category))
	if target == "" {
		return nil
	}
	var matched []HistoryItem
	for _, item := range items {
		if strings.ToLower(strings.TrimSpace(item.Category)) == target {
			matched = append(matched, item)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].LatestFeedback.After(matched[j].LatestFeedback)
	})
	if len(matched) > k {
		matched = matched[:k]
	}
	return matched
}

// compositeText builds the single embedding text for an item, truncated to a
// fixed length.
func compositeText(title, category, vendor, justification string) string {
	text := strings.Join([]string{title, category, vendor, justification}, " | ")
	runes := []rune(text)
	if len(runes) > compositeTextLimit {
		return string(runes[:compositeTextLimit])
	}
	return text
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
