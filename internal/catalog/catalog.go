package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gorm.io/gorm"

	"purchase-verdict/internal/engine"
	"purchase-verdict/internal/store"
)

// Service resolves free-text vendor names against the stored catalog.
type Service struct {
	db *store.Database
}

// NewService constructs a catalog service over the store.
func NewService(db *store.Database) *Service {
	return &Service{db: db}
}

const partialMatchLimit = 5

// Match resolves a vendor name (plus optional category hint) to a catalog
// entry. Exact normalized match wins; otherwise the shortest partial match
// is taken. A nil result with nil error means no match, which is a normal
// outcome, not a failure.
func (s *Service) Match(name, category string) (*engine.VendorMatch, error) {
	normalized := normalizeName(name)
	if normalized == "" {
		return nil, nil
	}
	categoryKey := strings.ToLower(strings.TrimSpace(category))

	vendor, err := s.db.VendorByNormalizedName(normalized, categoryKey)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("vendor lookup: %w", err)
	}
	if vendor == nil && categoryKey != "" {
		// Retry the exact match without the category scope before going
		// partial.
		vendor, err = s.db.VendorByNormalizedName(normalized, "")
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("vendor lookup: %w", err)
		}
	}
	if vendor == nil {
		candidates, err := s.db.VendorsByPartialName(normalized, partialMatchLimit)
		if err != nil {
			return nil, fmt.Errorf("vendor partial lookup: %w", err)
		}
		if len(candidates) > 0 {
			vendor = &candidates[0]
		}
	}
	if vendor == nil {
		return nil, nil
	}
	return toMatch(vendor), nil
}

// Count returns the catalog size.
func (s *Service) Count() int {
	if s == nil {
		return 0
	}
	count, err := s.db.CountVendors()
	if err != nil {
		return 0
	}
	return int(count)
}

// LoadFromCSV ingests a vendor catalog file with columns
// name,category,quality,reliability,price_tier and replaces the stored
// catalog.
func (s *Service) LoadFromCSV(path string) (int, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, fmt.Errorf("vendor catalog path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open vendor catalog: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.FieldsPerRecord = -1

	var vendors []store.Vendor
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read vendor catalog row: %w", err)
		}
		if len(row) < 5 {
			continue
		}

		name := strings.TrimSpace(row[0])
		normalized := normalizeName(name)
		if normalized == "" || strings.EqualFold(name, "name") {
			continue
		}

		vendors = append(vendors, store.Vendor{
			Name:           name,
			NameNormalized: normalized,
			Category:       strings.ToLower(strings.TrimSpace(row[1])),
			Quality:        normalizeLevel(row[2]),
			Reliability:    normalizeLevel(row[3]),
			PriceTier:      normalizeTier(row[4]),
		})
	}

	if err := s.db.ReplaceVendors(vendors); err != nil {
		return 0, err
	}
	return len(vendors), nil
}

func toMatch(v *store.Vendor) *engine.VendorMatch {
	return &engine.VendorMatch{
		ID:          v.ID,
		Name:        v.Name,
		Category:    v.Category,
		Quality:     v.Quality,
		Reliability: v.Reliability,
		PriceTier:   v.PriceTier,
	}
}

// normalizeName lowercases and strips everything but letters and digits so
// "B&H Photo" and "bh photo" resolve to the same key.
func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeLevel(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case engine.LevelLow:
		return engine.LevelLow
	case engine.LevelHigh:
		return engine.LevelHigh
	default:
		return engine.LevelMedium
	}
}

func normalizeTier(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case engine.TierBudget:
		return engine.TierBudget
	case engine.TierPremium:
		return engine.TierPremium
	case engine.TierLuxury:
		return engine.TierLuxury
	default:
		return engine.TierMidRange
	}
}
