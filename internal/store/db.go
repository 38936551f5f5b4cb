package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&User{}, &Vendor{}, &Purchase{}, &Feedback{}, &Verdict{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// GORM exposes the raw gorm.DB handle.
func (d *Database) GORM() *gorm.DB {
	return d.gorm
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertUser inserts or updates a user keyed by email.
func (d *Database) UpsertUser(user *User) error {
	if user == nil {
		return errors.New("user is nil")
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "weekly_budget", "profile_summary",
			"core_values_json", "onboarding_json", "updated_at",
		}),
	}).Create(user).Error
}

// UserByID loads a user record.
func (d *Database) UserByID(id uint) (*User, error) {
	var user User
	if err := d.gorm.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertVendor inserts or updates a catalog vendor keyed by normalized name.
func (d *Database) UpsertVendor(vendor *Vendor) error {
	if vendor == nil {
		return errors.New("vendor is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name_normalized"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "category", "quality", "reliability", "price_tier", "updated_at",
		}),
	}).Create(vendor).Error
}

// ReplaceVendors swaps the catalog with the provided slice.
func (d *Database) ReplaceVendors(vendors []Vendor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Vendor{}).Error; err != nil {
			return err
		}
		if len(vendors) == 0 {
			return nil
		}
		const batchSize = 250
		return tx.CreateInBatches(vendors, batchSize).Error
	})
}

// VendorByNormalizedName returns the exact catalog match, optionally scoped
// to a category.
func (d *Database) VendorByNormalizedName(normalized, category string) (*Vendor, error) {
	query := d.gorm.Model(&Vendor{}).Where("name_normalized = ?", normalized)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var vendor Vendor
	if err := query.First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// VendorsByPartialName returns catalog rows whose normalized name contains
// the supplied fragment, shortest names first.
func (d *Database) VendorsByPartialName(fragment string, limit int) ([]Vendor, error) {
	like := fmt.Sprintf("%%%s%%", fragment)
	query := d.gorm.Model(&Vendor{}).
		Where("name_normalized LIKE ?", like).
		Order("LENGTH(name_normalized) ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var vendors []Vendor
	if err := query.Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

// CountVendors returns the catalog size.
func (d *Database) CountVendors() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Vendor{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreatePurchase inserts a purchase record.
func (d *Database) CreatePurchase(purchase *Purchase) error {
	if purchase == nil {
		return errors.New("purchase is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(purchase).Error
}

// CreateFeedback records a regret signal for a purchase.
func (d *Database) CreateFeedback(feedback *Feedback) error {
	if feedback == nil {
		return errors.New("feedback is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(feedback).Error
}

// SaveVerdict inserts or updates a verdict row keyed by its public ID.
func (d *Database) SaveVerdict(verdict *Verdict) error {
	if verdict == nil {
		return errors.New("verdict is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "public_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"outcome", "confidence", "algorithm", "reasoning_json", "hold_release_at",
		}),
	}).Create(verdict).Error
}

// VerdictByPublicID loads a verdict by its public identifier.
func (d *Database) VerdictByPublicID(publicID string) (*Verdict, error) {
	var verdict Verdict
	if err := d.gorm.Where("public_id = ?", publicID).First(&verdict).Error; err != nil {
		return nil, err
	}
	return &verdict, nil
}

// ListVerdicts returns a paginated set of a user's verdicts, newest first.
func (d *Database) ListVerdicts(userID uint, offset, limit int) ([]Verdict, int64, error) {
	var total int64
	base := d.gorm.Model(&Verdict{}).Where("user_id = ?", userID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := d.gorm.Model(&Verdict{}).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	var verdicts []Verdict
	if err := query.Find(&verdicts).Error; err != nil {
		return nil, 0, err
	}
	return verdicts, total, nil
}
