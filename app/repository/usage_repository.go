package repository

import (
	"time"

	"github.com/formworks/licensing/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// usageRepository implements the UsageRepository interface
type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new usage counter repository instance
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

// Increment adds one to the durable counter row for the window, creating
// the row on first use. The ON CONFLICT increment keeps concurrent writers
// from losing updates.
func (r *usageRepository) Increment(ownerKey, featureCode string, windowStart time.Time, windowEnd *time.Time) error {
	counter := &models.UsageCounter{
		OwnerKey:    ownerKey,
		FeatureCode: featureCode,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Count:       1,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "owner_key"},
			{Name: "feature_code"},
			{Name: "window_start"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count": gorm.Expr("count + 1"),
		}),
	}).Create(counter).Error
}

// Get retrieves the durable counter row for one window
func (r *usageRepository) Get(ownerKey, featureCode string, windowStart time.Time) (*models.UsageCounter, error) {
	var counter models.UsageCounter
	err := r.db.Where("owner_key = ? AND feature_code = ? AND window_start = ?", ownerKey, featureCode, windowStart).
		First(&counter).Error
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

// DeleteExpired removes counter rows whose window fully elapsed before the
// given cutoff. Rows without a window end (lifetime windows) are kept.
func (r *usageRepository) DeleteExpired(before time.Time) (int64, error) {
	res := r.db.Where("window_end IS NOT NULL AND window_end < ?", before).
		Delete(&models.UsageCounter{})
	return res.RowsAffected, res.Error
}
