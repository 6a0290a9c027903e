package repository

import (
	"errors"

	"github.com/formworks/licensing/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNoAvailableSeats is returned when a reserve finds the pool at
	// capacity. A business rejection, not a defect.
	ErrNoAvailableSeats = errors.New("no available seats in pool")

	// ErrSeatUnderflow is returned when a release would drive the used
	// counter negative. This signals counter corruption elsewhere.
	ErrSeatUnderflow = errors.New("seat release would underflow used counter")
)

// poolRepository implements the PoolRepository interface
type poolRepository struct {
	db *gorm.DB
}

// NewPoolRepository creates a new license pool repository instance
func NewPoolRepository(db *gorm.DB) PoolRepository {
	return &poolRepository{db: db}
}

// Provision creates or resizes the pool row for (org, plan). The row keeps
// its used count across resizes; available is recomputed from the new total.
func (r *poolRepository) Provision(pool *models.LicensePool) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "org_id"},
			{Name: "plan_code"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total":     pool.Total,
			"available": gorm.Expr("? - used", pool.Total),
		}),
	}).Create(pool).Error
}

// Get retrieves the pool counters for one (org, plan) pair
func (r *poolRepository) Get(orgID uint, planCode string) (*models.LicensePool, error) {
	var pool models.LicensePool
	err := r.db.Where("org_id = ? AND plan_code = ?", orgID, planCode).First(&pool).Error
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

// ListByOrg retrieves all pools of an organization
func (r *poolRepository) ListByOrg(orgID uint) ([]models.LicensePool, error) {
	var pools []models.LicensePool
	err := r.db.Where("org_id = ?", orgID).Order("plan_code").Find(&pools).Error
	return pools, err
}

// ReserveSeat consumes one available seat. The available > 0 guard lives in
// the WHERE clause so two concurrent reserves can never both win the last
// seat; zero rows affected means exhausted (or missing) pool.
func (r *poolRepository) ReserveSeat(orgID uint, planCode string) error {
	res := r.db.Model(&models.LicensePool{}).
		Where("org_id = ? AND plan_code = ? AND available > 0", orgID, planCode).
		Updates(map[string]interface{}{
			"used":      gorm.Expr("used + 1"),
			"available": gorm.Expr("available - 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(orgID, planCode); err != nil {
			return err
		}
		return ErrNoAvailableSeats
	}
	return nil
}

// ReleaseSeat returns one used seat to the pool. The used > 0 guard keeps
// the counter from going negative; zero rows affected on an existing pool
// means the ledger was already corrupt.
func (r *poolRepository) ReleaseSeat(orgID uint, planCode string) error {
	res := r.db.Model(&models.LicensePool{}).
		Where("org_id = ? AND plan_code = ? AND used > 0", orgID, planCode).
		Updates(map[string]interface{}{
			"used":      gorm.Expr("used - 1"),
			"available": gorm.Expr("available + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(orgID, planCode); err != nil {
			return err
		}
		return ErrSeatUnderflow
	}
	return nil
}
