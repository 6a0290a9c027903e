package repository

import (
	"time"

	"github.com/formworks/licensing/app/models"
)

// UserRepository defines the interface for user-account database operations
type UserRepository interface {
	Create(user *models.UserAccount) error
	GetByID(id string) (*models.UserAccount, error)
	GetByEmail(orgID uint, email string) (*models.UserAccount, error)
	Update(user *models.UserAccount) error
	Delete(id string) error
	List(orgID uint, offset, limit int) ([]models.UserAccount, error)
	CountByOrg(orgID uint) (int64, error)
	CountByStatus(orgID uint, status string) (int64, error)
	Search(orgID uint, query string) ([]models.UserAccount, error)
}

// PoolRepository defines the interface for license-pool seat operations.
// ReserveSeat and ReleaseSeat are single conditional updates so the
// compare-and-decrement is atomic in the database regardless of how many
// processes share the pool.
type PoolRepository interface {
	Provision(pool *models.LicensePool) error
	Get(orgID uint, planCode string) (*models.LicensePool, error)
	ListByOrg(orgID uint) ([]models.LicensePool, error)
	ReserveSeat(orgID uint, planCode string) error
	ReleaseSeat(orgID uint, planCode string) error
}

// UsageRepository defines the interface for the durable usage-counter
// mirror rows.
type UsageRepository interface {
	Increment(ownerKey, featureCode string, windowStart time.Time, windowEnd *time.Time) error
	Get(ownerKey, featureCode string, windowStart time.Time) (*models.UsageCounter, error)
	DeleteExpired(before time.Time) (int64, error)
}
