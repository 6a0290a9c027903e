package pool

import (
	"github.com/formworks/licensing/app/models"
	"github.com/formworks/licensing/app/repository"
	"gorm.io/gorm"
)

// Repository provides DB operations used by the ledger.
type Repository interface {
	Provision(pool *models.LicensePool) error
	Get(orgID uint, planCode string) (*models.LicensePool, error)
	ListByOrg(orgID uint) ([]models.LicensePool, error)
	ReserveSeat(orgID uint, planCode string) error
	ReleaseSeat(orgID uint, planCode string) error
	Transact(fn func(Repository) error) error
}

type gormRepository struct {
	db    *gorm.DB
	pools repository.PoolRepository
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db, pools: repository.NewPoolRepository(db)}
}

func (r *gormRepository) Provision(pool *models.LicensePool) error {
	return r.pools.Provision(pool)
}

func (r *gormRepository) Get(orgID uint, planCode string) (*models.LicensePool, error) {
	return r.pools.Get(orgID, planCode)
}

func (r *gormRepository) ListByOrg(orgID uint) ([]models.LicensePool, error) {
	return r.pools.ListByOrg(orgID)
}

func (r *gormRepository) ReserveSeat(orgID uint, planCode string) error {
	return r.pools.ReserveSeat(orgID, planCode)
}

func (r *gormRepository) ReleaseSeat(orgID uint, planCode string) error {
	return r.pools.ReleaseSeat(orgID, planCode)
}

// Transact runs fn inside one database transaction; fn receives a
// repository bound to that transaction.
func (r *gormRepository) Transact(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
