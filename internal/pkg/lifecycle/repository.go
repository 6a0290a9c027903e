package lifecycle

import (
	"github.com/formworks/licensing/app/models"
	"github.com/formworks/licensing/app/repository"
	"gorm.io/gorm"
)

// Repository provides DB operations used by the lifecycle service.
type Repository interface {
	CreateUser(user *models.UserAccount) error
	GetUser(id string) (*models.UserAccount, error)
	GetUserByEmail(orgID uint, email string) (*models.UserAccount, error)
	UpdateUser(user *models.UserAccount) error
	DeleteUser(id string) error
	ListUsers(orgID uint, offset, limit int) ([]models.UserAccount, error)
	SearchUsers(orgID uint, query string) ([]models.UserAccount, error)
	ReserveSeat(orgID uint, planCode string) error
	ReleaseSeat(orgID uint, planCode string) error
	GetPool(orgID uint, planCode string) (*models.LicensePool, error)
	Transact(fn func(Repository) error) error
}

type gormRepository struct {
	db    *gorm.DB
	repos *repository.Repositories
}

// NewRepository creates a lifecycle repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db, repos: repository.NewRepositories(db)}
}

func (r *gormRepository) CreateUser(user *models.UserAccount) error {
	return r.repos.User.Create(user)
}

func (r *gormRepository) GetUser(id string) (*models.UserAccount, error) {
	return r.repos.User.GetByID(id)
}

func (r *gormRepository) GetUserByEmail(orgID uint, email string) (*models.UserAccount, error) {
	return r.repos.User.GetByEmail(orgID, email)
}

func (r *gormRepository) UpdateUser(user *models.UserAccount) error {
	return r.repos.User.Update(user)
}

func (r *gormRepository) DeleteUser(id string) error {
	return r.repos.User.Delete(id)
}

func (r *gormRepository) ListUsers(orgID uint, offset, limit int) ([]models.UserAccount, error) {
	return r.repos.User.List(orgID, offset, limit)
}

func (r *gormRepository) SearchUsers(orgID uint, query string) ([]models.UserAccount, error) {
	return r.repos.User.Search(orgID, query)
}

func (r *gormRepository) ReserveSeat(orgID uint, planCode string) error {
	return r.repos.Pool.ReserveSeat(orgID, planCode)
}

func (r *gormRepository) ReleaseSeat(orgID uint, planCode string) error {
	return r.repos.Pool.ReleaseSeat(orgID, planCode)
}

func (r *gormRepository) GetPool(orgID uint, planCode string) (*models.LicensePool, error) {
	return r.repos.Pool.Get(orgID, planCode)
}

// Transact runs fn inside one database transaction; fn receives a
// repository bound to that transaction so seat changes and user writes
// commit or roll back together.
func (r *gormRepository) Transact(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
