package repository

import (
	"strings"

	"github.com/formworks/licensing/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user account in the database
func (r *userRepository) Create(user *models.UserAccount) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user account by its ID
func (r *userRepository) GetByID(id string) (*models.UserAccount, error) {
	var user models.UserAccount
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user account by email within one organization
func (r *userRepository) GetByEmail(orgID uint, email string) (*models.UserAccount, error) {
	var user models.UserAccount
	err := r.db.Where("org_id = ? AND email = ?", orgID, strings.TrimSpace(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user account in the database
func (r *userRepository) Update(user *models.UserAccount) error {
	return r.db.Save(user).Error
}

// Delete removes a user account by its ID
func (r *userRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.UserAccount{}).Error
}

// List retrieves a paginated list of user accounts for an organization
func (r *userRepository) List(orgID uint, offset, limit int) ([]models.UserAccount, error) {
	var users []models.UserAccount
	err := r.db.Where("org_id = ?", orgID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

// CountByOrg returns the total number of user accounts in an organization
func (r *userRepository) CountByOrg(orgID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserAccount{}).Where("org_id = ?", orgID).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of accounts in an organization with the given status
func (r *userRepository) CountByStatus(orgID uint, status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserAccount{}).
		Where("org_id = ? AND status = ?", orgID, status).Count(&count).Error
	return count, err
}

// Search searches user accounts by name or email within one organization
func (r *userRepository) Search(orgID uint, query string) ([]models.UserAccount, error) {
	var users []models.UserAccount
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("org_id = ? AND (name LIKE ? OR email LIKE ?)", orgID, searchPattern, searchPattern).
		Find(&users).Error
	return users, err
}
