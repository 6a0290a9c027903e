package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ROLE_REGULAR = "regular"
	ROLE_MANAGER = "manager"
	ROLE_ADMIN   = "admin"

	STATUS_PENDING  = "pending"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
)

// UserAccount is one seat-consuming account inside an organization.
// Status and PlanCode are owned exclusively by the lifecycle service.
// The activity counters are written by the task/form subsystems and are
// read-only here; ActiveProcesses gates removal.
type UserAccount struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrgID       uint   `gorm:"uniqueIndex:uk_org_email,priority:1;index" json:"org_id" validate:"required"`
	Name        string `gorm:"type:varchar(50)" json:"name" validate:"required,max=50"`
	Email       string `gorm:"type:varchar(200);uniqueIndex:uk_org_email,priority:2" json:"email" validate:"required,email,max=200"`
	Role        string `gorm:"type:varchar(20);default:'regular'" json:"role" validate:"oneof=regular manager admin"`
	PlanCode    string `gorm:"type:varchar(50);index" json:"plan_code" validate:"required,max=50"`
	Department  string `gorm:"type:varchar(50);default:null" json:"department" validate:"max=50"`
	Designation string `gorm:"type:varchar(50);default:null" json:"designation" validate:"max=50"`
	Location    string `gorm:"type:varchar(50);default:null" json:"location" validate:"max=50"`
	Status      string `gorm:"type:varchar(20);default:'pending'" json:"status" validate:"oneof=pending active inactive"`

	TasksAssigned   int `gorm:"default:0" json:"tasks_assigned"`
	TasksCompleted  int `gorm:"default:0" json:"tasks_completed"`
	FormsCreated    int `gorm:"default:0" json:"forms_created"`
	ActiveProcesses int `gorm:"default:0" json:"active_processes"`

	LastLoginAt *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewUserAccount builds a pending account with a fresh ID. The caller is
// responsible for validation and for reserving a seat before persisting.
func NewUserAccount(orgID uint, name, email, role, planCode string) *UserAccount {
	return &UserAccount{
		ID:       uuid.NewString(),
		OrgID:    orgID,
		Name:     name,
		Email:    email,
		Role:     role,
		PlanCode: planCode,
		Status:   STATUS_PENDING,
	}
}

// IsActive reports whether the account status is active.
func (u *UserAccount) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// IsPending reports whether the account has not yet accepted its invitation.
func (u *UserAccount) IsPending() bool {
	return u.Status == STATUS_PENDING
}

// HasActiveWork reports whether externally-owned process counters still
// reference this account, blocking removal until work is reassigned.
func (u *UserAccount) HasActiveWork() bool {
	return u.ActiveProcesses > 0
}

// InvitationStale reports whether the account never logged in, or last
// logged in more than the given age ago.
func (u *UserAccount) InvitationStale(maxAge time.Duration, now time.Time) bool {
	if u.LastLoginAt == nil {
		return true
	}
	return now.Sub(*u.LastLoginAt) > maxAge
}

// Validate checks field-level rules and returns a per-field ValidationError.
func (u *UserAccount) Validate() error {
	return validateStruct(u)
}
