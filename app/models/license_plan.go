package models

import (
	"time"
)

const (
	BILLING_CYCLE_TRIAL   = "trial"
	BILLING_CYCLE_MONTHLY = "monthly"
	BILLING_CYCLE_NONE    = "none"

	// UnlimitedSeats marks a plan with no seat ceiling.
	UnlimitedSeats = -1
)

// LicensePlan is a catalog-owned plan definition. Plans are created and
// edited only through catalog updates and are never hard-deleted while an
// organization still references them; retirement is IsActive=false.
type LicensePlan struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PlanCode        string    `gorm:"uniqueIndex;type:varchar(50)" json:"plan_code" validate:"required,max=50"`
	Name            string    `gorm:"type:varchar(100)" json:"name" validate:"required,max=100"`
	Description     string    `gorm:"type:text" json:"description"`
	BillingCycle    string    `gorm:"type:varchar(20);default:'none'" json:"billing_cycle" validate:"oneof=trial monthly none"`
	MonthlyPrice    int64     `gorm:"default:0" json:"monthly_price"`
	YearlyPrice     int64     `gorm:"default:0" json:"yearly_price"`
	MaxUsers        int       `gorm:"default:-1" json:"max_users" validate:"min=-1"`
	TrialDays       int       `gorm:"default:0" json:"trial_days" validate:"min=0"`
	AutoDowngradeTo string    `gorm:"type:varchar(50);default:null" json:"auto_downgrade_to" validate:"max=50"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Validate checks field-level rules on the plan definition.
func (p *LicensePlan) Validate() error {
	return validateStruct(p)
}

// IsUnlimitedSeats reports whether the plan has no seat ceiling.
func (p *LicensePlan) IsUnlimitedSeats() bool {
	return p.MaxUsers == UnlimitedSeats
}

// IsTrial reports whether the plan is a time-limited trial.
func (p *LicensePlan) IsTrial() bool {
	return p.TrialDays > 0
}
