package models

import (
	"fmt"
	"time"
)

const (
	LIMIT_PERIOD_DAY      = "day"
	LIMIT_PERIOD_MONTH    = "month"
	LIMIT_PERIOD_LIFETIME = "lifetime"
)

// Entitlement is one row of the plan-to-feature matrix: whether a feature
// is enabled for a plan and, if limited, how much usage is allowed per
// period. Exactly one row exists per (plan, feature) pair.
type Entitlement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PlanCode    string    `gorm:"type:varchar(50);uniqueIndex:uk_plan_feature,priority:1" json:"plan_code" validate:"required,max=50"`
	FeatureCode string    `gorm:"type:varchar(50);uniqueIndex:uk_plan_feature,priority:2" json:"feature_code" validate:"required,max=50"`
	LimitValue  *int64    `gorm:"default:null" json:"limit_value"`
	LimitPeriod string    `gorm:"type:varchar(20);default:null" json:"limit_period" validate:"omitempty,oneof=day month lifetime"`
	IsEnabled   bool      `gorm:"default:false" json:"is_enabled"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Validate checks field-level rules on the entitlement row.
func (e *Entitlement) Validate() error {
	return validateStruct(e)
}

// IsUnlimited reports whether the row grants unmetered use of the feature.
func (e *Entitlement) IsUnlimited() bool {
	return e.IsEnabled && e.LimitValue == nil
}

// CheckQuotaInvariant enforces the catalog rule that a disabled row carries
// no quota (limit 0, no period) and that a limited row names its period.
// Violations mean the catalog document itself is corrupt.
func (e *Entitlement) CheckQuotaInvariant() error {
	if !e.IsEnabled {
		if e.LimitValue == nil || *e.LimitValue != 0 {
			return fmt.Errorf("entitlement %s/%s: disabled row must carry limit_value 0", e.PlanCode, e.FeatureCode)
		}
		if e.LimitPeriod != "" {
			return fmt.Errorf("entitlement %s/%s: disabled row must not carry a limit_period", e.PlanCode, e.FeatureCode)
		}
		return nil
	}
	if e.LimitValue == nil {
		if e.LimitPeriod != "" {
			return fmt.Errorf("entitlement %s/%s: unlimited row must not carry a limit_period", e.PlanCode, e.FeatureCode)
		}
		return nil
	}
	if *e.LimitValue < 0 {
		return fmt.Errorf("entitlement %s/%s: negative limit_value %d", e.PlanCode, e.FeatureCode, *e.LimitValue)
	}
	if e.LimitPeriod == "" {
		return fmt.Errorf("entitlement %s/%s: limited row must carry a limit_period", e.PlanCode, e.FeatureCode)
	}
	return nil
}
