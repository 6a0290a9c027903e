package models

import (
	"fmt"
	"time"
)

// LicensePool tracks seat counters for one (organization, plan) pair.
// Invariant: Used + Available == Total with both non-negative, at every
// point in time. The pool is mutated only through the ledger's seat
// operations, never edited directly.
type LicensePool struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrgID     uint      `gorm:"uniqueIndex:uk_org_plan,priority:1" json:"org_id" validate:"required"`
	PlanCode  string    `gorm:"type:varchar(50);uniqueIndex:uk_org_plan,priority:2" json:"plan_code" validate:"required,max=50"`
	Total     int       `gorm:"default:0" json:"total" validate:"min=0"`
	Used      int       `gorm:"default:0" json:"used" validate:"min=0"`
	Available int       `gorm:"default:0" json:"available" validate:"min=0"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CheckConservation verifies the seat-conservation invariant. A violation
// signals counter corruption, not a recoverable business condition.
func (p *LicensePool) CheckConservation() error {
	if p.Used < 0 || p.Available < 0 {
		return fmt.Errorf("pool org=%d plan=%s: negative counter (used=%d available=%d)", p.OrgID, p.PlanCode, p.Used, p.Available)
	}
	if p.Used+p.Available != p.Total {
		return fmt.Errorf("pool org=%d plan=%s: used=%d + available=%d != total=%d", p.OrgID, p.PlanCode, p.Used, p.Available, p.Total)
	}
	return nil
}
