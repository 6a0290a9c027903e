package models

import "time"

const (
	CATEGORY_CORE       = "core"
	CATEGORY_ADVANCED   = "advanced"
	CATEGORY_PREMIUM    = "premium"
	CATEGORY_ENTERPRISE = "enterprise"
)

// Feature is a catalog-owned feature definition. Once any entitlement row
// references a feature it is immutable; the catalog evolves add-only.
type Feature struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FeatureCode string    `gorm:"uniqueIndex;type:varchar(50)" json:"feature_code" validate:"required,max=50"`
	Name        string    `gorm:"type:varchar(100)" json:"name" validate:"required,max=100"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"type:varchar(20);default:'core'" json:"category" validate:"oneof=core advanced premium enterprise"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Validate checks field-level rules on the feature definition.
func (f *Feature) Validate() error {
	return validateStruct(f)
}
