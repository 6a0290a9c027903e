package models

import "time"

// UsageCounter is the durable mirror of one per-window feature usage
// count. The live count lives in Redis; these rows survive cache loss and
// become garbage once their window plus a grace period has elapsed.
type UsageCounter struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerKey    string    `gorm:"type:varchar(100);uniqueIndex:uk_owner_feature_window,priority:1" json:"owner_key" validate:"required,max=100"`
	FeatureCode string    `gorm:"type:varchar(50);uniqueIndex:uk_owner_feature_window,priority:2" json:"feature_code" validate:"required,max=50"`
	WindowStart time.Time `gorm:"uniqueIndex:uk_owner_feature_window,priority:3" json:"window_start"`
	WindowEnd   *time.Time `gorm:"default:null" json:"window_end"`
	Count       int64     `gorm:"default:0" json:"count" validate:"min=0"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
