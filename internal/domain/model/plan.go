package model

import "time"

// Plan type constants
const (
	PlanTypeHotspot = "hotspot"
	PlanTypePPPoE   = "pppoe"
	PlanTypeStatic  = "static"
)

// Plan represents a purchasable access offering shown on the captive portal.
// Plans are immutable from the client's point of view: the portal fetches
// them once per session and selects by reference.
type Plan struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Name            string    `gorm:"not null;size:200" json:"name"`
	Description     string    `gorm:"size:500" json:"description,omitempty"`
	Type            string    `gorm:"not null;size:20;default:'hotspot'" json:"type"`
	Price           int       `gorm:"not null" json:"price"` // whole currency units
	ValidityMinutes int       `gorm:"default:0" json:"validityMinutes"`
	SortOrder       int       `gorm:"default:0" json:"sortOrder"`
	IsActive        bool      `gorm:"default:true" json:"isActive"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (Plan) TableName() string {
	return "plans"
}
