package model

import "time"

// WalledGarden is a domain reachable without payment, displayed on the
// portal so users know what stays free.
type WalledGarden struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Domain      string    `gorm:"not null;unique;size:253" json:"domain"`
	Description string    `gorm:"size:200" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for GORM
func (WalledGarden) TableName() string {
	return "walled_gardens"
}
