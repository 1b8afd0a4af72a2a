package model

import "time"

// Transaction status values reported by the payment gateway. The set is
// open: the gateway may introduce other values, and anything outside the
// two terminal ones keeps a transaction live.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// IsTerminal reports whether a status value ends polling.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// Transaction represents one mobile-money payment attempt. The server is
// the sole source of truth for its status; clients replace their local
// copy with each polled snapshot and never synthesize a terminal state.
type Transaction struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	PlanID      string     `gorm:"not null;size:36;index" json:"planId"`
	Phone       string     `gorm:"not null;size:15" json:"phone"`
	Amount      int        `gorm:"not null" json:"amount"`
	Status      string     `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	ProviderRef *string    `gorm:"size:100;index" json:"providerRef,omitempty"`
	Receipt     *string    `gorm:"size:50" json:"receipt,omitempty"`
	Description *string    `gorm:"size:500" json:"description,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	// Relations
	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// TableName specifies the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}

// IsTerminal reports whether this snapshot ends polling.
func (t *Transaction) IsTerminal() bool {
	return IsTerminal(t.Status)
}
