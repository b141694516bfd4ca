package models

import (
	"time"
)

const OperatorTable = "inv_operators"

// Operator is a person allowed to use the system. Operators are recorded
// by username in history entries.
type Operator struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	Role         Role   `gorm:"size:30;not null" json:"role"`

	LastLoginAt *time.Time `gorm:"index" json:"last_login_at,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"last_seen_at,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"login_count"`
	LastLoginIP string     `gorm:"size:45" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Operator) TableName() string {
	return OperatorTable
}
