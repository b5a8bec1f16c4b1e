package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investment is a principal deposit that earns daily ROI while not expired.
// The engine never mutates Amount; Expired is flipped by business rules
// outside the accrual path.
type Investment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	User      *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Expired   bool            `gorm:"default:false;index" json:"expired"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Investment) TableName() string {
	return "investments"
}
