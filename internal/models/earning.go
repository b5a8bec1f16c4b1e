package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EarningsRecord is an append-only audit entry for every credit the accrual
// engine makes. GenerationLevel 0 is direct ROI; 1..20 is the referral
// generation distance from the investing user.
type EarningsRecord struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AmountEarned    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount_earned"`
	GenerationLevel int             `gorm:"not null;default:0" json:"generation_level"`
	Date            time.Time       `gorm:"autoCreateTime;index" json:"date"`
}

func (EarningsRecord) TableName() string {
	return "earnings_history"
}
