package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusFailed     = "failed"
)

// Withdrawal reserves balance for an external payout. Status moves exactly
// once, from processing to completed or failed. TransactionID is the locally
// generated id handed to the payment gateway for that single attempt.
type Withdrawal struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	User          *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Destination   string          `gorm:"size:128;not null" json:"destination"`
	Status        string          `gorm:"size:20;default:processing;index" json:"status"`
	TransactionID string          `gorm:"size:64" json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}

// Terminal reports whether the withdrawal has reached a final state.
func (w *Withdrawal) Terminal() bool {
	return w.Status == WithdrawalStatusCompleted || w.Status == WithdrawalStatusFailed
}
