package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BucketROI = "roi"
	BucketRef = "ref"
)

// Claim records a settlement of a claimable bucket into the balance.
type Claim struct {
	ID     uint            `gorm:"primaryKey" json:"id"`
	UserID uint            `gorm:"not null;index" json:"user_id"`
	User   *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Bucket string          `gorm:"size:10;not null" json:"bucket"`
	Date   time.Time       `gorm:"autoCreateTime" json:"date"`
}

func (Claim) TableName() string {
	return "claims"
}
