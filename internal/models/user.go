package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// User represents a platform account with its ledger fields. Balance holds
// withdrawable funds; ClaimableROI and ClaimableRef accrue separately until
// claimed. ReferredByID is set once at registration and never changes, which
// keeps the referral relation acyclic.
type User struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Email         string          `gorm:"uniqueIndex;not null" json:"email"`
	WalletAddress string          `gorm:"index" json:"wallet_address"`
	PasswordHash  string          `gorm:"not null" json:"-"`
	ReferralCode  string          `gorm:"uniqueIndex;size:12" json:"referral_code"`
	ReferredByID  *uint           `gorm:"index" json:"referred_by_id,omitempty"`
	ReferredBy    *User           `gorm:"foreignKey:ReferredByID" json:"referred_by,omitempty"`
	ReferredUsers []User          `gorm:"foreignKey:ReferredByID" json:"referred_users,omitempty"`
	Balance       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	ClaimableROI  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"claimable_roi"`
	ClaimableRef  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"claimable_ref"`
	Role          string          `gorm:"size:20;default:user" json:"role"`
	Status        string          `gorm:"size:20;default:active" json:"status"`
	LastKnownIP   string          `gorm:"size:45" json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
