package models

import (
	"time"

	"gorm.io/gorm"
)

// GenesisReferralCode is the sentinel code held by the root account.
// Every signup chain terminates at the genesis user, and the genesis
// user is credited once for every signup as the final fallback.
const GenesisReferralCode = "GENESIS"

// User is the per-account record for the airdrop program.
// Balance and the bonus counters are mutated only through the services
// package (signup crediting, check-ins, settlement).
type User struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"` // identity provider UID
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	ReferralCode string `gorm:"uniqueIndex;not null" json:"referral_code"`
	ReferredBy   string `gorm:"index;not null" json:"referred_by"` // user ID or GenesisReferralCode

	WalletAddress *string `gorm:"uniqueIndex" json:"wallet_address,omitempty"`

	Balance     float64 `gorm:"not null;default:0" json:"balance"`
	BonusEarned float64 `gorm:"not null;default:0" json:"bonus_earned"`
	BonusPaid   float64 `gorm:"not null;default:0" json:"bonus_paid"`

	Verified bool `gorm:"not null;default:false" json:"verified"`

	// LastVerifiedCount is the verified-referral count snapshotted at the
	// last settlement. Advanced only on confirmed payout.
	LastVerifiedCount int        `gorm:"not null;default:0" json:"last_verified_count"`
	LastPaidAt        *time.Time `json:"last_paid_at,omitempty"`

	CheckInStreak   int        `gorm:"not null;default:0" json:"check_in_streak"`
	LastCheckInDate *time.Time `json:"last_check_in_date,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BonusOutstanding is the accrued bonus not yet paid out.
func (u *User) BonusOutstanding() float64 {
	return u.BonusEarned - u.BonusPaid
}
