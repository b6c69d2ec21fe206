package models

import "time"

// ReferralEntry records that ReferredID appeared in ReferrerID's downline
// at the given depth. Rows are append-only and unique per (referrer,
// referred) pair — a user can sit in an upline's list exactly once.
//
// Level is 1..5 for entries written by the upline walk. The genesis user's
// unconditional fallback entry is written with level 0 since it is a house
// tally, not a chain position.
type ReferralEntry struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ReferrerID string `gorm:"index;not null;uniqueIndex:idx_referrer_referred" json:"referrer_id"`
	ReferredID string `gorm:"not null;uniqueIndex:idx_referrer_referred" json:"referred_id"`
	Level      int    `gorm:"not null" json:"level"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
