package models

import "time"

// Payout is one confirmed on-chain disbursement to a user. Append-only;
// rows are never updated or deleted.
type Payout struct {
	ID     string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string  `gorm:"index;not null" json:"user_id"`
	Amount float64 `gorm:"not null" json:"amount"`
	TxID   string  `gorm:"not null" json:"tx_id"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
