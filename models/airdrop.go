package models

import (
	"time"

	"gorm.io/gorm"
)

// CampaignStatus indicates whether a campaign is still claimable.
type CampaignStatus string

const (
	CampaignStatusActive   CampaignStatus = "active"
	CampaignStatusArchived CampaignStatus = "archived"
)

// AirdropCampaign is a user-created token giveaway. The creator pays a fee
// on-chain (verified through the ledger gateway) before the campaign is
// accepted; claims are sent from the campaign wallet until Remaining runs
// out.
type AirdropCampaign struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CreatorID string `gorm:"index;not null" json:"creator_id"`

	TokenName string `gorm:"not null" json:"token_name"`
	Slug      string `gorm:"uniqueIndex;not null" json:"slug"`
	AssetID   uint64 `gorm:"not null" json:"asset_id"`
	Decimals  uint32 `gorm:"not null" json:"decimals"`

	AmountPerClaim   float64 `gorm:"not null" json:"amount_per_claim"`
	TotalAmount      float64 `gorm:"not null" json:"total_amount"`
	Remaining        float64 `gorm:"not null" json:"remaining"`
	ShortDescription string  `gorm:"size:200" json:"short_description"`
	AirdropType      string  `gorm:"not null" json:"airdrop_type"`

	FeeTxID string         `gorm:"not null" json:"fee_tx_id"`
	Status  CampaignStatus `gorm:"not null;default:'active';index" json:"status"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AirdropClaim records a single user's claim against a campaign.
// One claim per user per campaign.
type AirdropClaim struct {
	ID         string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CampaignID string  `gorm:"index;not null;uniqueIndex:idx_campaign_claimer" json:"campaign_id"`
	UserID     string  `gorm:"not null;uniqueIndex:idx_campaign_claimer" json:"user_id"`
	Amount     float64 `gorm:"not null" json:"amount"`
	TxID       string  `gorm:"not null" json:"tx_id"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
