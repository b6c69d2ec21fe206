package services

import (
	"context"

	"token-airdrop-system/models"
)

// AccountTx is the transactional view handed to Atomically. Either every
// write made through it commits, or none do. The function may be invoked
// more than once on contention, so callers must keep external side effects
// (identity creation, ledger calls) outside of it.
type AccountTx interface {
	UserByID(id string) (*models.User, error)
	UserByReferralCode(code string) (*models.User, error)
	CreateUser(u *models.User) error
	CreditBalance(userID string, amount float64) error
	AppendReferral(referrerID, referredID string, level int) error
	SetVerified(userID string) error
}

// AccountStore is the atomic compare-and-apply capability of the backing
// store.
type AccountStore interface {
	Atomically(ctx context.Context, fn func(tx AccountTx) error) error
}

// ReferralReader supplies the verified-count tracker with referral ids and
// one batched verified lookup per chunk. CountVerified is called with at
// most VerifiedLookupChunkSize ids at a time.
type ReferralReader interface {
	ReferralIDs(ctx context.Context, userID string) ([]string, error)
	CountVerified(ctx context.Context, ids []string) (int, error)
}

// SettlementCommit carries everything the store must apply atomically for
// one confirmed payout: the payout record plus the settlement counters.
type SettlementCommit struct {
	UserID        string
	Amount        float64
	TxID          string
	VerifiedCount int     // becomes the new lastVerifiedCount
	BonusEarned   float64 // bonusEarned snapshot used in the computation
}

// SettlementStore is what the batch disbursement engine needs from the
// backing store.
type SettlementStore interface {
	// EligibleUsers returns verified, wallet-holding, non-genesis users,
	// capped at limit.
	EligibleUsers(ctx context.Context, limit int) ([]models.User, error)

	// CommitPayout appends the payout record and advances the user's
	// balance and settlement counters in a single atomic update.
	CommitPayout(ctx context.Context, c SettlementCommit) error
}

// IdentityProvider creates and deletes external identities. Deletion is the
// compensating action when a signup fails after the identity already exists.
type IdentityProvider interface {
	CreateIdentity(ctx context.Context, email, password string) (string, error)
	DeleteIdentity(ctx context.Context, id string) error
}
