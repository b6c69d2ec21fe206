package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"token-airdrop-system/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// GormStore backs the store interfaces with Postgres through GORM.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// serialization_failure — the transaction lost a write race and is safe to
// re-run from the top.
const pgSerializationFailure = "40001"

// unique_violation — an insert or update hit a unique index.
const pgUniqueViolation = "23505"

const maxTxAttempts = 3

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// retryOnContention re-runs fn up to maxTxAttempts times while it keeps
// failing with a serialization failure. Any other error passes through
// untouched; giving up returns the last error wrapped.
func retryOnContention(fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = fn()
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("transaction contention after %d attempts: %w", maxTxAttempts, err)
}

// Atomically runs fn inside a database transaction, retrying on
// serialization failure. fn must not carry external side effects.
func (s *GormStore) Atomically(ctx context.Context, fn func(tx AccountTx) error) error {
	return retryOnContention(func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormTx{tx: tx})
		})
	})
}

type gormTx struct {
	tx *gorm.DB
}

func (t *gormTx) UserByID(id string) (*models.User, error) {
	var user models.User
	if err := t.tx.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (t *gormTx) UserByReferralCode(code string) (*models.User, error) {
	var user models.User
	if err := t.tx.First(&user, "referral_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (t *gormTx) CreateUser(u *models.User) error {
	return t.tx.Create(u).Error
}

func (t *gormTx) CreditBalance(userID string, amount float64) error {
	return t.tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error
}

func (t *gormTx) AppendReferral(referrerID, referredID string, level int) error {
	return t.tx.Create(&models.ReferralEntry{
		ReferrerID: referrerID,
		ReferredID: referredID,
		Level:      level,
	}).Error
}

func (t *gormTx) SetVerified(userID string) error {
	return t.tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("verified", true).Error
}

// --- ReferralReader ---

func (s *GormStore) ReferralIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.DB.WithContext(ctx).
		Model(&models.ReferralEntry{}).
		Where("referrer_id = ?", userID).
		Distinct().
		Pluck("referred_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load referral ids for %s: %w", userID, err)
	}
	return ids, nil
}

func (s *GormStore) CountVerified(ctx context.Context, ids []string) (int, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id IN ? AND verified = ?", ids, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count verified members: %w", err)
	}
	return int(count), nil
}

// --- SettlementStore ---

func (s *GormStore) EligibleUsers(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Where("verified = ? AND wallet_address IS NOT NULL AND referral_code != ?",
			true, models.GenesisReferralCode).
		Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch eligible users: %w", err)
	}
	return users, nil
}

func (s *GormStore) CommitPayout(ctx context.Context, c SettlementCommit) error {
	return retryOnContention(func() error {
		return s.commitPayoutOnce(ctx, c)
	})
}

func (s *GormStore) commitPayoutOnce(ctx context.Context, c SettlementCommit) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Payout{
			UserID: c.UserID,
			Amount: c.Amount,
			TxID:   c.TxID,
		}).Error; err != nil {
			return fmt.Errorf("failed to append payout record: %w", err)
		}

		now := time.Now().UTC()
		return tx.Model(&models.User{}).
			Where("id = ?", c.UserID).
			UpdateColumns(map[string]interface{}{
				"balance":             gorm.Expr("GREATEST(balance - ?, 0)", c.Amount),
				"last_verified_count": c.VerifiedCount,
				"bonus_paid":          c.BonusEarned,
				"last_paid_at":        now,
			}).Error
	})
}
