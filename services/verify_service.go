package services

import (
	"context"
	"errors"
	"log"

	"token-airdrop-system/ledger"
	"token-airdrop-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// VerificationFeeMicroAlgos is the exact fee payment expected before an
// account flips to verified.
const VerificationFeeMicroAlgos = 6_000_000

// VerifyService flips the one-way verified flag after checking the fee
// payment on-chain. The ledger lookup happens before the store transaction
// — the transaction may be retried and must stay free of external calls.
type VerifyService struct {
	DB     *gorm.DB
	Store  AccountStore
	Ledger ledger.Gateway
}

func NewVerifyService(db *gorm.DB, store AccountStore, gw ledger.Gateway) *VerifyService {
	return &VerifyService{DB: db, Store: store, Ledger: gw}
}

// Verify validates the fee transaction from walletAddress and marks userID
// verified exactly once.
func (s *VerifyService) Verify(ctx context.Context, userID, walletAddress, txID string) error {
	err := s.Store.Atomically(ctx, func(tx AccountTx) error {
		return checkVerifyPreconditions(tx, userID, walletAddress)
	})
	if err != nil {
		return err
	}

	verified, err := s.Ledger.VerifyFeePayment(ctx, walletAddress, txID, VerificationFeeMicroAlgos)
	if err != nil {
		return err
	}
	if !verified {
		return ErrFeeNotVerified
	}

	return s.Store.Atomically(ctx, func(tx AccountTx) error {
		// Re-check inside the transaction: the ledger lookup ran outside it
		// and a concurrent verify must not apply the transition twice.
		if err := checkVerifyPreconditions(tx, userID, walletAddress); err != nil {
			return err
		}
		return tx.SetVerified(userID)
	})
}

func checkVerifyPreconditions(tx AccountTx, userID, walletAddress string) error {
	user, err := tx.UserByID(userID)
	if err != nil {
		return err
	}
	if user.Verified {
		return ErrAlreadyVerified
	}
	if user.WalletAddress == nil || *user.WalletAddress == "" {
		return ErrWalletNotSet
	}
	if *user.WalletAddress != walletAddress {
		return ErrWalletMismatch
	}
	return nil
}

// VerifyHandler handles POST /verify.
func (s *VerifyService) VerifyHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		WalletAddress string `json:"walletAddress"`
		TxID          string `json:"txId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.Verify(c.Context(), userID, req.WalletAddress, req.TxID); err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		case errors.Is(err, ErrAlreadyVerified),
			errors.Is(err, ErrWalletNotSet),
			errors.Is(err, ErrWalletMismatch),
			errors.Is(err, ErrFeeNotVerified):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			log.Printf("❌ Error verifying user %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Verification failed"})
		}
	}

	return c.JSON(fiber.Map{"message": "User verified successfully!"})
}

// VerificationStatusHandler handles GET /verification-status/:userId.
func (s *VerifyService) VerificationStatusHandler(c *fiber.Ctx) error {
	userID := c.Params("userId")

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(fiber.Map{"verified": user.Verified})
}
