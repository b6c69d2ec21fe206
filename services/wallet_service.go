package services

import (
	"errors"
	"log"

	"token-airdrop-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// WalletService manages each user's payout address. An address is unique
// across all accounts.
type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// SetWallet sets or replaces the wallet address for userID.
func (s *WalletService) SetWallet(userID, walletAddress string) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.First(&existing, "wallet_address = ?", walletAddress).Error
		if err == nil && existing.ID != userID {
			return ErrWalletInUse
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if user.WalletAddress != nil && *user.WalletAddress == walletAddress {
			return ErrWalletUnchanged
		}

		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("wallet_address", walletAddress).Error
	})
	// Two racers can both pass the pre-check above; the loser hits the
	// unique index instead.
	if isUniqueViolation(err) {
		return ErrWalletInUse
	}
	return err
}

// SetupWalletHandler handles POST /setup-wallet.
func (s *WalletService) SetupWalletHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		WalletAddress string `json:"walletAddress"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WalletAddress == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "walletAddress is required"})
	}

	if err := s.SetWallet(userID, req.WalletAddress); err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		case errors.Is(err, ErrWalletInUse), errors.Is(err, ErrWalletUnchanged):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			log.Printf("❌ Error updating wallet for %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update wallet address"})
		}
	}

	return c.JSON(fiber.Map{
		"message":       "Wallet address updated successfully.",
		"userId":        userID,
		"walletAddress": req.WalletAddress,
	})
}
