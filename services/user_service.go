package services

import (
	"errors"
	"log"

	"token-airdrop-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserService serves read-only account views: profile details, payout
// history and the current-payout preview.
type UserService struct {
	DB   *gorm.DB
	Team *TeamService
}

func NewUserService(db *gorm.DB, team *TeamService) *UserService {
	return &UserService{DB: db, Team: team}
}

// GetUserDetailsHandler handles POST /get-user-details. The referral code
// is withheld until the account is verified.
func (s *UserService) GetUserDetailsHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var referralCount int64
	if err := s.DB.Model(&models.ReferralEntry{}).
		Where("referrer_id = ?", userID).
		Count(&referralCount).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var referralCode *string
	if user.Verified {
		referralCode = &user.ReferralCode
	}

	return c.JSON(fiber.Map{
		"message":       "get user details successful",
		"referralCode":  referralCode,
		"balance":       RoundForDisplay(user.Balance),
		"referrals":     referralCount,
		"walletAddress": user.WalletAddress,
		"verified":      user.Verified,
	})
}

// PayoutHistoryHandler handles GET /payouts/total/:userId.
func (s *UserService) PayoutHistoryHandler(c *fiber.Ctx) error {
	userID := c.Params("userId")

	var payouts []models.Payout
	if err := s.DB.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&payouts).Error; err != nil {
		log.Printf("DB Error fetching payouts for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch payouts"})
	}
	if len(payouts) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No payouts found for this user"})
	}

	total := 0.0
	for _, p := range payouts {
		total += p.Amount
	}

	return c.JSON(fiber.Map{
		"userId":      userID,
		"totalPayout": RoundForDisplay(total),
		"payouts":     payouts,
	})
}

// CurrentPayoutHandler handles POST /payouts/current — a read-only preview
// of what the next settlement would pay, using the same calculator the
// engine uses.
func (s *UserService) CurrentPayoutHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	verifiedCount, err := s.Team.VerifiedMembers(c.Context(), userID)
	if err != nil {
		log.Printf("❌ Error counting verified members for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute payout"})
	}

	amount, ok := ComputePayout(PayoutInput{
		Verified:          user.Verified,
		VerifiedCount:     verifiedCount,
		LastVerifiedCount: user.LastVerifiedCount,
		BonusEarned:       user.BonusEarned,
		BonusPaid:         user.BonusPaid,
	})
	if !ok {
		amount = 0
	}

	return c.JSON(fiber.Map{
		"userId":               userID,
		"balance":              RoundForDisplay(user.Balance),
		"verifiedMembersCount": verifiedCount,
		"currentPayout":        RoundForDisplay(amount),
	})
}

// TotalMembersHandler handles GET /total-members.
func (s *UserService) TotalMembersHandler(c *fiber.Ctx) error {
	var count int64
	if err := s.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(fiber.Map{"totalMembers": count})
}
