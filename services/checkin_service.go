package services

import (
	"errors"
	"log"
	"time"

	"token-airdrop-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MaxCheckInStreak caps the streak; day 7 pays the top reward and the
// streak stays there while the user keeps checking in daily.
const MaxCheckInStreak = 7

var checkInRewards = map[int]float64{
	1: 0.2,
	2: 0.3,
	3: 0.4,
	4: 0.5,
	5: 0.6,
	6: 0.8,
	7: 1.0,
}

// NextStreak computes the streak value for a check-in happening at now,
// given the previous check-in time. A gap of more than one calendar day
// resets the streak to 1.
func NextStreak(last *time.Time, now time.Time, current int) int {
	if last == nil {
		return 1
	}
	yesterday := now.AddDate(0, 0, -1)
	if sameDay(*last, yesterday) {
		streak := current + 1
		if streak > MaxCheckInStreak {
			streak = MaxCheckInStreak
		}
		return streak
	}
	return 1
}

// RewardForStreak maps a streak day to its bonus-token reward.
func RewardForStreak(streak int) float64 {
	if r, ok := checkInRewards[streak]; ok {
		return r
	}
	return checkInRewards[1]
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// CheckInService credits daily streak bonuses. The reward lands on both the
// balance and the bonusEarned counter, which is how it later reaches the
// payout calculator as outstanding bonus.
type CheckInService struct {
	DB *gorm.DB
}

func NewCheckInService(db *gorm.DB) *CheckInService {
	return &CheckInService{DB: db}
}

// CheckIn applies one calendar-day check-in for userID.
func (s *CheckInService) CheckIn(userID string, now time.Time) (streak int, reward float64, err error) {
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if user.LastCheckInDate != nil && sameDay(*user.LastCheckInDate, now) {
			return ErrAlreadyCheckedIn
		}

		streak = NextStreak(user.LastCheckInDate, now, user.CheckInStreak)
		reward = RewardForStreak(streak)

		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumns(map[string]interface{}{
				"check_in_streak":    streak,
				"last_check_in_date": now.UTC(),
				"bonus_earned":       gorm.Expr("bonus_earned + ?", reward),
				"balance":            gorm.Expr("balance + ?", reward),
			}).Error
	})
	return streak, reward, err
}

// CheckInHandler handles POST /daily-checkin.
func (s *CheckInService) CheckInHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	streak, reward, err := s.CheckIn(userID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		case errors.Is(err, ErrAlreadyCheckedIn):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You already checked in today"})
		default:
			log.Printf("❌ Check-in failed for %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong during check-in"})
		}
	}

	return c.JSON(fiber.Map{
		"message":       "Checked in!",
		"currentStreak": streak,
		"reward":        reward,
	})
}
