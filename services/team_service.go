package services

import (
	"context"
	"log"

	"token-airdrop-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// VerifiedLookupChunkSize is the store's cap on identifiers per batched
// membership query.
const VerifiedLookupChunkSize = 30

// TeamService answers downline questions: how many referrals a user has per
// level, and how many of them are currently verified.
type TeamService struct {
	DB        *gorm.DB
	Referrals ReferralReader
}

func NewTeamService(db *gorm.DB, referrals ReferralReader) *TeamService {
	return &TeamService{DB: db, Referrals: referrals}
}

// VerifiedMembers recomputes the current number of verified downline
// referrals for userID. It never touches lastVerifiedCount. Lookups are
// chunked to VerifiedLookupChunkSize ids per query; a user with no
// referrals costs zero lookups.
func (s *TeamService) VerifiedMembers(ctx context.Context, userID string) (int, error) {
	ids, err := s.Referrals.ReferralIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	total := 0
	for start := 0; start < len(ids); start += VerifiedLookupChunkSize {
		end := start + VerifiedLookupChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		n, err := s.Referrals.CountVerified(ctx, ids[start:end])
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// MyTeamHandler handles POST /my-team: referral counts grouped by level,
// always reporting levels 1..5.
func (s *TeamService) MyTeamHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	type levelCount struct {
		Level int   `json:"level"`
		Count int64 `json:"count"`
	}

	var rows []levelCount
	err := s.DB.Model(&models.ReferralEntry{}).
		Select("level, COUNT(*) as count").
		Where("referrer_id = ? AND level BETWEEN 1 AND ?", userID, ReferralDepthLimit).
		Group("level").
		Scan(&rows).Error
	if err != nil {
		log.Printf("DB Error fetching team levels: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch team"})
	}

	byLevel := make(map[int]int64, len(rows))
	for _, r := range rows {
		byLevel[r.Level] = r.Count
	}
	out := make([]levelCount, 0, ReferralDepthLimit)
	for lvl := 1; lvl <= ReferralDepthLimit; lvl++ {
		out = append(out, levelCount{Level: lvl, Count: byLevel[lvl]})
	}

	return c.JSON(fiber.Map{
		"message": "User team fetched successfully!",
		"data":    out,
	})
}

// VerifiedMembersHandler handles POST /verified-team-members.
func (s *TeamService) VerifiedMembersHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	count, err := s.VerifiedMembers(c.Context(), userID)
	if err != nil {
		log.Printf("❌ Error counting verified members for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count verified members"})
	}

	return c.JSON(fiber.Map{
		"message":         "Verified team members fetched successfully!",
		"verifiedMembers": count,
	})
}
