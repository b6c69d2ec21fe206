package services

import (
	"context"
	"errors"
	"log"
	"time"

	"token-airdrop-system/ledger"
	"token-airdrop-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// AirdropCreationFeeMicroAlgos must be paid on-chain before a campaign is
// accepted.
const AirdropCreationFeeMicroAlgos = 10_000_000

// AirdropService manages user-created airdrop campaigns: fee-gated
// creation, one claim per user, and archival of spent campaigns.
type AirdropService struct {
	DB     *gorm.DB
	Ledger ledger.Gateway
}

func NewAirdropService(db *gorm.DB, gw ledger.Gateway) *AirdropService {
	return &AirdropService{DB: db, Ledger: gw}
}

// CreateCampaignHandler handles POST /create-airdrop.
func (s *AirdropService) CreateCampaignHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		TokenName        string  `json:"tokenName"`
		TokenID          uint64  `json:"tokenId"`
		TokenDecimals    *uint32 `json:"tokenDecimals"`
		AmountPerClaim   float64 `json:"amountOfTokenPerClaim"`
		TotalAmount      float64 `json:"totalAmountOfTokens"`
		ShortDescription string  `json:"shortDescription"`
		AirdropType      string  `json:"airdropType"`
		TxID             string  `json:"txId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.TokenName == "" || req.TokenID == 0 || req.TokenDecimals == nil ||
		req.AmountPerClaim <= 0 || req.TotalAmount <= 0 ||
		req.TotalAmount < req.AmountPerClaim ||
		req.ShortDescription == "" || len(req.ShortDescription) > 200 ||
		req.AirdropType == "" || req.TxID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request data"})
	}

	var creator models.User
	if err := s.DB.First(&creator, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if creator.WalletAddress == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrWalletNotSet.Error()})
	}

	feePaid, err := s.Ledger.VerifyFeePayment(c.Context(), *creator.WalletAddress, req.TxID, AirdropCreationFeeMicroAlgos)
	if err != nil {
		log.Printf("❌ Fee lookup failed for airdrop by %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify fee transaction"})
	}
	if !feePaid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid fee transaction"})
	}

	campaign := &models.AirdropCampaign{
		CreatorID:        userID,
		TokenName:        req.TokenName,
		Slug:             slug.Make(req.TokenName),
		AssetID:          req.TokenID,
		Decimals:         *req.TokenDecimals,
		AmountPerClaim:   req.AmountPerClaim,
		TotalAmount:      req.TotalAmount,
		Remaining:        req.TotalAmount,
		ShortDescription: req.ShortDescription,
		AirdropType:      req.AirdropType,
		FeeTxID:          req.TxID,
		Status:           models.CampaignStatusActive,
	}

	if err := s.DB.Create(campaign).Error; err != nil {
		log.Printf("DB Error creating airdrop campaign: %v", err)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A campaign with this token name already exists"})
	}

	return c.Status(fiber.StatusCreated).JSON(campaign)
}

// ListCampaignsHandler handles GET /airdrops — active campaigns only.
func (s *AirdropService) ListCampaignsHandler(c *fiber.Ctx) error {
	var campaigns []models.AirdropCampaign
	if err := s.DB.Where("status = ?", models.CampaignStatusActive).
		Order("created_at DESC").
		Find(&campaigns).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch campaigns"})
	}
	return c.JSON(campaigns)
}

// Claim reserves a claim, sends the tokens, and records the transaction.
// The reservation (claim row + remaining decrement) commits before the
// on-chain send; if the send fails the reservation is rolled back as a
// compensating update.
func (s *AirdropService) Claim(ctx context.Context, campaignID, userID string) (*models.AirdropClaim, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.WalletAddress == nil || *user.WalletAddress == "" {
		return nil, ErrWalletNotSet
	}

	claim := &models.AirdropClaim{CampaignID: campaignID, UserID: userID}
	var campaign models.AirdropCampaign

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&campaign, "id = ? AND status = ?", campaignID, models.CampaignStatusActive).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCampaignExhausted
			}
			return err
		}
		if campaign.Remaining < campaign.AmountPerClaim {
			return ErrCampaignExhausted
		}

		var existing models.AirdropClaim
		err := tx.First(&existing, "campaign_id = ? AND user_id = ?", campaignID, userID).Error
		if err == nil {
			return ErrAlreadyClaimed
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		claim.Amount = campaign.AmountPerClaim
		if err := tx.Create(claim).Error; err != nil {
			return err
		}
		return tx.Model(&models.AirdropCampaign{}).
			Where("id = ?", campaignID).
			UpdateColumn("remaining", gorm.Expr("remaining - ?", campaign.AmountPerClaim)).Error
	})
	if err != nil {
		return nil, err
	}

	optedIn, err := s.Ledger.IsOptedIn(ctx, *user.WalletAddress, campaign.AssetID)
	if err == nil && !optedIn {
		err = errors.New("recipient not opted in to campaign asset")
	}

	var txID string
	if err == nil {
		txID, err = s.Ledger.SubmitTransfer(ctx, *user.WalletAddress, campaign.AssetID, campaign.Decimals,
			campaign.AmountPerClaim, "AAA App: "+campaign.TokenName+" Airdrop")
	}
	if err == nil {
		err = s.Ledger.WaitForConfirmation(ctx, txID)
	}
	if err != nil {
		// Release the reservation so the user can retry.
		if rbErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.AirdropClaim{}, "id = ?", claim.ID).Error; err != nil {
				return err
			}
			return tx.Model(&models.AirdropCampaign{}).
				Where("id = ?", campaignID).
				UpdateColumn("remaining", gorm.Expr("remaining + ?", campaign.AmountPerClaim)).Error
		}); rbErr != nil {
			log.Printf("❌ Failed to release claim %s after send failure: %v", claim.ID, rbErr)
		}
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Model(&models.AirdropClaim{}).
		Where("id = ?", claim.ID).
		UpdateColumn("tx_id", txID).Error; err != nil {
		log.Printf("⚠️ Claim %s sent (tx %s) but tx_id not recorded: %v", claim.ID, txID, err)
	}
	claim.TxID = txID

	return claim, nil
}

// ClaimHandler handles POST /airdrops/:id/claim.
func (s *AirdropService) ClaimHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	campaignID := c.Params("id")

	claim, err := s.Claim(c.Context(), campaignID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		case errors.Is(err, ErrWalletNotSet),
			errors.Is(err, ErrAlreadyClaimed),
			errors.Is(err, ErrCampaignExhausted):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			log.Printf("❌ Airdrop claim failed for %s on %s: %v", userID, campaignID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Claim failed"})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Airdrop claimed successfully",
		"claim":   claim,
	})
}

// StaleClaimCutoff is how long a claim reservation may sit without a
// recorded transaction before the sweeper releases it.
const StaleClaimCutoff = 30 * time.Minute

// isStaleClaim reports whether a reservation never got its tokens sent and
// is old enough that no send can still be in flight.
func isStaleClaim(claim models.AirdropClaim, now time.Time) bool {
	return claim.TxID == "" && now.Sub(claim.CreatedAt) > StaleClaimCutoff
}

// ReleaseStaleClaims deletes reservations whose send never completed (a
// crash between the reservation commit and the transfer) and restores the
// reserved amount, so the user can claim again. Called from the scheduler.
func (s *AirdropService) ReleaseStaleClaims(now time.Time) (int64, error) {
	var released int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var candidates []models.AirdropClaim
		if err := tx.Where("tx_id = ?", "").Find(&candidates).Error; err != nil {
			return err
		}
		for _, claim := range candidates {
			if !isStaleClaim(claim, now) {
				continue
			}
			if err := tx.Delete(&models.AirdropClaim{}, "id = ?", claim.ID).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.AirdropCampaign{}).
				Where("id = ?", claim.CampaignID).
				UpdateColumn("remaining", gorm.Expr("remaining + ?", claim.Amount)).Error; err != nil {
				return err
			}
			released++
		}
		return nil
	})
	return released, err
}

// ArchiveSpentCampaigns archives campaigns that are expired or no longer
// hold a full claim. Called from the scheduler.
func (s *AirdropService) ArchiveSpentCampaigns() (int64, error) {
	now := time.Now().UTC()
	res := s.DB.Model(&models.AirdropCampaign{}).
		Where("status = ?", models.CampaignStatusActive).
		Where("remaining < amount_per_claim OR (expires_at IS NOT NULL AND expires_at <= ?)", now).
		UpdateColumn("status", models.CampaignStatusArchived)
	return res.RowsAffected, res.Error
}
