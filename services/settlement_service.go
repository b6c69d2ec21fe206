package services

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"

	"token-airdrop-system/ledger"
	"token-airdrop-system/models"

	"github.com/gofiber/fiber/v2"
)

// DisbursementBatchSize is how many recipients are processed concurrently
// before the engine moves to the next batch.
const DisbursementBatchSize = 10

// PayoutOutcome classifies what happened to one recipient in a run.
type PayoutOutcome string

const (
	OutcomePaid    PayoutOutcome = "paid"
	OutcomeSkipped PayoutOutcome = "skipped"
	OutcomeFailed  PayoutOutcome = "failed"
)

// PayoutResult is the per-recipient record of a settlement run. Failures
// are captured here, never propagated past the batch boundary.
type PayoutResult struct {
	UserID  string        `json:"userId"`
	Amount  float64       `json:"amount,omitempty"`
	TxID    string        `json:"txId,omitempty"`
	Outcome PayoutOutcome `json:"outcome"`
	Reason  string        `json:"reason,omitempty"`
}

// SettlementService runs the periodic payout: for each eligible account it
// recomputes the verified count, derives the payout amount, disburses
// on-chain and commits the new settlement counters. Batches run in
// sequence; recipients within a batch run concurrently, each owning only
// its own account record.
type SettlementService struct {
	Store  SettlementStore
	Team   *TeamService
	Ledger ledger.Gateway

	AssetID  uint64
	Decimals uint32
	NoteText string

	BatchSize      int
	PayoutPassword string
}

func NewSettlementService(store SettlementStore, team *TeamService, gw ledger.Gateway, assetID uint64, decimals uint32) *SettlementService {
	return &SettlementService{
		Store:     store,
		Team:      team,
		Ledger:    gw,
		AssetID:   assetID,
		Decimals:  decimals,
		NoteText:  "AAA APP: AAA Payment",
		BatchSize: DisbursementBatchSize,
	}
}

// Run settles up to limit eligible accounts and returns one result per
// account, in input order. A failed recipient never blocks or rolls back
// another; the run itself only errors when the candidate list cannot be
// read.
func (s *SettlementService) Run(ctx context.Context, limit int) ([]PayoutResult, error) {
	users, err := s.Store.EligibleUsers(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		log.Println("➡️ No users eligible for payouts.")
		return nil, nil
	}

	size := s.BatchSize
	if size <= 0 {
		size = DisbursementBatchSize
	}

	results := make([]PayoutResult, len(users))
	for start := 0; start < len(users); start += size {
		end := start + size
		if end > len(users) {
			end = len(users)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int, user models.User) {
				defer wg.Done()
				results[idx] = s.settleOne(ctx, user)
			}(i, users[i])
		}
		wg.Wait()
	}

	paid, skipped, failed := 0, 0, 0
	for _, r := range results {
		switch r.Outcome {
		case OutcomePaid:
			paid++
		case OutcomeSkipped:
			skipped++
		case OutcomeFailed:
			failed++
		}
	}
	log.Printf("✅ Settlement run finished: %d paid, %d skipped, %d failed", paid, skipped, failed)

	return results, nil
}

// settleOne processes a single recipient. Account state is only mutated
// after on-chain confirmation, so a failed or interrupted attempt is safe
// to retry on the next run.
func (s *SettlementService) settleOne(ctx context.Context, user models.User) PayoutResult {
	res := PayoutResult{UserID: user.ID}

	if user.WalletAddress == nil || *user.WalletAddress == "" {
		res.Outcome = OutcomeSkipped
		res.Reason = "no wallet address"
		return res
	}

	verifiedCount, err := s.Team.VerifiedMembers(ctx, user.ID)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Reason = "verified count lookup failed: " + err.Error()
		return res
	}

	amount, ok := ComputePayout(PayoutInput{
		Verified:          user.Verified,
		VerifiedCount:     verifiedCount,
		LastVerifiedCount: user.LastVerifiedCount,
		BonusEarned:       user.BonusEarned,
		BonusPaid:         user.BonusPaid,
	})
	if !ok {
		res.Outcome = OutcomeSkipped
		res.Reason = "no new verified referrals or outstanding bonus"
		return res
	}
	res.Amount = RoundForDisplay(amount)

	optedIn, err := s.Ledger.IsOptedIn(ctx, *user.WalletAddress, s.AssetID)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Reason = "opt-in check failed: " + err.Error()
		return res
	}
	if !optedIn {
		res.Outcome = OutcomeSkipped
		res.Reason = "recipient not opted in to reward asset"
		return res
	}

	txID, err := s.Ledger.SubmitTransfer(ctx, *user.WalletAddress, s.AssetID, s.Decimals, amount, s.NoteText)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Reason = "transfer rejected: " + err.Error()
		return res
	}
	res.TxID = txID

	if err := s.Ledger.WaitForConfirmation(ctx, txID); err != nil {
		res.Outcome = OutcomeFailed
		if errors.Is(err, ledger.ErrConfirmationTimeout) {
			res.Reason = "transfer not confirmed: " + err.Error()
		} else {
			res.Reason = "confirmation wait failed: " + err.Error()
		}
		return res
	}

	err = s.Store.CommitPayout(ctx, SettlementCommit{
		UserID:        user.ID,
		Amount:        amount,
		TxID:          txID,
		VerifiedCount: verifiedCount,
		BonusEarned:   user.BonusEarned,
	})
	if err != nil {
		// The transfer is on-chain but our counters did not advance; the
		// next run will recompute and the reason is kept for the operator.
		res.Outcome = OutcomeFailed
		res.Reason = "payout commit failed: " + err.Error()
		log.Printf("❌ Payout commit failed for user %s (tx %s): %v", user.ID, txID, err)
		return res
	}

	res.Outcome = OutcomePaid
	log.Printf("💸 Paid %.1f to user %s (tx %s)", res.Amount, user.ID, txID)
	return res
}

// RunHandler handles POST /payouts/monthly — the manual trigger, guarded by
// the payout password.
func (s *SettlementService) RunHandler(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
		Limit    string `json:"limit"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if s.PayoutPassword == "" || req.Password != s.PayoutPassword {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	limit, err := strconv.Atoi(req.Limit)
	if err != nil || limit <= 0 {
		limit = 100
	}

	results, err := s.Run(c.Context(), limit)
	if err != nil {
		log.Printf("❌ Error processing payouts: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process payouts"})
	}

	return c.JSON(fiber.Map{
		"message": "Payouts processed successfully.",
		"results": results,
	})
}
