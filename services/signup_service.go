package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"token-airdrop-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// ReferralDepthLimit caps how many upline ancestors are credited per
	// signup. Chains may be longer; only the first five are paid.
	ReferralDepthLimit = 5

	// ReferralReward is credited to each paid ancestor (and genesis).
	ReferralReward = 5.0

	// SignupBalance is the initial stipend on every new account.
	SignupBalance = 5.0
)

// SignupService threads a new signup through the referral graph. Identity
// creation happens before the store transaction (the transaction may be
// retried, and identity creation is not idempotent); if anything after it
// fails, the identity is deleted as a compensating action.
type SignupService struct {
	Store    AccountStore
	Identity IdentityProvider
}

func NewSignupService(store AccountStore, identity IdentityProvider) *SignupService {
	return &SignupService{Store: store, Identity: identity}
}

// Signup creates the identity and account, credits the genesis user, and
// walks the upline crediting up to ReferralDepthLimit ancestors. All store
// writes commit atomically or not at all.
func (s *SignupService) Signup(ctx context.Context, email, password, referralCode string) (*models.User, error) {
	identityID, err := s.Identity.CreateIdentity(ctx, email, password)
	if err != nil {
		return nil, err
	}

	newUser := &models.User{
		ID:           identityID,
		Email:        email,
		ReferralCode: uuid.NewString(),
		ReferredBy:   models.GenesisReferralCode,
		Balance:      SignupBalance,
	}

	err = s.Store.Atomically(ctx, func(tx AccountTx) error {
		code := strings.TrimSpace(referralCode)
		if code != "" {
			referrer, err := tx.UserByReferralCode(code)
			if err != nil {
				if errors.Is(err, ErrUserNotFound) {
					return ErrInvalidReferralCode
				}
				return err
			}
			if referrer.ReferralCode == models.GenesisReferralCode {
				newUser.ReferredBy = models.GenesisReferralCode
			} else {
				newUser.ReferredBy = referrer.ID
			}
		}

		if err := tx.CreateUser(newUser); err != nil {
			return err
		}

		// Genesis always receives the fallback credit, exactly once per
		// signup. The upline walk below stops when it reaches genesis.
		genesis, err := tx.UserByReferralCode(models.GenesisReferralCode)
		if err != nil {
			return err
		}
		if err := tx.CreditBalance(genesis.ID, ReferralReward); err != nil {
			return err
		}
		if err := tx.AppendReferral(genesis.ID, newUser.ID, 0); err != nil {
			return err
		}

		return creditUpline(tx, newUser.ID, newUser.ReferredBy)
	})
	if err != nil {
		// Compensating action: the identity lives outside the transaction.
		if delErr := s.Identity.DeleteIdentity(ctx, identityID); delErr != nil {
			log.Printf("❌ Failed to delete identity %s after signup failure: %v", identityID, delErr)
		} else {
			log.Printf("🧹 Deleted identity %s after signup failure", identityID)
		}
		return nil, err
	}

	log.Printf("✅ Signup completed for user %s, referredBy: %s", newUser.ID, newUser.ReferredBy)
	return newUser, nil
}

// creditUpline walks referredBy pointers from firstReferrer, crediting each
// ancestor and tagging the referral entry with its depth. The walk is a
// bounded loop: a cycle or an over-long chain can never push it past
// ReferralDepthLimit hops, and a missing ancestor ends the walk without
// failing the signup.
func creditUpline(tx AccountTx, newUserID, firstReferrer string) error {
	current := firstReferrer
	visited := make(map[string]bool, ReferralDepthLimit)

	for level := 1; level <= ReferralDepthLimit; level++ {
		if current == models.GenesisReferralCode {
			break // genesis already credited
		}
		if visited[current] {
			log.Printf("⚠️ Referral cycle detected at user %s, stopping walk", current)
			break
		}
		visited[current] = true

		node, err := tx.UserByID(current)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				break
			}
			return err
		}
		if node.ReferralCode == models.GenesisReferralCode {
			break
		}

		if err := tx.CreditBalance(node.ID, ReferralReward); err != nil {
			return err
		}
		if err := tx.AppendReferral(node.ID, newUserID, level); err != nil {
			return err
		}

		current = node.ReferredBy
	}
	return nil
}

// SignupHandler handles POST /signup.
func (s *SignupService) SignupHandler(c *fiber.Ctx) error {
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		ReferralCode string `json:"referralCode"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email and password are required"})
	}

	user, err := s.Signup(c.Context(), req.Email, req.Password, req.ReferralCode)
	if err != nil {
		if errors.Is(err, ErrInvalidReferralCode) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("❌ Signup error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Signup failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Signup successful. Please login to continue",
		"userId":   user.ID,
		"balance":  user.Balance,
		"verified": user.Verified,
	})
}
