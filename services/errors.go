package services

import "errors"

var (
	// ErrInvalidReferralCode — a non-empty referral code did not resolve to
	// any existing user. The whole signup aborts.
	ErrInvalidReferralCode = errors.New("invalid referral code")

	// ErrUserNotFound — requested user record does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrAlreadyVerified — verification is a one-way false→true transition.
	ErrAlreadyVerified = errors.New("user is already verified")

	// ErrWalletNotSet — operation requires a wallet address on file.
	ErrWalletNotSet = errors.New("wallet address not set")

	// ErrWalletMismatch — supplied wallet does not match the stored one.
	ErrWalletMismatch = errors.New("wallet address mismatch")

	// ErrWalletInUse — wallet address already belongs to another user.
	ErrWalletInUse = errors.New("wallet address already in use by another user")

	// ErrWalletUnchanged — wallet address is already up to date.
	ErrWalletUnchanged = errors.New("wallet address is already up-to-date")

	// ErrFeeNotVerified — fee payment could not be verified on-chain.
	ErrFeeNotVerified = errors.New("invalid or missing fee payment")

	// ErrAlreadyCheckedIn — one check-in per calendar day.
	ErrAlreadyCheckedIn = errors.New("already checked in today")

	// ErrAlreadyClaimed — one airdrop claim per user per campaign.
	ErrAlreadyClaimed = errors.New("airdrop already claimed")

	// ErrCampaignExhausted — campaign has no remaining tokens.
	ErrCampaignExhausted = errors.New("airdrop campaign exhausted")
)
