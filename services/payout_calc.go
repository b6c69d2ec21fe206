package services

import "math"

// PerReferralReward is paid for each newly verified downline referral.
const PerReferralReward = 5.0

// PayoutInput is the settlement snapshot for one account.
type PayoutInput struct {
	Verified          bool
	VerifiedCount     int // current true verified-referral count
	LastVerifiedCount int // snapshot at last settlement
	BonusEarned       float64
	BonusPaid         float64
}

// ComputePayout turns the newly-verified delta plus the outstanding bonus
// into a settlement amount. ok is false when the account must be skipped
// entirely: no transfer, no counter mutation.
//
// The one-time head start: an account whose lastVerifiedCount is still 0
// gets an extra PerReferralReward on its first settlement. A legitimately
// zero ongoing delta also reads lastVerifiedCount == 0 if the account was
// never settled, so the head start rides on the skip rule below.
func ComputePayout(in PayoutInput) (amount float64, ok bool) {
	delta := in.VerifiedCount - in.LastVerifiedCount
	bonus := in.BonusEarned - in.BonusPaid

	if delta <= 0 && bonus <= 0 {
		return 0, false
	}

	newlyVerified := float64(delta) * PerReferralReward
	if in.LastVerifiedCount == 0 {
		newlyVerified += PerReferralReward
	}

	amount = math.Max(0, newlyVerified) + math.Max(0, bonus)
	if !in.Verified {
		return 0, false
	}
	if amount <= 0 {
		return 0, false
	}
	return amount, true
}

// RoundForDisplay reports amounts to one decimal place. Internal math stays
// on the raw float; only responses and reports use this.
func RoundForDisplay(amount float64) float64 {
	return math.Round(amount*10) / 10
}
