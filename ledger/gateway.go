package ledger

import (
	"context"
	"errors"
)

var (
	// ErrConfirmationTimeout means a submitted transfer was not confirmed
	// within the configured number of rounds. The transfer may still land;
	// callers must not mutate account state on this error.
	ErrConfirmationTimeout = errors.New("transfer not confirmed within wait rounds")
)

// Gateway is the on-chain capability the services depend on. The production
// implementation talks to algod/indexer; tests swap in a fake.
type Gateway interface {
	// IsOptedIn reports whether address holds (has opted in to) assetID.
	IsOptedIn(ctx context.Context, address string, assetID uint64) (bool, error)

	// SubmitTransfer builds, signs and submits an asset transfer of amount
	// (in whole tokens, scaled internally by decimals) and returns the
	// transaction ID. It does not wait for confirmation.
	SubmitTransfer(ctx context.Context, to string, assetID uint64, decimals uint32, amount float64, note string) (string, error)

	// WaitForConfirmation blocks until txID is confirmed or the round
	// budget is exhausted (ErrConfirmationTimeout).
	WaitForConfirmation(ctx context.Context, txID string) error

	// VerifyFeePayment checks that txID is a payment of exactly
	// expectedAmount microalgos from sender to the configured fee receiver.
	VerifyFeePayment(ctx context.Context, sender, txID string, expectedAmount uint64) (bool, error)
}
