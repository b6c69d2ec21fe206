package ledger

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/indexer"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
)

// AlgorandGateway implements Gateway against algod (submission, params,
// opt-in lookups) and the indexer (fee-payment verification).
type AlgorandGateway struct {
	algod   *algod.Client
	indexer *indexer.Client

	sender      crypto.Account
	feeReceiver string

	waitRounds uint64
}

// NewAlgorandGateway wires clients and the sender account from environment
// variables: ALGOD_URL, ALGOD_TOKEN, INDEXER_URL, INDEXER_TOKEN,
// SENDER_MNEMONIC, FEE_RECEIVER_ADDRESS.
func NewAlgorandGateway() (*AlgorandGateway, error) {
	algodURL := os.Getenv("ALGOD_URL")
	if algodURL == "" {
		return nil, fmt.Errorf("ALGOD_URL environment variable not set")
	}
	indexerURL := os.Getenv("INDEXER_URL")
	if indexerURL == "" {
		return nil, fmt.Errorf("INDEXER_URL environment variable not set")
	}
	senderMnemonic := os.Getenv("SENDER_MNEMONIC")
	if senderMnemonic == "" {
		return nil, fmt.Errorf("SENDER_MNEMONIC environment variable not set")
	}
	feeReceiver := os.Getenv("FEE_RECEIVER_ADDRESS")
	if feeReceiver == "" {
		return nil, fmt.Errorf("FEE_RECEIVER_ADDRESS environment variable not set")
	}

	algodClient, err := algod.MakeClient(algodURL, os.Getenv("ALGOD_TOKEN"))
	if err != nil {
		return nil, fmt.Errorf("failed to create algod client: %w", err)
	}
	indexerClient, err := indexer.MakeClient(indexerURL, os.Getenv("INDEXER_TOKEN"))
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer client: %w", err)
	}

	sk, err := mnemonic.ToPrivateKey(senderMnemonic)
	if err != nil {
		return nil, fmt.Errorf("invalid sender mnemonic: %w", err)
	}
	sender, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("failed to derive sender account: %w", err)
	}

	log.Printf("✅ Ledger gateway ready, sender: %s", sender.Address.String())

	return &AlgorandGateway{
		algod:       algodClient,
		indexer:     indexerClient,
		sender:      sender,
		feeReceiver: feeReceiver,
		waitRounds:  4,
	}, nil
}

func (g *AlgorandGateway) IsOptedIn(ctx context.Context, address string, assetID uint64) (bool, error) {
	info, err := g.algod.AccountInformation(address).Do(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to look up account %s: %w", address, err)
	}
	for _, holding := range info.Assets {
		if holding.AssetId == assetID {
			return true, nil
		}
	}
	return false, nil
}

func (g *AlgorandGateway) SubmitTransfer(ctx context.Context, to string, assetID uint64, decimals uint32, amount float64, note string) (string, error) {
	params, err := g.algod.SuggestedParams().Do(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch suggested params: %w", err)
	}

	base := uint64(math.Round(amount * math.Pow10(int(decimals))))
	txn, err := transaction.MakeAssetTransferTxn(
		g.sender.Address.String(),
		to,
		base,
		[]byte(note),
		params,
		"",
		assetID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to build asset transfer: %w", err)
	}

	txID, signed, err := crypto.SignTransaction(g.sender.PrivateKey, txn)
	if err != nil {
		return "", fmt.Errorf("failed to sign transfer: %w", err)
	}

	if _, err := g.algod.SendRawTransaction(signed).Do(ctx); err != nil {
		return "", fmt.Errorf("failed to submit transfer: %w", err)
	}

	log.Printf("📤 Transfer submitted: %s (asset %d, %.2f to %s)", txID, assetID, amount, to)
	return txID, nil
}

func (g *AlgorandGateway) WaitForConfirmation(ctx context.Context, txID string) error {
	if _, err := transaction.WaitForConfirmation(g.algod, txID, g.waitRounds, ctx); err != nil {
		return fmt.Errorf("%w: %s", ErrConfirmationTimeout, txID)
	}
	return nil
}

func (g *AlgorandGateway) VerifyFeePayment(ctx context.Context, sender, txID string, expectedAmount uint64) (bool, error) {
	resp, err := g.indexer.LookupTransaction(txID).Do(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to look up fee transaction %s: %w", txID, err)
	}

	txn := resp.Transaction
	if txn.Sender != sender {
		return false, nil
	}
	if txn.PaymentTransaction.Receiver != g.feeReceiver {
		return false, nil
	}
	if txn.PaymentTransaction.Amount != expectedAmount {
		return false, nil
	}
	return true, nil
}
