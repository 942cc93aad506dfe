package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/anurag-05-cmd/StakeInNature/models"
)

// claimAmountLabel is the airdrop size as rendered in claim responses.
const claimAmountLabel = "5000"

// ClaimService grants the one-time airdrop. An address has claimed iff its
// token balance is non-zero; the balance check and the mint run under the
// account lock so concurrent claims for the same address cannot both pass
// the zero-balance check.
type ClaimService struct {
	ledger Ledger
	locks  *AccountLocks
}

// NewClaimService creates a claim gate over the ledger.
func NewClaimService(ledger Ledger, locks *AccountLocks) *ClaimService {
	return &ClaimService{
		ledger: ledger,
		locks:  locks,
	}
}

// Claim mints the airdrop to a fresh address, or rejects with
// ErrAlreadyClaimed if any balance exists. The mint, once confirmed, cannot
// be undone.
func (cs *ClaimService) Claim(ctx context.Context, user common.Address) (*models.ClaimResult, error) {
	cs.locks.Lock(user)
	defer cs.locks.Unlock(user)

	balance, err := cs.ledger.GetTokenBalance(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to check claim eligibility: %w", err)
	}

	if balance.Sign() > 0 {
		return nil, ErrAlreadyClaimed
	}

	txHash, err := cs.ledger.Mint(ctx, user, new(big.Int).Set(ClaimAmount))
	if err != nil {
		return nil, fmt.Errorf("failed to mint claim: %w", err)
	}

	return &models.ClaimResult{
		TxHash: txHash.Hex(),
		Amount: claimAmountLabel,
	}, nil
}
