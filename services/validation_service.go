package services

import (
	"context"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/anurag-05-cmd/StakeInNature/models"
)

// ValidationService orchestrates one evidence submission: session gate,
// stake check, scorer, decision, ledger write, session update. Ledger writes
// for an account are strictly sequential: the verdict's write happens under
// the account lock, so no interleaving write from another request can land
// between the decision and its ledger action.
type ValidationService struct {
	scorer   Scorer
	ledger   Ledger
	sessions *SessionService
	locks    *AccountLocks
}

// NewValidationService creates the evidence submission orchestrator.
func NewValidationService(scorer Scorer, ledger Ledger, sessions *SessionService, locks *AccountLocks) *ValidationService {
	return &ValidationService{
		scorer:   scorer,
		ledger:   ledger,
		sessions: sessions,
		locks:    locks,
	}
}

// SubmitEvidence runs the stake-validate-slash protocol for one image.
//
// The scoring verdict is authoritative for the returned result: a failed
// post-decision validateUser/slashUser write is logged and recorded on the
// session, never surfaced as a submission failure. Before the decision runs
// no ledger write has happened, so abandoning the request client-side at
// that point has no effect.
func (vs *ValidationService) SubmitEvidence(ctx context.Context, user common.Address, image []byte, mimeType string) (*models.EvidenceResult, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("no image provided")
	}

	if err := vs.sessions.BeginSubmission(user); err != nil {
		return nil, err
	}
	defer vs.sessions.EndSubmission(user)

	staked, err := vs.ledger.GetStakedBalance(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to read staked balance: %w", err)
	}
	if staked.Cmp(MinimumStake) < 0 {
		return nil, ErrNoActiveStake
	}

	score, err := vs.scorer.Score(ctx, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("evidence evaluation failed: %w", err)
	}

	verdict := Decide(score.Confidence)
	submissionID := uuid.New().String()
	log.Printf("Submission %s: user %s scored %.1f (%s)", submissionID, user.Hex(), score.Confidence, verdict)

	vs.locks.Lock(user)
	var txErr error
	if verdict == VerdictReward {
		_, txErr = vs.ledger.ValidateUser(ctx, user)
	} else {
		_, txErr = vs.ledger.SlashUser(ctx, user)
	}
	vs.locks.Unlock(user)

	if txErr != nil {
		log.Printf("Submission %s: %s write failed for %s: %v", submissionID, verdict, user.Hex(), txErr)
		vs.sessions.RecordPendingVerdict(user, verdict)
	} else {
		vs.sessions.ApplyVerdict(user, verdict)
	}

	return &models.EvidenceResult{
		SubmissionID: submissionID,
		Success:      verdict == VerdictReward,
		Confidence:   score.Confidence,
		IsGoodImage:  score.IsGoodImage,
		Reason:       score.Reason,
	}, nil
}
