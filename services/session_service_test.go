package services

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/anurag-05-cmd/StakeInNature/pkg/units"
)

var sessionUser = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

func newSessionFixture() (*SessionService, *fakeLedger) {
	ledger := newFakeLedger()
	return NewSessionService(ledger, 3*time.Second), ledger
}

func TestSessionStartsWithNoStake(t *testing.T) {
	sessions, _ := newSessionFixture()
	sessions.Track(sessionUser)

	snapshot := sessions.Snapshot(sessionUser)
	assert.Equal(t, PhaseNoStake, snapshot.Phase)
	assert.False(t, snapshot.HadInitialAccess)
}

func TestSessionEntersStakedAtMinimum(t *testing.T) {
	sessions, ledger := newSessionFixture()
	ledger.setStaked(sessionUser, units.MustParse("900"))

	sessions.Refresh(context.Background(), sessionUser)

	snapshot := sessions.Snapshot(sessionUser)
	assert.Equal(t, PhaseStaked, snapshot.Phase)
	assert.True(t, snapshot.HadInitialAccess)
}

func TestSessionStaysNoStakeBelowMinimum(t *testing.T) {
	sessions, ledger := newSessionFixture()
	ledger.setStaked(sessionUser, units.MustParse("899.999"))

	sessions.Refresh(context.Background(), sessionUser)

	snapshot := sessions.Snapshot(sessionUser)
	assert.Equal(t, PhaseNoStake, snapshot.Phase)
	assert.False(t, snapshot.HadInitialAccess)
}

func TestSessionReflectsLedgerValidatedFlag(t *testing.T) {
	sessions, ledger := newSessionFixture()
	ledger.setStaked(sessionUser, units.MustParse("1000"))
	ledger.validated[sessionUser] = true

	sessions.Refresh(context.Background(), sessionUser)

	assert.Equal(t, PhaseValidated, sessions.Snapshot(sessionUser).Phase)
}

func TestSessionFailedReadAdvancesNothing(t *testing.T) {
	sessions, ledger := newSessionFixture()
	ledger.setStaked(sessionUser, units.MustParse("1000"))
	sessions.Refresh(context.Background(), sessionUser)
	assert.Equal(t, PhaseStaked, sessions.Snapshot(sessionUser).Phase)

	ledger.readErr = ErrLedgerUnavailable
	ledger.setStaked(sessionUser, big.NewInt(0))
	sessions.Refresh(context.Background(), sessionUser)

	// State is unknown, not changed; retry happens on the next poll.
	assert.Equal(t, PhaseStaked, sessions.Snapshot(sessionUser).Phase)
}

func TestSessionSlashPersistsUntilRestake(t *testing.T) {
	sessions, ledger := newSessionFixture()
	ledger.setStaked(sessionUser, units.MustParse("1000"))
	sessions.Refresh(context.Background(), sessionUser)

	sessions.ApplyVerdict(sessionUser, VerdictSlash)
	snapshot := sessions.Snapshot(sessionUser)
	assert.Equal(t, PhaseSlashed, snapshot.Phase)
	assert.Equal(t, 0, snapshot.StakedBalance.Sign())

	// The poll confirming zero stake keeps the slashed phase visible.
	ledger.setStaked(sessionUser, big.NewInt(0))
	sessions.Refresh(context.Background(), sessionUser)
	assert.Equal(t, PhaseSlashed, sessions.Snapshot(sessionUser).Phase)

	// Re-staking at or above the minimum opens a fresh cycle.
	ledger.setStaked(sessionUser, units.MustParse("900"))
	sessions.Refresh(context.Background(), sessionUser)
	assert.Equal(t, PhaseStaked, sessions.Snapshot(sessionUser).Phase)
}

func TestSessionUnstakeAllResetsCycle(t *testing.T) {
	sessions, ledger := newSessionFixture()
	ledger.setStaked(sessionUser, units.MustParse("1000"))
	ledger.validated[sessionUser] = true
	sessions.Refresh(context.Background(), sessionUser)
	assert.Equal(t, PhaseValidated, sessions.Snapshot(sessionUser).Phase)

	// unstakeAll zeroes the stake and clears the ledger's validated flag.
	ledger.setStaked(sessionUser, big.NewInt(0))
	ledger.validated[sessionUser] = false
	sessions.Refresh(context.Background(), sessionUser)

	snapshot := sessions.Snapshot(sessionUser)
	assert.Equal(t, PhaseNoStake, snapshot.Phase)
	assert.True(t, snapshot.HadInitialAccess, "initial access is a historical marker")
}

func TestBeginSubmissionOnePerStakeCycle(t *testing.T) {
	sessions, ledger := newSessionFixture()
	ledger.setStaked(sessionUser, units.MustParse("1000"))
	ledger.validated[sessionUser] = true
	sessions.Refresh(context.Background(), sessionUser)

	err := sessions.BeginSubmission(sessionUser)
	assert.ErrorIs(t, err, ErrAlreadyValidated)
}

func TestBeginSubmissionOneInFlight(t *testing.T) {
	sessions, ledger := newSessionFixture()
	ledger.setStaked(sessionUser, units.MustParse("1000"))
	sessions.Refresh(context.Background(), sessionUser)

	assert.NoError(t, sessions.BeginSubmission(sessionUser))
	assert.ErrorIs(t, sessions.BeginSubmission(sessionUser), ErrSubmissionInFlight)

	sessions.EndSubmission(sessionUser)
	assert.NoError(t, sessions.BeginSubmission(sessionUser))
}

func TestBeginSubmissionRejectsSlashed(t *testing.T) {
	sessions, ledger := newSessionFixture()
	ledger.setStaked(sessionUser, units.MustParse("1000"))
	sessions.Refresh(context.Background(), sessionUser)
	sessions.ApplyVerdict(sessionUser, VerdictSlash)

	assert.ErrorIs(t, sessions.BeginSubmission(sessionUser), ErrAccountSlashed)
}

func TestOnAccountChangeTracksNewAccount(t *testing.T) {
	sessions, _ := newSessionFixture()

	sessions.OnAccountChange(nil)
	sessions.OnAccountChange(&sessionUser)

	assert.Equal(t, PhaseNoStake, sessions.Snapshot(sessionUser).Phase)
}
