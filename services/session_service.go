package services

import (
	"context"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Phase is the session state for one account. It is a single tagged value so
// illegal flag combinations (validated and slashed at once) cannot exist.
type Phase int

const (
	// PhaseDisconnected means no wallet account is attached.
	PhaseDisconnected Phase = iota
	// PhaseNoStake means connected with staked balance below the minimum.
	PhaseNoStake
	// PhaseStaked means at least the minimum stake is locked and a
	// validation attempt is available.
	PhaseStaked
	// PhaseValidated means the current stake cycle has been validated;
	// submission is blocked until a new stake cycle.
	PhaseValidated
	// PhaseSlashed means the stake was zeroed this session; productive
	// action requires re-staking.
	PhaseSlashed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNoStake:
		return "no_stake"
	case PhaseStaked:
		return "staked"
	case PhaseValidated:
		return "validated"
	case PhaseSlashed:
		return "slashed"
	default:
		return "disconnected"
	}
}

// SessionSnapshot is a read-only copy of one account's session state.
type SessionSnapshot struct {
	Phase            Phase
	StakedBalance    *big.Int
	TokenBalance     *big.Int
	HadInitialAccess bool
	PendingVerdict   string
}

type session struct {
	phase            Phase
	stakedBalance    *big.Int
	tokenBalance     *big.Int
	hadInitialAccess bool
	inFlight         bool
	pendingVerdict   string
}

// SessionService tracks client-visible session state per account and keeps
// it reconciled against the ledger with a fixed-interval poll. Session state
// is never authoritative: it bridges the window between a local decision and
// the next ledger read.
type SessionService struct {
	ledger       Ledger
	pollInterval time.Duration

	mu       sync.Mutex
	sessions map[common.Address]*session

	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// NewSessionService creates a session tracker polling at the given interval.
func NewSessionService(ledger Ledger, pollInterval time.Duration) *SessionService {
	return &SessionService{
		ledger:       ledger,
		pollInterval: pollInterval,
		sessions:     make(map[common.Address]*session),
	}
}

// Start launches the background poll loop.
func (ss *SessionService) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.running {
		return
	}
	ss.ctx, ss.cancel = context.WithCancel(context.Background())
	ss.running = true
	go ss.pollLoop()

	log.Printf("Session poller started (interval %s)", ss.pollInterval)
}

// Stop cancels the poll loop.
func (ss *SessionService) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.running {
		return
	}
	ss.cancel()
	ss.running = false
	log.Println("Session poller stopped")
}

func (ss *SessionService) pollLoop() {
	ticker := time.NewTicker(ss.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ss.ctx.Done():
			return
		case <-ticker.C:
			ss.refreshAll(ss.ctx)
		}
	}
}

func (ss *SessionService) refreshAll(ctx context.Context) {
	ss.mu.Lock()
	addresses := make([]common.Address, 0, len(ss.sessions))
	for addr, s := range ss.sessions {
		if s.phase != PhaseDisconnected {
			addresses = append(addresses, addr)
		}
	}
	ss.mu.Unlock()

	for _, addr := range addresses {
		ss.Refresh(ctx, addr)
	}
}

// Track ensures a session exists for an account and returns nothing; new
// sessions start connected with no stake observed yet.
func (ss *SessionService) Track(addr common.Address) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.track(addr)
}

func (ss *SessionService) track(addr common.Address) *session {
	s, exists := ss.sessions[addr]
	if !exists {
		s = &session{phase: PhaseNoStake}
		ss.sessions[addr] = s
	}
	return s
}

// OnAccountChange is the wallet account stream callback. A nil account means
// the wallet disconnected.
func (ss *SessionService) OnAccountChange(account *common.Address) {
	if account == nil {
		log.Println("Wallet disconnected")
		return
	}
	log.Printf("Wallet account changed: %s", account.Hex())
	ss.Track(*account)
}

// Refresh reads the account's ledger state and reconciles the session with
// it. A failed read advances nothing: the state stays as-is until the next
// poll succeeds.
func (ss *SessionService) Refresh(ctx context.Context, addr common.Address) {
	staked, err := ss.ledger.GetStakedBalance(ctx, addr)
	if err != nil {
		log.Printf("Session refresh: staked balance read failed for %s: %v", addr.Hex(), err)
		return
	}
	validated, err := ss.ledger.IsValidated(ctx, addr)
	if err != nil {
		log.Printf("Session refresh: validated read failed for %s: %v", addr.Hex(), err)
		return
	}
	token, err := ss.ledger.GetTokenBalance(ctx, addr)
	if err != nil {
		log.Printf("Session refresh: token balance read failed for %s: %v", addr.Hex(), err)
		return
	}

	ss.reconcile(addr, staked, token, validated)
}

// reconcile applies a consistent ledger snapshot to the session machine.
func (ss *SessionService) reconcile(addr common.Address, staked, token *big.Int, validated bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s := ss.track(addr)
	s.stakedBalance = new(big.Int).Set(staked)
	s.tokenBalance = new(big.Int).Set(token)

	if staked.Cmp(MinimumStake) >= 0 {
		s.hadInitialAccess = true
		if validated {
			s.phase = PhaseValidated
		} else {
			// A fresh stake at or above the minimum opens a new cycle,
			// including after a slash.
			s.phase = PhaseStaked
		}
		return
	}

	// Below minimum. A slashed session keeps its phase until re-staking so
	// the client can render the slash outcome; everything else is NoStake.
	if s.phase != PhaseSlashed {
		s.phase = PhaseNoStake
	}
}

// BeginSubmission gates one evidence submission: exactly one in flight per
// account, and none once the current stake cycle has validated. Rejections
// here never reach the scorer.
func (ss *SessionService) BeginSubmission(addr common.Address) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s := ss.track(addr)
	if s.inFlight {
		return ErrSubmissionInFlight
	}
	switch s.phase {
	case PhaseValidated:
		return ErrAlreadyValidated
	case PhaseSlashed:
		return ErrAccountSlashed
	}

	s.inFlight = true
	return nil
}

// EndSubmission releases the in-flight slot.
func (ss *SessionService) EndSubmission(addr common.Address) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if s, exists := ss.sessions[addr]; exists {
		s.inFlight = false
	}
}

// ApplyVerdict moves the session immediately after a confirmed ledger write,
// without waiting for the next poll.
func (ss *SessionService) ApplyVerdict(addr common.Address, verdict Verdict) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s := ss.track(addr)
	s.pendingVerdict = ""
	if verdict == VerdictReward {
		s.phase = PhaseValidated
		return
	}
	s.phase = PhaseSlashed
	s.stakedBalance = big.NewInt(0)
}

// RecordPendingVerdict notes a verdict whose ledger write did not confirm.
// The verdict stays user-visible; the ledger divergence is recorded rather
// than retried, and the next successful poll shows whatever actually landed.
func (ss *SessionService) RecordPendingVerdict(addr common.Address, verdict Verdict) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s := ss.track(addr)
	s.pendingVerdict = verdict.String()
	log.Printf("Pending ledger action for %s: %s write unconfirmed", addr.Hex(), verdict)
}

// Snapshot returns a copy of the session state for an account.
func (ss *SessionService) Snapshot(addr common.Address) SessionSnapshot {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s := ss.track(addr)
	snapshot := SessionSnapshot{
		Phase:            s.phase,
		HadInitialAccess: s.hadInitialAccess,
		PendingVerdict:   s.pendingVerdict,
	}
	if s.stakedBalance != nil {
		snapshot.StakedBalance = new(big.Int).Set(s.stakedBalance)
	}
	if s.tokenBalance != nil {
		snapshot.TokenBalance = new(big.Int).Set(s.tokenBalance)
	}
	return snapshot
}
