package services

import "errors"

// Ledger adapter faults.
var (
	// ErrLedgerUnavailable indicates a network or transport failure before
	// the ledger accepted the call.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrLedgerRejected indicates the ledger itself refused the operation
	// (precondition failed, transaction reverted).
	ErrLedgerRejected = errors.New("ledger rejected operation")

	// ErrLedgerTimeout indicates confirmation was not observed within the
	// adapter's wait window. The outcome is unknown, not failed; callers
	// must re-poll balances rather than assume either way.
	ErrLedgerTimeout = errors.New("ledger confirmation timed out")

	// ErrOperatorUnavailable indicates the operator signing credential is
	// missing or invalid. Surfaced at request time, not at startup.
	ErrOperatorUnavailable = errors.New("operator credential unavailable")
)

// Scorer adapter faults.
var (
	ErrScorerUnavailable = errors.New("scorer unavailable")
	ErrScorerMalformed   = errors.New("scorer response contains no parseable verdict")
)

// Business-rule rejections. These are not faults: handlers map them to 400
// responses with a specific reason so the client can render guidance.
var (
	ErrAlreadyClaimed     = errors.New("tokens already claimed")
	ErrBelowMinimumStake  = errors.New("stake amount below minimum")
	ErrNoActiveStake      = errors.New("no active stake of at least the minimum")
	ErrAlreadyValidated   = errors.New("already validated this stake")
	ErrSubmissionInFlight = errors.New("another evidence submission is in flight")
	ErrAccountSlashed     = errors.New("stake was slashed; re-stake to continue")
)
