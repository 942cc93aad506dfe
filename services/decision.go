package services

// Verdict is one of the two mutually exclusive ledger actions a scored
// evidence submission can trigger.
type Verdict int

const (
	// VerdictReward validates the user and grants the staking reward.
	VerdictReward Verdict = iota
	// VerdictSlash zeroes the user's staked balance.
	VerdictSlash
)

// String returns a human-readable verdict name.
func (v Verdict) String() string {
	if v == VerdictReward {
		return "reward"
	}
	return "slash"
}

// RewardThreshold is the confidence cut between reward and slash. The cut is
// exclusive on the reward side: exactly 50 slashes. The scorer's rubric is
// tuned strict against this boundary; changing either requires re-tuning the
// other.
const RewardThreshold = 50.0

// Decide maps a confidence score to a verdict. Pure function, no hidden
// state: confidence > 50 rewards, everything else slashes.
func Decide(confidence float64) Verdict {
	if confidence > RewardThreshold {
		return VerdictReward
	}
	return VerdictSlash
}
