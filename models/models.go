package models

// Score is the evidence scorer's output for one submitted image.
type Score struct {
	IsGoodImage bool    `json:"isGoodImage"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
}

// EvidenceResult is the outcome of one evidence submission: the scorer's
// output plus the verdict-derived success flag.
type EvidenceResult struct {
	SubmissionID string  `json:"submissionId"`
	Success      bool    `json:"success"`
	Confidence   float64 `json:"confidence"`
	IsGoodImage  bool    `json:"isGoodImage"`
	Reason       string  `json:"reason"`
}

// ClaimResult is the outcome of a granted airdrop claim.
type ClaimResult struct {
	TxHash string `json:"txHash"`
	Amount string `json:"amount"`
}

// UserData is the combined ledger snapshot for one account.
type UserData struct {
	TokenBalance  string `json:"tokenBalance"`
	StakedBalance string `json:"stakedBalance"`
	IsValidated   bool   `json:"isValidated"`
}

// ClaimRequest is the body of POST /claim.
type ClaimRequest struct {
	UserAddress string `json:"userAddress"`
}

// LedgerRequest is the body of POST /ledger.
type LedgerRequest struct {
	Action      string `json:"action"`
	UserAddress string `json:"userAddress"`
	Amount      string `json:"amount,omitempty"`
}
