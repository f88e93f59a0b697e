package entity

import "time"

// StakingPosition is one active or expired stake for a single token.
// Amount and Rewards are decimal strings; the values are authoritative only
// after a resync from the wallet integration, never after a local mutation.
type StakingPosition struct {
	TokenAddress string    `json:"tokenAddress"`
	Amount       string    `json:"amount"`
	Rewards      string    `json:"rewards"`
	LockPeriod   int       `json:"lockPeriod"` // days
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
}

// IsActive reports whether the lock period is still running at the given
// moment. Expired positions keep being listed but lose their unstake and
// claim controls.
func (p StakingPosition) IsActive(now time.Time) bool {
	return now.Before(p.EndTime)
}

// StakeRequest carries the parameters of an executeStake call.
type StakeRequest struct {
	TokenAddress  string `json:"tokenAddress"`
	Amount        string `json:"amount"`
	LockPeriod    int    `json:"lockPeriod"`
	WalletAddress string `json:"walletAddress"`
}

// UnstakeRequest carries the parameters of an executeUnstake call.
type UnstakeRequest struct {
	TokenAddress  string `json:"tokenAddress"`
	Amount        string `json:"amount"`
	WalletAddress string `json:"walletAddress"`
}

// ClaimRequest carries the parameters of an executeClaimRewards call.
type ClaimRequest struct {
	TokenAddress  string `json:"tokenAddress"`
	WalletAddress string `json:"walletAddress"`
}
