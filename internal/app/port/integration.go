package port

import (
	"context"

	"github.com/Emmanuelluxury/vernwallet-sub002/internal/domain/entity"
)

// WalletIntegration is the capability surface injected by the wallet
// extension. Every call is asynchronous on the extension side; here each
// method blocks until the response arrives or ctx is done. A call that the
// integration reports as unsuccessful returns an *entity.BridgeError, so
// "success true but data missing" is unrepresentable for callers.
//
// The integration is an opaque collaborator: key management, signing and
// chain RPC live behind it and are never assumed here.
type WalletIntegration interface {
	// GetUserBalances returns the current balance snapshot for the wallet.
	GetUserBalances(ctx context.Context, address string) ([]entity.Balance, error)

	// GetTransactionHistory returns the most recent limit entries.
	GetTransactionHistory(ctx context.Context, address string, limit int) ([]entity.Transaction, error)

	// GetStakingPosition returns the position for one catalog token, or nil
	// when the wallet holds no position for it.
	GetStakingPosition(ctx context.Context, address, tokenAddress string) (*entity.StakingPosition, error)

	// GetStakingRewards returns the aggregate claimable rewards as a decimal
	// string.
	GetStakingRewards(ctx context.Context, address string) (string, error)

	ExecuteStake(ctx context.Context, req entity.StakeRequest) error
	ExecuteUnstake(ctx context.Context, req entity.UnstakeRequest) error
	ExecuteClaimRewards(ctx context.Context, req entity.ClaimRequest) error
}
