package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/service"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/domain/entity"
)

const (
	testAddress  = "0x00000000000000000000000000000000000000aa"
	ethAddress   = "0x49d36570d4e46f48e99674bd3fcc84644ddd6b96"
	strkAddress  = "0x04718f5a0fc34cc1af16a1cdee98ffb20c31f5cd"
	unknownToken = "0x000000000000000000000000000000000000dead"
)

// fakeIntegration implements port.WalletIntegration with overridable
// behavior and call counting.
type fakeIntegration struct {
	mu sync.Mutex

	stakeFn    func(req entity.StakeRequest) error
	unstakeFn  func(req entity.UnstakeRequest) error
	claimFn    func(req entity.ClaimRequest) error
	positionFn func(tokenAddress string) (*entity.StakingPosition, error)
	rewardsFn  func() (string, error)
	balancesFn func() ([]entity.Balance, error)
	txsFn      func(limit int) ([]entity.Transaction, error)

	stakeCalls    int
	unstakeCalls  int
	claimCalls    int
	positionCalls []string
	rewardsCalls  int
}

func (f *fakeIntegration) GetUserBalances(_ context.Context, _ string) ([]entity.Balance, error) {
	f.mu.Lock()
	fn := f.balancesFn
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil, nil
}

func (f *fakeIntegration) GetTransactionHistory(_ context.Context, _ string, limit int) ([]entity.Transaction, error) {
	f.mu.Lock()
	fn := f.txsFn
	f.mu.Unlock()
	if fn != nil {
		return fn(limit)
	}
	return nil, nil
}

func (f *fakeIntegration) GetStakingPosition(_ context.Context, _, tokenAddress string) (*entity.StakingPosition, error) {
	f.mu.Lock()
	f.positionCalls = append(f.positionCalls, tokenAddress)
	fn := f.positionFn
	f.mu.Unlock()
	if fn != nil {
		return fn(tokenAddress)
	}
	return nil, nil
}

func (f *fakeIntegration) GetStakingRewards(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	f.rewardsCalls++
	fn := f.rewardsFn
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return "0", nil
}

func (f *fakeIntegration) ExecuteStake(_ context.Context, req entity.StakeRequest) error {
	f.mu.Lock()
	f.stakeCalls++
	fn := f.stakeFn
	f.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return nil
}

func (f *fakeIntegration) ExecuteUnstake(_ context.Context, req entity.UnstakeRequest) error {
	f.mu.Lock()
	f.unstakeCalls++
	fn := f.unstakeFn
	f.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return nil
}

func (f *fakeIntegration) ExecuteClaimRewards(_ context.Context, req entity.ClaimRequest) error {
	f.mu.Lock()
	f.claimCalls++
	fn := f.claimFn
	f.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return nil
}

func (f *fakeIntegration) counts() (stake, unstake, claim, rewards int, positions []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stakeCalls, f.unstakeCalls, f.claimCalls, f.rewardsCalls, append([]string(nil), f.positionCalls...)
}

// fakeCatalog implements port.CatalogProvider from fixed slices.
type fakeCatalog struct {
	tokens    []entity.SupportedToken
	options   []entity.LockOption
	tokensErr error
}

func (f *fakeCatalog) SupportedTokens() ([]entity.SupportedToken, error) {
	return f.tokens, f.tokensErr
}

func (f *fakeCatalog) TokenByAddress(address string) (entity.SupportedToken, bool) {
	for _, t := range f.tokens {
		if strings.EqualFold(t.Address, address) {
			return t, true
		}
	}
	return entity.SupportedToken{}, false
}

func (f *fakeCatalog) LockOptions() ([]entity.LockOption, error) {
	return f.options, nil
}

func (f *fakeCatalog) HasLockPeriod(days int) bool {
	for _, opt := range f.options {
		if opt.Days == days {
			return true
		}
	}
	return false
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{
		tokens: []entity.SupportedToken{
			{Symbol: "ETH", Name: "Ether", Address: ethAddress},
			{Symbol: "STRK", Name: "Starknet Token", Address: strkAddress},
		},
		options: []entity.LockOption{{Days: 30, APY: "4.5"}, {Days: 90, APY: "6.2"}},
	}
}

func newController(integration *fakeIntegration) *service.StakingController {
	return service.NewStakingController(integration, testCatalog(), nopLogger{}, testAddress)
}

func TestStakeValidation(t *testing.T) {
	t.Parallel()

	t.Run("empty amount never reaches the integration", func(t *testing.T) {
		t.Parallel()

		integration := &fakeIntegration{}
		controller := newController(integration)

		err := controller.Stake(context.Background(), ethAddress, "", 30)

		var validationErr *entity.ValidationError
		require.ErrorAs(t, err, &validationErr)
		stake, _, _, _, _ := integration.counts()
		assert.Zero(t, stake)
		assert.NotEmpty(t, controller.Snapshot().Error)
	})

	t.Run("token outside the catalog is rejected", func(t *testing.T) {
		t.Parallel()

		integration := &fakeIntegration{}
		controller := newController(integration)

		err := controller.Stake(context.Background(), unknownToken, "1.5", 30)

		var validationErr *entity.ValidationError
		require.ErrorAs(t, err, &validationErr)
		stake, _, _, _, _ := integration.counts()
		assert.Zero(t, stake)
	})

	t.Run("unconfigured lock period is rejected", func(t *testing.T) {
		t.Parallel()

		integration := &fakeIntegration{}
		controller := newController(integration)

		err := controller.Stake(context.Background(), ethAddress, "1.5", 17)

		var validationErr *entity.ValidationError
		require.ErrorAs(t, err, &validationErr)
		stake, _, _, _, _ := integration.counts()
		assert.Zero(t, stake)
	})
}

func TestStakeSuccess(t *testing.T) {
	t.Parallel()

	integration := &fakeIntegration{
		positionFn: func(tokenAddress string) (*entity.StakingPosition, error) {
			if strings.EqualFold(tokenAddress, ethAddress) {
				return &entity.StakingPosition{
					TokenAddress: ethAddress,
					Amount:       "1.5",
					Rewards:      "0",
					LockPeriod:   30,
					EndTime:      time.Now().Add(30 * 24 * time.Hour),
				}, nil
			}
			return nil, nil
		},
		rewardsFn: func() (string, error) { return "0.25", nil },
	}
	controller := newController(integration)

	err := controller.Stake(context.Background(), ethAddress, "1.5", 30)
	require.NoError(t, err)

	stake, _, _, rewards, positions := integration.counts()
	assert.Equal(t, 1, stake)
	// One resync: one position query per catalog token plus one rewards query.
	assert.Equal(t, 1, rewards)
	assert.Len(t, positions, 2)

	snap := controller.Snapshot()
	assert.Empty(t, snap.DraftAmount, "amount input is cleared on success")
	assert.Empty(t, snap.Error)
	assert.NotEmpty(t, snap.Message)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, ethAddress, snap.Positions[0].TokenAddress)
	assert.Equal(t, "0.25", snap.TotalRewards)
	assert.False(t, snap.IsStaking)
}

func TestStakeFailure(t *testing.T) {
	t.Parallel()

	t.Run("bridge message is surfaced and positions stay untouched", func(t *testing.T) {
		t.Parallel()

		integration := &fakeIntegration{
			stakeFn: func(entity.StakeRequest) error {
				return entity.NewBridgeError("executeStake", "insufficient balance", nil)
			},
		}
		controller := newController(integration)

		err := controller.Stake(context.Background(), ethAddress, "1.5", 30)
		require.Error(t, err)

		_, _, _, rewards, positions := integration.counts()
		assert.Zero(t, rewards, "no resync after a failed mutation")
		assert.Empty(t, positions)

		snap := controller.Snapshot()
		assert.Equal(t, "insufficient balance", snap.Error)
		assert.Empty(t, snap.Message)
		assert.Equal(t, "1.5", snap.DraftAmount, "amount input is kept on failure")
		assert.Empty(t, snap.Positions)
		assert.False(t, snap.IsStaking)
	})

	t.Run("a new attempt clears the previous banner", func(t *testing.T) {
		t.Parallel()

		calls := 0
		integration := &fakeIntegration{
			stakeFn: func(entity.StakeRequest) error {
				calls++
				if calls == 1 {
					return entity.NewBridgeError("executeStake", "insufficient balance", nil)
				}
				return nil
			},
		}
		controller := newController(integration)

		require.Error(t, controller.Stake(context.Background(), ethAddress, "1.5", 30))
		require.NoError(t, controller.Stake(context.Background(), ethAddress, "1.5", 30))

		snap := controller.Snapshot()
		assert.Empty(t, snap.Error)
		assert.NotEmpty(t, snap.Message)
	})
}

func TestStakeSucceedsWhenResyncFails(t *testing.T) {
	t.Parallel()

	integration := &fakeIntegration{}
	catalog := testCatalog()
	catalog.tokensErr = errors.New("catalog unreadable")
	controller := service.NewStakingController(integration, catalog, nopLogger{}, testAddress)

	// The mutation applied; a failed resync only leaves the view stale and
	// must not turn the action into an error.
	require.NoError(t, controller.Stake(context.Background(), ethAddress, "1.5", 30))

	stake, _, _, _, _ := integration.counts()
	assert.Equal(t, 1, stake)

	snap := controller.Snapshot()
	assert.NotEmpty(t, snap.Message)
	assert.Empty(t, snap.Error)
	assert.Empty(t, snap.DraftAmount)
}

func TestStakeFlagDiscipline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	integration := &fakeIntegration{
		stakeFn: func(entity.StakeRequest) error {
			close(started)
			<-release
			return nil
		},
	}
	controller := newController(integration)

	assert.False(t, controller.Snapshot().IsStaking, "idle before the call")

	errCh := make(chan error, 1)
	go func() {
		errCh <- controller.Stake(context.Background(), ethAddress, "1.5", 30)
	}()

	<-started
	assert.True(t, controller.Snapshot().IsStaking, "pending exactly during the external call")

	// A same-kind call while pending is refused.
	err := controller.Stake(context.Background(), ethAddress, "2.0", 30)
	assert.ErrorIs(t, err, entity.ErrActionInFlight)

	close(release)
	require.NoError(t, <-errCh)
	assert.False(t, controller.Snapshot().IsStaking, "idle again after the call")
}

func TestDifferentActionKindsMayOverlap(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	integration := &fakeIntegration{
		stakeFn: func(entity.StakeRequest) error {
			close(started)
			<-release
			return nil
		},
	}
	controller := newController(integration)

	errCh := make(chan error, 1)
	go func() {
		errCh <- controller.Stake(context.Background(), ethAddress, "1.5", 30)
	}()
	<-started

	// Claim runs its own state machine; the pending stake does not block it.
	require.NoError(t, controller.ClaimRewards(context.Background(), ethAddress))

	close(release)
	require.NoError(t, <-errCh)
}

func TestResyncPartialFailure(t *testing.T) {
	t.Parallel()

	integration := &fakeIntegration{
		positionFn: func(tokenAddress string) (*entity.StakingPosition, error) {
			if strings.EqualFold(tokenAddress, ethAddress) {
				return nil, entity.NewBridgeError("getStakingPosition", "node timeout", nil)
			}
			return &entity.StakingPosition{
				TokenAddress: strkAddress,
				Amount:       "100",
				Rewards:      "2",
				LockPeriod:   90,
				EndTime:      time.Now().Add(time.Hour),
			}, nil
		},
	}
	controller := newController(integration)

	require.NoError(t, controller.ResyncPositions(context.Background()))

	snap := controller.Snapshot()
	require.Len(t, snap.Positions, 1, "failed token is skipped, not fatal")
	assert.Equal(t, strkAddress, snap.Positions[0].TokenAddress)
}

func TestResyncRewardsDefaulting(t *testing.T) {
	t.Parallel()

	t.Run("rewards query failure stores zero", func(t *testing.T) {
		t.Parallel()

		integration := &fakeIntegration{
			rewardsFn: func() (string, error) {
				return "", entity.NewBridgeError("getStakingRewards", "unavailable", nil)
			},
		}
		controller := newController(integration)

		require.NoError(t, controller.ResyncPositions(context.Background()))
		assert.Equal(t, "0", controller.Snapshot().TotalRewards)
	})

	t.Run("absent rewards value stores zero", func(t *testing.T) {
		t.Parallel()

		integration := &fakeIntegration{
			rewardsFn: func() (string, error) { return "", nil },
		}
		controller := newController(integration)

		require.NoError(t, controller.ResyncPositions(context.Background()))
		assert.Equal(t, "0", controller.Snapshot().TotalRewards)
	})
}

func TestResyncReplacesWholesale(t *testing.T) {
	t.Parallel()

	var withPosition bool
	integration := &fakeIntegration{}
	integration.positionFn = func(tokenAddress string) (*entity.StakingPosition, error) {
		if withPosition && strings.EqualFold(tokenAddress, ethAddress) {
			return &entity.StakingPosition{TokenAddress: ethAddress, Amount: "5"}, nil
		}
		return nil, nil
	}
	controller := newController(integration)

	withPosition = true
	require.NoError(t, controller.ResyncPositions(context.Background()))
	require.Len(t, controller.Snapshot().Positions, 1)

	// A position gone upstream disappears locally too: no merging.
	withPosition = false
	require.NoError(t, controller.ResyncPositions(context.Background()))
	assert.Empty(t, controller.Snapshot().Positions)
}

func TestMutationsWithoutIntegration(t *testing.T) {
	t.Parallel()

	controller := service.NewStakingController(nil, testCatalog(), nopLogger{}, testAddress)

	assert.ErrorIs(t, controller.Stake(context.Background(), ethAddress, "1", 30), entity.ErrIntegrationUnavailable)
	assert.ErrorIs(t, controller.Unstake(context.Background(), ethAddress, "1"), entity.ErrIntegrationUnavailable)
	assert.ErrorIs(t, controller.ClaimRewards(context.Background(), ethAddress), entity.ErrIntegrationUnavailable)
	assert.ErrorIs(t, controller.ResyncPositions(context.Background()), entity.ErrIntegrationUnavailable)

	assert.Equal(t, entity.ErrIntegrationUnavailable.Error(), controller.Snapshot().Error)
}

func TestUnstakeAndClaim(t *testing.T) {
	t.Parallel()

	t.Run("unstake success resyncs", func(t *testing.T) {
		t.Parallel()

		integration := &fakeIntegration{}
		controller := newController(integration)

		require.NoError(t, controller.Unstake(context.Background(), ethAddress, "0.5"))

		_, unstake, _, rewards, _ := integration.counts()
		assert.Equal(t, 1, unstake)
		assert.Equal(t, 1, rewards)
	})

	t.Run("unstake with invalid amount is rejected locally", func(t *testing.T) {
		t.Parallel()

		integration := &fakeIntegration{}
		controller := newController(integration)

		err := controller.Unstake(context.Background(), ethAddress, "not-a-number")
		var validationErr *entity.ValidationError
		require.ErrorAs(t, err, &validationErr)
		_, unstake, _, _, _ := integration.counts()
		assert.Zero(t, unstake)
	})

	t.Run("claim with empty token is rejected locally", func(t *testing.T) {
		t.Parallel()

		integration := &fakeIntegration{}
		controller := newController(integration)

		err := controller.ClaimRewards(context.Background(), "")
		var validationErr *entity.ValidationError
		require.ErrorAs(t, err, &validationErr)
		_, _, claim, _, _ := integration.counts()
		assert.Zero(t, claim)
	})

	t.Run("claim failure keeps rewards untouched", func(t *testing.T) {
		t.Parallel()

		integration := &fakeIntegration{
			rewardsFn: func() (string, error) { return "3.5", nil },
		}
		controller := newController(integration)
		require.NoError(t, controller.ResyncPositions(context.Background()))
		require.Equal(t, "3.5", controller.Snapshot().TotalRewards)

		integration.mu.Lock()
		integration.claimFn = func(entity.ClaimRequest) error {
			return errors.New("boom")
		}
		integration.mu.Unlock()

		require.Error(t, controller.ClaimRewards(context.Background(), ethAddress))
		assert.Equal(t, "3.5", controller.Snapshot().TotalRewards, "rewards are never zeroed optimistically")
	})
}
