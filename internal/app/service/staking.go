package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/port"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/domain/entity"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/pkg/metrics"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/pkg/utils"
)

// resyncConcurrency caps the per-token position queries running at once
// during a resync.
const resyncConcurrency = 4

// ActionKind identifies one of the three mutating staking actions.
type ActionKind int

const (
	ActionStake ActionKind = iota
	ActionUnstake
	ActionClaim

	actionKindCount
)

// String returns the action name used in logs and metric labels.
func (k ActionKind) String() string {
	switch k {
	case ActionStake:
		return "stake"
	case ActionUnstake:
		return "unstake"
	case ActionClaim:
		return "claim"
	default:
		return "unknown"
	}
}

// ActionState is the per-kind lifecycle: Idle -> Pending -> Idle. The three
// kinds run as independent two-state machines; a Pending state with no
// request issued is unrepresentable because the transition happens inside
// the call itself.
type ActionState int

const (
	StateIdle ActionState = iota
	StatePending
)

// StakingSnapshot is the view the UI renders the staking tab from.
type StakingSnapshot struct {
	Positions    []entity.StakingPosition `json:"positions"`
	TotalRewards string                   `json:"totalRewards"`
	IsStaking    bool                     `json:"isStaking"`
	IsUnstaking  bool                     `json:"isUnstaking"`
	IsClaiming   bool                     `json:"isClaiming"`
	DraftAmount  string                   `json:"draftAmount"`
	Error        string                   `json:"error,omitempty"`
	Message      string                   `json:"message,omitempty"`
}

// StakingController owns the staking positions of one wallet address and
// orchestrates the three mutating actions. Positions and the rewards scalar
// are rebuilt in full by ResyncPositions after every successful mutation;
// locally constructed position state is never trusted past a resync.
type StakingController struct {
	integration port.WalletIntegration
	catalog     port.CatalogProvider
	logger      port.Logger
	address     string
	now         func() time.Time

	resyncSeq atomic.Uint64

	mu           sync.Mutex
	states       [actionKindCount]ActionState
	positions    []entity.StakingPosition
	totalRewards string
	draftAmount  string
	lastError    string
	lastMessage  string
}

// NewStakingController creates a StakingController for one wallet address.
// integration may be nil when the wallet extension is not loaded; every
// mutating action then becomes a no-op reporting that state.
func NewStakingController(
	integration port.WalletIntegration,
	catalog port.CatalogProvider,
	logger port.Logger,
	address string,
) *StakingController {
	return &StakingController{
		integration:  integration,
		catalog:      catalog,
		logger:       logger,
		address:      address,
		now:          time.Now,
		totalRewards: "0",
	}
}

// Stake validates the input, executes the stake through the integration and
// resyncs positions on success. The in-flight flag for the stake kind is
// Pending exactly for the duration of the external call.
func (c *StakingController) Stake(ctx context.Context, tokenAddress, amount string, lockDays int) error {
	if err := c.requireIntegration(ActionStake); err != nil {
		return err
	}

	c.resetBanner()
	c.setDraftAmount(amount)

	if err := utils.ValidateAmount(amount); err != nil {
		return c.reject(ActionStake, entity.NewValidationError("amount", err.Error()))
	}
	if _, ok := c.catalog.TokenByAddress(tokenAddress); !ok {
		return c.reject(ActionStake, entity.NewValidationError("token", "not in supported token catalog"))
	}
	if !c.catalog.HasLockPeriod(lockDays) {
		return c.reject(ActionStake, entity.NewValidationError("lockPeriod", "not a configured lock option"))
	}

	if err := c.begin(ActionStake); err != nil {
		return err
	}

	callErr := func() error {
		defer c.end(ActionStake)
		return c.integration.ExecuteStake(ctx, entity.StakeRequest{
			TokenAddress:  tokenAddress,
			Amount:        amount,
			LockPeriod:    lockDays,
			WalletAddress: c.address,
		})
	}()
	if callErr != nil {
		// Positions and the draft amount stay untouched on failure.
		return c.fail(ActionStake, callErr)
	}

	c.succeed(ActionStake, "Staking successful", true)
	c.resyncAfter(ctx, ActionStake)
	return nil
}

// Unstake executes an unstake for one position and resyncs on success.
func (c *StakingController) Unstake(ctx context.Context, tokenAddress, amount string) error {
	if err := c.requireIntegration(ActionUnstake); err != nil {
		return err
	}

	c.resetBanner()

	if tokenAddress == "" {
		return c.reject(ActionUnstake, entity.NewValidationError("token", "token address is empty"))
	}
	if err := utils.ValidateAmount(amount); err != nil {
		return c.reject(ActionUnstake, entity.NewValidationError("amount", err.Error()))
	}

	if err := c.begin(ActionUnstake); err != nil {
		return err
	}

	callErr := func() error {
		defer c.end(ActionUnstake)
		return c.integration.ExecuteUnstake(ctx, entity.UnstakeRequest{
			TokenAddress:  tokenAddress,
			Amount:        amount,
			WalletAddress: c.address,
		})
	}()
	if callErr != nil {
		return c.fail(ActionUnstake, callErr)
	}

	c.succeed(ActionUnstake, "Unstake successful", false)
	c.resyncAfter(ctx, ActionUnstake)
	return nil
}

// ClaimRewards executes a claim for one position and resyncs on success.
// Reward amounts are never optimistically zeroed; the authoritative value
// only appears after the resync.
func (c *StakingController) ClaimRewards(ctx context.Context, tokenAddress string) error {
	if err := c.requireIntegration(ActionClaim); err != nil {
		return err
	}

	c.resetBanner()

	if tokenAddress == "" {
		return c.reject(ActionClaim, entity.NewValidationError("token", "token address is empty"))
	}

	if err := c.begin(ActionClaim); err != nil {
		return err
	}

	callErr := func() error {
		defer c.end(ActionClaim)
		return c.integration.ExecuteClaimRewards(ctx, entity.ClaimRequest{
			TokenAddress:  tokenAddress,
			WalletAddress: c.address,
		})
	}()
	if callErr != nil {
		return c.fail(ActionClaim, callErr)
	}

	c.succeed(ActionClaim, "Rewards claimed", false)
	c.resyncAfter(ctx, ActionClaim)
	return nil
}

// resyncAfter refreshes positions after a successful mutation. The mutation
// already applied; a resync failure here only means the local view is stale,
// so it is logged and never turned into the action's error.
func (c *StakingController) resyncAfter(ctx context.Context, kind ActionKind) {
	if err := c.ResyncPositions(ctx); err != nil {
		c.logger.Warn("Position resync after action failed, serving stale positions",
			"action", kind.String(), "address", c.address, "error", err)
	}
}

// ResyncPositions rebuilds the position list from the integration: one query
// per catalog token, keeping only successful non-empty answers, in catalog
// order. A per-token failure is skipped, never fatal. The fresh list then
// replaces the prior one wholesale, and the aggregate rewards scalar is
// refreshed, defaulting to "0" when absent.
//
// The resync is idempotent and safe to call after any mutation or on a
// timer. A resync superseded by a newer one discards its result.
func (c *StakingController) ResyncPositions(ctx context.Context) error {
	if c.integration == nil {
		return entity.ErrIntegrationUnavailable
	}

	tokens, err := c.catalog.SupportedTokens()
	if err != nil {
		c.logger.Error("Cannot resync positions, token catalog unavailable", "address", c.address, "error", err)
		return err
	}

	seq := c.resyncSeq.Add(1)
	timer := prometheus.NewTimer(metrics.ResyncDuration)
	defer timer.ObserveDuration()

	results := make([]*entity.StakingPosition, len(tokens))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resyncConcurrency)
	for i, token := range tokens {
		g.Go(func() error {
			pos, err := c.integration.GetStakingPosition(gctx, c.address, token.Address)
			if err != nil {
				// Partial results are acceptable; this token just
				// contributes nothing to the list.
				c.logger.Warn("Skipping token in position resync",
					"address", c.address, "token", token.Symbol, "error", err)
				return nil
			}
			results[i] = pos
			return nil
		})
	}
	_ = g.Wait()

	fresh := make([]entity.StakingPosition, 0, len(tokens))
	for _, pos := range results {
		if pos != nil {
			fresh = append(fresh, *pos)
		}
	}

	rewards, err := c.integration.GetStakingRewards(ctx, c.address)
	if err != nil {
		c.logger.Warn("Failed to fetch aggregate rewards, defaulting to 0", "address", c.address, "error", err)
		rewards = "0"
	}
	rewards = utils.OrZero(rewards)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.resyncSeq.Load() {
		metrics.StaleResponses.WithLabelValues("resync").Inc()
		c.logger.Debug("Discarding superseded position resync", "address", c.address)
		return nil
	}
	c.positions = fresh
	c.totalRewards = rewards
	c.logger.Debug("Position resync applied", "address", c.address, "positions", len(fresh), "rewards", rewards)
	return nil
}

// Snapshot returns the current staking view.
func (c *StakingController) Snapshot() StakingSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return StakingSnapshot{
		Positions:    c.positions,
		TotalRewards: c.totalRewards,
		IsStaking:    c.states[ActionStake] == StatePending,
		IsUnstaking:  c.states[ActionUnstake] == StatePending,
		IsClaiming:   c.states[ActionClaim] == StatePending,
		DraftAmount:  c.draftAmount,
		Error:        c.lastError,
		Message:      c.lastMessage,
	}
}

// Now returns the controller's clock reading, used to classify positions as
// active or expired.
func (c *StakingController) Now() time.Time {
	return c.now()
}

func (c *StakingController) requireIntegration(kind ActionKind) error {
	if c.integration != nil {
		return nil
	}
	c.mu.Lock()
	c.lastMessage = ""
	c.lastError = entity.ErrIntegrationUnavailable.Error()
	c.mu.Unlock()
	metrics.StakingActions.WithLabelValues(kind.String(), "rejected").Inc()
	return entity.ErrIntegrationUnavailable
}

// begin moves the action kind from Idle to Pending, refusing when a call of
// the same kind is still in flight. Different kinds may overlap.
func (c *StakingController) begin(kind ActionKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.states[kind] == StatePending {
		metrics.StakingActions.WithLabelValues(kind.String(), "rejected").Inc()
		return entity.ErrActionInFlight
	}
	c.states[kind] = StatePending
	return nil
}

// end returns the action kind to Idle. Runs on every path out of the
// external call, success or failure.
func (c *StakingController) end(kind ActionKind) {
	c.mu.Lock()
	c.states[kind] = StateIdle
	c.mu.Unlock()
}

func (c *StakingController) resetBanner() {
	c.mu.Lock()
	c.lastError = ""
	c.lastMessage = ""
	c.mu.Unlock()
}

func (c *StakingController) setDraftAmount(amount string) {
	c.mu.Lock()
	c.draftAmount = amount
	c.mu.Unlock()
}

// reject records a pre-call validation failure. It is user input, not a
// system fault, so it is not logged as an error.
func (c *StakingController) reject(kind ActionKind, err *entity.ValidationError) error {
	c.mu.Lock()
	c.lastError = err.Error()
	c.mu.Unlock()
	metrics.StakingActions.WithLabelValues(kind.String(), "rejected").Inc()
	return err
}

// fail records an external call failure, preferring the message carried by
// the integration.
func (c *StakingController) fail(kind ActionKind, err error) error {
	message := err.Error()
	var bridgeErr *entity.BridgeError
	if errors.As(err, &bridgeErr) {
		message = bridgeErr.UserMessage()
	}

	c.mu.Lock()
	c.lastError = message
	c.mu.Unlock()

	metrics.StakingActions.WithLabelValues(kind.String(), "failure").Inc()
	c.logger.Error("Staking action failed", "action", kind.String(), "address", c.address, "error", err)
	return err
}

func (c *StakingController) succeed(kind ActionKind, message string, clearDraft bool) {
	c.mu.Lock()
	c.lastMessage = message
	if clearDraft {
		c.draftAmount = ""
	}
	c.mu.Unlock()

	metrics.StakingActions.WithLabelValues(kind.String(), "success").Inc()
	c.logger.Info("Staking action succeeded", "action", kind.String(), "address", c.address)
}
