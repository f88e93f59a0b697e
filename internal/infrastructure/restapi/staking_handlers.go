package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/port"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/service"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/domain/entity"
)

// StakingHandler serves the staking tab: the position list and the three
// mutating actions.
type StakingHandler struct {
	hub     *service.Hub
	catalog port.CatalogProvider
	logger  port.Logger
}

// NewStakingHandler creates a StakingHandler.
func NewStakingHandler(hub *service.Hub, catalog port.CatalogProvider, logger port.Logger) *StakingHandler {
	return &StakingHandler{hub: hub, catalog: catalog, logger: logger}
}

type stakeRequestBody struct {
	TokenAddress string `json:"tokenAddress"`
	Amount       string `json:"amount"`
	LockPeriod   int    `json:"lockPeriod"`
}

type unstakeRequestBody struct {
	TokenAddress string `json:"tokenAddress"`
	Amount       string `json:"amount"`
}

type claimRequestBody struct {
	TokenAddress string `json:"tokenAddress"`
}

// positionView decorates a position with the derived activity flag and the
// controls the UI may offer. Expired positions lose unstake and claim.
type positionView struct {
	entity.StakingPosition
	IsActive   bool `json:"isActive"`
	CanUnstake bool `json:"canUnstake"`
	CanClaim   bool `json:"canClaim"`
}

// GetStakingHandler resyncs and returns the staking view for the wallet.
func (h *StakingHandler) GetStakingHandler(c *gin.Context) {
	address := c.Param("address")
	controller := h.hub.Staking(address)

	if err := controller.ResyncPositions(c.Request.Context()); err != nil {
		if errors.Is(err, entity.ErrIntegrationUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.logger.Warn("Serving last known staking state after resync failure", "address", address, "error", err)
	}

	h.renderSnapshot(c, controller, http.StatusOK)
}

// StakeHandler validates and executes a stake.
func (h *StakingHandler) StakeHandler(c *gin.Context) {
	var body stakeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	controller := h.hub.Staking(c.Param("address"))
	err := controller.Stake(c.Request.Context(), body.TokenAddress, body.Amount, body.LockPeriod)
	h.renderOutcome(c, controller, err)
}

// UnstakeHandler validates and executes an unstake.
func (h *StakingHandler) UnstakeHandler(c *gin.Context) {
	var body unstakeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	controller := h.hub.Staking(c.Param("address"))
	err := controller.Unstake(c.Request.Context(), body.TokenAddress, body.Amount)
	h.renderOutcome(c, controller, err)
}

// ClaimHandler executes a rewards claim for one position.
func (h *StakingHandler) ClaimHandler(c *gin.Context) {
	var body claimRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	controller := h.hub.Staking(c.Param("address"))
	err := controller.ClaimRewards(c.Request.Context(), body.TokenAddress)
	h.renderOutcome(c, controller, err)
}

// GetCatalogHandler returns the supported tokens and lock options.
func (h *StakingHandler) GetCatalogHandler(c *gin.Context) {
	tokens, err := h.catalog.SupportedTokens()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load token catalog"})
		return
	}
	options, err := h.catalog.LockOptions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load lock options"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tokens":      tokens,
		"lockOptions": options,
	})
}

// renderOutcome maps a mutating action result onto an HTTP status and
// returns the resulting snapshot either way, so the client can always
// re-render banner and flags from the response.
func (h *StakingHandler) renderOutcome(c *gin.Context, controller *service.StakingController, err error) {
	status := http.StatusOK
	if err != nil {
		status = statusForError(err)
	}
	h.renderSnapshot(c, controller, status)
}

func (h *StakingHandler) renderSnapshot(c *gin.Context, controller *service.StakingController, status int) {
	snap := controller.Snapshot()
	now := controller.Now()

	views := make([]positionView, 0, len(snap.Positions))
	for _, pos := range snap.Positions {
		active := pos.IsActive(now)
		views = append(views, positionView{
			StakingPosition: pos,
			IsActive:        active,
			CanUnstake:      active,
			CanClaim:        active,
		})
	}

	c.JSON(status, gin.H{
		"positions":    views,
		"totalRewards": snap.TotalRewards,
		"isStaking":    snap.IsStaking,
		"isUnstaking":  snap.IsUnstaking,
		"isClaiming":   snap.IsClaiming,
		"draftAmount":  snap.DraftAmount,
		"error":        snap.Error,
		"message":      snap.Message,
	})
}

func statusForError(err error) int {
	var validationErr *entity.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrActionInFlight):
		return http.StatusConflict
	case errors.Is(err, entity.ErrIntegrationUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
