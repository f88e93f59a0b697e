package restapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/port"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/service"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/domain/entity"
)

const maxTransactionsLimit = 100

// RequireHexAddress rejects requests whose :address parameter is not a
// valid hex wallet address before any handler work happens.
func RequireHexAddress() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !common.IsHexAddress(c.Param("address")) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid wallet address",
			})
			return
		}
		c.Next()
	}
}

// WalletHandler serves the read-side endpoints: balances, transaction
// history and the manual refresh action.
type WalletHandler struct {
	hub    *service.Hub
	probe  IntegrationProbe
	logger port.Logger
}

// IntegrationProbe checks bridge reachability for the health endpoint.
// nil means no probe is available.
type IntegrationProbe interface {
	Ping(ctx context.Context) error
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(hub *service.Hub, probe IntegrationProbe, logger port.Logger) *WalletHandler {
	return &WalletHandler{hub: hub, probe: probe, logger: logger}
}

// GetBalancesHandler loads and returns the balance collection. A load
// failure is not a blocking error: the previous (possibly stale) snapshot
// is served instead, falling back to the last-good cached snapshot when the
// loader itself holds nothing yet.
func (h *WalletHandler) GetBalancesHandler(c *gin.Context) {
	address := c.Param("address")
	loader := h.hub.Loader(address)

	loadErr := loader.LoadBalances(c.Request.Context())
	if loadErr != nil {
		if errors.Is(loadErr, entity.ErrIntegrationUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": loadErr.Error()})
			return
		}
		h.logger.Warn("Serving stale balances after load failure", "address", address, "error", loadErr)
	}

	snap := loader.Snapshot()
	balances := snap.Balances
	if loadErr != nil && len(balances) == 0 {
		if cached, ok := h.hub.CachedSnapshot(address); ok {
			balances = cached.Balances
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"balances": orEmptyBalances(balances),
		"loading":  snap.LoadingBalances,
	})
}

// GetTransactionsHandler loads and returns the latest page of history.
func (h *WalletHandler) GetTransactionsHandler(c *gin.Context) {
	address := c.Param("address")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxTransactionsLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer up to 100"})
			return
		}
		limit = parsed
	}

	loader := h.hub.Loader(address)
	loadErr := loader.LoadTransactions(c.Request.Context(), limit)
	if loadErr != nil {
		if errors.Is(loadErr, entity.ErrIntegrationUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": loadErr.Error()})
			return
		}
		h.logger.Warn("Serving stale transactions after load failure", "address", address, "error", loadErr)
	}

	snap := loader.Snapshot()
	transactions := snap.Transactions
	if loadErr != nil && len(transactions) == 0 {
		if cached, ok := h.hub.CachedSnapshot(address); ok {
			transactions = cached.Transactions
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": orEmptyTransactions(transactions),
		"loading":      snap.LoadingTransactions,
	})
}

// RefreshHandler reloads both collections concurrently and returns the
// resulting snapshot.
func (h *WalletHandler) RefreshHandler(c *gin.Context) {
	address := c.Param("address")
	if !h.hub.IntegrationAvailable() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": entity.ErrIntegrationUnavailable.Error()})
		return
	}

	loader := h.hub.Loader(address)
	loader.Refresh(c.Request.Context())

	snap := loader.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"balances":     orEmptyBalances(snap.Balances),
		"transactions": orEmptyTransactions(snap.Transactions),
	})
}

// HealthHandler reports service liveness and whether the wallet integration
// is loaded and reachable.
func (h *WalletHandler) HealthHandler(c *gin.Context) {
	integration := "not loaded"
	if h.hub.IntegrationAvailable() {
		integration = "available"
		if h.probe != nil {
			if err := h.probe.Ping(c.Request.Context()); err != nil {
				integration = "unreachable"
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"integration": integration,
	})
}

func orEmptyBalances(balances []entity.Balance) []entity.Balance {
	if balances == nil {
		return []entity.Balance{}
	}
	return balances
}

func orEmptyTransactions(txs []entity.Transaction) []entity.Transaction {
	if txs == nil {
		return []entity.Transaction{}
	}
	return txs
}
