package service

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/port"
)

// Hub hands out the per-address controllers. The hosting page supplies one
// wallet address at a time; switching address simply resolves a different
// pair of controllers, so state loaded for the old address can never leak
// into the new one.
type Hub struct {
	integration port.WalletIntegration
	catalog     port.CatalogProvider
	logger      port.Logger
	txLimit     int
	snapshots   *gocache.Cache

	mu      sync.Mutex
	loaders *gocache.Cache
	stakers map[string]*StakingController
}

// NewHub creates a Hub. snapshotTTL bounds how long last-good collections
// are kept for an address nobody is asking about anymore. Loaders idle for
// half that long are dropped; their cached snapshot outlives them, so a
// returning address is served the last good data while a fresh loader
// reloads.
func NewHub(
	integration port.WalletIntegration,
	catalog port.CatalogProvider,
	logger port.Logger,
	txLimit int,
	snapshotTTL time.Duration,
) *Hub {
	loaderTTL := snapshotTTL / 2
	if loaderTTL <= 0 {
		loaderTTL = snapshotTTL
	}
	return &Hub{
		integration: integration,
		catalog:     catalog,
		logger:      logger,
		txLimit:     txLimit,
		snapshots:   gocache.New(snapshotTTL, 10*time.Minute),
		loaders:     gocache.New(loaderTTL, 10*time.Minute),
		stakers:     make(map[string]*StakingController),
	}
}

// Loader returns the DataLoader for the given address, creating it on first
// use. Each access refreshes the idle timer.
func (h *Hub) Loader(address string) *DataLoader {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.loaders.Get(address); ok {
		l := v.(*DataLoader)
		h.loaders.SetDefault(address, l)
		return l
	}
	l := NewDataLoader(h.integration, h.logger, address, h.txLimit, h.snapshots)
	h.loaders.SetDefault(address, l)
	return l
}

// Staking returns the StakingController for the given address, creating it
// on first use.
func (h *Hub) Staking(address string) *StakingController {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.stakers[address]; ok {
		return c
	}
	c := NewStakingController(h.integration, h.catalog, h.logger, address)
	h.stakers[address] = c
	return c
}

// CachedSnapshot returns the last good collections stored for an address,
// if any survived in the TTL cache.
func (h *Hub) CachedSnapshot(address string) (DataSnapshot, bool) {
	if v, ok := h.snapshots.Get(address); ok {
		if snap, ok := v.(DataSnapshot); ok {
			return snap, true
		}
	}
	return DataSnapshot{}, false
}

// IntegrationAvailable reports whether a wallet integration is wired in.
func (h *Hub) IntegrationAvailable() bool {
	return h.integration != nil
}

// RunResyncLoop periodically resyncs positions for every active wallet
// until ctx is done. Call in a goroutine; a zero or negative interval
// returns immediately.
func (h *Hub) RunResyncLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, c := range h.activeStakers() {
				if err := c.ResyncPositions(ctx); err != nil {
					h.logger.Warn("Periodic position resync failed", "error", err)
				}
			}
		}
	}
}

func (h *Hub) activeStakers() []*StakingController {
	h.mu.Lock()
	defer h.mu.Unlock()
	controllers := make([]*StakingController, 0, len(h.stakers))
	for _, c := range h.stakers {
		controllers = append(controllers, c)
	}
	return controllers
}
