package service

import (
	"context"
	"sync"
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/port"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/domain/entity"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/pkg/metrics"
)

// DataSnapshot is the read-side view of one wallet: the latest successfully
// loaded collections plus the per-collection loading flags.
type DataSnapshot struct {
	Balances            []entity.Balance     `json:"balances"`
	Transactions        []entity.Transaction `json:"transactions"`
	LoadingBalances     bool                 `json:"loadingBalances"`
	LoadingTransactions bool                 `json:"loadingTransactions"`
}

// DataLoader fetches the read-only collections (balances, transaction
// history) for a single wallet address. Each collection keeps independent
// loading state; a failed load leaves the previous collection in place
// (stale-but-present) and is logged rather than surfaced.
//
// Every load carries a monotonically increasing token; a response is applied
// only when its token is still the latest issued for the collection, so a
// slow response can never overwrite a newer one.
type DataLoader struct {
	integration port.WalletIntegration
	logger      port.Logger
	address     string
	txLimit     int
	snapshots   *gocache.Cache

	balancesSeq     atomic.Uint64
	transactionsSeq atomic.Uint64

	mu                  sync.Mutex
	balances            []entity.Balance
	transactions        []entity.Transaction
	loadingBalances     bool
	loadingTransactions bool
}

// NewDataLoader creates a DataLoader for one wallet address. snapshots may
// be nil to disable the last-good snapshot cache.
func NewDataLoader(
	integration port.WalletIntegration,
	logger port.Logger,
	address string,
	txLimit int,
	snapshots *gocache.Cache,
) *DataLoader {
	if txLimit <= 0 {
		txLimit = 10
	}
	return &DataLoader{
		integration: integration,
		logger:      logger,
		address:     address,
		txLimit:     txLimit,
		snapshots:   snapshots,
	}
}

// LoadBalances fetches the balance collection. On success the stored
// collection is replaced wholesale; on failure it is left untouched and the
// error is returned for the caller to log or ignore.
func (l *DataLoader) LoadBalances(ctx context.Context) error {
	if l.integration == nil {
		return entity.ErrIntegrationUnavailable
	}

	seq := l.balancesSeq.Add(1)
	l.setLoadingBalances(true)
	defer l.setLoadingBalances(false)

	balances, err := l.integration.GetUserBalances(ctx, l.address)
	if err != nil {
		l.logger.Error("Failed to load balances, keeping previous snapshot", "address", l.address, "error", err)
		return err
	}
	if balances == nil {
		balances = []entity.Balance{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.balancesSeq.Load() {
		metrics.StaleResponses.WithLabelValues("balances").Inc()
		l.logger.Debug("Discarding stale balance response", "address", l.address)
		return nil
	}
	l.balances = balances
	l.cacheSnapshotLocked()
	return nil
}

// LoadTransactions fetches the most recent page of transaction history.
// limit overrides the configured page size for this load; 0 means the
// default. Same replacement and staleness rules as LoadBalances; pages are
// never merged.
func (l *DataLoader) LoadTransactions(ctx context.Context, limit int) error {
	if l.integration == nil {
		return entity.ErrIntegrationUnavailable
	}
	if limit <= 0 {
		limit = l.txLimit
	}

	seq := l.transactionsSeq.Add(1)
	l.setLoadingTransactions(true)
	defer l.setLoadingTransactions(false)

	txs, err := l.integration.GetTransactionHistory(ctx, l.address, limit)
	if err != nil {
		l.logger.Error("Failed to load transactions, keeping previous snapshot", "address", l.address, "error", err)
		return err
	}
	if txs == nil {
		txs = []entity.Transaction{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.transactionsSeq.Load() {
		metrics.StaleResponses.WithLabelValues("transactions").Inc()
		l.logger.Debug("Discarding stale transaction response", "address", l.address)
		return nil
	}
	l.transactions = txs
	l.cacheSnapshotLocked()
	return nil
}

// Refresh reloads both collections concurrently. There is no ordering
// dependency between them; either may complete first. A failure in one does
// not block the other, and neither failure is fatal.
func (l *DataLoader) Refresh(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := l.LoadBalances(gctx); err != nil {
			l.logger.Warn("Balance refresh failed", "address", l.address, "error", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := l.LoadTransactions(gctx, 0); err != nil {
			l.logger.Warn("Transaction refresh failed", "address", l.address, "error", err)
		}
		return nil
	})
	_ = g.Wait()
}

// Snapshot returns the current view of the wallet's collections.
func (l *DataLoader) Snapshot() DataSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return DataSnapshot{
		Balances:            l.balances,
		Transactions:        l.transactions,
		LoadingBalances:     l.loadingBalances,
		LoadingTransactions: l.loadingTransactions,
	}
}

func (l *DataLoader) setLoadingBalances(v bool) {
	l.mu.Lock()
	l.loadingBalances = v
	l.mu.Unlock()
}

func (l *DataLoader) setLoadingTransactions(v bool) {
	l.mu.Lock()
	l.loadingTransactions = v
	l.mu.Unlock()
}

// cacheSnapshotLocked stores the last good collections under the wallet
// address so they survive loader eviction. Caller holds l.mu.
func (l *DataLoader) cacheSnapshotLocked() {
	if l.snapshots == nil {
		return
	}
	l.snapshots.Set(l.address, DataSnapshot{
		Balances:     l.balances,
		Transactions: l.transactions,
	}, gocache.DefaultExpiration)
}
