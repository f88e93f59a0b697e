package provider

import (
	"strings"
	"sync"

	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/port"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/domain/entity"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/infrastructure/catalogloader"
)

type catalogProviderImpl struct {
	catalogDir string
	logger     port.Logger

	mu           sync.Mutex
	tokensCache  []entity.SupportedToken
	optionsCache []entity.LockOption
	byAddress    map[string]entity.SupportedToken
}

// NewCatalogProvider creates a CatalogProvider that loads the staking
// catalog from JSON files on first use and caches it afterwards.
func NewCatalogProvider(catalogDir string, logger port.Logger) port.CatalogProvider {
	return &catalogProviderImpl{
		catalogDir: catalogDir,
		logger:     logger,
	}
}

// SupportedTokens loads the token catalog from disk, caching the result
// after the first successful load.
func (p *catalogProviderImpl) SupportedTokens() ([]entity.SupportedToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokensLocked()
}

func (p *catalogProviderImpl) tokensLocked() ([]entity.SupportedToken, error) {
	if p.tokensCache != nil {
		return p.tokensCache, nil
	}

	p.logger.Debug("Loading token catalog from disk", "directory", p.catalogDir)
	tokens, err := catalogloader.LoadTokens(p.catalogDir, p.logger.Warn)
	if err != nil {
		p.logger.Error("Failed to load token catalog", "directory", p.catalogDir, "error", err)
		return nil, err
	}

	p.tokensCache = tokens
	p.byAddress = make(map[string]entity.SupportedToken, len(tokens))
	for _, t := range tokens {
		p.byAddress[strings.ToLower(t.Address)] = t
	}
	p.logger.Info("Token catalog loaded and cached", "count", len(tokens))
	return p.tokensCache, nil
}

// TokenByAddress resolves a catalog token by address, case-insensitively.
func (p *catalogProviderImpl) TokenByAddress(address string) (entity.SupportedToken, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.tokensLocked(); err != nil {
		return entity.SupportedToken{}, false
	}
	t, ok := p.byAddress[strings.ToLower(address)]
	return t, ok
}

// LockOptions loads the lock-period options, caching after the first
// successful load.
func (p *catalogProviderImpl) LockOptions() ([]entity.LockOption, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lockOptionsLocked()
}

func (p *catalogProviderImpl) lockOptionsLocked() ([]entity.LockOption, error) {
	if p.optionsCache != nil {
		return p.optionsCache, nil
	}

	p.logger.Debug("Loading lock options from disk", "directory", p.catalogDir)
	options, err := catalogloader.LoadLockOptions(p.catalogDir, p.logger.Warn)
	if err != nil {
		p.logger.Error("Failed to load lock options", "directory", p.catalogDir, "error", err)
		return nil, err
	}

	p.optionsCache = options
	p.logger.Info("Lock options loaded and cached", "count", len(options))
	return p.optionsCache, nil
}

// HasLockPeriod reports whether days matches one of the configured options.
func (p *catalogProviderImpl) HasLockPeriod(days int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	options, err := p.lockOptionsLocked()
	if err != nil {
		return false
	}
	for _, opt := range options {
		if opt.Days == days {
			return true
		}
	}
	return false
}
