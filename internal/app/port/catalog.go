package port

import "github.com/Emmanuelluxury/vernwallet-sub002/internal/domain/entity"

// CatalogProvider serves the fixed staking catalog: the supported tokens and
// the configured lock-period options. Both are static at build time in this
// system; an external collaborator could serve them dynamically instead.
type CatalogProvider interface {
	// SupportedTokens returns the catalog of stakeable tokens.
	SupportedTokens() ([]entity.SupportedToken, error)

	// TokenByAddress resolves a catalog token by its on-chain address.
	// Returns the token and true when found.
	TokenByAddress(address string) (entity.SupportedToken, bool)

	// LockOptions returns the configured lock periods.
	LockOptions() ([]entity.LockOption, error)

	// HasLockPeriod reports whether days matches a configured lock option.
	HasLockPeriod(days int) bool
}
