package catalogloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/Emmanuelluxury/vernwallet-sub002/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	tokensFileName      = "tokens.json"
	lockOptionsFileName = "lock_options.json"
)

// LoadTokens reads the supported-token catalog from dir/tokens.json and
// validates each entry. Entries without a symbol or address are skipped, not
// fatal; an unreadable file is.
func LoadTokens(dir string, warn func(msg string, args ...any)) ([]entity.SupportedToken, error) {
	path := filepath.Join(dir, tokensFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token catalog %s: %w", path, err)
	}

	var raw []entity.SupportedToken
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token catalog %s: %w", path, err)
	}

	seen := make(map[string]bool, len(raw))
	tokens := make([]entity.SupportedToken, 0, len(raw))
	for _, t := range raw {
		if t.Symbol == "" || t.Address == "" {
			if warn != nil {
				warn("Skipping catalog token with missing symbol or address", "file", path, "symbol", t.Symbol, "address", t.Address)
			}
			continue
		}
		key := strings.ToLower(t.Address)
		if seen[key] {
			if warn != nil {
				warn("Skipping duplicate catalog token address", "file", path, "address", t.Address)
			}
			continue
		}
		seen[key] = true
		tokens = append(tokens, t)
	}

	return tokens, nil
}

// LoadLockOptions reads the lock-period options from dir/lock_options.json.
// Options with a non-positive duration are skipped.
func LoadLockOptions(dir string, warn func(msg string, args ...any)) ([]entity.LockOption, error) {
	path := filepath.Join(dir, lockOptionsFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock options %s: %w", path, err)
	}

	var raw []entity.LockOption
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lock options %s: %w", path, err)
	}

	options := make([]entity.LockOption, 0, len(raw))
	for _, opt := range raw {
		if opt.Days <= 0 {
			if warn != nil {
				warn("Skipping lock option with non-positive duration", "file", path, "days", opt.Days)
			}
			continue
		}
		options = append(options, opt)
	}

	return options, nil
}
