package entity

import "time"

// TransactionType classifies a history entry.
type TransactionType string

const (
	TransactionTypeBridge   TransactionType = "bridge"
	TransactionTypeSwap     TransactionType = "swap"
	TransactionTypeStaking  TransactionType = "staking"
	TransactionTypeTransfer TransactionType = "transfer"
)

// TransactionStatus is the settlement state reported by the integration.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is a single history entry. The history is append-only on the
// integration side; this service only ever holds the latest fetched page.
type Transaction struct {
	ID        string            `json:"id"`
	Type      TransactionType   `json:"type"`
	Amount    string            `json:"amount"`
	Token     string            `json:"token"`
	Status    TransactionStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	TxHash    string            `json:"txHash,omitempty"`
}
