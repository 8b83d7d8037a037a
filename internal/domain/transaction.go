package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeOutcome TransactionType = "outcome"
)

// ParseTransactionType returns the type named by s and whether it is known
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(s) {
	case TransactionTypeIncome:
		return TransactionTypeIncome, true
	case TransactionTypeOutcome:
		return TransactionTypeOutcome, true
	}
	return "", false
}

type Transaction struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Type       TransactionType `json:"type"`
	Amount     decimal.Decimal `json:"value"`
	CategoryID uuid.UUID       `json:"categoryId"`
	Category   *Category       `json:"category,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Balance sums transaction amounts per type
type Balance struct {
	Income  decimal.Decimal `json:"income"`
	Outcome decimal.Decimal `json:"outcome"`
	Total   decimal.Decimal `json:"total"`
}

type TransactionList struct {
	Transactions []*Transaction `json:"transactions"`
	Balance      Balance        `json:"balance"`
}

type TransactionRepository interface {
	// CreateBatch persists all transactions in one write and assigns their identity.
	CreateBatch(ctx context.Context, transactions []*Transaction) ([]*Transaction, error)
	GetAll(ctx context.Context) ([]*Transaction, error)
	GetBalance(ctx context.Context) (*Balance, error)
}

// Transactor runs fn as a single unit of work. Repositories called with the
// ctx passed to fn take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
