package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/fortuna/fortuna-import/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const createTransaction = `
INSERT INTO transactions (id, title, type, value, category_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING id, title, type, value, category_id, created_at, updated_at`

// CreateBatch inserts all transactions in a single round trip
func (r *TransactionRepository) CreateBatch(ctx context.Context, transactions []*domain.Transaction) ([]*domain.Transaction, error) {
	if len(transactions) == 0 {
		return []*domain.Transaction{}, nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for i, t := range transactions {
		amount, err := decimalToPgNumeric(t.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in transaction %d: %w", i, err)
		}
		id := t.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(createTransaction, id, t.Title, string(t.Type), amount, t.CategoryID, now)
	}

	results := conn(ctx, r.pool).SendBatch(ctx, batch)
	defer results.Close()

	created := make([]*domain.Transaction, 0, len(transactions))
	for i, draft := range transactions {
		t, err := scanTransaction(results.QueryRow())
		if err != nil {
			return nil, fmt.Errorf("insert transaction %d: %w", i, err)
		}
		t.Category = draft.Category
		created = append(created, t)
	}

	if err := results.Close(); err != nil {
		return nil, err
	}
	return created, nil
}

const getAllTransactions = `
SELECT t.id, t.title, t.type, t.value, t.category_id, t.created_at, t.updated_at,
       c.id, c.title, c.created_at, c.updated_at
FROM transactions t
JOIN categories c ON c.id = t.category_id
ORDER BY t.created_at, t.id`

// GetAll retrieves every transaction with its category
func (r *TransactionRepository) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getAllTransactions)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Transaction, error) {
		var (
			t      domain.Transaction
			c      domain.Category
			txType string
			amount pgtype.Numeric
		)
		err := row.Scan(
			&t.ID, &t.Title, &txType, &amount, &t.CategoryID, &t.CreatedAt, &t.UpdatedAt,
			&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		t.Type = domain.TransactionType(txType)
		t.Amount = pgNumericToDecimal(amount)
		t.Category = &c
		return &t, nil
	})
}

const sumTransactionsByType = `
SELECT
    COALESCE(SUM(value) FILTER (WHERE type = 'income'), 0)::NUMERIC(14, 2),
    COALESCE(SUM(value) FILTER (WHERE type = 'outcome'), 0)::NUMERIC(14, 2)
FROM transactions`

// GetBalance sums incomes and outcomes across all transactions
func (r *TransactionRepository) GetBalance(ctx context.Context) (*domain.Balance, error) {
	var income, outcome pgtype.Numeric
	if err := conn(ctx, r.pool).QueryRow(ctx, sumTransactionsByType).Scan(&income, &outcome); err != nil {
		return nil, err
	}

	balance := &domain.Balance{
		Income:  pgNumericToDecimal(income),
		Outcome: pgNumericToDecimal(outcome),
	}
	balance.Total = balance.Income.Sub(balance.Outcome)
	return balance, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t      domain.Transaction
		txType string
		amount pgtype.Numeric
	)
	if err := row.Scan(&t.ID, &t.Title, &txType, &amount, &t.CategoryID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Type = domain.TransactionType(txType)
	t.Amount = pgNumericToDecimal(amount)
	return &t, nil
}
