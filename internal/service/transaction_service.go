package service

import (
	"context"

	"github.com/dafibh/fortuna/fortuna-import/internal/domain"
)

// TransactionService handles read access to transactions and categories
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	categoryRepo    domain.CategoryRepository
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, categoryRepo domain.CategoryRepository) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
	}
}

// GetTransactions retrieves all transactions together with the current balance
func (s *TransactionService) GetTransactions(ctx context.Context) (*domain.TransactionList, error) {
	transactions, err := s.transactionRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := s.transactionRepo.GetBalance(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.TransactionList{
		Transactions: transactions,
		Balance:      *balance,
	}, nil
}

// GetCategories retrieves all categories
func (s *TransactionService) GetCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.GetAll(ctx)
}
