package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dafibh/fortuna/fortuna-import/internal/domain"
	"github.com/dafibh/fortuna/fortuna-import/internal/service"
	"github.com/dafibh/fortuna/fortuna-import/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTransactions_Success(t *testing.T) {
	transactionRepo := testutil.NewMockTransactionRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	food := categoryRepo.AddCategory("Food")
	_, err := transactionRepo.CreateBatch(context.Background(), []*domain.Transaction{
		{Title: "Bonus", Type: domain.TransactionTypeIncome, Amount: decimal.NewFromInt(200), CategoryID: food.ID, Category: food},
		{Title: "Lunch", Type: domain.TransactionTypeOutcome, Amount: decimal.NewFromInt(50), CategoryID: food.ID, Category: food},
	})
	require.NoError(t, err)

	handler := NewTransactionHandler(service.NewTransactionService(transactionRepo, categoryRepo))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler.GetTransactions(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var list domain.TransactionList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Transactions, 2)
	assert.Equal(t, "Food", list.Transactions[0].Category.Title)
	assert.True(t, decimal.NewFromInt(150).Equal(list.Balance.Total))
}

func TestGetTransactions_Error(t *testing.T) {
	transactionRepo := testutil.NewMockTransactionRepository()
	transactionRepo.GetAllFn = func() ([]*domain.Transaction, error) {
		return nil, errors.New("timeout")
	}
	handler := NewTransactionHandler(service.NewTransactionService(transactionRepo, testutil.NewMockCategoryRepository()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, handler.GetTransactions(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetCategories_Success(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryRepo.AddCategory("Food")
	categoryRepo.AddCategory("Salary")
	handler := NewTransactionHandler(service.NewTransactionService(testutil.NewMockTransactionRepository(), categoryRepo))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, handler.GetCategories(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var categories []domain.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
	assert.Len(t, categories, 2)
}
