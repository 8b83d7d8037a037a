package handler

import (
	"net/http"

	"github.com/dafibh/fortuna/fortuna-import/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TransactionHandler handles transaction and category listing requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// GetTransactions handles GET /api/v1/transactions
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	list, err := h.transactionService.GetTransactions(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get transactions")
		return NewInternalError(c, "Failed to get transactions")
	}
	return c.JSON(http.StatusOK, list)
}

// GetCategories handles GET /api/v1/categories
func (h *TransactionHandler) GetCategories(c echo.Context) error {
	categories, err := h.transactionService.GetCategories(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get categories")
		return NewInternalError(c, "Failed to get categories")
	}
	return c.JSON(http.StatusOK, categories)
}
