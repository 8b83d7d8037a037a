package handler

import (
	"github.com/dafibh/fortuna/fortuna-import/internal/middleware"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, rateLimiter *middleware.RateLimiter, uploadLimit string, importHandler *ImportHandler, transactionHandler *TransactionHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Transaction routes
	transactions := api.Group("/transactions")
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.POST("/import", importHandler.ImportTransactions,
		echomiddleware.BodyLimit(uploadLimit),
		middleware.RateLimitMiddleware(rateLimiter),
	)

	// Category routes
	api.GET("/categories", transactionHandler.GetCategories)

	// Event stream
	e.GET("/ws", wsHandler.HandleWS)
}
