package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moa-platform/checkout-service/internal/integration/moaapi"
	"github.com/moa-platform/checkout-service/pkg/logger"
)

// ProductHandler обработчик каталога OTT сервисов
type ProductHandler struct {
	api *moaapi.Client
	log *logger.Logger
}

// NewProductHandler создает новый обработчик каталога
func NewProductHandler(api *moaapi.Client, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		api: api,
		log: log,
	}
}

// List возвращает доступные OTT сервисы
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.api.ListProducts(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list products: %v", err)
		c.JSON(statusFromError(err), gin.H{"error": "failed to load products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}
