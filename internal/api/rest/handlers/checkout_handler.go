package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moa-platform/checkout-service/internal/checkout"
	"github.com/moa-platform/checkout-service/internal/domain"
	"github.com/moa-platform/checkout-service/internal/metrics"
	"github.com/moa-platform/checkout-service/pkg/logger"
)

// CheckoutHandler обработчик операций оформления вечеринки
type CheckoutHandler struct {
	service *checkout.Service
	metrics metrics.CheckoutMetrics
	log     *logger.Logger
}

// NewCheckoutHandler создает новый обработчик оформления
func NewCheckoutHandler(service *checkout.Service, m metrics.CheckoutMetrics, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		metrics: m,
		log:     log,
	}
}

// Start обрабатывает запрос на начало нового оформления
func (h *CheckoutHandler) Start(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	co, err := h.service.Start(c.Request.Context(), uid)
	if err != nil {
		h.log.Error("Failed to start checkout: %v", err)
		c.JSON(statusFromError(err), gin.H{"error": "failed to start checkout"})
		return
	}

	h.metrics.IncCheckoutStarted()
	c.JSON(http.StatusCreated, co)
}

// Get возвращает текущее состояние оформления
func (h *CheckoutHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkout id"})
		return
	}

	co, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": "checkout not found"})
		return
	}

	c.JSON(http.StatusOK, co)
}

type selectProductRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
}

// SelectProduct обрабатывает выбор OTT сервиса на первом шаге
func (h *CheckoutHandler) SelectProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkout id"})
		return
	}

	var req selectProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	co, err := h.service.SelectProduct(c.Request.Context(), id, req.ProductID)
	if err != nil {
		h.log.Warn("Failed to select product %d for checkout %s: %v", req.ProductID, id, err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, co)
}

type configureRequest struct {
	StartDate  string `json:"startDate" binding:"required"`
	Months     int    `json:"months" binding:"required"`
	MaxMembers int    `json:"maxMembers" binding:"required"`
}

// Configure обрабатывает настройку периода и состава вечеринки
func (h *CheckoutHandler) Configure(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkout id"})
		return
	}

	var req configureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	co, err := h.service.Configure(c.Request.Context(), id, req.StartDate, req.Months, req.MaxMembers)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, co)
}

// Back обрабатывает возврат на предыдущий шаг
func (h *CheckoutHandler) Back(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkout id"})
		return
	}

	co, err := h.service.Back(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, co)
}

// Pay инициирует депозитный платеж и возвращает URL для редиректа
func (h *CheckoutHandler) Pay(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkout id"})
		return
	}

	redirectURL, co, err := h.service.Pay(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Failed to initiate payment for checkout %s: %v", id, err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	h.metrics.IncPaymentRedirect(string(domain.FlowCreateParty))
	h.metrics.ObserveDepositAmount(string(domain.FlowCreateParty), co.Amount)

	c.JSON(http.StatusOK, gin.H{
		"redirectUrl": redirectURL,
		"checkout":    co,
	})
}

// Resume восстанавливает оформление после возврата из платежного шлюза.
// Параметры запроса step и partyId считаются авторитетным источником.
func (h *CheckoutHandler) Resume(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	step, err := strconv.Atoi(c.Query("step"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step parameter"})
		return
	}

	var partyID int64
	if raw := c.Query("partyId"); raw != "" {
		partyID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid partyId parameter"})
			return
		}
	}

	co, err := h.service.Resume(c.Request.Context(), uid, domain.CheckoutStep(step), partyID)
	if err != nil {
		if errors.Is(err, domain.ErrResumeFailed) {
			h.metrics.IncCheckoutResumed("failed")
			c.JSON(http.StatusOK, gin.H{
				"checkout": co,
				"resumed":  false,
				"error":    "failed to restore checkout, starting over",
			})
			return
		}
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	h.metrics.IncCheckoutResumed("success")
	c.JSON(http.StatusOK, gin.H{
		"checkout": co,
		"resumed":  true,
	})
}

type credentialsRequest struct {
	OTTID       string `json:"ottId" binding:"required"`
	OTTPassword string `json:"ottPassword" binding:"required"`
}

// SubmitCredentials обрабатывает передачу учетных данных OTT аккаунта
func (h *CheckoutHandler) SubmitCredentials(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkout id"})
		return
	}

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	co, err := h.service.SubmitCredentials(c.Request.Context(), id, req.OTTID, req.OTTPassword)
	if err != nil {
		h.log.Error("Failed to submit credentials for checkout %s: %v", id, err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	h.metrics.IncCheckoutCompleted(string(domain.FlowCreateParty))
	c.JSON(http.StatusOK, co)
}
