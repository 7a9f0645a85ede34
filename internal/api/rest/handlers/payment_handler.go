package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moa-platform/checkout-service/internal/checkout"
	"github.com/moa-platform/checkout-service/internal/domain"
	"github.com/moa-platform/checkout-service/internal/metrics"
	"github.com/moa-platform/checkout-service/pkg/logger"
)

// PaymentHandler обработчик платежных колбэков и потоков присоединения
type PaymentHandler struct {
	service *checkout.Service
	metrics metrics.CheckoutMetrics
	log     *logger.Logger
}

// NewPaymentHandler создает новый обработчик платежей
func NewPaymentHandler(service *checkout.Service, m metrics.CheckoutMetrics, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		metrics: m,
		log:     log,
	}
}

func partyIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid party id"})
		return 0, false
	}
	return id, true
}

// JoinParty инициирует оплату присоединения к вечеринке
func (h *PaymentHandler) JoinParty(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	partyID, ok := partyIDParam(c)
	if !ok {
		return
	}

	redirectURL, amount, err := h.service.JoinParty(c.Request.Context(), uid, partyID)
	if err != nil {
		h.log.Error("Failed to initiate join payment for party %d: %v", partyID, err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	h.metrics.IncPaymentRedirect(string(domain.FlowJoinParty))
	h.metrics.ObserveDepositAmount(string(domain.FlowJoinParty), amount)

	c.JSON(http.StatusOK, gin.H{
		"redirectUrl": redirectURL,
		"amount":      amount,
	})
}

// RetryDeposit инициирует повторную оплату месячного депозита
func (h *PaymentHandler) RetryDeposit(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	partyID, ok := partyIDParam(c)
	if !ok {
		return
	}

	redirectURL, amount, err := h.service.RetryDeposit(c.Request.Context(), uid, partyID)
	if err != nil {
		h.log.Error("Failed to initiate retry payment for party %d: %v", partyID, err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	h.metrics.IncPaymentRedirect(string(domain.FlowRetryDeposit))
	h.metrics.ObserveDepositAmount(string(domain.FlowRetryDeposit), amount)

	c.JSON(http.StatusOK, gin.H{
		"redirectUrl": redirectURL,
		"amount":      amount,
	})
}

type paymentSuccessRequest struct {
	PaymentKey string `json:"paymentKey" binding:"required"`
	OrderID    string `json:"orderId" binding:"required"`
	Amount     int64  `json:"amount" binding:"required"`
}

// PaymentSuccess обрабатывает успешный возврат из платежного шлюза
func (h *PaymentHandler) PaymentSuccess(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req paymentSuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	pending, err := h.service.CompletePayment(c.Request.Context(), uid, req.PaymentKey, req.OrderID, req.Amount)
	if err != nil {
		h.log.Error("Failed to complete payment %s: %v", req.OrderID, err)
		if pending.Flow != "" {
			h.metrics.IncPaymentFailed(string(pending.Flow))
		}
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	if pending.Flow != domain.FlowCreateParty {
		h.metrics.IncCheckoutCompleted(string(pending.Flow))
	}

	c.JSON(http.StatusOK, gin.H{
		"flow":    pending.Flow,
		"partyId": pending.PartyID,
	})
}

// PaymentFail обрабатывает неуспешный возврат из платежного шлюза
func (h *PaymentHandler) PaymentFail(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	if err := h.service.FailPayment(c.Request.Context(), uid); err != nil {
		h.log.Error("Failed to process payment failure for user %s: %v", uid, err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

type billingAuthRequest struct {
	Reason     string `json:"reason" binding:"required"`
	ReturnPath string `json:"returnPath"`
}

// BillingAuth инициирует регистрацию платежного средства
func (h *PaymentHandler) BillingAuth(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req billingAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	reason := domain.BillingReason(req.Reason)
	if reason != domain.BillingReasonJoinParty && reason != domain.BillingReasonStandalone {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown billing reason"})
		return
	}

	authURL, err := h.service.StartBillingAuth(c.Request.Context(), uid, reason, req.ReturnPath)
	if err != nil {
		h.log.Error("Failed to start billing auth for user %s: %v", uid, err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"redirectUrl": authURL})
}

type billingSuccessRequest struct {
	AuthKey string `json:"authKey" binding:"required"`
}

// BillingSuccess завершает регистрацию платежного средства.
// Если регистрация была частью присоединения к вечеринке,
// отложенный платеж возобновляется автоматически.
func (h *PaymentHandler) BillingSuccess(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req billingSuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	next, resumedJoin, err := h.service.CompleteBillingAuth(c.Request.Context(), uid, req.AuthKey)
	if err != nil {
		h.log.Error("Failed to complete billing auth for user %s: %v", uid, err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	if resumedJoin {
		h.metrics.IncPaymentRedirect(string(domain.FlowJoinParty))
	}

	c.JSON(http.StatusOK, gin.H{
		"redirectUrl": next,
		"resumedJoin": resumedJoin,
	})
}
