package tosspay

import (
	"context"
	"fmt"
)

// paymentCreateRequest тело запроса на создание платежа
type paymentCreateRequest struct {
	Method       string `json:"method"`
	OrderName    string `json:"orderName"`
	OrderID      string `json:"orderId"`
	Amount       int64  `json:"amount"`
	CustomerName string `json:"customerName,omitempty"`
	SuccessURL   string `json:"successUrl"`
	FailURL      string `json:"failUrl"`
}

// paymentCreateResponse ответ с URL страницы оплаты
type paymentCreateResponse struct {
	PaymentKey string `json:"paymentKey"`
	Checkout   struct {
		URL string `json:"url"`
	} `json:"checkout"`
}

// RequestPayment создает разовый платеж и возвращает URL страницы
// оплаты провайдера. Сумма передается провайдеру дословно, в целых
// вонах, без какого-либо округления на стороне сервиса.
func (c *Client) RequestPayment(ctx context.Context, orderName, orderID string, amount int64, customerName string) (string, error) {
	c.log.Debug("Requesting payment redirect: order=%s amount=%d", orderID, amount)

	body := paymentCreateRequest{
		Method:       "CARD",
		OrderName:    orderName,
		OrderID:      orderID,
		Amount:       amount,
		CustomerName: customerName,
		SuccessURL:   c.successURL,
		FailURL:      c.failURL,
	}

	var resp paymentCreateResponse
	if err := c.postJSON(ctx, "/v1/payments", body, &resp); err != nil {
		return "", fmt.Errorf("failed to request payment: %w", err)
	}

	c.log.Info("Payment redirect ready: order=%s", orderID)
	return resp.Checkout.URL, nil
}

// confirmRequest тело подтверждения платежа
type confirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// ConfirmPayment подтверждает платеж после возврата с редиректа.
// Сумма обязана совпадать с исходной: провайдер отклоняет
// подтверждение при расхождении.
func (c *Client) ConfirmPayment(ctx context.Context, paymentKey, orderID string, amount int64) error {
	c.log.Debug("Confirming payment: order=%s amount=%d", orderID, amount)

	err := c.postJSON(ctx, "/v1/payments/confirm", confirmRequest{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Amount:     amount,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to confirm payment %s: %w", orderID, err)
	}

	c.log.Info("Payment confirmed: order=%s", orderID)
	return nil
}
