package tosspay

import (
	"context"
	"fmt"
)

// billingAuthRequest тело запроса на регистрацию карты
type billingAuthRequest struct {
	CustomerKey string `json:"customerKey"`
	SuccessURL  string `json:"successUrl"`
	FailURL     string `json:"failUrl"`
}

// billingAuthResponse ответ с URL страницы регистрации карты
type billingAuthResponse struct {
	Checkout struct {
		URL string `json:"url"`
	} `json:"checkout"`
}

// RequestBillingAuth создает сессию регистрации карты и возвращает
// URL страницы провайдера. После возврата на success URL backend
// обменивает полученный authKey на многоразовый платежный ключ.
func (c *Client) RequestBillingAuth(ctx context.Context, customerKey string) (string, error) {
	c.log.Debug("Requesting billing auth redirect for customer %s", customerKey)

	var resp billingAuthResponse
	err := c.postJSON(ctx, "/v1/billing/authorizations", billingAuthRequest{
		CustomerKey: customerKey,
		SuccessURL:  c.successURL,
		FailURL:     c.failURL,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to request billing auth: %w", err)
	}

	return resp.Checkout.URL, nil
}
