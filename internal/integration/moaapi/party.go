package moaapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/moa-platform/checkout-service/internal/domain"
)

// createPartyResponse ответ backend на создание пати
type createPartyResponse struct {
	PartyID int64 `json:"partyId"`
}

// CreateParty создает пати в MoA backend и возвращает ее ID
func (c *Client) CreateParty(ctx context.Context, userID string, req domain.CreatePartyRequest) (int64, error) {
	c.log.Debug("Creating party for product %d", req.ProductID)

	var resp createPartyResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/parties", userID, req, &resp); err != nil {
		return 0, fmt.Errorf("failed to create party: %w", err)
	}

	c.log.Info("Created party with ID: %d", resp.PartyID)
	return resp.PartyID, nil
}

// GetParty возвращает пати по ID
func (c *Client) GetParty(ctx context.Context, partyID int64) (domain.Party, error) {
	c.log.Debug("Fetching party %d", partyID)

	var party domain.Party
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/v1/parties/%d", partyID), "", nil, &party)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Party{}, domain.ErrPartyNotFound
		}
		return domain.Party{}, fmt.Errorf("failed to get party %d: %w", partyID, err)
	}

	return party, nil
}

// GetPartyMembers возвращает участников пати
func (c *Client) GetPartyMembers(ctx context.Context, partyID int64) ([]domain.PartyMember, error) {
	var members []domain.PartyMember
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/v1/parties/%d/members", partyID), "", nil, &members)
	if err != nil {
		return nil, fmt.Errorf("failed to get members of party %d: %w", partyID, err)
	}

	return members, nil
}

// joinPartyRequest запрос на вступление в пати
type joinPartyRequest struct {
	Amount int64 `json:"amount"`
}

// JoinParty добавляет пользователя в пати после успешной оплаты
func (c *Client) JoinParty(ctx context.Context, userID string, partyID, amount int64) error {
	c.log.Debug("Joining party %d", partyID)

	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/v1/parties/%d/join", partyID), userID,
		joinPartyRequest{Amount: amount}, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrPartyNotFound
		}
		return fmt.Errorf("failed to join party %d: %w", partyID, err)
	}

	c.log.Info("User joined party %d", partyID)
	return nil
}

// LeaveParty выводит пользователя из пати
func (c *Client) LeaveParty(ctx context.Context, userID string, partyID int64) error {
	err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/parties/%d/members/me", partyID), userID, nil, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrPartyNotFound
		}
		return fmt.Errorf("failed to leave party %d: %w", partyID, err)
	}

	return nil
}

// ottAccountRequest учетные данные OTT сервиса
type ottAccountRequest struct {
	OttID       string `json:"ottId"`
	OttPassword string `json:"ottPassword"`
}

// UpdateOTTAccount передает учетные данные OTT сервиса участникам пати
func (c *Client) UpdateOTTAccount(ctx context.Context, userID string, partyID int64, ottID, ottPassword string) error {
	c.log.Debug("Updating OTT account for party %d", partyID)

	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/v1/parties/%d/ott-account", partyID), userID,
		ottAccountRequest{OttID: ottID, OttPassword: ottPassword}, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrPartyNotFound
		}
		return fmt.Errorf("failed to update OTT account for party %d: %w", partyID, err)
	}

	return nil
}

// confirmDepositRequest подтверждение оплаты депозита
type confirmDepositRequest struct {
	OrderID string `json:"orderId"`
	Amount  int64  `json:"amount"`
}

// ConfirmDeposit сообщает backend об успешной оплате депозита
func (c *Client) ConfirmDeposit(ctx context.Context, userID string, partyID int64, orderID string, amount int64) error {
	c.log.Debug("Confirming deposit for party %d, order %s", partyID, orderID)

	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/v1/parties/%d/deposit", partyID), userID,
		confirmDepositRequest{OrderID: orderID, Amount: amount}, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrPartyNotFound
		}
		return fmt.Errorf("failed to confirm deposit for party %d: %w", partyID, err)
	}

	c.log.Info("Deposit confirmed for party %d", partyID)
	return nil
}

// issueBillingKeyRequest запрос на выпуск платежного ключа
type issueBillingKeyRequest struct {
	AuthKey     string `json:"authKey"`
	CustomerKey string `json:"customerKey"`
}

// IssueBillingKey обменивает authKey провайдера на многоразовый
// платежный ключ, привязанный к пользователю
func (c *Client) IssueBillingKey(ctx context.Context, userID, authKey, customerKey string) error {
	c.log.Debug("Issuing billing key for customer %s", customerKey)

	err := c.doJSON(ctx, http.MethodPost, "/api/v1/billing/key", userID,
		issueBillingKeyRequest{AuthKey: authKey, CustomerKey: customerKey}, nil)
	if err != nil {
		return fmt.Errorf("failed to issue billing key: %w", err)
	}

	c.log.Info("Billing key issued for customer %s", customerKey)
	return nil
}
