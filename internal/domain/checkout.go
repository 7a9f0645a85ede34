package domain

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutStep шаг чекаута
type CheckoutStep int

const (
	StepSelectService     CheckoutStep = 1
	StepConfigure         CheckoutStep = 2
	StepDepositPayment    CheckoutStep = 3
	StepCredentialHandoff CheckoutStep = 4
)

// IsValid проверяет, что значение шага входит в допустимый диапазон
func (s CheckoutStep) IsValid() bool {
	return s >= StepSelectService && s <= StepCredentialHandoff
}

// FlowKind вид платежного потока
type FlowKind string

const (
	FlowCreateParty  FlowKind = "CREATE_PARTY"
	FlowJoinParty    FlowKind = "JOIN_PARTY"
	FlowRetryDeposit FlowKind = "RETRY_DEPOSIT"
)

// BillingReason причина регистрации платежного ключа.
// Определяет, что произойдет автоматически после возврата
// с редиректа регистрации карты.
type BillingReason string

const (
	BillingReasonJoinParty  BillingReason = "JOIN_PARTY"
	BillingReasonStandalone BillingReason = "STANDALONE"
)

// Checkout представляет собой агрегат чекаута: текущее состояние
// многошагового процесса создания пати одного пользователя.
// Шаги строго упорядочены; вперед переходы только последовательные,
// назад ровно на один шаг, восстановление после редиректа может
// входить сразу на любой шаг 1-4.
type Checkout struct {
	ID        uuid.UUID    `json:"id"`
	UserID    string       `json:"user_id"`
	Flow      FlowKind     `json:"flow"`
	Step      CheckoutStep `json:"step"`
	Draft     PartyDraft   `json:"draft"`
	PartyID   int64        `json:"party_id,omitempty"` // 0 пока пати не создана
	OrderID   string       `json:"order_id,omitempty"`
	Amount    int64        `json:"amount,omitempty"`
	InFlight  bool         `json:"in_flight"` // редирект на оплату запрошен и не завершен
	Completed bool         `json:"completed"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewCheckout создает новый чекаут на первом шаге с пустым черновиком
func NewCheckout(userID string) Checkout {
	now := time.Now()
	return Checkout{
		ID:        uuid.New(),
		UserID:    userID,
		Flow:      FlowCreateParty,
		Step:      StepSelectService,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanGoBack проверяет, доступен ли переход на предыдущий шаг.
// Назад можно только с шагов 2 и 3, сетевых вызовов переход не делает.
func (c *Checkout) CanGoBack() bool {
	return c.Step == StepConfigure || c.Step == StepDepositPayment
}

// Reset сбрасывает чекаут на первый шаг с очисткой черновика.
// Используется при неудачном восстановлении после редиректа:
// частично заполненный черновик никогда не показывается.
func (c *Checkout) Reset() {
	c.Step = StepSelectService
	c.Draft = PartyDraft{}
	c.PartyID = 0
	c.Amount = 0
	c.InFlight = false
	c.UpdatedAt = time.Now()
}
