package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/moa-platform/checkout-service/internal/domain"
)

// newOrderID выдает уникальный идентификатор заказа для провайдера
func newOrderID() string {
	return "moa-" + uuid.NewString()
}

// Pay запускает оплату депозита: при необходимости создает пати в
// backend (строго один раз на чекаут), записывает незавершенный платеж
// в хранилище сессий и только затем запрашивает URL редиректа у
// провайдера. Повторный вызов при незавершенном редиректе отклоняется.
func (s *Service) Pay(ctx context.Context, id uuid.UUID) (string, domain.Checkout, error) {
	checkout, err := s.load(ctx, id)
	if err != nil {
		return "", domain.Checkout{}, err
	}

	if checkout.Step != domain.StepDepositPayment {
		return "", domain.Checkout{}, domain.ErrInvalidStep
	}

	if checkout.InFlight {
		return "", domain.Checkout{}, domain.ErrPaymentInFlight
	}

	// Пати создается не больше одного раза: после возврата назад и
	// повторного нажатия оплаты уже существующий PartyID переиспользуется
	if checkout.PartyID == 0 {
		partyID, err := s.api.CreateParty(ctx, checkout.UserID, domain.CreatePartyRequest{
			ProductID:  checkout.Draft.ProductID,
			MaxMembers: checkout.Draft.MaxMembers,
			StartDate:  checkout.Draft.StartDate,
			EndDate:    checkout.Draft.EndDate,
		})
		if err != nil {
			s.log.Error("Failed to create party for checkout %s: %v", checkout.ID, err)
			return "", domain.Checkout{}, err
		}

		checkout.PartyID = partyID

		// PartyID фиксируется сразу: падение дальше по цепочке не должно
		// привести ко второму созданию пати
		if err := s.repo.Update(ctx, checkout); err != nil {
			return "", domain.Checkout{}, err
		}

		s.publish(func() error {
			return s.events.PublishPartyCreated(ctx, checkout.UserID, partyID, checkout.Draft.Price)
		})
	}

	// Депозит за создание пати равен ровно месячной цене продукта
	checkout.Amount = checkout.Draft.Price
	checkout.OrderID = newOrderID()

	pending := domain.PendingPayment{
		Flow:       domain.FlowCreateParty,
		CheckoutID: checkout.ID.String(),
		PartyID:    checkout.PartyID,
		OrderID:    checkout.OrderID,
		Amount:     checkout.Amount,
		Draft:      checkout.Draft,
	}

	// Запись сессии строго до выдачи URL редиректа: после ухода браузера
	// она единственный источник состояния
	if err := s.sessions.Save(ctx, checkout.UserID, domain.SessionKeyPendingPayment, pending); err != nil {
		return "", domain.Checkout{}, err
	}

	redirectURL, err := s.gateway.RequestPayment(ctx,
		checkout.Draft.ProductName+" 파티 보증금", checkout.OrderID, checkout.Amount, "")
	if err != nil {
		// Синхронный отказ провайдера терминален для этой попытки
		s.clearSession(ctx, checkout.UserID, domain.SessionKeyPendingPayment)
		s.log.Error("Payment redirect request failed for checkout %s: %v", checkout.ID, err)
		return "", domain.Checkout{}, err
	}

	checkout.InFlight = true

	if err := s.repo.Update(ctx, checkout); err != nil {
		return "", domain.Checkout{}, err
	}

	return redirectURL, checkout, nil
}

// JoinParty запускает оплату вступления в существующую пати.
// Сумма равна двум месячным взносам: депозит плюс первый месяц,
// целые воны без округления.
func (s *Service) JoinParty(ctx context.Context, userID string, partyID int64) (string, int64, error) {
	party, err := s.api.GetParty(ctx, partyID)
	if err != nil {
		return "", 0, err
	}

	amount := party.MonthlyFee * 2
	orderID := newOrderID()

	if err := s.sessions.Save(ctx, userID, domain.SessionKeyPendingPartyJoin, domain.PendingPartyJoin{
		PartyID: partyID,
		Amount:  amount,
	}); err != nil {
		return "", 0, err
	}

	if err := s.sessions.Save(ctx, userID, domain.SessionKeyPendingPayment, domain.PendingPayment{
		Flow:    domain.FlowJoinParty,
		PartyID: partyID,
		OrderID: orderID,
		Amount:  amount,
	}); err != nil {
		return "", 0, err
	}

	redirectURL, err := s.gateway.RequestPayment(ctx,
		party.ProductName+" 파티 참가", orderID, amount, "")
	if err != nil {
		s.clearSession(ctx, userID, domain.SessionKeyPendingPayment)
		s.clearSession(ctx, userID, domain.SessionKeyPendingPartyJoin)
		return "", 0, err
	}

	return redirectURL, amount, nil
}

// RetryDeposit повторяет неудавшийся платеж депозита лидера пати.
// Ручной повтор по команде пользователя, без автоматических ретраев.
func (s *Service) RetryDeposit(ctx context.Context, userID string, partyID int64) (string, int64, error) {
	party, err := s.api.GetParty(ctx, partyID)
	if err != nil {
		return "", 0, err
	}

	amount := party.MonthlyFee
	orderID := newOrderID()

	if err := s.sessions.Save(ctx, userID, domain.SessionKeyPendingPayment, domain.PendingPayment{
		Flow:    domain.FlowRetryDeposit,
		PartyID: partyID,
		OrderID: orderID,
		Amount:  amount,
	}); err != nil {
		return "", 0, err
	}

	redirectURL, err := s.gateway.RequestPayment(ctx,
		party.ProductName+" 보증금 재결제", orderID, amount, "")
	if err != nil {
		s.clearSession(ctx, userID, domain.SessionKeyPendingPayment)
		return "", 0, err
	}

	return redirectURL, amount, nil
}

// CompletePayment обрабатывает возврат с success URL провайдера:
// подтверждает платеж и доводит записанный в сессии поток до конца.
// Параметры редиректа авторитетны; запись сессии определяет, какой
// именно поток завершается. Сессия уничтожается при любом терминальном
// исходе, успешном или нет.
func (s *Service) CompletePayment(ctx context.Context, userID, paymentKey, orderID string, amount int64) (domain.PendingPayment, error) {
	var pending domain.PendingPayment
	found, err := s.sessions.Load(ctx, userID, domain.SessionKeyPendingPayment, &pending)
	if err != nil {
		return domain.PendingPayment{}, err
	}
	if !found {
		return domain.PendingPayment{}, domain.ErrSessionNotFound
	}

	if orderID != pending.OrderID {
		s.log.Warn("Redirect order %s does not match pending order %s, trusting redirect", orderID, pending.OrderID)
	}

	// Терминальный исход в обе стороны: сессия очищается ровно один раз
	defer func() {
		s.clearSession(ctx, userID, domain.SessionKeyPendingPayment)
		if pending.Flow == domain.FlowJoinParty {
			s.clearSession(ctx, userID, domain.SessionKeyPendingPartyJoin)
		}
	}()

	if err := s.gateway.ConfirmPayment(ctx, paymentKey, orderID, amount); err != nil {
		s.log.Error("Payment confirmation failed for order %s: %v", orderID, err)
		return pending, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}

	switch pending.Flow {
	case domain.FlowCreateParty:
		if err := s.api.ConfirmDeposit(ctx, userID, pending.PartyID, orderID, amount); err != nil {
			return pending, err
		}
		if err := s.advanceToCredentials(ctx, pending.CheckoutID); err != nil {
			return pending, err
		}
		s.publish(func() error {
			return s.events.PublishDepositPaid(ctx, userID, pending.PartyID, amount)
		})

	case domain.FlowJoinParty:
		if err := s.api.JoinParty(ctx, userID, pending.PartyID, amount); err != nil {
			return pending, err
		}
		s.publish(func() error {
			return s.events.PublishPartyJoined(ctx, userID, pending.PartyID, amount)
		})

	case domain.FlowRetryDeposit:
		if err := s.api.ConfirmDeposit(ctx, userID, pending.PartyID, orderID, amount); err != nil {
			return pending, err
		}
		s.publish(func() error {
			return s.events.PublishDepositRetried(ctx, userID, pending.PartyID, amount)
		})

	default:
		return pending, fmt.Errorf("%w: unknown flow %q", domain.ErrInvalidInput, pending.Flow)
	}

	s.log.Info("Payment completed: flow=%s party=%d amount=%d", pending.Flow, pending.PartyID, amount)
	return pending, nil
}

// FailPayment обрабатывает возврат с fail URL провайдера: снимает флаг
// незавершенного редиректа и уничтожает записи сессии, чтобы будущие
// визиты не восстановились в устаревший поток.
func (s *Service) FailPayment(ctx context.Context, userID string) error {
	var pending domain.PendingPayment
	found, err := s.sessions.Load(ctx, userID, domain.SessionKeyPendingPayment, &pending)
	if err != nil {
		return err
	}

	if found && pending.CheckoutID != "" {
		if id, parseErr := uuid.Parse(pending.CheckoutID); parseErr == nil {
			if checkout, loadErr := s.repo.GetByID(ctx, id); loadErr == nil {
				checkout.InFlight = false
				if updateErr := s.repo.Update(ctx, checkout); updateErr != nil {
					s.log.Error("Failed to reset in-flight flag for checkout %s: %v", id, updateErr)
				}
			}
		}
	}

	s.clearSession(ctx, userID, domain.SessionKeyPendingPayment)
	s.clearSession(ctx, userID, domain.SessionKeyPendingPartyJoin)
	return nil
}

// advanceToCredentials переводит чекаут создания пати на шаг передачи
// учетных данных после подтвержденной оплаты депозита
func (s *Service) advanceToCredentials(ctx context.Context, checkoutID string) error {
	if checkoutID == "" {
		return nil
	}

	id, err := uuid.Parse(checkoutID)
	if err != nil {
		return fmt.Errorf("%w: checkout id %q", domain.ErrInvalidInput, checkoutID)
	}

	checkout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// Чекаут мог жить в памяти другого инстанса; возврат восстановит
		// его через Resume по параметрам редиректа
		s.log.Warn("Checkout %s not found while advancing to credentials: %v", checkoutID, err)
		return nil
	}

	checkout.Step = domain.StepCredentialHandoff
	checkout.InFlight = false
	return s.repo.Update(ctx, checkout)
}

// clearSession удаляет запись сессии, логируя неудачу
func (s *Service) clearSession(ctx context.Context, userID, key string) {
	if err := s.sessions.Clear(ctx, userID, key); err != nil {
		s.log.Error("Failed to clear session key %s for user %s: %v", key, userID, err)
	}
}

// publish вызывает публикацию события, если издатель настроен.
// Неудача публикации логируется и никогда не валит операцию.
func (s *Service) publish(fn func() error) {
	if s.events == nil {
		return
	}
	if err := fn(); err != nil {
		s.log.Error("Failed to publish checkout event: %v", err)
	}
}

// StartBillingAuth запускает детур регистрации карты: записывает
// причину детура и путь возврата, затем запрашивает URL редиректа.
func (s *Service) StartBillingAuth(ctx context.Context, userID string, reason domain.BillingReason, returnPath string) (string, error) {
	if err := s.sessions.Save(ctx, userID, domain.SessionKeyBillingReason, domain.BillingRegistration{Reason: reason}); err != nil {
		return "", err
	}

	if returnPath != "" {
		if err := s.sessions.Save(ctx, userID, domain.SessionKeyAfterBilling, domain.AfterBillingRedirect{Path: returnPath}); err != nil {
			return "", err
		}
	}

	redirectURL, err := s.gateway.RequestBillingAuth(ctx, customerKey(userID))
	if err != nil {
		s.clearSession(ctx, userID, domain.SessionKeyBillingReason)
		s.clearSession(ctx, userID, domain.SessionKeyAfterBilling)
		return "", err
	}

	return redirectURL, nil
}

// CompleteBillingAuth обрабатывает возврат с редиректа регистрации
// карты: обменивает authKey на платежный ключ через backend, затем по
// записанной причине решает, что делать дальше. Детур ради вступления
// в пати автоматически возобновляет отложенную оплату; одиночная
// регистрация просто возвращает записанный путь.
func (s *Service) CompleteBillingAuth(ctx context.Context, userID, authKey string) (string, bool, error) {
	if authKey == "" {
		return "", false, fmt.Errorf("%w: authKey is required", domain.ErrInvalidInput)
	}

	if err := s.api.IssueBillingKey(ctx, userID, authKey, customerKey(userID)); err != nil {
		return "", false, err
	}

	var registration domain.BillingRegistration
	foundReason, err := s.sessions.Load(ctx, userID, domain.SessionKeyBillingReason, &registration)
	if err != nil {
		return "", false, err
	}

	var after domain.AfterBillingRedirect
	if _, err := s.sessions.Load(ctx, userID, domain.SessionKeyAfterBilling, &after); err != nil {
		return "", false, err
	}

	// Детур завершен: причины и путь возврата больше не нужны
	s.clearSession(ctx, userID, domain.SessionKeyBillingReason)
	s.clearSession(ctx, userID, domain.SessionKeyAfterBilling)

	if foundReason && registration.Reason == domain.BillingReasonJoinParty {
		var pendingJoin domain.PendingPartyJoin
		foundJoin, err := s.sessions.Load(ctx, userID, domain.SessionKeyPendingPartyJoin, &pendingJoin)
		if err != nil {
			return "", false, err
		}
		if foundJoin {
			redirectURL, _, err := s.JoinParty(ctx, userID, pendingJoin.PartyID)
			if err != nil {
				return "", false, err
			}
			return redirectURL, true, nil
		}
	}

	return after.Path, false, nil
}

// customerKey выводит ключ клиента провайдера из ID пользователя
func customerKey(userID string) string {
	return "moa-user-" + userID
}
