// Package checkout реализует машину состояний чекаута создания пати.
//
// Процесс пересекает жесткую границу процесса: на шаге оплаты браузер
// полностью уходит на страницу платежного провайдера. Поэтому машина
// состояний явная и сохраняемая: перед выдачей URL редиректа состояние
// записывается в хранилище сессий, а при возврате восстанавливается
// из него либо из авторитетных параметров редиректа.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/moa-platform/checkout-service/internal/daterange"
	"github.com/moa-platform/checkout-service/internal/domain"
	"github.com/moa-platform/checkout-service/internal/repository"
	"github.com/moa-platform/checkout-service/internal/session"
	"github.com/moa-platform/checkout-service/pkg/logger"
)

// PartyAPI интерфейс клиента MoA backend, используемый чекаутом
type PartyAPI interface {
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
	CreateParty(ctx context.Context, userID string, req domain.CreatePartyRequest) (int64, error)
	GetParty(ctx context.Context, partyID int64) (domain.Party, error)
	JoinParty(ctx context.Context, userID string, partyID, amount int64) error
	UpdateOTTAccount(ctx context.Context, userID string, partyID int64, ottID, ottPassword string) error
	ConfirmDeposit(ctx context.Context, userID string, partyID int64, orderID string, amount int64) error
	IssueBillingKey(ctx context.Context, userID, authKey, customerKey string) error
}

// PaymentGateway интерфейс платежного провайдера, используемый чекаутом
type PaymentGateway interface {
	RequestPayment(ctx context.Context, orderName, orderID string, amount int64, customerName string) (string, error)
	ConfirmPayment(ctx context.Context, paymentKey, orderID string, amount int64) error
	RequestBillingAuth(ctx context.Context, customerKey string) (string, error)
}

// EventPublisher интерфейс публикации событий жизненного цикла чекаута
type EventPublisher interface {
	PublishPartyCreated(ctx context.Context, userID string, partyID, amount int64) error
	PublishPartyJoined(ctx context.Context, userID string, partyID, amount int64) error
	PublishDepositPaid(ctx context.Context, userID string, partyID, amount int64) error
	PublishDepositRetried(ctx context.Context, userID string, partyID, amount int64) error
}

// Service сервис машины состояний чекаута
type Service struct {
	repo     repository.CheckoutRepository
	sessions session.Store
	api      PartyAPI
	gateway  PaymentGateway
	events   EventPublisher
	log      *logger.Logger
}

// NewService создает новый сервис чекаута.
// events может быть nil: публикация событий необязательна.
func NewService(
	repo repository.CheckoutRepository,
	sessions session.Store,
	api PartyAPI,
	gateway PaymentGateway,
	events EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		api:      api,
		gateway:  gateway,
		events:   events,
		log:      log,
	}
}

// Start начинает новый чекаут на шаге выбора сервиса
func (s *Service) Start(ctx context.Context, userID string) (domain.Checkout, error) {
	checkout := domain.NewCheckout(userID)

	created, err := s.repo.Create(ctx, checkout)
	if err != nil {
		s.log.Error("Failed to create checkout: %v", err)
		return domain.Checkout{}, err
	}

	s.log.Info("Checkout started: %s (user %s)", created.ID, userID)
	return created, nil
}

// Get возвращает чекаут по ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Checkout, error) {
	return s.repo.GetByID(ctx, id)
}

// load читает чекаут и отклоняет операции над завершенным
func (s *Service) load(ctx context.Context, id uuid.UUID) (domain.Checkout, error) {
	checkout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Checkout{}, err
	}

	if checkout.Completed {
		return domain.Checkout{}, domain.ErrCheckoutCompleted
	}

	return checkout, nil
}

// SelectProduct фиксирует выбранный продукт и переводит чекаут на шаг
// настройки. Максимум участников по умолчанию равен размеру пати
// выбранного продукта.
func (s *Service) SelectProduct(ctx context.Context, id uuid.UUID, productID int64) (domain.Checkout, error) {
	checkout, err := s.load(ctx, id)
	if err != nil {
		return domain.Checkout{}, err
	}

	if checkout.Step != domain.StepSelectService {
		return domain.Checkout{}, domain.ErrInvalidStep
	}

	product, err := s.api.GetProduct(ctx, productID)
	if err != nil {
		s.log.Warn("Failed to fetch product %d: %v", productID, err)
		return domain.Checkout{}, err
	}

	checkout.Draft = domain.PartyDraft{
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
		MaxMembers:  product.MaxUserCount,
	}
	checkout.Step = domain.StepConfigure

	if err := s.repo.Update(ctx, checkout); err != nil {
		return domain.Checkout{}, err
	}

	return checkout, nil
}

// Configure фиксирует период и размер пати и переводит чекаут на шаг
// оплаты депозита. Дата окончания выводится из стартовой даты и
// длительности; обе даты обязаны быть непустыми.
func (s *Service) Configure(ctx context.Context, id uuid.UUID, startDate string, months, maxMembers int) (domain.Checkout, error) {
	checkout, err := s.load(ctx, id)
	if err != nil {
		return domain.Checkout{}, err
	}

	if checkout.Step != domain.StepConfigure {
		return domain.Checkout{}, domain.ErrInvalidStep
	}

	if !daterange.IsValidFormat(startDate) || !daterange.IsTodayOrLater(startDate) {
		return domain.Checkout{}, fmt.Errorf("%w: start date %q", domain.ErrInvalidInput, startDate)
	}

	if months < 1 || months > 12 {
		return domain.Checkout{}, fmt.Errorf("%w: months must be 1..12", domain.ErrInvalidInput)
	}

	// Размер пати ограничен продуктом, а не текущим значением черновика:
	// повторная настройка после возврата назад может снова его поднять
	product, err := s.api.GetProduct(ctx, checkout.Draft.ProductID)
	if err != nil {
		s.log.Warn("Failed to fetch product %d: %v", checkout.Draft.ProductID, err)
		return domain.Checkout{}, err
	}

	if maxMembers < 2 || maxMembers > product.MaxUserCount {
		return domain.Checkout{}, fmt.Errorf("%w: max members must be 2..%d", domain.ErrInvalidInput, product.MaxUserCount)
	}

	endDate := daterange.CalculateEndDate(startDate, months)
	if startDate == "" || endDate == "" {
		return domain.Checkout{}, fmt.Errorf("%w: incomplete period", domain.ErrInvalidInput)
	}

	checkout.Draft.StartDate = startDate
	checkout.Draft.EndDate = endDate
	checkout.Draft.Months = months
	checkout.Draft.MaxMembers = maxMembers
	checkout.Step = domain.StepDepositPayment

	if err := s.repo.Update(ctx, checkout); err != nil {
		return domain.Checkout{}, err
	}

	return checkout, nil
}

// Back возвращает чекаут ровно на один шаг назад. Сетевых вызовов не
// делает и не сбрасывает уже созданную пати: повторное прохождение
// вперед не создаст ее заново. Возврат также снимает флаг
// незавершенного редиректа: пользователь отказался от попытки оплаты.
func (s *Service) Back(ctx context.Context, id uuid.UUID) (domain.Checkout, error) {
	checkout, err := s.load(ctx, id)
	if err != nil {
		return domain.Checkout{}, err
	}

	if !checkout.CanGoBack() {
		return domain.Checkout{}, domain.ErrInvalidStep
	}

	checkout.Step--
	checkout.InFlight = false

	if err := s.repo.Update(ctx, checkout); err != nil {
		return domain.Checkout{}, err
	}

	return checkout, nil
}

// SubmitCredentials принимает учетные данные OTT сервиса и завершает
// чекаут. Оба поля обязаны быть непустыми.
func (s *Service) SubmitCredentials(ctx context.Context, id uuid.UUID, ottID, ottPassword string) (domain.Checkout, error) {
	checkout, err := s.load(ctx, id)
	if err != nil {
		return domain.Checkout{}, err
	}

	if checkout.Step != domain.StepCredentialHandoff {
		return domain.Checkout{}, domain.ErrInvalidStep
	}

	if ottID == "" || ottPassword == "" {
		return domain.Checkout{}, fmt.Errorf("%w: OTT credentials are required", domain.ErrInvalidInput)
	}

	if err := s.api.UpdateOTTAccount(ctx, checkout.UserID, checkout.PartyID, ottID, ottPassword); err != nil {
		s.log.Error("Failed to update OTT account for party %d: %v", checkout.PartyID, err)
		return domain.Checkout{}, err
	}

	checkout.Completed = true
	checkout.InFlight = false

	if err := s.repo.Update(ctx, checkout); err != nil {
		return domain.Checkout{}, err
	}

	s.log.Info("Checkout completed: %s (party %d)", checkout.ID, checkout.PartyID)
	return checkout, nil
}

// Resume восстанавливает чекаут после возврата с редиректа по
// авторитетным параметрам step и partyID. Исходное состояние в памяти
// потеряно при полной навигации, поэтому черновик заново заполняется
// из пати, полученной от backend. При неудачном получении пати чекаут
// сбрасывается на первый шаг с пустым черновиком: восстановление с
// незаполненными полями недопустимо.
func (s *Service) Resume(ctx context.Context, userID string, step domain.CheckoutStep, partyID int64) (domain.Checkout, error) {
	if !step.IsValid() {
		return domain.Checkout{}, fmt.Errorf("%w: step %d", domain.ErrInvalidInput, step)
	}

	checkout, err := s.repo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return domain.Checkout{}, err
		}
		// Активного чекаута нет: возврат пришел на свежий инстанс
		checkout, err = s.Start(ctx, userID)
		if err != nil {
			return domain.Checkout{}, err
		}
	}

	party, err := s.api.GetParty(ctx, partyID)
	if err != nil {
		s.log.Warn("Resume failed for party %d, falling back to step 1: %v", partyID, err)
		checkout.Reset()
		if updateErr := s.repo.Update(ctx, checkout); updateErr != nil {
			return domain.Checkout{}, updateErr
		}
		return checkout, fmt.Errorf("%w: party %d: %v", domain.ErrResumeFailed, partyID, err)
	}

	checkout.Draft = domain.PartyDraft{
		ProductID:   party.ProductID,
		ProductName: party.ProductName,
		Price:       party.MonthlyFee,
		StartDate:   party.StartDate,
		EndDate:     party.EndDate,
		MaxMembers:  party.MaxMembers,
	}
	checkout.PartyID = party.ID
	checkout.Step = step
	checkout.InFlight = false

	if err := s.repo.Update(ctx, checkout); err != nil {
		return domain.Checkout{}, err
	}

	s.log.Info("Checkout resumed at step %d: %s (party %d)", step, checkout.ID, partyID)
	return checkout, nil
}
