package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/moa-platform/checkout-service/internal/domain"
	"github.com/moa-platform/checkout-service/internal/repository"
	"github.com/moa-platform/checkout-service/internal/session"
	"github.com/moa-platform/checkout-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePartyAPI управляемая заглушка MoA backend
type fakePartyAPI struct {
	products map[int64]domain.Product
	parties  map[int64]domain.Party

	createPartyCalls int
	joinPartyCalls   int
	updateOTTCalls   int
	confirmCalls     int
	billingKeyCalls  int

	createPartyErr error
	getPartyErr    error
	updateOTTErr   error
	confirmErr     error

	nextPartyID int64
}

func newFakePartyAPI() *fakePartyAPI {
	return &fakePartyAPI{
		products: map[int64]domain.Product{
			1: {ID: 1, Name: "넷플릭스 프리미엄", Price: 4250, MaxUserCount: 4},
			2: {ID: 2, Name: "티빙 프리미엄", Price: 3475, MaxUserCount: 4},
		},
		parties:     make(map[int64]domain.Party),
		nextPartyID: 100,
	}
}

func (f *fakePartyAPI) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	product, ok := f.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

func (f *fakePartyAPI) CreateParty(ctx context.Context, userID string, req domain.CreatePartyRequest) (int64, error) {
	f.createPartyCalls++
	if f.createPartyErr != nil {
		return 0, f.createPartyErr
	}

	f.nextPartyID++
	product := f.products[req.ProductID]
	f.parties[f.nextPartyID] = domain.Party{
		ID:          f.nextPartyID,
		ProductID:   req.ProductID,
		ProductName: product.Name,
		MonthlyFee:  product.Price,
		MaxMembers:  req.MaxMembers,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      domain.PartyStatusDepositPending,
	}
	return f.nextPartyID, nil
}

func (f *fakePartyAPI) GetParty(ctx context.Context, partyID int64) (domain.Party, error) {
	if f.getPartyErr != nil {
		return domain.Party{}, f.getPartyErr
	}
	party, ok := f.parties[partyID]
	if !ok {
		return domain.Party{}, domain.ErrPartyNotFound
	}
	return party, nil
}

func (f *fakePartyAPI) JoinParty(ctx context.Context, userID string, partyID, amount int64) error {
	f.joinPartyCalls++
	return nil
}

func (f *fakePartyAPI) UpdateOTTAccount(ctx context.Context, userID string, partyID int64, ottID, ottPassword string) error {
	f.updateOTTCalls++
	return f.updateOTTErr
}

func (f *fakePartyAPI) ConfirmDeposit(ctx context.Context, userID string, partyID int64, orderID string, amount int64) error {
	f.confirmCalls++
	return f.confirmErr
}

func (f *fakePartyAPI) IssueBillingKey(ctx context.Context, userID, authKey, customerKey string) error {
	f.billingKeyCalls++
	return nil
}

// fakeGateway управляемая заглушка платежного провайдера
type fakeGateway struct {
	requestCalls int
	confirmCalls int
	requestErr   error
	confirmErr   error

	lastOrderName string
	lastOrderID   string
	lastAmount    int64

	// onRequest позволяет тесту проверить состояние в момент запроса редиректа
	onRequest func()
}

func (f *fakeGateway) RequestPayment(ctx context.Context, orderName, orderID string, amount int64, customerName string) (string, error) {
	f.requestCalls++
	f.lastOrderName = orderName
	f.lastOrderID = orderID
	f.lastAmount = amount
	if f.onRequest != nil {
		f.onRequest()
	}
	if f.requestErr != nil {
		return "", f.requestErr
	}
	return "https://pay.example.com/checkout/" + orderID, nil
}

func (f *fakeGateway) ConfirmPayment(ctx context.Context, paymentKey, orderID string, amount int64) error {
	f.confirmCalls++
	return f.confirmErr
}

func (f *fakeGateway) RequestBillingAuth(ctx context.Context, customerKey string) (string, error) {
	return "https://pay.example.com/billing/" + customerKey, nil
}

type testEnv struct {
	svc      *Service
	api      *fakePartyAPI
	gateway  *fakeGateway
	sessions *session.InMemoryStore
	repo     *repository.InMemoryCheckoutRepository
}

func newTestEnv() *testEnv {
	log := logger.New(logger.ERROR)
	api := newFakePartyAPI()
	gateway := &fakeGateway{}
	sessions := session.NewInMemoryStore(log)
	repo := repository.NewInMemoryCheckoutRepository(log)

	return &testEnv{
		svc:      NewService(repo, sessions, api, gateway, nil, log),
		api:      api,
		gateway:  gateway,
		sessions: sessions,
		repo:     repo,
	}
}

// advanceToPayment доводит новый чекаут до шага оплаты депозита
func (e *testEnv) advanceToPayment(t *testing.T, userID string) domain.Checkout {
	t.Helper()
	ctx := context.Background()

	checkout, err := e.svc.Start(ctx, userID)
	require.NoError(t, err)

	checkout, err = e.svc.SelectProduct(ctx, checkout.ID, 1)
	require.NoError(t, err)

	checkout, err = e.svc.Configure(ctx, checkout.ID, futureDate(), 6, 4)
	require.NoError(t, err)
	require.Equal(t, domain.StepDepositPayment, checkout.Step)

	return checkout
}

func futureDate() string {
	return "2031-01-01"
}

func TestHappyPathSteps(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout, err := env.svc.Start(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepSelectService, checkout.Step)
	assert.True(t, checkout.Draft.IsEmpty())

	checkout, err = env.svc.SelectProduct(ctx, checkout.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StepConfigure, checkout.Step)
	assert.Equal(t, int64(4250), checkout.Draft.Price)
	// Максимум участников по умолчанию равен размеру пати продукта
	assert.Equal(t, 4, checkout.Draft.MaxMembers)

	checkout, err = env.svc.Configure(ctx, checkout.ID, "2031-01-01", 6, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.StepDepositPayment, checkout.Step)
	assert.Equal(t, "2031-06-30", checkout.Draft.EndDate)
	assert.Equal(t, 3, checkout.Draft.MaxMembers)
}

func TestSelectProductGuards(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout := env.advanceToPayment(t, "user-1")

	// Выбор продукта допустим только на первом шаге
	_, err := env.svc.SelectProduct(ctx, checkout.ID, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidStep)
}

func TestConfigureValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout, err := env.svc.Start(ctx, "user-1")
	require.NoError(t, err)
	checkout, err = env.svc.SelectProduct(ctx, checkout.ID, 1)
	require.NoError(t, err)

	tests := []struct {
		name       string
		start      string
		months     int
		maxMembers int
	}{
		{"empty start", "", 6, 4},
		{"bad format", "01/01/2031", 6, 4},
		{"past date", "2020-01-01", 6, 4},
		{"zero months", "2031-01-01", 0, 4},
		{"too many months", "2031-01-01", 13, 4},
		{"too few members", "2031-01-01", 6, 1},
		{"too many members", "2031-01-01", 6, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Configure(ctx, checkout.ID, tt.start, tt.months, tt.maxMembers)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestPayCreatesPartyOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout := env.advanceToPayment(t, "user-1")

	_, checkout, err := env.svc.Pay(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, env.api.createPartyCalls)
	assert.NotZero(t, checkout.PartyID)

	// Назад и снова оплата: пати не создается повторно
	checkout, err = env.svc.Back(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepConfigure, checkout.Step)

	checkout, err = env.svc.Configure(ctx, checkout.ID, futureDate(), 6, 4)
	require.NoError(t, err)

	_, checkout, err = env.svc.Pay(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, env.api.createPartyCalls)
	assert.NotZero(t, checkout.PartyID)
}

func TestPaySingleFlight(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout := env.advanceToPayment(t, "user-1")

	_, _, err := env.svc.Pay(ctx, checkout.ID)
	require.NoError(t, err)

	// Повторный вызов при незавершенном редиректе отклоняется
	_, _, err = env.svc.Pay(ctx, checkout.ID)
	assert.ErrorIs(t, err, domain.ErrPaymentInFlight)
	assert.Equal(t, 1, env.gateway.requestCalls)
}

func TestPayAmountEqualsProductPrice(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout := env.advanceToPayment(t, "user-1")

	_, checkout, err := env.svc.Pay(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4250), checkout.Amount)
	assert.Equal(t, int64(4250), env.gateway.lastAmount)
}

func TestPayPersistsSessionBeforeRedirect(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout := env.advanceToPayment(t, "user-1")

	var sessionAtRequest bool
	env.gateway.onRequest = func() {
		var pending domain.PendingPayment
		found, err := env.sessions.Load(ctx, "user-1", domain.SessionKeyPendingPayment, &pending)
		require.NoError(t, err)
		sessionAtRequest = found
	}

	_, _, err := env.svc.Pay(ctx, checkout.ID)
	require.NoError(t, err)
	assert.True(t, sessionAtRequest, "pending session must be written before the redirect is requested")
}

func TestPayGatewayRejectionClearsSession(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout := env.advanceToPayment(t, "user-1")
	env.gateway.requestErr = errors.New("user cancelled")

	_, _, err := env.svc.Pay(ctx, checkout.ID)
	require.Error(t, err)

	var pending domain.PendingPayment
	found, err := env.sessions.Load(ctx, "user-1", domain.SessionKeyPendingPayment, &pending)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBackGuards(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout, err := env.svc.Start(ctx, "user-1")
	require.NoError(t, err)

	// С первого шага назад некуда
	_, err = env.svc.Back(ctx, checkout.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStep)
}

func TestResumeFidelity(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Пати уже существует на стороне backend
	env.api.parties[123] = domain.Party{
		ID:          123,
		ProductID:   1,
		ProductName: "넷플릭스 프리미엄",
		MonthlyFee:  4250,
		MaxMembers:  4,
		StartDate:   "2031-01-01",
		EndDate:     "2031-06-30",
		Status:      domain.PartyStatusDepositPending,
	}

	checkout, err := env.svc.Resume(ctx, "user-1", domain.StepCredentialHandoff, 123)
	require.NoError(t, err)

	assert.Equal(t, domain.StepCredentialHandoff, checkout.Step)
	assert.Equal(t, int64(123), checkout.PartyID)
	assert.Equal(t, int64(1), checkout.Draft.ProductID)
	assert.Equal(t, int64(4250), checkout.Draft.Price)
	assert.Equal(t, "2031-01-01", checkout.Draft.StartDate)
	assert.Equal(t, "2031-06-30", checkout.Draft.EndDate)
	assert.Equal(t, 4, checkout.Draft.MaxMembers)
}

func TestResumeFailureFallsBackToStepOne(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout, err := env.svc.Resume(ctx, "user-1", domain.StepCredentialHandoff, 999)
	require.ErrorIs(t, err, domain.ErrResumeFailed)

	// Никогда не восстанавливаемся в шаг с незаполненными полями
	assert.Equal(t, domain.StepSelectService, checkout.Step)
	assert.True(t, checkout.Draft.IsEmpty())
	assert.Zero(t, checkout.PartyID)
}

func TestResumeInvalidStep(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Resume(context.Background(), "user-1", domain.CheckoutStep(7), 123)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSubmitCredentials(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout := env.advanceToPayment(t, "user-1")
	_, checkout, err := env.svc.Pay(ctx, checkout.ID)
	require.NoError(t, err)

	_, err = env.svc.CompletePayment(ctx, "user-1", "pay-key", checkout.OrderID, checkout.Amount)
	require.NoError(t, err)

	checkout, err = env.svc.Get(ctx, checkout.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StepCredentialHandoff, checkout.Step)

	// Пустые учетные данные отклоняются до сетевого вызова
	_, err = env.svc.SubmitCredentials(ctx, checkout.ID, "", "secret")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = env.svc.SubmitCredentials(ctx, checkout.ID, "account", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, env.api.updateOTTCalls)

	checkout, err = env.svc.SubmitCredentials(ctx, checkout.ID, "account", "secret")
	require.NoError(t, err)
	assert.True(t, checkout.Completed)
	assert.Equal(t, 1, env.api.updateOTTCalls)

	// Операции над завершенным чекаутом отклоняются
	_, err = env.svc.SubmitCredentials(ctx, checkout.ID, "account", "secret")
	assert.ErrorIs(t, err, domain.ErrCheckoutCompleted)
}

func TestJoinPartyAmount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.api.parties[7] = domain.Party{
		ID: 7, ProductID: 1, ProductName: "넷플릭스 프리미엄",
		MonthlyFee: 4250, MaxMembers: 4,
	}

	_, amount, err := env.svc.JoinParty(ctx, "user-2", 7)
	require.NoError(t, err)

	// Депозит плюс первый месяц
	assert.Equal(t, int64(8500), amount)
	assert.Equal(t, int64(8500), env.gateway.lastAmount)
}

func TestRetryDepositAmount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.api.parties[7] = domain.Party{
		ID: 7, ProductID: 1, ProductName: "넷플릭스 프리미엄",
		MonthlyFee: 4250, MaxMembers: 4, Status: domain.PartyStatusDepositPending,
	}

	_, amount, err := env.svc.RetryDeposit(ctx, "user-1", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(4250), amount)
}

func TestCompletePaymentClearsSessionOnSuccess(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout := env.advanceToPayment(t, "user-1")
	_, checkout, err := env.svc.Pay(ctx, checkout.ID)
	require.NoError(t, err)

	pending, err := env.svc.CompletePayment(ctx, "user-1", "pay-key", checkout.OrderID, checkout.Amount)
	require.NoError(t, err)
	assert.Equal(t, domain.FlowCreateParty, pending.Flow)
	assert.Equal(t, 1, env.api.confirmCalls)

	var out domain.PendingPayment
	found, err := env.sessions.Load(ctx, "user-1", domain.SessionKeyPendingPayment, &out)
	require.NoError(t, err)
	assert.False(t, found, "consumed session must be cleared")
}

func TestCompletePaymentClearsSessionOnFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout := env.advanceToPayment(t, "user-1")
	_, checkout, err := env.svc.Pay(ctx, checkout.ID)
	require.NoError(t, err)

	env.gateway.confirmErr = errors.New("card declined")

	_, err = env.svc.CompletePayment(ctx, "user-1", "pay-key", checkout.OrderID, checkout.Amount)
	require.ErrorIs(t, err, domain.ErrPaymentFailed)

	// Терминальный исход в обе стороны уничтожает сессию
	var out domain.PendingPayment
	found, err := env.sessions.Load(ctx, "user-1", domain.SessionKeyPendingPayment, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCompletePaymentWithoutSession(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.CompletePayment(context.Background(), "user-1", "pay-key", "order-x", 4250)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCompletePaymentJoinFlow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.api.parties[7] = domain.Party{
		ID: 7, ProductID: 1, ProductName: "넷플릭스 프리미엄",
		MonthlyFee: 4250, MaxMembers: 4,
	}

	_, amount, err := env.svc.JoinParty(ctx, "user-2", 7)
	require.NoError(t, err)

	pending, err := env.svc.CompletePayment(ctx, "user-2", "pay-key", env.gateway.lastOrderID, amount)
	require.NoError(t, err)
	assert.Equal(t, domain.FlowJoinParty, pending.Flow)
	assert.Equal(t, 1, env.api.joinPartyCalls)

	var join domain.PendingPartyJoin
	found, err := env.sessions.Load(ctx, "user-2", domain.SessionKeyPendingPartyJoin, &join)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFailPaymentClearsSessionAndInFlight(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	checkout := env.advanceToPayment(t, "user-1")
	_, checkout, err := env.svc.Pay(ctx, checkout.ID)
	require.NoError(t, err)
	require.True(t, checkout.InFlight)

	require.NoError(t, env.svc.FailPayment(ctx, "user-1"))

	checkout, err = env.svc.Get(ctx, checkout.ID)
	require.NoError(t, err)
	assert.False(t, checkout.InFlight)

	var out domain.PendingPayment
	found, err := env.sessions.Load(ctx, "user-1", domain.SessionKeyPendingPayment, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBillingAuthDetourResumesJoin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.api.parties[7] = domain.Party{
		ID: 7, ProductID: 1, ProductName: "넷플릭스 프리미엄",
		MonthlyFee: 4250, MaxMembers: 4,
	}

	// Пользователь начал вступление, но карты еще нет
	_, _, err := env.svc.JoinParty(ctx, "user-2", 7)
	require.NoError(t, err)

	_, err = env.svc.StartBillingAuth(ctx, "user-2", domain.BillingReasonJoinParty, "/party/7")
	require.NoError(t, err)

	redirectURL, resumed, err := env.svc.CompleteBillingAuth(ctx, "user-2", "auth-key")
	require.NoError(t, err)
	assert.True(t, resumed, "join detour must resume the pending join payment")
	assert.NotEmpty(t, redirectURL)
	assert.Equal(t, 1, env.api.billingKeyCalls)
}

func TestBillingAuthStandalone(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.StartBillingAuth(ctx, "user-3", domain.BillingReasonStandalone, "/settings/cards")
	require.NoError(t, err)

	path, resumed, err := env.svc.CompleteBillingAuth(ctx, "user-3", "auth-key")
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.Equal(t, "/settings/cards", path)

	// Ключи детура уничтожены
	var reg domain.BillingRegistration
	found, err := env.sessions.Load(ctx, "user-3", domain.SessionKeyBillingReason, &reg)
	require.NoError(t, err)
	assert.False(t, found)
}
