package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moa-platform/checkout-service/internal/checkout"
	"github.com/moa-platform/checkout-service/internal/domain"
	"github.com/moa-platform/checkout-service/internal/repository"
	"github.com/moa-platform/checkout-service/internal/session"
	"github.com/moa-platform/checkout-service/pkg/logger"
)

// stubPartyAPI минимальная заглушка MoA backend для HTTP тестов
type stubPartyAPI struct{}

func (stubPartyAPI) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	if productID != 1 {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return domain.Product{ID: 1, Name: "넷플릭스 프리미엄", Price: 4250, MaxUserCount: 4}, nil
}

func (stubPartyAPI) CreateParty(ctx context.Context, userID string, req domain.CreatePartyRequest) (int64, error) {
	return 101, nil
}

func (stubPartyAPI) GetParty(ctx context.Context, partyID int64) (domain.Party, error) {
	return domain.Party{}, domain.ErrPartyNotFound
}

func (stubPartyAPI) JoinParty(ctx context.Context, userID string, partyID, amount int64) error {
	return nil
}

func (stubPartyAPI) UpdateOTTAccount(ctx context.Context, userID string, partyID int64, ottID, ottPassword string) error {
	return nil
}

func (stubPartyAPI) ConfirmDeposit(ctx context.Context, userID string, partyID int64, orderID string, amount int64) error {
	return nil
}

func (stubPartyAPI) IssueBillingKey(ctx context.Context, userID, authKey, customerKey string) error {
	return nil
}

type stubGateway struct{}

func (stubGateway) RequestPayment(ctx context.Context, orderName, orderID string, amount int64, customerName string) (string, error) {
	return "https://pay.example.com/redirect", nil
}

func (stubGateway) ConfirmPayment(ctx context.Context, paymentKey, orderID string, amount int64) error {
	return nil
}

func (stubGateway) RequestBillingAuth(ctx context.Context, customerKey string) (string, error) {
	return "https://pay.example.com/billing", nil
}

type nopMetrics struct{}

func (nopMetrics) IncCheckoutStarted()                             {}
func (nopMetrics) IncCheckoutCompleted(flow string)                {}
func (nopMetrics) IncCheckoutResumed(outcome string)               {}
func (nopMetrics) IncPaymentRedirect(flow string)                  {}
func (nopMetrics) IncPaymentFailed(flow string)                    {}
func (nopMetrics) ObserveDepositAmount(flow string, amount int64) {}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New(logger.ERROR)
	service := checkout.NewService(
		repository.NewInMemoryCheckoutRepository(log),
		session.NewInMemoryStore(log),
		stubPartyAPI{},
		stubGateway{},
		nil,
		log,
	)
	handler := NewCheckoutHandler(service, nopMetrics{}, log)

	r := gin.New()
	r.POST("/api/v1/checkouts", handler.Start)
	r.GET("/api/v1/checkouts/:id", handler.Get)
	r.POST("/api/v1/checkouts/:id/product", handler.SelectProduct)
	r.POST("/api/v1/checkouts/resume", handler.Resume)
	return r
}

func TestStartCheckoutRequiresUserHeader(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkouts", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStartCheckout(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkouts", nil)
	req.Header.Set("X-User-Id", "user-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var co domain.Checkout
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &co))
	assert.Equal(t, domain.StepSelectService, co.Step)
	assert.Equal(t, "user-1", co.UserID)
	assert.NotEmpty(t, co.ID)
}

func TestSelectProductOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkouts", nil)
	req.Header.Set("X-User-Id", "user-1")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var co domain.Checkout
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &co))

	body, _ := json.Marshal(map[string]any{"productId": 1})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkouts/"+co.ID.String()+"/product", bytes.NewReader(body))
	req.Header.Set("X-User-Id", "user-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &co))
	assert.Equal(t, domain.StepConfigure, co.Step)
	assert.Equal(t, int64(4250), co.Draft.Price)
}

func TestGetCheckoutInvalidID(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkouts/not-a-uuid", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResumeRejectsInvalidStep(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkouts/resume?step=abc", nil)
	req.Header.Set("X-User-Id", "user-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
