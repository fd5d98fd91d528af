package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/middleware/auth"
	"github.com/neverMEH/Personabl-Developed/internal/usecase"
)

var testUserID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

type MockWebhookProcessor struct {
	mock.Mock
}

func (m *MockWebhookProcessor) Handle(ctx context.Context, payload []byte, signature string) (*usecase.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.WebhookResult), args.Error(1)
}

type MockCheckoutInitiator struct {
	mock.Mock
}

func (m *MockCheckoutInitiator) CreateCheckoutSession(ctx context.Context, req *usecase.CheckoutRequest) (*entity.CheckoutSessionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CheckoutSessionResult), args.Error(1)
}

func (m *MockCheckoutInitiator) CreatePortalSession(ctx context.Context, userID uuid.UUID, returnURL string) (string, error) {
	args := m.Called(ctx, userID, returnURL)
	return args.String(0), args.Error(1)
}

type MockCouponValidator struct {
	mock.Mock
}

func (m *MockCouponValidator) Validate(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

type MockSubscriptionManager struct {
	mock.Mock
}

func (m *MockSubscriptionManager) ListActive(ctx context.Context, userID uuid.UUID) ([]*model.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionManager) Cancel(ctx context.Context, userID, subscriptionID uuid.UUID) error {
	return m.Called(ctx, userID, subscriptionID).Error(0)
}

func (m *MockSubscriptionManager) Reactivate(ctx context.Context, userID, subscriptionID uuid.UUID) error {
	return m.Called(ctx, userID, subscriptionID).Error(0)
}

type MockProductLister struct {
	mock.Mock
}

func (m *MockProductLister) ListProducts(ctx context.Context) ([]*model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

// newContext builds an echo context; a non-nil user is attached as authenticated.
func newContext(method, target, body string, user *auth.AuthUser) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewRequestValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		auth.WithUser(c, user)
	}
	return c, rec
}

func testUser() *auth.AuthUser {
	return &auth.AuthUser{ID: testUserID, UserID: testUserID.String(), Email: "ada@example.com"}
}
