package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	handlers "github.com/neverMEH/Personabl-Developed/internal/adapter/handler/http"
	"github.com/neverMEH/Personabl-Developed/internal/config"
	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/middleware/auth"
	"github.com/neverMEH/Personabl-Developed/internal/usecase"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

type stubBilling struct {
	userSeen uuid.UUID
}

func (s *stubBilling) Handle(ctx context.Context, payload []byte, signature string) (*usecase.WebhookResult, error) {
	return &usecase.WebhookResult{EventID: "evt_1", Outcome: usecase.OutcomeIgnored}, nil
}

func (s *stubBilling) CreateCheckoutSession(ctx context.Context, req *usecase.CheckoutRequest) (*entity.CheckoutSessionResult, error) {
	return &entity.CheckoutSessionResult{ID: "cs_1", URL: "https://checkout.example.com/cs_1"}, nil
}

func (s *stubBilling) CreatePortalSession(ctx context.Context, userID uuid.UUID, returnURL string) (string, error) {
	return "https://billing.example.com/p/1", nil
}

func (s *stubBilling) Validate(ctx context.Context, code string) (*model.Coupon, error) {
	return nil, nil
}

func (s *stubBilling) ListActive(ctx context.Context, userID uuid.UUID) ([]*model.Subscription, error) {
	s.userSeen = userID
	return nil, nil
}

func (s *stubBilling) Cancel(ctx context.Context, userID, subscriptionID uuid.UUID) error {
	return nil
}

func (s *stubBilling) Reactivate(ctx context.Context, userID, subscriptionID uuid.UUID) error {
	return nil
}

func (s *stubBilling) ListProducts(ctx context.Context) ([]*model.Product, error) {
	return nil, nil
}

func newTestServer(t *testing.T, ready func(ctx context.Context) error) (*Server, *stubBilling) {
	t.Helper()
	cfg := &config.Config{
		Service: config.ServiceConfig{Name: "billing", Version: "test"},
	}
	stub := &stubBilling{}
	log := zap.NewNop()
	h := Handlers{
		Webhook:      handlers.NewWebhookHandler(stub, log),
		Checkout:     handlers.NewCheckoutHandler(stub, log),
		Coupon:       handlers.NewCouponHandler(stub, log),
		Subscription: handlers.NewSubscriptionHandler(stub, log),
		Product:      handlers.NewProductHandler(stub, log),
	}
	return NewServer(cfg, h, auth.JWTConfig{Secret: testSecret}, ready, log), stub
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": "ada@example.com",
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func serve(s *Server, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := serve(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"billing","version":"test"}`, rec.Body.String())

	s, _ = newTestServer(t, func(ctx context.Context) error { return errors.New("db down") })
	rec = serve(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestServer_PublicRoutes(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := serve(s, http.MethodGet, "/api/v1/products", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":[]}`, rec.Body.String())

	for _, path := range []string{"/webhook", "/api/v1/webhooks/stripe"} {
		rec = serve(s, http.MethodPost, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String(), path)
	}
}

func TestServer_ProtectedRoutesRequireToken(t *testing.T) {
	s, _ := newTestServer(t, nil)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/checkout/sessions"},
		{http.MethodPost, "/api/v1/portal/sessions"},
		{http.MethodGet, "/api/v1/coupons/LAUNCH20"},
		{http.MethodGet, "/api/v1/subscriptions"},
		{http.MethodPost, "/api/v1/subscriptions/" + uuid.NewString() + "/cancel"},
		{http.MethodPost, "/api/v1/subscriptions/" + uuid.NewString() + "/reactivate"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := serve(s, r.method, r.path, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "MISSING_AUTH_HEADER")
		})
	}
}

func TestServer_AuthenticatedUserReachesHandler(t *testing.T) {
	s, stub := newTestServer(t, nil)
	userID := uuid.New()

	rec := serve(s, http.MethodGet, "/api/v1/subscriptions", bearer(t, userID.String()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subscriptions":[]}`, rec.Body.String())
	assert.Equal(t, userID, stub.userSeen)

	rec = serve(s, http.MethodGet, "/api/v1/subscriptions", bearer(t, "not-a-uuid"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_USER_ID_FORMAT")
}
