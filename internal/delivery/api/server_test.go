package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loyalty/config"
	"loyalty/internal/delivery/api"
	"loyalty/internal/delivery/api/middleware"
	"loyalty/internal/delivery/api/response"
	"loyalty/internal/delivery/api/router"
	"loyalty/internal/delivery/api/router/handler"
	deliverycontext "loyalty/internal/delivery/context"
	"loyalty/internal/domain/entity"
	"loyalty/internal/domain/service"
	"loyalty/internal/infra/auth"
	"loyalty/internal/infra/codegen"
	"loyalty/internal/infra/lock"
	"loyalty/internal/infra/metrics"
	"loyalty/internal/infra/persistence/postgres"
	"loyalty/internal/infra/persistence/testdb"
	"loyalty/internal/infra/pubsub"
	"loyalty/internal/infra/qrcode"
	"loyalty/internal/usecase/impl"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorInfo `json:"error"`
	Meta  *response.MetaInfo  `json:"meta"`
}

type apiFixture struct {
	echo       *echo.Echo
	tokens     service.TokenService
	businessID uuid.UUID
	customerID uuid.UUID
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.HTTP.MaxRequestBodySize = "100KB"
	cfg.SecretKey.Access = "api-test-secret"
	cfg.Loyalty = &config.LoyaltyConfig{}

	db := testdb.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	loyaltyUC := impl.NewLoyaltyService(impl.LoyaltyServiceParams{
		TxManager:     postgres.NewTransactionManager(db),
		Repos:         postgres.NewRepositoryFactory(db),
		Locker:        lock.NewLocalLocker(),
		CodeGenerator: codegen.NewRandomCodeGenerator(8),
		QRCodeService: qrcode.NewQRCodeService(256, "M"),
		Publisher:     pubsub.NewNoopPublisher(logger),
		Metrics:       metrics.NewNoop(),
		Config:        cfg,
		Logger:        logger,
	})
	adminUC := impl.NewAdminService(impl.AdminServiceParams{
		TxManager: postgres.NewTransactionManager(db),
		Repos:     postgres.NewRepositoryFactory(db),
		Logger:    logger,
	})

	routes := router.NewRouter(router.RouterParams{
		LoyaltyHandler: handler.NewLoyaltyHandler(handler.LoyaltyHandlerParams{
			LoyaltyUC: loyaltyUC,
			Logger:    logger,
		}),
		BusinessHandler: handler.NewBusinessHandler(handler.BusinessHandlerParams{
			LoyaltyUC: loyaltyUC,
			AdminUC:   adminUC,
			Logger:    logger,
		}),
		AuthMiddleware: middleware.NewAuthMiddleware(tokens),
	})

	return &apiFixture{
		echo:       api.NewEcho(cfg, logger, routes),
		tokens:     tokens,
		businessID: uuid.New(),
		customerID: uuid.New(),
	}
}

func (f *apiFixture) token(t *testing.T, userID uuid.UUID, role entity.Role) string {
	t.Helper()

	token, err := f.tokens.GenerateAccessToken(userID, []string{role.String()}, time.Hour)
	require.NoError(t, err)

	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.Nil(t, env.Error, rec.Body.String())

	var data T
	require.NoError(t, json.Unmarshal(env.Data, &data))

	return data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *response.ErrorInfo {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.NotNil(t, env.Error, rec.Body.String())

	return env.Error
}

type earnResponse struct {
	Success      bool   `json:"success"`
	ErrorCode    string `json:"error_code"`
	PointsEarned int64  `json:"points_earned"`
	NewBalance   int64  `json:"new_balance"`
	Message      string `json:"message"`
}

type redemptionResponse struct {
	Success    bool               `json:"success"`
	ErrorCode  string             `json:"error_code"`
	Redemption *entity.Redemption `json:"redemption"`
}

func TestHealthCheck(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, rec))
}

func TestAuthentication(t *testing.T) {
	f := newAPIFixture(t)
	path := "/api/v1/loyalty/businesses/" + f.businessID.String() + "/profile"

	rec := f.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "MISSING_TOKEN", decodeError(t, rec).Code)

	rec = f.do(t, http.MethodGet, path, "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeError(t, rec).Code)

	customerToken := f.token(t, f.customerID, entity.RoleCustomer)
	rec = f.do(t, http.MethodGet, "/api/v1/business/rules", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)
}

func TestLoyaltyFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	businessToken := f.token(t, f.businessID, entity.RoleBusiness)
	customerToken := f.token(t, f.customerID, entity.RoleCustomer)

	rec := f.do(t, http.MethodGet, "/api/v1/business/rules", businessToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RULES_NOT_FOUND", decodeError(t, rec).Code)

	rec = f.do(t, http.MethodPut, "/api/v1/business/rules", businessToken, map[string]any{
		"is_active":            true,
		"visit_points":         10,
		"visit_cooldown_hours": 24,
		"first_visit_bonus":    50,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/business/rewards", businessToken, map[string]any{
		"name":        "Free Coffee",
		"point_cost":  50,
		"reward_type": "free_item",
		"value":       "0",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reward := decode[entity.Reward](t, rec)

	earnPath := "/api/v1/loyalty/businesses/" + f.businessID.String() + "/earn"
	rec = f.do(t, http.MethodPost, earnPath, customerToken, map[string]any{"is_visit": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	earned := decode[earnResponse](t, rec)
	require.True(t, earned.Success)
	assert.Equal(t, int64(60), earned.PointsEarned)
	assert.Equal(t, int64(60), earned.NewBalance)

	rec = f.do(t, http.MethodPost, earnPath, customerToken, map[string]any{"is_visit": true})
	require.Equal(t, http.StatusOK, rec.Code)
	cooldown := decode[earnResponse](t, rec)
	assert.False(t, cooldown.Success)
	assert.Equal(t, "VISIT_COOLDOWN", cooldown.ErrorCode)

	rec = f.do(t, http.MethodGet, "/api/v1/loyalty/businesses/"+f.businessID.String()+"/profile", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[entity.LoyaltyProfile](t, rec)
	assert.Equal(t, int64(60), profile.CurrentPointsBalance)

	rec = f.do(t, http.MethodGet, "/api/v1/loyalty/businesses/"+f.businessID.String()+"/rewards", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]entity.Reward](t, rec), 1)

	rec = f.do(t, http.MethodPost, "/api/v1/loyalty/redemptions", customerToken, map[string]any{
		"loyalty_profile_id": profile.ID.String(),
		"reward_id":          reward.ID.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	redeemed := decode[redemptionResponse](t, rec)
	require.True(t, redeemed.Success)
	require.NotNil(t, redeemed.Redemption)

	rec = f.do(t, http.MethodGet, "/api/v1/loyalty/redemptions/"+redeemed.Redemption.ID.String()+"/qr", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, []byte("\x89PNG"), rec.Body.Bytes()[:4])

	rec = f.do(t, http.MethodPost, "/api/v1/loyalty/redemptions", customerToken, map[string]any{
		"loyalty_profile_id": profile.ID.String(),
		"reward_id":          reward.ID.String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "INSUFFICIENT_POINTS", decode[redemptionResponse](t, rec).ErrorCode)

	verifyPath := "/api/v1/business/redemptions/verify"
	rec = f.do(t, http.MethodPost, verifyPath, businessToken, map[string]any{"code": redeemed.Redemption.RedemptionCode})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	verified := decode[redemptionResponse](t, rec)
	require.True(t, verified.Success)
	assert.Equal(t, entity.RedemptionStatusVerified, verified.Redemption.Status)

	rec = f.do(t, http.MethodPost, verifyPath, businessToken, map[string]any{"code": redeemed.Redemption.RedemptionCode})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "INVALID_CODE", decode[redemptionResponse](t, rec).ErrorCode)

	rec = f.do(t, http.MethodGet, "/api/v1/loyalty/profiles/"+profile.ID.String()+"/transactions", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ledger := decode[[]entity.PointTransaction](t, rec)
	require.Len(t, ledger, 2)
	var sum int64
	for _, entry := range ledger {
		sum += entry.PointsAmount
	}
	assert.Equal(t, int64(10), sum)

	rec = f.do(t, http.MethodGet, "/api/v1/loyalty/profiles/"+profile.ID.String()+"/redemptions", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]entity.Redemption](t, rec), 1)
}

func TestOtherUsersResourcesAreNotFound(t *testing.T) {
	f := newAPIFixture(t)
	customerToken := f.token(t, f.customerID, entity.RoleCustomer)
	strangerToken := f.token(t, uuid.New(), entity.RoleCustomer)

	rec := f.do(t, http.MethodGet, "/api/v1/loyalty/businesses/"+f.businessID.String()+"/profile", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[entity.LoyaltyProfile](t, rec)

	for _, suffix := range []string{"/transactions", "/redemptions"} {
		rec = f.do(t, http.MethodGet, "/api/v1/loyalty/profiles/"+profile.ID.String()+suffix, strangerToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, suffix)
		assert.Equal(t, "PROFILE_NOT_FOUND", decodeError(t, rec).Code, suffix)
	}
}

func TestEarnRequestValidation(t *testing.T) {
	f := newAPIFixture(t)
	customerToken := f.token(t, f.customerID, entity.RoleCustomer)
	earnPath := "/api/v1/loyalty/businesses/" + f.businessID.String() + "/earn"

	tests := []struct {
		name string
		path string
		body any
		code string
	}{
		{name: "no action", path: earnPath, body: map[string]any{}, code: "VALIDATION_ERROR"},
		{name: "negative amount", path: earnPath, body: map[string]any{"amount_spent": "-5"}, code: "VALIDATION_ERROR"},
		{name: "amount beyond int64 points", path: earnPath, body: map[string]any{"amount_spent": "18446744073709551617"}, code: "VALIDATION_ERROR"},
		{name: "exponent amount above limit", path: earnPath, body: json.RawMessage(`{"amount_spent": 1e23}`), code: "VALIDATION_ERROR"},
		{name: "malformed business id", path: "/api/v1/loyalty/businesses/abc/earn", body: map[string]any{"is_visit": true}, code: "INVALID_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tt.path, customerToken, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(deliverycontext.HeaderXRequestID, "client-req.42")
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	assert.Equal(t, "client-req.42", rec.Header().Get(deliverycontext.HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(deliverycontext.HeaderXRequestID, "bad id <script>")
	rec = httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	generated := rec.Header().Get(deliverycontext.HeaderXRequestID)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, generated, env.Meta.RequestID)
}
