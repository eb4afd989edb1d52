package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/config"
	"github.com/tutorkhata/khata_server/internal/api/handler"
	"github.com/tutorkhata/khata_server/internal/api/middleware"
	"github.com/tutorkhata/khata_server/internal/database"
	"github.com/tutorkhata/khata_server/internal/model"
	"github.com/tutorkhata/khata_server/internal/pkg/response"
	"github.com/tutorkhata/khata_server/internal/pkg/ws"
	"github.com/tutorkhata/khata_server/internal/repository"
	"github.com/tutorkhata/khata_server/internal/service"
	"github.com/tutorkhata/khata_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupEngine(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	require.NoError(t, database.SeedCatalog(db, "BDT", zap.NewNop()))

	cfg := &config.Config{
		JWT:  config.JWTConfig{Secret: "router-secret", ExpireHours: 1},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	log := zap.NewNop()

	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	allocator := service.NewFeeDayAllocator(settingsRepo, teacherRepo, 25)

	entitlements := service.NewEntitlementService(planRepo, subRepo, repository.NewUsageRepository(db), nil, log)
	subs := service.NewSubscriptionService(tx, subRepo, planRepo, repository.NewEventRepository(db), nil, log)

	router := NewRouter(
		handler.NewAuthHandler(service.NewAuthService(tx, userRepo, teacherRepo, settingsRepo, allocator, cfg.JWT)),
		handler.NewPlanHandler(service.NewCatalogService(planRepo)),
		handler.NewSubscriptionHandler(subs),
		handler.NewUsageHandler(entitlements),
		handler.NewTeacherHandler(service.NewTeacherService(tx, teacherRepo, settingsRepo, allocator)),
		handler.NewWebSocketHandler(ws.NewHub(log), teacherRepo, cfg.JWT.Secret, nil, log),
		handler.NewHealthHandler(db),
		teacherRepo,
		entitlements,
		cfg,
		log,
	)
	return router.Setup(), db
}

func call(t *testing.T, engine http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestRouter_RequiresAuth(t *testing.T) {
	engine, _ := setupEngine(t)

	for _, path := range []string{"/api/plans/", "/api/subscriptions/me/", "/api/usage/", "/api/teachers/available_fee_days/"} {
		w, resp := call(t, engine, "GET", path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, response.CodeAuthFailed, resp.Code, path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader), path)
	}
}

func TestRouter_SignupSubscribeConsume(t *testing.T) {
	engine, db := setupEngine(t)

	w, resp := call(t, engine, "POST", "/api/auth/register/", "", gin.H{
		"phone_number": "01710000000",
		"password":     "password123",
		"name":         "Shirin",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	token := resp.Data.(map[string]interface{})["token"].(string)

	w, _ = call(t, engine, "GET", "/api/teachers/me/", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = call(t, engine, "POST", "/api/usage/check/", token, gin.H{"feature_code": "sms"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ReasonNoSubscription, resp.Data.(map[string]interface{})["reason"])

	var price model.Price
	require.NoError(t, db.Joins("JOIN plans ON plans.id = prices.plan_id").
		Where("plans.code = ? AND prices.duration_months = ?", "basic", 1).First(&price).Error)

	w, resp = call(t, engine, "POST", "/api/subscriptions/", token, gin.H{"price_id": price.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, model.StatusTrial, resp.Data.(map[string]interface{})["status"])

	w, resp = call(t, engine, "POST", "/api/usage/sms/consume/", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp.Data.(map[string]interface{})["used"])

	w, resp = call(t, engine, "POST", "/api/usage/reports/consume/", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, service.ReasonNotInPlan, resp.Message)

	w, resp = call(t, engine, "GET", "/api/usage/", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data, 1)
}

func TestRouter_HealthIsPublic(t *testing.T) {
	engine, _ := setupEngine(t)

	w, resp := call(t, engine, "GET", "/api/health/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)
}
