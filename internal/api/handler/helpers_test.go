package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/config"
	"github.com/tutorkhata/khata_server/internal/api/middleware"
	"github.com/tutorkhata/khata_server/internal/pkg/response"
	"github.com/tutorkhata/khata_server/internal/pkg/validate"
	"github.com/tutorkhata/khata_server/internal/repository"
	"github.com/tutorkhata/khata_server/internal/service"
	"github.com/tutorkhata/khata_server/internal/testutil"
)

const testSecret = "test-secret-key"

func init() {
	gin.SetMode(gin.TestMode)
	validate.Setup()
}

type testEnv struct {
	DB           *gorm.DB
	Catalog      *service.CatalogService
	Entitlements *service.EntitlementService
	Subs         *service.SubscriptionService
	Teachers     *service.TeacherService
	Auth         *service.AuthService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	eventRepo := repository.NewEventRepository(db)
	allocator := service.NewFeeDayAllocator(settingsRepo, teacherRepo, 25)

	return &testEnv{
		DB:           db,
		Catalog:      service.NewCatalogService(planRepo),
		Entitlements: service.NewEntitlementService(planRepo, subRepo, usageRepo, nil, zap.NewNop()),
		Subs:         service.NewSubscriptionService(tx, subRepo, planRepo, eventRepo, nil, zap.NewNop()),
		Teachers:     service.NewTeacherService(tx, teacherRepo, settingsRepo, allocator),
		Auth: service.NewAuthService(tx, userRepo, teacherRepo, settingsRepo, allocator, config.JWTConfig{
			Secret:      testSecret,
			ExpireHours: 24,
		}),
	}
}

// mockAuth stands in for Auth + ResolveTeacher.
func mockAuth(teacherID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.TeacherIDKey, teacherID)
		c.Next()
	}
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is not an object: %#v", resp.Data)
	return data
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
