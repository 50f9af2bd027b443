package app_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bolsafeucn/internal/app"
	"bolsafeucn/internal/auth"
	"bolsafeucn/internal/config"
	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/metrics"
	"bolsafeucn/internal/models"
	"bolsafeucn/internal/services"
	"bolsafeucn/internal/services/dto"
	"bolsafeucn/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init("test")
	gin.SetMode(gin.TestMode)
	auth.Configure("test-secret", time.Hour)
}

type testServer struct {
	router  *gin.Engine
	sc      *services.ServiceContainer
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewTestDB(t)
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	cfg.FirstAdminEmail = "admin@ucn.cl"
	cfg.FirstAdminPassword = "admin-password"

	m := metrics.New()
	sc := services.NewServiceContainer(services.PolicyFromConfig(cfg), nil, nil, m)
	t.Cleanup(sc.NotificationService.Wait)

	require.NoError(t, app.SeedFirstAdmin(testutil.Context(), db, cfg, sc.AuthService))
	// Повторный seed ничего не создает
	require.NoError(t, app.SeedFirstAdmin(testutil.Context(), db, cfg, sc.AuthService))

	return &testServer{
		router:  app.SetupRouter(testutil.Context(), cfg, db, sc, m, nil),
		sc:      sc,
		metrics: m,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "body: %s", w.Body.String())
}

// decodeData разбирает конверт {message, data} и возвращает message
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) string {
	t.Helper()
	var envelope struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	decode(t, w, &envelope)
	require.NotEmpty(t, envelope.Message, "body: %s", w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out), "body: %s", w.Body.String())
	}
	return envelope.Message
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decode(t, w, &resp)
	return resp.Error.Code
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.AuthResponse
	decodeData(t, w, &resp)
	return resp.AccessToken
}

func (s *testServer) register(t *testing.T, req dto.RegisterRequest) (string, uint) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", "", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp dto.AuthResponse
	decodeData(t, w, &resp)
	require.NotNil(t, resp.User)
	return resp.AccessToken, resp.User.ID
}

// Полный путь: регистрация, модерация, отклик, принятие, отзыв
func TestHTTPFlow_PublicationToReview(t *testing.T) {
	s := newTestServer(t)

	// 1. Регистрация компании и студента, логин администратора
	companyToken, _ := s.register(t, dto.RegisterRequest{
		Email: "rrhh@minera.cl", Password: "password123", Role: models.UserRoleCompany,
		CompanyName: "Minera Norte",
	})
	studentToken, studentID := s.register(t, dto.RegisterRequest{
		Email: "ana@alumnos.ucn.cl", Password: "password123", Role: models.UserRoleStudent,
		FirstName: "Ana", LastName: "Rojas",
	})
	adminToken := s.login(t, "admin@ucn.cl", "admin-password")
	t.Logf("Пользователи созданы, student_id=%d", studentID)

	// 2. Компания создает оффер: он уходит на модерацию
	now := time.Now().UTC()
	w := s.do(t, http.MethodPost, "/api/publications", companyToken, dto.CreatePublicationRequest{
		Type:        models.PublicationTypeOffer,
		Title:       "Práctica en geología",
		Description: "Práctica de verano en faena",
		Offer: &dto.OfferDetails{
			EndDate:             now.Add(30 * 24 * time.Hour),
			ApplicationDeadline: now.Add(10 * 24 * time.Hour),
			Remuneration:        350000,
			Kind:                models.OfferKindInternship,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var publication dto.PublicationResponse
	decodeData(t, w, &publication)
	assert.Equal(t, models.PublicationStatusInProcess, publication.StatusValidation)
	pubPath := fmt.Sprintf("/api/publications/%d", publication.ID)

	// 3. До одобрения оффер не виден анонимно
	w = s.do(t, http.MethodGet, pubPath, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 4. Студент не может модерировать
	approvePath := fmt.Sprintf("/api/admin/publications/%d/approve", publication.ID)
	w = s.do(t, http.MethodPost, approvePath, studentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, approvePath, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &publication)
	assert.Equal(t, models.PublicationStatusPublished, publication.StatusValidation)

	w = s.do(t, http.MethodGet, pubPath, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 5. Отклик студента, повторный отклик запрещен
	w = s.do(t, http.MethodPost, pubPath+"/applications", studentToken, dto.ApplyRequest{Motivation: "Me interesa la geología"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var application dto.ApplicationResponse
	decodeData(t, w, &application)

	w = s.do(t, http.MethodPost, pubPath+"/applications", studentToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// 6. Компания принимает заявку: создается отзыв
	statusPath := fmt.Sprintf("/api/applications/%d/status", application.ID)
	w = s.do(t, http.MethodPatch, statusPath, companyToken, dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusAccepted})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/reviews/pending/count", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending dto.PendingReviewsCountResponse
	decodeData(t, w, &pending)
	assert.Equal(t, int64(1), pending.Count)
	assert.False(t, pending.Blocked)

	// 7. Оценка вне шкалы отклоняется валидатором
	reviewPath := fmt.Sprintf("/api/reviews/publication/%d", publication.ID)
	w = s.do(t, http.MethodPost, reviewPath+"/offeror", studentToken, dto.OfferorReviewRequest{Rating: 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, reviewPath+"/offeror", studentToken, dto.OfferorReviewRequest{Rating: 6, Comment: "Muy buen trato"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, reviewPath+"/student", companyToken, dto.StudentReviewRequest{Rating: 5, AtTime: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var review dto.ReviewResponse
	decodeData(t, w, &review)
	assert.True(t, review.IsCompleted)

	// 8. Уведомления доставляются асинхронно
	s.sc.NotificationService.Wait()
	w = s.do(t, http.MethodGet, "/api/notifications/unread-count", companyToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var unread dto.UnreadCountResponse
	decodeData(t, w, &unread)
	assert.Positive(t, unread.Count)
	t.Log("Поток публикация -> отзыв прошел")
}

func TestHTTP_AppealReportsRemaining(t *testing.T) {
	s := newTestServer(t)

	sellerToken, _ := s.register(t, dto.RegisterRequest{
		Email: "vende@alumnos.ucn.cl", Password: "password123", Role: models.UserRoleStudent,
		FirstName: "Luis", LastName: "Pérez",
	})
	adminToken := s.login(t, "admin@ucn.cl", "admin-password")

	// 1. Студент выставляет объявление о продаже
	w := s.do(t, http.MethodPost, "/api/publications", sellerToken, dto.CreatePublicationRequest{
		Type:        models.PublicationTypeBuySell,
		Title:       "Calculadora científica",
		Description: "Casio en buen estado",
		BuySell:     &dto.BuySellDetails{Price: 15000},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var publication dto.PublicationResponse
	assert.Equal(t, "Publication created", decodeData(t, w, &publication))

	// 2. Администратор отклоняет
	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/admin/publications/%d/reject", publication.ID), adminToken,
		dto.RejectPublicationRequest{Reason: "Faltan fotos"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 3. Апелляция: в сообщении остаток попыток
	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/publications/%d/appeal", publication.ID), sellerToken,
		dto.AppealPublicationRequest{Justification: "Agregué fotos"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var appeal dto.AppealResponse
	message := decodeData(t, w, &appeal)
	assert.Equal(t, 2, appeal.RemainingAppeals)
	assert.Equal(t, "Appeal submitted, 2 appeals remaining", message)
	t.Logf("Ответ апелляции: %s", message)
}

func TestHTTP_AuthErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, w))

	// Самостоятельная регистрация админа запрещена
	w = s.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email: "evil@ucn.cl", Password: "password123", Role: models.UserRoleAdmin, FirstName: "Evil",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, w))

	w = s.do(t, http.MethodGet, "/api/publications/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHTTP_OpsEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	decode(t, w, &health)
	assert.Equal(t, "ok", health["database"])

	w = s.do(t, http.MethodGet, "/api/publications", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bolsafeucn_http_requests_total")
}
