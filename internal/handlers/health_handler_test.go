package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bolsafeucn/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedConnections int

func (n fixedConnections) GetClientCount() int { return int(n) }

func healthBody(t *testing.T, h *HealthHandler) map[string]interface{} {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth_ReportsWebSocketConnections(t *testing.T) {
	db := testutil.NewTestDB(t)

	body := healthBody(t, NewHealthHandler(db, fixedConnections(4)))
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, 4.0, body["websocket_connections"])

	// Без websocket поле не отдается
	body = healthBody(t, NewHealthHandler(db, nil))
	_, present := body["websocket_connections"]
	assert.False(t, present)
}
