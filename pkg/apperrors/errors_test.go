package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesCopies(t *testing.T) {
	withDetails := ErrPublicationNotFound.WithDetails(map[string]uint{"id": 7})
	wrapped := fmt.Errorf("service: %w", withDetails.WithError(errors.New("record not found")))

	assert.True(t, errors.Is(wrapped, ErrPublicationNotFound))
	assert.False(t, errors.Is(wrapped, ErrReviewNotFound))
	assert.True(t, HasCode(wrapped, ErrPublicationNotFound.Code))

	// Предопределенная ошибка не испорчена
	assert.Nil(t, ErrPublicationNotFound.Details)
}

func TestAppError_JSONHidesInternals(t *testing.T) {
	err := InternalError(errors.New("pq: connection refused"))

	raw, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)
	assert.NotContains(t, string(raw), "connection refused")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHandleError_StatusAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"domain", ErrPublicationNotFound, http.StatusNotFound, string(ErrPublicationNotFound.Code)},
		{"validation", ValidationError(map[string]string{"title": "required"}), http.StatusBadRequest, string(CodeValidationFailed)},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, string(CodeInternalError)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Error.Code)
		})
	}
}
