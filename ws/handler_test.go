package ws

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckOrigin(t *testing.T) {
	check := func(allowed []string, origin string) bool {
		h := NewWebSocketHandler(NewWebSocketManager(), allowed)
		req := httptest.NewRequest("GET", "/ws", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		return h.upgrader.CheckOrigin(req)
	}

	// "*" означает любой origin, как в CORS
	assert.True(t, check([]string{"*"}, "https://otro.cl"))
	assert.True(t, check(nil, "https://otro.cl"))

	// Явный список
	assert.True(t, check([]string{"http://localhost:5173"}, "http://localhost:5173"))
	assert.False(t, check([]string{"http://localhost:5173"}, "https://otro.cl"))

	// Не-браузерные клиенты без Origin
	assert.True(t, check([]string{"http://localhost:5173"}, ""))
}
