package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/api/middleware"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/config"
	"github.com/stretchr/testify/assert"
)

const dashboardOrigin = "http://localhost:5173"

func corsHandler() http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req-1")
		w.WriteHeader(http.StatusOK)
	})
	return middleware.CORS(config.CORSConfig{AllowedOrigins: []string{dashboardOrigin}})(next)
}

func preflight(origin, method string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/portfolio/buy", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	w := httptest.NewRecorder()
	corsHandler().ServeHTTP(w, req)
	return w
}

// TestCORS tests the cross-origin policy of the API.
//
// WHY: The dashboard runs on its own origin. It must be able to read state and
// place orders, while methods the API does not serve are refused up front.
func TestCORS(t *testing.T) {
	t.Run("preflight for an order is allowed", func(t *testing.T) {
		w := preflight(dashboardOrigin, http.MethodPost)

		assert.Equal(t, dashboardOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.MethodPost, w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("methods the API does not serve are refused", func(t *testing.T) {
		for _, method := range []string{http.MethodDelete, http.MethodPut, http.MethodPatch} {
			w := preflight(dashboardOrigin, method)
			assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), method)
		}
	})

	t.Run("unknown origins are refused", func(t *testing.T) {
		w := preflight("http://evil.example", http.MethodGet)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("request id is readable by the dashboard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/portfolio/summary", nil)
		req.Header.Set("Origin", dashboardOrigin)
		w := httptest.NewRecorder()
		corsHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, dashboardOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "X-Request-Id", w.Header().Get("Access-Control-Expose-Headers"))
	})
}
