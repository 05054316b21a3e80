package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/config"
)

// corsMaxAge is how long, in seconds, browsers may cache a preflight answer.
const corsMaxAge = 600

// CORS returns a middleware that lets the dashboard origins in cfg call the API.
//
// The API only reads state and submits orders or forecasts, so GET and POST
// are the only methods offered. Requests carry no cookies or auth headers.
// The request ID is exposed so the dashboard can quote it when reporting errors.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           corsMaxAge,
	})
}
