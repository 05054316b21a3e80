package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/api/middleware"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/config"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/service"
)

// Services groups the services the router dispatches to.
type Services struct {
	System    *service.SystemService
	Portfolio *service.PortfolioService
	Strategy  *service.StrategyService
	Forecast  *service.ForecastService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log))
	r.Use(middleware.Recoverer)

	r.Use(custommiddleware.CORS(cfg.CORS))

	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(services.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(services.Portfolio, services.Strategy)
			r.Get("/summary", portfolioHandler.Summary)
			r.Get("/positions", portfolioHandler.Positions)
			r.Get("/transactions", portfolioHandler.Transactions)
			r.Get("/performance", portfolioHandler.Performance)
			r.Post("/buy", portfolioHandler.Buy)
			r.Post("/sell", portfolioHandler.Sell)
			r.Post("/hold", portfolioHandler.Hold)
			r.Post("/snapshot", portfolioHandler.Snapshot)
			r.Post("/execute-strategy", portfolioHandler.ExecuteStrategy)
		})

		r.Route("/forecast", func(r chi.Router) {
			forecastHandler := handlers.NewForecastHandler(services.Forecast)
			r.Post("/", forecastHandler.CreateForecast)
			r.Get("/latest", forecastHandler.LatestForecast)
			r.Get("/evaluate", forecastHandler.EvaluateForecast)
			r.With(custommiddleware.ValidateUUIDParam("forecastId")).
				Get("/{forecastId}", forecastHandler.GetForecast)
		})
	})

	return r
}
