package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/api/request"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/api/response"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/service"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/validation"
)

// ForecastHandler handles HTTP requests for forecast endpoints.
type ForecastHandler struct {
	forecastService *service.ForecastService
}

// NewForecastHandler creates a new ForecastHandler with the provided service dependency.
func NewForecastHandler(forecastService *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{
		forecastService: forecastService,
	}
}

// CreateForecast handles POST requests storing a model forecast.
//
// Endpoint: POST /api/forecast
// Request Body: CreateForecastRequest (ticker, horizon, points, optional model_name)
// Response: 201 Created with ForecastResponse
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if storing fails
func (h *ForecastHandler) CreateForecast(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateForecastRequest](r, false)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateForecast(req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	points := make([]model.ForecastPoint, len(req.Points))
	for i, p := range req.Points {
		ts, _ := validation.ParseTimestamp(p.Timestamp) // validated above
		points[i] = model.ForecastPoint{
			Timestamp:      ts,
			PredictedClose: p.PredictedClose.Decimal,
		}
	}

	forecast, err := h.forecastService.CreateForecast(r.Context(), model.Forecast{
		Ticker:    req.Ticker,
		Horizon:   strings.TrimSpace(req.Horizon),
		ModelName: req.ModelName,
		Points:    points,
	})
	if err != nil {
		respondServiceError(w, err, "failed to store forecast")
		return
	}

	response.RespondSuccess(w, http.StatusCreated, "Forecast stored", newForecastResponse(forecast))
}

// LatestForecast handles GET requests for the most recent forecast of a ticker.
//
// Endpoint: GET /api/forecast/latest?ticker=
// Response: 200 OK with ForecastResponse
// Error: 400 Bad Request if ticker is missing
// Error: 404 Not Found if the ticker has no forecast
// Error: 500 Internal Server Error if retrieval fails
func (h *ForecastHandler) LatestForecast(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimSpace(r.URL.Query().Get("ticker"))
	if ticker == "" {
		response.RespondError(w, http.StatusBadRequest, "ticker is required", nil)
		return
	}

	forecast, err := h.forecastService.GetLatestForecast(r.Context(), ticker)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve forecast")
		return
	}

	response.RespondSuccess(w, http.StatusOK, "", newForecastResponse(forecast))
}

// EvaluateForecast handles GET requests scoring a forecast against actual closes.
// Without forecast_id the latest forecast for ticker is evaluated.
//
// Endpoint: GET /api/forecast/evaluate?ticker=&forecast_id=
// Response: 200 OK with ForecastEvaluationResponse
// Error: 400 Bad Request if both parameters are missing, forecast_id is not a UUID, or actual closes are unavailable
// Error: 404 Not Found if the forecast does not exist
// Error: 500 Internal Server Error if retrieval fails
func (h *ForecastHandler) EvaluateForecast(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimSpace(r.URL.Query().Get("ticker"))
	forecastID := strings.TrimSpace(r.URL.Query().Get("forecast_id"))
	if ticker == "" && forecastID == "" {
		response.RespondError(w, http.StatusBadRequest, "ticker is required", nil)
		return
	}
	if forecastID != "" {
		if err := validation.ValidateUUID(forecastID); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid forecast_id", err.Error())
			return
		}
	}

	eval, err := h.forecastService.EvaluateForecast(r.Context(), ticker, forecastID)
	if err != nil {
		respondServiceError(w, err, "failed to evaluate forecast")
		return
	}

	response.RespondSuccess(w, http.StatusOK, "", newForecastEvaluationResponse(eval))
}

// GetForecast handles GET requests for a forecast by ID.
//
// Endpoint: GET /api/forecast/{forecastId}
// Response: 200 OK with ForecastResponse
// Error: 400 Bad Request if the ID is not a UUID (validated by middleware)
// Error: 404 Not Found if the forecast does not exist
// Error: 500 Internal Server Error if retrieval fails
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	forecast, err := h.forecastService.GetForecast(r.Context(), chi.URLParam(r, "forecastId"))
	if err != nil {
		respondServiceError(w, err, "failed to retrieve forecast")
		return
	}

	response.RespondSuccess(w, http.StatusOK, "", newForecastResponse(forecast))
}
