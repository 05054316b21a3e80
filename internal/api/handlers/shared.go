package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/api/response"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/validation"
)

// maxBodyBytes bounds request bodies; a forecast with the maximum number of points fits comfortably.
const maxBodyBytes = 1 << 20

// parseJSON decodes the request body into T. Unknown fields are rejected.
// An empty body decodes to the zero value when allowEmpty is set.
func parseJSON[T any](r *http.Request, allowEmpty bool) (T, error) {
	var v T

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return v, nil
		}
		if errors.Is(err, io.EOF) {
			return v, errors.New("request body is empty")
		}
		return v, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}

// portfolioIDParam reads the optional portfolio_id query parameter.
func portfolioIDParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("portfolio_id"))
}

// respondServiceError maps a service error onto the response envelope.
//
//   - validation.Error: 400 with the field errors as details
//   - ErrForecastNotFound: 404
//   - other business rule rejections: 400 with the rejection message
//   - anything else: 500 with failure as message
func respondServiceError(w http.ResponseWriter, err error, failure string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, apperrors.ErrForecastNotFound):
		response.RespondError(w, http.StatusNotFound, err.Error(), nil)
	case apperrors.IsBusinessRule(err):
		response.RespondError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		response.RespondError(w, http.StatusInternalServerError, failure, err.Error())
	}
}
