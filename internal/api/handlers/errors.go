package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/xaulosky/travel-suites-app/internal/api/middleware"
	"github.com/xaulosky/travel-suites-app/internal/catalog"
	"github.com/xaulosky/travel-suites-app/internal/dashboard"
	"github.com/xaulosky/travel-suites-app/internal/quote"
	"github.com/xaulosky/travel-suites-app/internal/travelsuites"
	"github.com/xaulosky/travel-suites-app/internal/upstream"
)

// writeErr maps a domain error onto the API error envelope.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *quote.ValidationError
		de  *dashboard.DateError
		be  *catalog.BillingError
		ue  *upstream.Error
		msg = err.Error()
	)

	switch {
	case errors.As(err, &ve):
		middleware.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, middleware.ErrValidation, ve.Error(), ve)
	case errors.As(err, &de):
		middleware.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, middleware.ErrValidation, de.Error(),
			map[string]string{"date": de.Date, "reason": de.Reason})
	case errors.As(err, &be):
		middleware.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, middleware.ErrValidation, be.Error(), be)
	case errors.Is(err, dashboard.ErrInvalidGuests):
		middleware.WriteError(w, http.StatusUnprocessableEntity, middleware.ErrValidation, msg)

	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, dashboard.ErrSessionNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, msg)
	case errors.Is(err, travelsuites.ErrUnknownEndpoint):
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, msg)
	case errors.Is(err, dashboard.ErrNoProperty), errors.Is(err, dashboard.ErrLoading), errors.Is(err, catalog.ErrNoQuote):
		middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, msg)

	case errors.Is(err, upstream.ErrNotConfigured):
		middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrNotConfigured, msg)
	case upstream.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		middleware.WriteError(w, http.StatusGatewayTimeout, middleware.ErrTimeout, msg)
	case errors.As(err, &ue):
		if ue.Kind == upstream.KindStatus && ue.Message != "" {
			msg = ue.Message
		}
		log.Ctx(r.Context()).Warn().Err(err).Str("source", ue.Source).Msg("Upstream request failed")
		middleware.WriteError(w, http.StatusBadGateway, middleware.ErrBadGateway, msg)

	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "An unexpected error occurred")
	}
}
