package handlers

import (
	"errors"
	"net/http"

	"github.com/xaulosky/travel-suites-app/internal/api/middleware"
	"github.com/xaulosky/travel-suites-app/internal/upstream"
)

// Bookings forwards ?endpoint= and the remaining query parameters to the
// bookings API and returns its JSON unchanged. Upstream error statuses are
// passed through.
func Bookings(api BookingsAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		endpoint := q.Get("endpoint")
		if endpoint == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "endpoint parameter is required")
			return
		}
		q.Del("endpoint")

		body, err := api.Raw(r.Context(), endpoint, q)
		if err != nil {
			var ue *upstream.Error
			if errors.As(err, &ue) && ue.Kind == upstream.KindStatus {
				msg := ue.Message
				if msg == "" {
					msg = http.StatusText(ue.Status)
				}
				middleware.WriteError(w, ue.Status, middleware.ErrUpstreamStatus, msg)
				return
			}
			writeErr(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}
