package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/xaulosky/travel-suites-app/internal/api/middleware"
	"github.com/xaulosky/travel-suites-app/internal/calendar"
	"github.com/xaulosky/travel-suites-app/internal/upstream"
)

// ICalProxy fetches a feed on behalf of the browser, which cannot read the
// booking platforms' calendars cross-origin.
func ICalProxy(fetcher calendar.Fetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("url")
		if raw == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "URL parameter is required")
			return
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "URL must be an absolute http(s) URL")
			return
		}

		body, err := fetcher.Get(r.Context(), raw)
		if err != nil {
			logger := log.Ctx(r.Context())
			logger.Warn().Err(err).Str("host", u.Host).Msg("iCal proxy fetch failed")

			var ue *upstream.Error
			switch {
			case upstream.IsTimeout(err):
				middleware.WriteError(w, http.StatusGatewayTimeout, middleware.ErrTimeout, "Calendar request timed out")
			case errors.As(err, &ue) && ue.Kind == upstream.KindStatus:
				middleware.WriteError(w, ue.Status, middleware.ErrUpstreamStatus, "Calendar request failed: "+http.StatusText(ue.Status))
			default:
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Calendar request failed")
			}
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(body)
	}
}
