package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/xaulosky/travel-suites-app/internal/api/middleware"
	"github.com/xaulosky/travel-suites-app/internal/catalog"
	"github.com/xaulosky/travel-suites-app/internal/dashboard"
	"github.com/xaulosky/travel-suites-app/internal/websocket"
)

// OrderRequest places an order for a session's current quote.
type OrderRequest struct {
	SessionID string          `json:"session_id"`
	Billing   catalog.Billing `json:"billing"`
	Note      string          `json:"note"`
}

// CreateOrder submits the session's quoted stay as a shop order. Sessions
// without a valid quote are rejected with 409.
func CreateOrder(store *dashboard.Store, orders OrderCreator, events *websocket.EventBroadcaster, phoneRegion string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		s, err := store.Get(req.SessionID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		state := s.State()
		if state.Property == nil || state.Quote == nil || state.QuoteError != "" {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, catalog.ErrNoQuote.Error())
			return
		}

		billing, err := req.Billing.Normalize(phoneRegion)
		if err != nil {
			writeErr(w, r, err)
			return
		}

		order, err := catalog.BuildOrder(*state.Property, state.Quote, billing, req.Note)
		if err != nil {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, err.Error())
			return
		}

		result, err := orders.CreateOrder(r.Context(), order)
		if err != nil {
			writeErr(w, r, err)
			return
		}

		log.Ctx(r.Context()).Info().
			Int64("order_id", result.ID).
			Str("property_id", state.PropertyID).
			Int("nights", state.Quote.Nights).
			Msg("Order created")

		events.BroadcastOrderCreated(websocket.OrderPayload{
			OrderID:    result.ID,
			PropertyID: state.PropertyID,
			CheckIn:    state.Quote.CheckIn,
			CheckOut:   state.Quote.CheckOut,
			Total:      state.Quote.FormattedTotal,
		})
		middleware.WriteJSON(w, http.StatusCreated, result)
	}
}
