package websocket

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// EventBroadcaster turns domain results into WebSocket messages.
// A nil *EventBroadcaster is valid and drops everything.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	if hub == nil {
		return nil
	}
	return &EventBroadcaster{hub: hub}
}

// BroadcastCalendarSyncCompleted sends a calendar sync completed event.
func (b *EventBroadcaster) BroadcastCalendarSyncCompleted(result models.CalendarSyncResult, next *time.Time) {
	payload := CalendarSyncPayload{
		Status:      "success",
		Properties:  result.Properties,
		Loaded:      result.Loaded,
		Failed:      result.Failed,
		EventsFound: result.EventsFound,
		Duration:    result.Duration,
		NextSyncAt:  next,
	}
	if result.Failed > 0 {
		payload.Status = "partial"
	}

	b.broadcast(NewMessage(TypeCalendarSyncCompleted, payload))
}

// BroadcastCalendarSyncError sends a calendar sync error event.
func (b *EventBroadcaster) BroadcastCalendarSyncError(err error) {
	b.broadcast(NewMessage(TypeCalendarSyncError, CalendarSyncErrorPayload{
		Error:   "sync_error",
		Message: err.Error(),
	}))
}

// BroadcastCatalogRefreshed sends a catalog refreshed event.
func (b *EventBroadcaster) BroadcastCatalogRefreshed(properties int, degraded bool) {
	b.broadcast(NewMessage(TypeCatalogRefreshed, CatalogPayload{
		Properties: properties,
		Degraded:   degraded,
	}))
}

// BroadcastOrderCreated sends an order created event.
func (b *EventBroadcaster) BroadcastOrderCreated(p OrderPayload) {
	b.broadcast(NewMessage(TypeOrderCreated, p))
}

// BroadcastDailyReport sends the day's check-out summary.
func (b *EventBroadcaster) BroadcastDailyReport(p DailyReportPayload) {
	b.broadcast(NewMessage(TypeReportDaily, p))
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	b.broadcast(NewMessage(TypeNotification, NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}))
}

func (b *EventBroadcaster) broadcast(msg Message) {
	if b == nil {
		return
	}
	data, err := msg.JSON()
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("Error encoding WebSocket message")
		return
	}
	b.hub.Broadcast(data)
}
