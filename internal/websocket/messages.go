package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeCalendarSyncCompleted MessageType = "calendar.sync_completed"
	TypeCalendarSyncError     MessageType = "calendar.sync_error"
	TypeCatalogRefreshed      MessageType = "catalog.refreshed"
	TypeOrderCreated          MessageType = "order.created"
	TypeReportDaily           MessageType = "report.daily"
	TypeNotification          MessageType = "notification"

	// Client -> Server
	TypePing MessageType = "ping"

	// Server -> Client responses
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// CalendarSyncPayload is the payload for calendar.sync_completed events.
type CalendarSyncPayload struct {
	Status      string     `json:"status"`
	Properties  int        `json:"properties"`
	Loaded      int        `json:"loaded"`
	Failed      int        `json:"failed"`
	EventsFound int        `json:"events_found"`
	Duration    string     `json:"duration"`
	NextSyncAt  *time.Time `json:"next_sync_at,omitempty"`
}

// CalendarSyncErrorPayload is the payload for calendar.sync_error events.
type CalendarSyncErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CatalogPayload is the payload for catalog.refreshed events.
type CatalogPayload struct {
	Properties int  `json:"properties"`
	Degraded   bool `json:"degraded"`
}

// OrderPayload is the payload for order.created events.
type OrderPayload struct {
	OrderID    int64  `json:"order_id"`
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Total      string `json:"total"`
}

// DailyReportPayload is the payload for report.daily events.
type DailyReportPayload struct {
	Date        string   `json:"date"`
	Checkouts   int      `json:"checkouts"`
	BackToBack  int      `json:"back_to_back"`
	Departments []string `json:"departments"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
