package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/trypzy/backend/internal/websocket"
)

// Sink receives rendered notifications.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

// HubSink posts notifications as system messages to the trip's websocket
// subscribers.
type HubSink struct {
	broadcaster *websocket.EventBroadcaster
}

// NewHubSink creates a new websocket sink.
func NewHubSink(broadcaster *websocket.EventBroadcaster) *HubSink {
	return &HubSink{broadcaster: broadcaster}
}

// Name implements Sink.
func (s *HubSink) Name() string { return "websocket" }

// Deliver implements Sink.
func (s *HubSink) Deliver(_ context.Context, n Notification) error {
	s.broadcaster.BroadcastScheduleEvent(websocket.MessageType(n.Event.Type), websocket.ScheduleEventPayload{
		EventID:   n.Event.ID,
		TripID:    n.Event.TripID,
		ActorID:   n.Payload.ActorID,
		Text:      n.Text,
		WindowIDs: n.Payload.WindowIDs,
		StartDate: n.Payload.StartDate,
		EndDate:   n.Payload.EndDate,
	})
	return nil
}

// LogSink writes notifications to the log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new log sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Deliver implements Sink.
func (s *LogSink) Deliver(_ context.Context, n Notification) error {
	s.logger.Info("schedule notification",
		zap.String("event_id", n.Event.ID),
		zap.String("trip_id", n.Event.TripID),
		zap.String("type", n.Event.Type),
		zap.String("text", n.Text),
	)
	return nil
}

// WebhookSink posts notifications to the chat service as JSON.
type WebhookSink struct {
	url        string
	httpClient *http.Client
}

// NewWebhookSink creates a new webhook sink.
func NewWebhookSink(url string, timeout time.Duration) *WebhookSink {
	return &WebhookSink{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// webhookBody is the JSON posted to the chat service.
type webhookBody struct {
	EventID   string    `json:"eventId"`
	TripID    string    `json:"tripId"`
	Type      string    `json:"type"`
	ActorID   string    `json:"actorId"`
	Text      string    `json:"text"`
	WindowIDs []string  `json:"windowIds,omitempty"`
	StartDate string    `json:"startDate,omitempty"`
	EndDate   string    `json:"endDate,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Name implements Sink.
func (s *WebhookSink) Name() string { return "webhook" }

// Deliver implements Sink.
func (s *WebhookSink) Deliver(ctx context.Context, n Notification) error {
	body, err := json.Marshal(webhookBody{
		EventID:   n.Event.ID,
		TripID:    n.Event.TripID,
		Type:      n.Event.Type,
		ActorID:   n.Payload.ActorID,
		Text:      n.Text,
		WindowIDs: n.Payload.WindowIDs,
		StartDate: n.Payload.StartDate,
		EndDate:   n.Payload.EndDate,
		CreatedAt: n.Event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", n.Event.ID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook error (status %d): %s", resp.StatusCode, respBody)
	}
	return nil
}
