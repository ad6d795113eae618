package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"equiprent-backend/internal/logger"
)

const (
	EventRentalCreated   = "rental_created"
	EventRentalReturned  = "rental_returned"
	EventRentalCancelled = "rental_cancelled"
	EventRentalOverdue   = "rental_overdue"
	EventRepairOpened    = "repair_opened"
	EventRepairChanged   = "repair_status_changed"
)

// RentalEventPayload is the rental snapshot handed to subscribers after commit.
type RentalEventPayload struct {
	RentalID     int64     `json:"rental_id"`
	ClientID     int64     `json:"user_id"`
	From         string    `json:"from,omitempty"`
	To           string    `json:"to"`
	EquipmentIDs []int64   `json:"equipment_ids"`
	At           time.Time `json:"at"`
}

type RepairEventPayload struct {
	RepairID    int64     `json:"repair_id"`
	EquipmentID int64     `json:"equipment_id"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to"`
	At          time.Time `json:"at"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the JSON payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Handler reacts to an event.
type Handler func(ctx context.Context, event *Event) error

// Bus provides in-process pub/sub. Handlers run synchronously in
// subscription order; a failing handler is logged and does not stop the others.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for one or more event types.
func (b *Bus) Subscribe(handler Handler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range eventTypes {
		b.subscribers[t] = append(b.subscribers[t], handler)
	}
}

// Publish notifies subscribers of the event type and returns how many handlers failed.
func (b *Bus) Publish(ctx context.Context, event *Event) int {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	failed := 0
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			failed++
			logger.ErrorContext(ctx, "Event handler failed", "type", event.Type, "error", err)
		}
	}
	return failed
}

// PublishJSON serializes the payload and publishes an event. A nil bus is a no-op.
func (b *Bus) PublishJSON(ctx context.Context, eventType string, payload any) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(ctx, &Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
