package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"doorstep/internal/domain"
)

// EventType doubles as the routing key of a lead event.
type EventType string

const (
	EventLeadCreated       EventType = "lead.created"
	EventLeadStatusChanged EventType = "lead.status_changed"
)

// LeadEvent is the message published on every lead change.
type LeadEvent struct {
	Type          EventType         `json:"type"`
	TrackingID    string            `json:"trackingId"`
	Status        domain.LeadStatus `json:"status"`
	Message       string            `json:"message,omitempty"`
	CustomerPhone string            `json:"customerPhone,omitempty"`
	City          string            `json:"city,omitempty"`
	ServiceID     string            `json:"serviceId,omitempty"`
	MechanicID    string            `json:"mechanicId,omitempty"`
	OccurredAt    time.Time         `json:"occurredAt"`
}

// Publisher delivers an encoded event.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.logger.Info("lead event", zap.String("routing_key", routingKey), zap.ByteString("body", body))
	return nil
}

// NotificationService emits lead events. Delivery failures are logged and
// never surface to the caller.
type NotificationService struct {
	publisher Publisher
	logger    *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(publisher Publisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{publisher: publisher, logger: logger}
}

// NotifyLeadCreated announces a new booking.
func (s *NotificationService) NotifyLeadCreated(ctx context.Context, lead *domain.Lead, message string) {
	s.send(ctx, LeadEvent{
		Type:          EventLeadCreated,
		TrackingID:    lead.TrackingID,
		Status:        lead.Status,
		Message:       message,
		CustomerPhone: lead.CustomerPhone,
		City:          lead.City,
		ServiceID:     lead.ServiceID,
		MechanicID:    lead.MechanicID,
		OccurredAt:    lead.CreatedAt,
	})
}

// NotifyStatusChanged announces a status change of a booking.
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, lead *domain.Lead, update *domain.StatusUpdate) {
	s.send(ctx, LeadEvent{
		Type:          EventLeadStatusChanged,
		TrackingID:    lead.TrackingID,
		Status:        update.Status,
		Message:       update.Message,
		CustomerPhone: lead.CustomerPhone,
		City:          lead.City,
		ServiceID:     lead.ServiceID,
		MechanicID:    lead.MechanicID,
		OccurredAt:    update.CreatedAt,
	})
}

func (s *NotificationService) send(ctx context.Context, event LeadEvent) {
	if s == nil || s.publisher == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("encode lead event", zap.String("tracking_id", event.TrackingID), zap.Error(err))
		return
	}

	if err := s.publisher.Publish(ctx, string(event.Type), body); err != nil {
		s.logger.Warn("publish lead event failed",
			zap.String("type", string(event.Type)),
			zap.String("tracking_id", event.TrackingID),
			zap.Error(err),
		)
	}
}
