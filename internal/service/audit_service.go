package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/hospital-records/internal/events"
)

// AuditService writes an audit log line for every authentication event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventPrincipalRegistered, a.record)
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.record)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.record)
	a.dispatcher.Subscribe(events.EventRequestRejected, a.record)
}

func (a *AuditService) record(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("subject", event.Subject),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("payload", event.Payload),
	)
	return nil
}
