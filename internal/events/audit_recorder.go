package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/lead-engine/internal/observability"
)

// Sink receives audit events for delivery to the audit collaborator.
// Storage of the record is explicitly outside this service.
type Sink interface {
	Record(ctx context.Context, event AuditEvent) error
}

// LoggingSink writes audit events to the structured log.
type LoggingSink struct {
	logger *zap.Logger
}

// NewLoggingSink constructs the sink.
func NewLoggingSink(logger *zap.Logger) *LoggingSink {
	return &LoggingSink{logger: logger}
}

// Record logs the event.
func (s *LoggingSink) Record(ctx context.Context, event AuditEvent) error {
	s.logger.Info("audit",
		zap.String("action", string(event.Action)),
		zap.String("actor_id", event.ActorID),
		zap.String("actor_name", event.ActorName),
		zap.String("target_id", event.TargetID),
		zap.String("target_type", event.TargetType),
		zap.Any("metadata", event.Metadata),
	)
	return nil
}

// AuditRecorder forwards published audit events to a sink and counts
// every recorded event.
type AuditRecorder struct {
	dispatcher Dispatcher
	sink       Sink
	metrics    *observability.Metrics
}

// NewAuditRecorder creates the recorder.
func NewAuditRecorder(dispatcher Dispatcher, sink Sink, metrics *observability.Metrics) *AuditRecorder {
	return &AuditRecorder{dispatcher: dispatcher, sink: sink, metrics: metrics}
}

// RegisterHandlers subscribes the sink to every auditable action.
func (r *AuditRecorder) RegisterHandlers() {
	if r.dispatcher == nil || r.sink == nil {
		return
	}
	actions := []Action{
		ActionUserCreated,
		ActionLeadCreated,
		ActionLeadAssigned,
		ActionLeadClosed,
		ActionLeadReopened,
		ActionBranchCascaded,
	}
	for _, action := range actions {
		r.dispatcher.Subscribe(action, r.record)
	}
}

func (r *AuditRecorder) record(ctx context.Context, event AuditEvent) error {
	r.metrics.RecordAuditEvent()
	return r.sink.Record(ctx, event)
}
