package events

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/lead-engine/internal/observability"
)

type captureSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *captureSink) Record(ctx context.Context, event AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func TestAuditRecorder_CountsRecordedEvents(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	sink := &captureSink{}
	metrics := observability.NewMetrics()

	recorder := NewAuditRecorder(dispatcher, sink, metrics)
	recorder.RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, AuditEvent{ID: "e1", Action: ActionLeadCreated}))
	require.NoError(t, dispatcher.Publish(ctx, AuditEvent{ID: "e2", Action: ActionBranchCascaded}))

	require.Len(t, sink.events, 2)
	require.Equal(t, int64(2), metrics.AuditEvents())
}

func TestAuditRecorder_UnknownActionNotRecorded(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	sink := &captureSink{}
	metrics := observability.NewMetrics()

	recorder := NewAuditRecorder(dispatcher, sink, metrics)
	recorder.RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), AuditEvent{ID: "e1", Action: Action("something.else")}))

	require.Empty(t, sink.events)
	require.Zero(t, metrics.AuditEvents())
}

func TestAuditRecorder_NilMetricsTolerated(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	sink := &captureSink{}

	recorder := NewAuditRecorder(dispatcher, sink, nil)
	recorder.RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), AuditEvent{ID: "e1", Action: ActionUserCreated}))
	require.Len(t, sink.events, 1)
}
