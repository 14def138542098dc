package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/localmart/internal/discovery/domain"
)

// DefaultSubject is the NATS subject search events are published on.
const DefaultSubject = "discovery.searches"

// Publisher writes search events to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher builds a Publisher using the provided NATS connection. A nil
// connection yields a no-op publisher so local setups run without NATS.
func NewPublisher(conn *nats.Conn, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: conn, subject: subject}
}

// Publish satisfies domain.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, event domain.SearchEvent) error {
	if p == nil || p.conn == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.conn.PublishMsg(&nats.Msg{Subject: p.subject, Data: payload, Header: map[string][]string{
		"x-trace-id": {traceIDFromContext(ctx)},
		"x-coverage": {event.Coverage},
	}})
}

func traceIDFromContext(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	sc := span.SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
