package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/example/localmart/internal/discovery/domain"
	"github.com/example/localmart/internal/discovery/handler"
)

var (
	searchesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_events_total",
		Help: "Total search events recorded grouped by coverage.",
	}, []string{"coverage"})
	trackedPostalCodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "search_postal_codes_tracked",
		Help: "Distinct postal codes seen in search events.",
	})
)

// Worker subscribes to search events and aggregates per-postal-code counts
// for the trending endpoint. Aggregation is in memory; counts reset on
// restart, which is acceptable for a presentation-only signal.
type Worker struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
	tracer  trace.Tracer

	mu     sync.RWMutex
	counts map[string]int64
}

// NewWorker constructs the aggregator.
func NewWorker(conn *nats.Conn, subject string, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		conn:    conn,
		subject: subject,
		logger:  logger,
		tracer:  otel.Tracer("discovery.analytics.worker"),
		counts:  make(map[string]int64),
	}
}

// Run subscribes and blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.conn == nil {
		return errors.New("analytics worker requires a NATS connection")
	}

	sub, err := w.conn.Subscribe(w.subject, func(msg *nats.Msg) {
		_, span := w.tracer.Start(ctx, "analytics.record")
		defer span.End()

		var event domain.SearchEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			w.logger.Warn("malformed search event", zap.Error(err))
			return
		}
		w.record(event)
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := sub.Drain(); err != nil {
			w.logger.Warn("drain subscription", zap.Error(err))
		}
	}()

	w.logger.Info("analytics worker running", zap.String("subject", w.subject))
	<-ctx.Done()
	return ctx.Err()
}

func (w *Worker) record(event domain.SearchEvent) {
	searchesRecorded.WithLabelValues(event.Coverage).Inc()
	if event.PostalCode == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.counts[event.PostalCode]++
	trackedPostalCodes.Set(float64(len(w.counts)))
}

// Top returns the n most searched postal codes, most searched first.
// It satisfies handler.TrendingSource.
func (w *Worker) Top(n int) []handler.TrendingLocation {
	w.mu.RLock()
	out := make([]handler.TrendingLocation, 0, len(w.counts))
	for code, count := range w.counts {
		out = append(out, handler.TrendingLocation{PostalCode: code, Searches: count})
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Searches != out[j].Searches {
			return out[i].Searches > out[j].Searches
		}
		return out[i].PostalCode < out[j].PostalCode
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
