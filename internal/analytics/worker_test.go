package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/localmart/internal/discovery/domain"
)

func TestWorkerAggregatesTrending(t *testing.T) {
	w := NewWorker(nil, "discovery.searches", nil)

	for i := 0; i < 3; i++ {
		w.record(domain.SearchEvent{PostalCode: "90012", Coverage: "in_radius"})
	}
	w.record(domain.SearchEvent{PostalCode: "10001", Coverage: "in_radius"})
	w.record(domain.SearchEvent{PostalCode: "10001", Coverage: "nearest_fallback"})
	w.record(domain.SearchEvent{PostalCode: "60601", Coverage: "in_radius"})
	// Events without a postal code are counted but not trended.
	w.record(domain.SearchEvent{Coverage: "unfiltered"})

	top := w.Top(2)
	require.Len(t, top, 2)
	require.Equal(t, "90012", top[0].PostalCode)
	require.EqualValues(t, 3, top[0].Searches)
	require.Equal(t, "10001", top[1].PostalCode)
	require.EqualValues(t, 2, top[1].Searches)

	require.Len(t, w.Top(10), 3)
}

func TestWorkerTopTiesOrderedByPostalCode(t *testing.T) {
	w := NewWorker(nil, "discovery.searches", nil)
	w.record(domain.SearchEvent{PostalCode: "20002"})
	w.record(domain.SearchEvent{PostalCode: "10001"})

	top := w.Top(2)
	require.Equal(t, "10001", top[0].PostalCode)
	require.Equal(t, "20002", top[1].PostalCode)
}

func TestWorkerRunRequiresConnection(t *testing.T) {
	w := NewWorker(nil, "discovery.searches", nil)
	require.Error(t, w.Run(context.Background()))
}
