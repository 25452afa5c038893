package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/catalog-api/internal/api/metrics"
	"github.com/99minutos/catalog-api/internal/core/domain"
)

type recordingRepo struct {
	mu       sync.Mutex
	events   []domain.ProductEvent
	attempts int
	failN    int // the first failN writes fail
	block    chan struct{}
}

func (r *recordingRepo) InsertEvent(ctx context.Context, e domain.ProductEvent) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.attempts <= r.failN {
		return errors.New("write failed")
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingRepo) snapshot() []domain.ProductEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ProductEvent(nil), r.events...)
}

func TestDispatcher_PreservesPerProductOrder(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	actions := []domain.ProductAction{domain.ActionCreated, domain.ActionUpdated, domain.ActionUpdated, domain.ActionDeleted}
	for p := 0; p < 10; p++ {
		for _, a := range actions {
			d.Publish(domain.ProductEvent{ProductID: fmt.Sprintf("p-%d", p), Action: a})
		}
	}

	require.Eventually(t, func() bool { return len(repo.snapshot()) == 40 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	d.Wait()

	perProduct := map[string][]domain.ProductAction{}
	for _, e := range repo.snapshot() {
		perProduct[e.ProductID] = append(perProduct[e.ProductID], e.Action)
	}
	for id, got := range perProduct {
		assert.Equal(t, actions, got, "order for %s", id)
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingRepo{}, zerolog.Nop())
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("product-%d", i)
		idx := d.shardIndex(id)
		assert.Equal(t, idx, d.shardIndex(id))
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 8)
	}
}

func TestDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, &recordingRepo{}, zerolog.Nop())
	assert.Len(t, d.workers, defaultWorkers)
}

func TestDispatcher_PublishNeverBlocks(t *testing.T) {
	repo := &recordingRepo{block: make(chan struct{})}
	d := NewDispatcher(1, repo, zerolog.Nop(), WithDrainTimeout(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer*2; i++ {
			d.Publish(domain.ProductEvent{ProductID: "same", Action: domain.ActionUpdated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full queue")
	}

	close(repo.block)
	cancel()
	d.Wait()
}

func TestDispatcher_WriteFailureKeepsWorkerAlive(t *testing.T) {
	repo := &recordingRepo{failN: 1}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Publish(domain.ProductEvent{ProductID: "a", Action: domain.ActionCreated})
	d.Publish(domain.ProductEvent{ProductID: "a", Action: domain.ActionDeleted})
	require.Eventually(t, func() bool { return len(repo.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.ActionDeleted, repo.snapshot()[0].Action)

	cancel()
	d.Wait()
}

func metricValue(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return out.Gauge.GetValue()
}

func TestDispatcher_ShutdownDrainsQueuedEvents(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())
	depth := metrics.AuditQueueDepth.WithLabelValues("0")
	depthBefore := metricValue(t, depth)

	for i := 0; i < 20; i++ {
		d.Publish(domain.ProductEvent{ProductID: fmt.Sprintf("p-%d", i), Action: domain.ActionCreated})
	}

	// Workers see an already cancelled context and must still flush.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	assert.Len(t, repo.snapshot(), 20)
	assert.Equal(t, depthBefore, metricValue(t, depth))
}

func TestDispatcher_ShutdownPastDeadlineCountsDropped(t *testing.T) {
	repo := &recordingRepo{block: make(chan struct{})}
	d := NewDispatcher(1, repo, zerolog.Nop(), WithDrainTimeout(20*time.Millisecond))
	dropped := metrics.AuditEventsTotal.WithLabelValues("dropped")
	failed := metrics.AuditEventsTotal.WithLabelValues("failed")
	depth := metrics.AuditQueueDepth.WithLabelValues("0")
	droppedBefore, failedBefore, depthBefore := metricValue(t, dropped), metricValue(t, failed), metricValue(t, depth)

	for i := 0; i < 5; i++ {
		d.Publish(domain.ProductEvent{ProductID: "p", Action: domain.ActionUpdated})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	// The first write blocks until the drain deadline; the rest are dropped.
	assert.Equal(t, failedBefore+1, metricValue(t, failed))
	assert.Equal(t, droppedBefore+4, metricValue(t, dropped))
	assert.Equal(t, depthBefore, metricValue(t, depth))
	assert.Empty(t, repo.snapshot())
}
