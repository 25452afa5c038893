package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/catalog-api/internal/api/metrics"
	"github.com/99minutos/catalog-api/internal/core/domain"
	"github.com/99minutos/catalog-api/internal/core/ports"
)

const (
	defaultWorkers      = 4
	channelBuffer       = 256
	writeTimeout        = 5 * time.Second
	defaultDrainTimeout = 5 * time.Second
)

// Dispatcher routes product events to a fixed set of workers using consistent
// hashing on the product id, so events for one product are written in order.
type Dispatcher struct {
	workers []chan domain.ProductEvent
	repo    ports.EventRepository
	log     zerolog.Logger
	wg      sync.WaitGroup

	drainTimeout time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDrainTimeout bounds how long workers keep writing queued events after
// shutdown begins.
func WithDrainTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.drainTimeout = timeout }
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.EventRepository, log zerolog.Logger, opts ...Option) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.ProductEvent, numWorkers),
		repo:    repo,
		log:     log.With().Str("component", "audit_dispatcher").Logger(),

		drainTimeout: defaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ProductEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// drains its queue before returning; Wait blocks until all have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish hands event to the worker responsible for its product. It never
// blocks: when that worker's queue is full the event is dropped and logged.
func (d *Dispatcher) Publish(event domain.ProductEvent) {
	idx := d.shardIndex(event.ProductID)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("product_id", event.ProductID).
			Str("action", string(event.Action)).
			Int("worker_id", idx).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps a product id deterministically to a worker index.
func (d *Dispatcher) shardIndex(productID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(productID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ProductEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		if ctx.Err() != nil {
			d.drain(ctx, id, ch)
			return
		}
		select {
		case <-ctx.Done():
			d.drain(ctx, id, ch)
			return
		case event := <-ch:
			metrics.AuditQueueDepth.WithLabelValues(label).Dec()
			// An in-flight write outlives shutdown, up to writeTimeout.
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
			d.write(wctx, id, event)
			cancel()
		}
	}
}

// drain writes what is still queued once shutdown begins. Events left after
// the drain deadline are counted as dropped.
func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan domain.ProductEvent) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.drainTimeout)
	defer cancel()
	label := strconv.Itoa(id)

	var flushed, dropped int
	for {
		select {
		case event := <-ch:
			metrics.AuditQueueDepth.WithLabelValues(label).Dec()
			if dctx.Err() != nil {
				metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
				dropped++
				continue
			}
			d.write(dctx, id, event)
			flushed++
		default:
			if flushed+dropped > 0 {
				d.log.Info().
					Int("worker_id", id).
					Int("flushed", flushed).
					Int("dropped", dropped).
					Msg("audit queue drained")
			}
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, event domain.ProductEvent) {
	start := time.Now()
	err := d.repo.InsertEvent(ctx, event)
	metrics.AuditWriteDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AuditEventsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("product_id", event.ProductID).
			Str("action", string(event.Action)).
			Int("worker_id", id).
			Msg("audit event write failed")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues("written").Inc()
}
