package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventhub/auth-gateway/internal/core/domain"
	"github.com/eventhub/auth-gateway/internal/core/ports"
	"github.com/eventhub/auth-gateway/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher hands audit events to a fixed set of workers, sharded by
// subject so one principal's events are written in the order they happened.
// Enqueue never blocks: when a shard is full, or the dispatcher has stopped,
// the event is dropped.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	repo    ports.AuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup

	// mu guards stopped; Enqueue sends under the read lock so no event lands
	// in a channel after its worker has drained it.
	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		repo:    repo,
		log:     log.With().Str("component", "audit_dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their channel and stop
// when ctx is cancelled; Wait blocks until they have.
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

// Enqueue sends an event to the worker responsible for its subject.
func (d *Dispatcher) Enqueue(event domain.AuditEvent) {
	idx := d.shardIndex(event.Subject)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("kind", string(event.Kind)).
			Msg("audit dispatcher stopped, event dropped")
		return
	}

	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("kind", string(event.Kind)).
			Int("worker_id", idx).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps a subject deterministically to a worker index.
func (d *Dispatcher) shardIndex(subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subject))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.stop()
			d.drain(id, ch)
			return
		case event := <-ch:
			d.write(context.Background(), id, event)
		}
	}
}

func (d *Dispatcher) stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}

// drain flushes whatever is still buffered so shutdown does not lose events
// that were already accepted.
func (d *Dispatcher) drain(id int, ch <-chan domain.AuditEvent) {
	for {
		select {
		case event := <-ch:
			d.write(context.Background(), id, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(parent context.Context, id int, event domain.AuditEvent) {
	metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id)).Dec()

	ctx, cancel := context.WithTimeout(parent, writeTimeout)
	defer cancel()

	if err := d.repo.Insert(ctx, &event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("kind", string(event.Kind)).
			Str("event_id", event.ID).
			Int("worker_id", id).
			Msg("audit write failed")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues("stored").Inc()
}
