package constructorio

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/constructorio-go/internal/metrics"
)

var (
	errDispatcherClosed = errors.New("beacon dispatcher closed")
	errQueueFull        = errors.New("beacon queue full")
)

// job is one unit of background work: a tracking beacon or a host
// notification.
type job struct {
	event string
	run   func(ctx context.Context)
}

// accounting records queue movement and drops for one kind of job.
type accounting struct {
	kind    string
	queued  func(delta float64)
	dropped func(j job)
}

// beaconAccounting feeds the beacon queue gauge and drop counters.
var beaconAccounting = accounting{
	kind:   "tracking event",
	queued: metrics.BeaconQueueDepth.Add,
	dropped: func(j job) {
		metrics.BeaconsDroppedTotal.Inc()
		metrics.BeaconsTotal.WithLabelValues(j.event, metrics.OutcomeDropped).Inc()
	},
}

// notificationAccounting keeps host notifications out of the beacon metrics.
var notificationAccounting = accounting{
	kind:    "host notification",
	queued:  func(float64) {},
	dropped: func(job) { metrics.NotificationsDroppedTotal.Inc() },
}

// dispatcher runs jobs on a fixed worker group fed by a bounded queue. A
// full queue drops the job instead of blocking the caller.
type dispatcher struct {
	queue  chan job
	group  errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger
	acct   accounting

	mu     sync.RWMutex
	closed bool
}

func newDispatcher(workers, queueSize int, log *slog.Logger) *dispatcher {
	return newDispatcherWith(beaconAccounting, workers, queueSize, log)
}

func newDispatcherWith(acct accounting, workers, queueSize int, log *slog.Logger) *dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &dispatcher{
		queue:  make(chan job, queueSize),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
		acct:   acct,
	}
	for range workers {
		d.group.Go(d.work)
	}
	return d
}

func (d *dispatcher) work() error {
	for j := range d.queue {
		d.acct.queued(-1)
		j.run(d.ctx)
	}
	return nil
}

// enqueue hands j to the workers. It never blocks.
func (d *dispatcher) enqueue(j job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(j, "closed")
		return errDispatcherClosed
	}

	select {
	case d.queue <- j:
		d.acct.queued(1)
		return nil
	default:
		d.drop(j, "queue full")
		return errQueueFull
	}
}

func (d *dispatcher) drop(j job, reason string) {
	d.acct.dropped(j)
	d.log.Warn("dropping "+d.acct.kind, "event", j.event, "reason", reason)
}

// close stops intake and waits for queued jobs to finish. When ctx ends
// first, in-flight requests are canceled and the remaining jobs run
// against a canceled context before close returns ctx.Err().
func (d *dispatcher) close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.group.Wait() //nolint:errcheck // workers never fail
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
