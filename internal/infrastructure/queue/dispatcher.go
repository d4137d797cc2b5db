package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/api/metrics"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher deletes orphaned blobs in the background. Jobs are routed to a
// fixed set of workers by hashing the owner id, so deletions for one account
// run in order.
type Dispatcher struct {
	workers []chan ports.BlobCleanupJob
	blobs   ports.BlobStore
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, blobs ports.BlobStore, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.BlobCleanupJob, numWorkers),
		blobs:   blobs,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.BlobCleanupJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
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

// Enqueue hands a job to the worker responsible for its owner. It never
// blocks: when that worker's buffer is full the job is dropped and the file is
// left on disk.
func (d *Dispatcher) Enqueue(job ports.BlobCleanupJob) {
	idx := d.shardIndex(job.OwnerID)
	select {
	case d.workers[idx] <- job:
		metrics.CleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.CleanupTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("owner_id", job.OwnerID).
			Str("url", job.URL).
			Int("worker_id", idx).
			Msg("blob cleanup queue full, job dropped")
	}
}

// shardIndex maps an owner id deterministically to a worker index.
func (d *Dispatcher) shardIndex(ownerID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ownerID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.BlobCleanupJob) {
	defer d.wg.Done()
	depth := metrics.CleanupQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			if err := d.blobs.Delete(ctx, job.URL); err != nil {
				metrics.CleanupTotal.WithLabelValues("failed").Inc()
				d.log.Error().Err(err).
					Str("owner_id", job.OwnerID).
					Str("url", job.URL).
					Int("worker_id", id).
					Msg("blob cleanup failed")
				continue
			}
			metrics.CleanupTotal.WithLabelValues("deleted").Inc()
			d.log.Debug().Str("url", job.URL).Int("worker_id", id).Msg("blob deleted")
		}
	}
}
