package worker

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// GrantStore is the single remote operation the worker needs.
type GrantStore interface {
	GrantPublicRead(ctx context.Context, objectID string) error
}

type GrantWorkerConfig struct {
	Store        GrantStore
	Logger       *zap.Logger
	Failures     prometheus.Counter // optional
	QueueSize    int
	GrantTimeout time.Duration
}

// GrantWorker applies public-read grants detached from the request that
// created the object. Grants are fire-and-forget: failures are logged and
// counted, never reported to the uploader.
type GrantWorker struct {
	config *GrantWorkerConfig
	tasks  chan string
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewGrantWorker(config *GrantWorkerConfig) *GrantWorker {
	if config.QueueSize == 0 {
		config.QueueSize = 64
	}
	if config.GrantTimeout == 0 {
		config.GrantTimeout = 30 * time.Second
	}
	return &GrantWorker{
		config: config,
		tasks:  make(chan string, config.QueueSize),
		done:   make(chan struct{}),
	}
}

func (gw *GrantWorker) Start(ctx context.Context) {
	gw.wg.Add(1)
	go gw.run(ctx)
	gw.config.Logger.Info("grant worker started")
}

// Stop halts the worker and applies any grants still queued. Draining
// happens here, after the run loop has exited, so it works even when the
// startup context was already canceled.
func (gw *GrantWorker) Stop() {
	close(gw.done)
	gw.wg.Wait()
	gw.drain()
	gw.config.Logger.Info("grant worker stopped")
}

// Grant enqueues a public-read grant for objectID. When the queue is full the
// grant is dropped rather than blocking an upload response.
func (gw *GrantWorker) Grant(objectID string) {
	select {
	case gw.tasks <- objectID:
	default:
		gw.config.Logger.Warn("grant queue full, dropping public-read grant",
			zap.String("object_id", objectID))
		gw.countFailure()
	}
}

func (gw *GrantWorker) run(ctx context.Context) {
	defer gw.wg.Done()

	for {
		select {
		case <-gw.done:
			return
		case <-ctx.Done():
			return
		case objectID := <-gw.tasks:
			gw.grant(ctx, objectID)
		}
	}
}

// drain applies whatever was queued before Stop. The startup context may be
// gone by now, so queued grants run on a fresh one.
func (gw *GrantWorker) drain() {
	for {
		select {
		case objectID := <-gw.tasks:
			gw.grant(context.Background(), objectID)
		default:
			return
		}
	}
}

func (gw *GrantWorker) grant(ctx context.Context, objectID string) {
	ctx, cancel := context.WithTimeout(ctx, gw.config.GrantTimeout)
	defer cancel()

	if err := gw.config.Store.GrantPublicRead(ctx, objectID); err != nil {
		gw.config.Logger.Warn("public-read grant failed",
			zap.String("object_id", objectID), zap.Error(err))
		gw.countFailure()
	}
}

func (gw *GrantWorker) countFailure() {
	if gw.config.Failures != nil {
		gw.config.Failures.Inc()
	}
}
