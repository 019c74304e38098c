// Package worker provides goroutine pool management.
//
// Request fan-out (bulk import rows) and detached background work both go
// through ants pools so concurrency stays bounded and panics are recovered.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// ErrTaskPanicked marks a ForEach slot whose function panicked.
var ErrTaskPanicked = errors.New("task panicked")

// Task is a context-aware task function.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission.
type Pool struct {
	pool *ants.Pool
	name string
}

// Pools is the worker pool collection.
type Pools struct {
	// Import runs per-row bulk import attempts.
	Import *Pool
	// Background runs detached bookkeeping tasks.
	Background *Pool

	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

// PoolConfig contains worker pool configuration.
type PoolConfig struct {
	ImportPoolSize     int
	BackgroundPoolSize int
}

// DefaultPoolConfig returns default configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		ImportPoolSize:     16,
		BackgroundPoolSize: 8,
	}
}

// NewPool creates a single named pool.
func NewPool(name string, size int) (*Pool, error) {
	p, err := ants.NewPool(size,
		ants.WithPanicHandler(func(v interface{}) {
			logger.Error("Worker panic recovered",
				zap.String("pool", name),
				zap.Any("panic", v),
				zap.Stack("stack"),
			)
		}),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Pool{pool: p, name: name}, nil
}

// NewPools creates the worker pool collection.
func NewPools(ctx context.Context, cfg PoolConfig) (*Pools, error) {
	serviceCtx, serviceCancel := context.WithCancel(ctx)

	importPool, err := NewPool("import", cfg.ImportPoolSize)
	if err != nil {
		serviceCancel()
		return nil, err
	}
	background, err := NewPool("background", cfg.BackgroundPoolSize)
	if err != nil {
		importPool.Release()
		serviceCancel()
		return nil, err
	}

	return &Pools{
		Import:        importPool,
		Background:    background,
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}, nil
}

// Submit submits a context-aware task.
// If ctx is already cancelled, returns ctx.Err() without submitting; a task
// dequeued after cancellation is skipped.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := p.pool.Submit(func() {
		if ctx.Err() != nil {
			logger.Debug("Task skipped: context cancelled",
				zap.String("pool", p.name),
				zap.Error(ctx.Err()),
			)
			return
		}
		task(ctx)
	})
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// ForEach runs fn for every index in [0, n) on the pool and waits for all of
// them. The returned slice holds fn's error per index; indexes that never ran
// because ctx was cancelled or the pool refused them carry that error instead,
// and an index whose fn panicked carries ErrTaskPanicked.
func (p *Pool) ForEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		wg.Add(1)
		idx := i
		err := p.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("ForEach task panicked",
						zap.String("pool", p.name),
						zap.Int("index", idx),
						zap.Any("panic", r),
					)
					errs[idx] = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
				}
			}()
			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}
			errs[idx] = fn(ctx, idx)
		})
		if err != nil {
			wg.Done()
			if errors.Is(err, ants.ErrPoolClosed) {
				err = ErrPoolClosed
			}
			errs[idx] = err
		}
	}

	wg.Wait()
	return errs
}

// Release closes the pool without waiting.
func (p *Pool) Release() {
	p.pool.Release()
}

// SubmitDetached submits a task bound to the service lifecycle context
// instead of a request context. It survives request cancellation but stops
// at shutdown.
func (p *Pools) SubmitDetached(task Task) error {
	return p.Background.Submit(p.serviceCtx, task)
}

// Shutdown cancels detached work and waits for running tasks (max 30s per pool).
func (p *Pools) Shutdown() {
	p.serviceCancel()

	const shutdownTimeout = 30 * time.Second
	for _, pool := range []*Pool{p.Import, p.Background} {
		if err := pool.pool.ReleaseTimeout(shutdownTimeout); err != nil {
			logger.Warn("Pool shutdown timeout", zap.String("pool", pool.name), zap.Error(err))
		}
	}
}

// Metrics returns pool occupancy for the readiness endpoint.
func (p *Pools) Metrics() map[string]interface{} {
	out := make(map[string]interface{}, 2)
	for _, pool := range []*Pool{p.Import, p.Background} {
		out[pool.name] = map[string]int{
			"running": pool.pool.Running(),
			"free":    pool.pool.Free(),
			"cap":     pool.pool.Cap(),
		}
	}
	return out
}
