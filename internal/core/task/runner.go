// Package task 提供后台任务的显式派发：有界并发、单任务超时、panic 兜底。
// 任务不落盘，进程退出时未完成的任务直接放弃。
package task

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"storeapi/internal/core/metrics"
)

var (
	ErrPanic   = errors.New("task panicked")
	ErrStopped = errors.New("runner is shutting down")
)

type Func func(ctx context.Context) error

type Options struct {
	MaxInFlight int64         // <=0 时取 16
	Timeout     time.Duration // <=0 表示不设单任务超时
}

type Runner struct {
	log     *zap.Logger
	sem     *semaphore.Weighted
	timeout time.Duration

	base   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func NewRunner(l *zap.Logger, o Options) *Runner {
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = 16
	}
	// 与请求生命周期脱钩
	base, cancel := context.WithCancel(context.Background())
	return &Runner{
		log:     l.Named("task"),
		sem:     semaphore.NewWeighted(o.MaxInFlight),
		timeout: o.Timeout,
		base:    base,
		cancel:  cancel,
	}
}

// Go 立即返回，fn 在独立 goroutine 中执行；fn 的错误只记日志和指标。
func (r *Runner) Go(name string, fn Func) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		metrics.TasksTotal.WithLabelValues(name, "dropped").Inc()
		r.log.Warn("task dropped", zap.String("task", name))
		return ErrStopped
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(name, fn)
	return nil
}

func (r *Runner) run(name string, fn Func) {
	defer r.wg.Done()

	if err := r.sem.Acquire(r.base, 1); err != nil {
		metrics.TasksTotal.WithLabelValues(name, "abandoned").Inc()
		r.log.Warn("task abandoned before start", zap.String("task", name))
		return
	}
	defer r.sem.Release(1)

	ctx, cancel := r.base, context.CancelFunc(func() {})
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(r.base, r.timeout)
	}
	defer cancel()

	metrics.TasksInFlight.Inc()
	start := time.Now()
	err := call(ctx, fn)
	elapsed := time.Since(start)
	metrics.TasksInFlight.Dec()
	metrics.TaskDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	switch {
	case err == nil:
		metrics.TasksTotal.WithLabelValues(name, "ok").Inc()
		r.log.Debug("task done", zap.String("task", name), zap.Duration("took", elapsed))
	case errors.Is(err, ErrPanic):
		metrics.TasksTotal.WithLabelValues(name, "panic").Inc()
		r.log.Error("task panicked", zap.String("task", name), zap.Error(err))
	default:
		metrics.TasksTotal.WithLabelValues(name, "error").Inc()
		r.log.Warn("task failed", zap.String("task", name), zap.Duration("took", elapsed), zap.Error(err))
	}
}

func call(ctx context.Context, fn Func) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, rec, debug.Stack())
		}
	}()
	return fn(ctx)
}

// Wait 阻塞直到当前已派发的任务全部结束（测试里用来 flush）
func (r *Runner) Wait() { r.wg.Wait() }

// Shutdown 拒绝新任务并等待在途任务；ctx 到期后取消剩余任务并返回 ctx.Err()。
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		return ctx.Err()
	}
}

// Spawner 是业务层依赖的最小接口
type Spawner interface {
	Go(name string, fn Func) error
}

var _ Spawner = (*Runner)(nil)
