// Package workerpool 提供有界并发的后台任务池
// 任务先进入有界队列，由调度协程按信号量限额派发执行
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrPoolBusy 任务队列已满时返回
	ErrPoolBusy = errors.New("workerpool: queue is full")
	// ErrPoolClosed 任务池已关闭时返回
	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

// Config 任务池配置
type Config struct {
	// MaxWorkers 同时执行的任务上限，默认 100
	MaxWorkers int
	// QueueSize 等待队列容量，默认 1000
	QueueSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxWorkers: 100,
		QueueSize:  1000,
	}
}

// job 一次待执行的任务
// done 为 nil 时表示异步提交，执行结果只记日志
type job struct {
	ctx  context.Context
	run  func(context.Context) error
	done chan error
}

// Pool 有界并发任务池
type Pool struct {
	cfg    Config
	logger *zap.Logger

	jobs chan job
	sem  chan struct{}

	closing  chan struct{}
	closed   atomic.Bool
	inflight sync.WaitGroup
	dispatch sync.WaitGroup
}

// New 创建任务池并启动调度协程
// cfg 为 nil 或字段非法时落到默认值，logger 为 nil 时丢弃日志
func New(cfg *Config, logger *zap.Logger) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.MaxWorkers > 0 {
			c.MaxWorkers = cfg.MaxWorkers
		}
		if cfg.QueueSize > 0 {
			c.QueueSize = cfg.QueueSize
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		cfg:     c,
		logger:  logger,
		jobs:    make(chan job, c.QueueSize),
		sem:     make(chan struct{}, c.MaxWorkers),
		closing: make(chan struct{}),
	}

	p.dispatch.Add(1)
	go p.dispatchLoop()

	p.logger.Info("worker pool started",
		zap.Int("maxWorkers", c.MaxWorkers),
		zap.Int("queueSize", c.QueueSize))

	return p
}

// dispatchLoop 将队列中的任务按信号量限额派发到独立协程
func (p *Pool) dispatchLoop() {
	defer p.dispatch.Done()

	for {
		select {
		case <-p.closing:
			// 关闭后把队列里剩余的任务跑完再退出
			for {
				select {
				case j := <-p.jobs:
					p.launch(j)
				default:
					return
				}
			}
		case j := <-p.jobs:
			p.launch(j)
		}
	}
}

// launch 占用一个执行名额并启动任务协程
func (p *Pool) launch(j job) {
	p.sem <- struct{}{}
	p.inflight.Add(1)
	go func() {
		defer func() {
			<-p.sem
			p.inflight.Done()
		}()
		p.execute(j)
	}()
}

// execute 执行单个任务，提交方已取消时直接交回取消错误
func (p *Pool) execute(j job) {
	var err error
	select {
	case <-j.ctx.Done():
		err = j.ctx.Err()
	default:
		err = j.run(j.ctx)
	}

	if j.done == nil {
		if err != nil {
			p.logger.Warn("async task failed", zap.Error(err))
		}
		return
	}
	j.done <- err
}

// enqueue 尝试把任务放入等待队列
func (p *Pool) enqueue(j job) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- j:
		return nil
	default:
		return ErrPoolBusy
	}
}

// Submit 提交任务并等待执行结果
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)
	if err := p.enqueue(job{ctx: ctx, run: fn, done: done}); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitAsync 异步提交任务，不等待结果，失败只记日志
func (p *Pool) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	return p.enqueue(job{ctx: ctx, run: fn})
}

// Waiting 返回等待队列中的任务数
func (p *Pool) Waiting() int {
	return len(p.jobs)
}

// Running 返回正在执行的任务数
func (p *Pool) Running() int {
	return len(p.sem)
}

// Shutdown 停止接收新任务并等待已有任务执行完
// ctx 控制等待上限，超时返回 ctx 的错误
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	p.logger.Info("worker pool shutting down",
		zap.Int("waiting", p.Waiting()),
		zap.Int("running", p.Running()))

	close(p.closing)

	done := make(chan struct{})
	go func() {
		p.dispatch.Wait()
		p.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out")
		return ctx.Err()
	}
}
