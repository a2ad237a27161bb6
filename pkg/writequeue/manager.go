// Package writequeue 按用户串行化数据库写操作
// SQLite 单写者模型下，同一用户的并发写如果直接落库会触发
// "database is locked"；这里为每个用户维护一条写通道（lane），
// 写操作在调用方协程上按 FIFO 依次获得通道令牌后执行
package writequeue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull 同一用户排队等待的写操作超过容量时返回
	ErrWriteQueueFull = errors.New("writequeue: too many pending writes for user")
	// ErrWriteQueueClosed 管理器已关闭时返回
	ErrWriteQueueClosed = errors.New("writequeue: manager is closed")
	// ErrWriteTimeout 等待执行超时时返回
	ErrWriteTimeout = errors.New("writequeue: write wait timed out")
)

// Config 写队列配置
type Config struct {
	// QueueCapacity 每用户允许排队的写操作上限，默认 100
	QueueCapacity int
	// WriteTimeout 单次写操作从提交到获得执行权的等待上限，默认 30 秒
	WriteTimeout time.Duration
	// IdleTimeout 空闲通道的回收阈值，默认 10 分钟
	IdleTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

// lane 单个用户的写通道
// token 容量为 1，持有令牌者获得执行权，其余写操作排队等待
type lane struct {
	token   chan struct{}
	waiting int
	lastUse time.Time
}

func newLane() *lane {
	l := &lane{token: make(chan struct{}, 1)}
	l.token <- struct{}{}
	return l
}

// Manager 管理全部用户的写通道
type Manager struct {
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	lanes  map[int64]*lane
	closed bool

	inflight    sync.WaitGroup
	janitorStop chan struct{}
	janitorDone chan struct{}
}

// New 创建写队列管理器并启动空闲通道回收协程
// cfg 为 nil 或字段非法时落到默认值，logger 为 nil 时丢弃日志
func New(cfg *Config, logger *zap.Logger) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.QueueCapacity > 0 {
			c.QueueCapacity = cfg.QueueCapacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		cfg:         c,
		logger:      logger,
		lanes:       make(map[int64]*lane),
		janitorStop: make(chan struct{}),
		janitorDone: make(chan struct{}),
	}
	go m.janitor()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))

	return m
}

// Execute 执行一次写操作
// 同一用户的写操作串行执行，不同用户互不阻塞；
// fn 在调用方协程上运行，等待执行权受 ctx 与 WriteTimeout 双重约束
func (m *Manager) Execute(ctx context.Context, uid int64, fn func() error) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrWriteQueueClosed
	}
	ln, ok := m.lanes[uid]
	if !ok {
		ln = newLane()
		m.lanes[uid] = ln
	}
	if ln.waiting >= m.cfg.QueueCapacity {
		m.mu.Unlock()
		return ErrWriteQueueFull
	}
	ln.waiting++
	m.inflight.Add(1)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		ln.waiting--
		ln.lastUse = time.Now()
		m.mu.Unlock()
		m.inflight.Done()
	}()

	timer := time.NewTimer(m.cfg.WriteTimeout)
	defer timer.Stop()

	select {
	case <-ln.token:
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrWriteTimeout
	}

	defer func() { ln.token <- struct{}{} }()
	return fn()
}

// Waiting 返回指定用户当前排队的写操作数
func (m *Manager) Waiting(uid int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ln, ok := m.lanes[uid]; ok {
		return ln.waiting
	}
	return 0
}

// LaneCount 返回当前保留的写通道数
func (m *Manager) LaneCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lanes)
}

// janitor 定期回收长时间空闲且无人排队的写通道
// 正在排队的通道 waiting > 0，不会被回收
func (m *Manager) janitor() {
	defer close(m.janitorDone)

	ticker := time.NewTicker(m.cfg.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.janitorStop:
			return
		case <-ticker.C:
			m.sweepIdle()
		}
	}
}

// sweepIdle 执行一轮空闲通道回收
func (m *Manager) sweepIdle() {
	deadline := time.Now().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	for uid, ln := range m.lanes {
		if ln.waiting == 0 && !ln.lastUse.IsZero() && ln.lastUse.Before(deadline) {
			delete(m.lanes, uid)
			m.logger.Debug("idle write lane reclaimed", zap.Int64("uid", uid))
		}
	}
}

// Shutdown 停止接收新写操作并等待已提交的写操作完成
// ctx 控制等待上限，超时返回 ctx 的错误
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.logger.Info("write queue manager shutting down")
	close(m.janitorStop)

	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		<-m.janitorDone
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("write queue manager shutdown completed")
		return nil
	case <-ctx.Done():
		m.logger.Warn("write queue manager shutdown timed out")
		return ctx.Err()
	}
}
