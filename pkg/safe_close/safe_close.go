// Package safe_close coordinates the shutdown of multiple background
// goroutines: every subsystem attaches itself, the first close signal fans
// out to all of them, and WaitClosed blocks until each reports done.
// Package safe_close 协调多个后台 goroutine 的关闭流程：各子系统先 Attach，
// 首个关闭信号广播给所有子系统，WaitClosed 阻塞直到全部完成。
package safe_close

import (
	"sync"
)

type SafeClose struct {
	closeSignal chan struct{}
	closeOnce   sync.Once
	closeErr    error

	wg sync.WaitGroup
	m  sync.Mutex
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach starts f in a new goroutine. f must call done when it has fully
// stopped and must return promptly once closeSignal is closed.
// Attach 在新 goroutine 中启动 f。f 停止后必须调用 done，并且在
// closeSignal 关闭后尽快返回。
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var doneOnce sync.Once
	done := func() {
		doneOnce.Do(s.wg.Done)
	}
	go f(done, s.closeSignal)
}

// SendCloseSignal closes the signal channel. The first non-nil err wins and
// becomes the return value of WaitClosed. Subsequent calls are no-ops.
// SendCloseSignal 关闭信号通道。首个非 nil 的 err 会成为 WaitClosed 的
// 返回值，后续调用为空操作。
func (s *SafeClose) SendCloseSignal(err error) {
	s.closeOnce.Do(func() {
		s.m.Lock()
		s.closeErr = err
		s.m.Unlock()
		close(s.closeSignal)
	})
}

// CloseSignal returns the broadcast channel for callers that only need to
// select on shutdown.
// CloseSignal 返回广播通道，供只需监听关闭事件的调用方使用。
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeSignal
}

// WaitClosed blocks until every attached goroutine has called done, then
// returns the error recorded by the first SendCloseSignal.
// WaitClosed 阻塞直到所有已附加的 goroutine 调用 done，然后返回首次
// SendCloseSignal 记录的错误。
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.m.Lock()
	defer s.m.Unlock()
	return s.closeErr
}
