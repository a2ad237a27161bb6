package task

import (
	"context"
	"time"

	"github.com/notesphere/note-sync-service/pkg/safe_close"
	"go.uber.org/zap"
)

// Task 定义后台任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行一轮
	LoopInterval() time.Duration   // 执行间隔
	IsStartupRun() bool            // 启动时是否先执行一次
}

// Scheduler 后台任务调度器
// 每个任务一个定时循环协程，挂到 safe_close 上随服务关停
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	sc     *safe_close.SafeClose
}

// NewScheduler 创建任务调度器
func NewScheduler(logger *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	return &Scheduler{
		logger: logger,
		sc:     sc,
	}
}

// AddTask 添加任务
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start 启动所有任务的调度循环
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting", zap.Int("count", len(s.tasks)))
	for _, task := range s.tasks {
		s.startTask(task)
	}
}

// startTask 启动单个任务的调度循环
// 关停信号到来时取消任务的 context 并退出循环
func (s *Scheduler) startTask(task Task) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			<-closeSignal
			cancel()
		}()

		if task.IsStartupRun() {
			s.runOnce(ctx, task, "startup")
		}

		if task.LoopInterval() <= 0 {
			return
		}

		ticker := time.NewTicker(task.LoopInterval())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runOnce(ctx, task, "loop")
			case <-closeSignal:
				s.logger.Info("task stopped", zap.String("name", task.Name()))
				return
			}
		}
	})
}

// runOnce 执行任务一轮，panic 只记日志不拖垮调度循环
func (s *Scheduler) runOnce(ctx context.Context, task Task, trigger string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic",
				zap.String("name", task.Name()),
				zap.String("trigger", trigger),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	s.logger.Info("task running",
		zap.String("name", task.Name()),
		zap.String("trigger", trigger))

	if err := task.Run(ctx); err != nil {
		s.logger.Error("task run error",
			zap.String("name", task.Name()),
			zap.String("trigger", trigger),
			zap.Error(err))
	}
}
