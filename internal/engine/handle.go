package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
)

// Task 可提交到引擎的工作单元
// 任务在引擎goroutine上执行,可通过ctx感知放弃信号,但不会被强制取消
type Task func(ctx context.Context) (interface{}, error)

// taskRequest 跨goroutine提交的任务请求
type taskRequest struct {
	task  Task
	ctx   context.Context
	reply chan taskReply
}

// taskReply 任务执行结果
type taskReply struct {
	value interface{}
	err   error
}

// EngineHandle 单个执行引擎实例的句柄
// 引擎 = 一个长驻goroutine + 任务channel,所有任务串行调度
type EngineHandle struct {
	tasks chan *taskRequest

	// 生命周期状态
	mu        sync.RWMutex
	running   bool
	closed    bool
	createdAt time.Time

	// 观测到的任务计数(供监控器采样)
	taskCount int64

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewEngineHandle 创建引擎句柄(未启动)
func NewEngineHandle(queueSize int) *EngineHandle {
	if queueSize < 1 {
		queueSize = 16
	}
	return &EngineHandle{
		tasks:     make(chan *taskRequest, queueSize),
		createdAt: time.Now(),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start 启动引擎goroutine
func (h *EngineHandle) Start() {
	h.mu.Lock()
	if h.running || h.closed {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// run 引擎主循环,在专属goroutine上串行执行任务
func (h *EngineHandle) run() {
	defer func() {
		h.mu.Lock()
		h.running = false
		h.closed = true
		h.mu.Unlock()
		close(h.doneCh)
		utils.Debugf("引擎goroutine已退出")
	}()

	for {
		select {
		case <-h.stopCh:
			return
		case req := <-h.tasks:
			h.execute(req)
		}
	}
}

// execute 执行单个任务,panic转换为error
// 提交方可能已超时放弃,reply channel带1个缓冲,发送不会阻塞引擎
func (h *EngineHandle) execute(req *taskRequest) {
	atomic.AddInt64(&h.taskCount, 1)

	var value interface{}
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				utils.Errorf("引擎任务panic: %v", r)
				err = fmt.Errorf("引擎任务panic: %v", r)
			}
		}()
		value, err = req.task(req.ctx)
	}()

	select {
	case req.reply <- taskReply{value: value, err: err}:
	default:
		// 提交方已放弃等待,结果按fire-and-forget丢弃
		utils.Debugf("任务完成但提交方已放弃等待,丢弃结果")
	}
}

// Submit 将任务请求入队
// 引擎已关闭或ctx到期时返回错误,不阻塞引擎线程
func (h *EngineHandle) Submit(req *taskRequest) error {
	h.mu.RLock()
	if h.closed || !h.running {
		h.mu.RUnlock()
		return ErrEngineClosed
	}
	h.mu.RUnlock()

	select {
	case h.tasks <- req:
		return nil
	case <-h.stopCh:
		return ErrEngineClosed
	case <-req.ctx.Done():
		return fmt.Errorf("%w: 任务入队超时", ErrSubmitTimeout)
	}
}

// Stop 请求引擎停止(幂等)
func (h *EngineHandle) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
}

// Join 等待引擎goroutine退出,最长等待bound
func (h *EngineHandle) Join(bound time.Duration) bool {
	select {
	case <-h.doneCh:
		return true
	case <-time.After(bound):
		utils.Warnf("等待引擎goroutine退出超时(%v)", bound)
		return false
	}
}

// IsRunning 引擎是否运行中
func (h *EngineHandle) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// IsClosed 引擎是否已关闭
func (h *EngineHandle) IsClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// CreatedAt 引擎创建时间
func (h *EngineHandle) CreatedAt() time.Time {
	return h.createdAt
}

// TaskCount 已观测到的任务总数
func (h *EngineHandle) TaskCount() int64 {
	return atomic.LoadInt64(&h.taskCount)
}
