package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/models"
	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
)

// Supervisor 执行引擎监督器
// 职责: 持有进程内唯一的长驻执行引擎,为任意goroutine提供线程安全的
// "提交并等待"/"阻塞调用池"原语,并接入健康监控与故障转移
//
// 显式Initialize/Shutdown生命周期,通过构造注入使用(测试中可创建多个隔离实例);
// 包级RunSafe提供惰性初始化的默认实例便捷入口
type Supervisor struct {
	config models.EngineConfig

	mu          sync.RWMutex
	initialized bool
	primary     *EngineHandle

	monitor  *HealthMonitor
	checker  *HealthChecker
	failover *FailoverRegistry

	// 阻塞调用工作池信号量
	workerSem chan struct{}
}

// NewSupervisor 创建监督器(未初始化)
func NewSupervisor(config models.EngineConfig) *Supervisor {
	return &Supervisor{
		config: config,
	}
}

// Initialize 初始化监督器
// 流程: 创建并启动引擎 -> 有界轮询等待引擎就绪 -> 接入监控/检查器/故障转移
// 失败时完整清理部分状态(停监控、停引擎、等待goroutine退出)后返回
func (s *Supervisor) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		utils.Debugf("监督器已初始化,跳过")
		return nil
	}

	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInitialization, err)
	}

	utils.Infof("🚀 初始化执行引擎监督器")

	handle := NewEngineHandle(64)
	handle.Start()

	// 有界轮询等待引擎进入运行状态
	if !waitRunning(handle, s.config.StartupTimeout) {
		handle.Stop()
		handle.Join(2 * time.Second)
		return fmt.Errorf("%w: 引擎在%v内未进入运行状态", ErrInitialization, s.config.StartupTimeout)
	}

	s.primary = handle
	currentEngine := func() *EngineHandle {
		return s.currentPrimary()
	}

	s.checker = NewHealthChecker(currentEngine, s.config.CheckInterval, s.config.ProbeTimeout)
	s.monitor = NewHealthMonitor(currentEngine, s.config.MonitorInterval, s.config.SummaryInterval)
	s.failover = NewFailoverRegistry(handle, s.config.MaxFailures, func() (*EngineHandle, error) {
		h := NewEngineHandle(64)
		h.Start()
		if !waitRunning(h, s.config.StartupTimeout) {
			h.Stop()
			return nil, fmt.Errorf("%w: 备用引擎未进入运行状态", ErrInitialization)
		}
		return h, nil
	})

	s.monitor.StartMonitoring()

	workers := s.config.WorkerPoolSize
	if workers < 1 {
		workers = 4
	}
	s.workerSem = make(chan struct{}, workers)

	s.initialized = true
	utils.Infof("✅ 执行引擎监督器初始化完成 (工作池=%d, 故障转移上限=%d)", workers, s.config.MaxFailures)
	return nil
}

// waitRunning 轮询等待引擎进入运行状态
func waitRunning(h *EngineHandle, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if h.IsRunning() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return h.IsRunning()
}

// currentPrimary 当前主引擎句柄
func (s *Supervisor) currentPrimary() *EngineHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.primary
}

// SubmitAndWait 将任务提交到引擎并阻塞等待完成或超时
// 超时只解除调用方阻塞,已入队的任务仍会在后台执行完成(fire-and-forget),
// 调用方需保证任务可安全放弃。任务内的错误原样传播给调用方
func (s *Supervisor) SubmitAndWait(task Task, timeout time.Duration) (interface{}, error) {
	s.mu.RLock()
	initialized := s.initialized
	failover := s.failover
	s.mu.RUnlock()

	if !initialized {
		return nil, ErrNotInitialized
	}

	if timeout <= 0 {
		timeout = s.config.SubmitTimeout
	}

	// 获取可用引擎: 主引擎健康则用主引擎,否则由故障转移注册表提供
	handle, err := failover.GetWorkingEngine()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req := &taskRequest{
		task:  task,
		ctx:   ctx,
		reply: make(chan taskReply, 1),
	}

	if err := handle.Submit(req); err != nil {
		return nil, err
	}

	select {
	case reply := <-req.reply:
		return reply.value, reply.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: 任务在%v内未完成", ErrSubmitTimeout, timeout)
	}
}

// SubmitBlocking 将普通阻塞调用路由到有界工作池并等待结果
// 调用自身的错误原样返回
func (s *Supervisor) SubmitBlocking(fn func() (interface{}, error)) (interface{}, error) {
	s.mu.RLock()
	initialized := s.initialized
	sem := s.workerSem
	s.mu.RUnlock()

	if !initialized {
		return nil, ErrNotInitialized
	}

	// 占用一个工作池槽位
	sem <- struct{}{}

	reply := make(chan taskReply, 1)
	go func() {
		defer func() {
			<-sem
			if r := recover(); r != nil {
				utils.Errorf("工作池任务panic: %v", r)
				reply <- taskReply{err: fmt.Errorf("工作池任务panic: %v", r)}
			}
		}()
		value, err := fn()
		reply <- taskReply{value: value, err: err}
	}()

	result := <-reply
	return result.value, result.err
}

// IsHealthy 监督器是否健康: 已初始化且最近的健康报告为运行中+可响应
// 无检查器时退化为一次带短超时的空任务探测
func (s *Supervisor) IsHealthy() bool {
	s.mu.RLock()
	initialized := s.initialized
	checker := s.checker
	s.mu.RUnlock()

	if !initialized {
		return false
	}

	if checker != nil {
		report := checker.CheckHealth()
		if report.SampledAt.IsZero() {
			// 最小复查间隔内,使用上次真实报告
			report = checker.LastReport()
		}
		return report.Healthy()
	}

	// 无检查器: 便宜的空任务探测
	_, err := s.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}, 500*time.Millisecond)
	return err == nil
}

// HealthReport 当前健康报告(委托给检查器)
func (s *Supervisor) HealthReport() models.HealthReport {
	s.mu.RLock()
	checker := s.checker
	s.mu.RUnlock()

	if checker == nil {
		return models.HealthReport{}
	}
	report := checker.CheckHealth()
	if report.SampledAt.IsZero() {
		return checker.LastReport()
	}
	return report
}

// Failover 故障转移注册表(供运维恢复调用ResetFailureCount)
func (s *Supervisor) Failover() *FailoverRegistry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failover
}

// IsInitialized 监督器是否已初始化
func (s *Supervisor) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Shutdown 关闭监督器(幂等)
// 停监控 -> 停备用引擎 -> 请求主引擎停止 -> 有界等待goroutine退出 -> 标记未初始化
// 实际停止动作在锁外执行,监控goroutine正读取句柄时不会互相等待
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return
	}
	monitor := s.monitor
	failover := s.failover
	primary := s.primary
	s.monitor = nil
	s.failover = nil
	s.primary = nil
	s.checker = nil
	s.initialized = false
	s.mu.Unlock()

	utils.Infof("关闭执行引擎监督器...")

	if monitor != nil {
		monitor.StopMonitoring()
	}
	if failover != nil {
		failover.Close()
	}
	if primary != nil {
		primary.Stop()
		primary.Join(5 * time.Second)
	}

	utils.Infof("✅ 执行引擎监督器已关闭")
}

// 包级默认实例,RunSafe惰性初始化
var (
	defaultMu         sync.Mutex
	defaultSupervisor *Supervisor
)

// Default 返回默认监督器实例(惰性初始化)
func Default() (*Supervisor, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultSupervisor == nil {
		defaultSupervisor = NewSupervisor(models.DefaultEngineConfig())
	}
	if !defaultSupervisor.IsInitialized() {
		if err := defaultSupervisor.Initialize(); err != nil {
			return nil, err
		}
	}
	return defaultSupervisor, nil
}

// RunSafe 便捷入口: 在默认监督器上提交任务并等待
func RunSafe(task Task, timeout time.Duration) (interface{}, error) {
	s, err := Default()
	if err != nil {
		return nil, err
	}
	return s.SubmitAndWait(task, timeout)
}

// ShutdownDefault 关闭默认监督器
func ShutdownDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultSupervisor != nil {
		defaultSupervisor.Shutdown()
	}
}
