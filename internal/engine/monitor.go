package engine

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthMonitor 引擎健康监控器
// 职责: 在独立goroutine上以固定节奏采样引擎任务计数和系统资源,
// 周期性输出摘要日志; 采样循环内的失败只记录日志,不终止监控
type HealthMonitor struct {
	// 被监控的引擎句柄获取函数
	engine func() *EngineHandle

	interval        time.Duration // 采样间隔 (默认1s)
	summaryInterval time.Duration // 摘要输出间隔 (默认5s)

	mu         sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
	doneCh     chan struct{}

	// 采样状态
	sampleCount   int64
	lastTaskCount int64
}

// NewHealthMonitor 创建健康监控器
func NewHealthMonitor(engine func() *EngineHandle, interval, summaryInterval time.Duration) *HealthMonitor {
	if interval <= 0 {
		interval = time.Second
	}
	if summaryInterval <= 0 {
		summaryInterval = 5 * time.Second
	}
	return &HealthMonitor{
		engine:          engine,
		interval:        interval,
		summaryInterval: summaryInterval,
	}
}

// StartMonitoring 启动监控(幂等)
func (m *HealthMonitor) StartMonitoring() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFunc = cancel
	m.doneCh = make(chan struct{})
	m.isRunning = true

	go m.monitoringLoop(ctx, m.doneCh)
	utils.Debugf("引擎健康监控已启动 (采样间隔=%v, 摘要间隔=%v)", m.interval, m.summaryInterval)
}

// StopMonitoring 停止监控(幂等),等待采样goroutine退出
func (m *HealthMonitor) StopMonitoring() {
	m.mu.Lock()
	if !m.isRunning || m.cancelFunc == nil {
		m.mu.Unlock()
		return
	}
	m.cancelFunc()
	m.cancelFunc = nil
	m.isRunning = false
	done := m.doneCh
	m.mu.Unlock()

	// 短时等待采样goroutine退出
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		utils.Warnf("等待监控goroutine退出超时")
	}
}

// IsRunning 监控是否活跃
func (m *HealthMonitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}

// SampleCount 已完成的采样次数
func (m *HealthMonitor) SampleCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sampleCount
}

// monitoringLoop 后台采样循环
func (m *HealthMonitor) monitoringLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	summaryTicker := time.NewTicker(m.summaryInterval)
	defer summaryTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		case <-summaryTicker.C:
			m.emitSummary()
		}
	}
}

// sample 单次采样,失败不终止循环
func (m *HealthMonitor) sample() {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("监控采样panic: %v", r)
		}
	}()

	handle := m.engine()
	if handle == nil {
		return
	}

	m.mu.Lock()
	m.sampleCount++
	m.lastTaskCount = handle.TaskCount()
	m.mu.Unlock()
}

// emitSummary 输出周期性摘要(引擎状态 + 系统资源)
func (m *HealthMonitor) emitSummary() {
	handle := m.engine()
	if handle == nil {
		return
	}

	m.mu.Lock()
	samples := m.sampleCount
	taskCount := m.lastTaskCount
	m.mu.Unlock()

	// 系统资源读数(gopsutil),失败只记录日志
	memUsedMB := int64(-1)
	if vmStat, err := mem.VirtualMemory(); err != nil {
		utils.Warnf("获取系统内存失败: %v", err)
	} else {
		memUsedMB = int64(vmStat.Used) / (1024 * 1024)
	}

	cpuUsage := -1.0
	if percentages, err := cpu.Percent(100*time.Millisecond, false); err != nil {
		utils.Warnf("获取CPU使用率失败: %v", err)
	} else if len(percentages) > 0 {
		cpuUsage = percentages[0]
	}

	utils.Infof("引擎监控摘要: 运行中=%v, 已执行任务=%d, 采样次数=%d, goroutine数=%d, 内存=%dMB, CPU=%.1f%%",
		handle.IsRunning(), taskCount, samples, runtime.NumGoroutine(), memUsedMB, cpuUsage)
}
