package engine

import (
	"context"
	"sync"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/models"
)

// HealthChecker 引擎健康检查器
// 职责: 按需探测引擎响应性,最小复查间隔内的重复调用直接返回空报告,
// 避免探测风暴
type HealthChecker struct {
	// 被探测的引擎句柄获取函数(故障转移后句柄可能变化)
	engine func() *EngineHandle

	minInterval  time.Duration // 最小复查间隔 (默认1s)
	probeTimeout time.Duration // 响应性探测超时 (默认100ms)

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport models.HealthReport
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(engine func() *EngineHandle, minInterval, probeTimeout time.Duration) *HealthChecker {
	if minInterval <= 0 {
		minInterval = time.Second
	}
	if probeTimeout <= 0 {
		probeTimeout = 100 * time.Millisecond
	}
	return &HealthChecker{
		engine:       engine,
		minInterval:  minInterval,
		probeTimeout: probeTimeout,
	}
}

// CheckHealth 执行一次健康检查
// 距上次真实检查不足minInterval时不执行探测,返回空报告
func (c *HealthChecker) CheckHealth() models.HealthReport {
	c.mu.Lock()
	if !c.lastCheck.IsZero() && time.Since(c.lastCheck) < c.minInterval {
		c.mu.Unlock()
		return models.HealthReport{}
	}
	c.lastCheck = time.Now()
	c.mu.Unlock()

	report := c.probe()

	c.mu.Lock()
	c.lastReport = report
	c.mu.Unlock()

	return report
}

// LastReport 最近一次真实检查的报告
func (c *HealthChecker) LastReport() models.HealthReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReport
}

// probe 实际探测: 在引擎上调度一个空任务,要求在probeTimeout内完成
// 任何异常(含超时)都视为不可响应并记录错误文本
func (c *HealthChecker) probe() models.HealthReport {
	report := models.HealthReport{SampledAt: time.Now()}

	handle := c.engine()
	if handle == nil {
		report.Error = "引擎句柄为空"
		return report
	}

	report.IsRunning = handle.IsRunning()
	report.IsClosed = handle.IsClosed()
	if !report.IsRunning || report.IsClosed {
		return report
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.probeTimeout)
	defer cancel()

	req := &taskRequest{
		task: func(ctx context.Context) (interface{}, error) {
			// 空任务: 入队并被调度即视为可响应
			return nil, nil
		},
		ctx:   ctx,
		reply: make(chan taskReply, 1),
	}

	if err := handle.Submit(req); err != nil {
		report.Error = err.Error()
		return report
	}

	select {
	case reply := <-req.reply:
		if reply.err != nil {
			report.Error = reply.err.Error()
			return report
		}
		report.IsResponsive = true
	case <-ctx.Done():
		report.Error = "响应性探测超时"
	}

	return report
}
