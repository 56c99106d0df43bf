package core

import (
	"sync"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/models"
)

// Metrics 操作指标累计器
// 只由编排器的调用路径写入,外部通过Snapshot读取; 只能通过Reset显式清零
type Metrics struct {
	mu         sync.Mutex
	total      int
	succeeded  int
	failed     int
	avgLatency time.Duration
	retries    int
}

// NewMetrics 创建指标累计器
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record 记录一次操作完成
// 平均耗时按 new_avg = (old_avg*(total-1) + elapsed) / total 滚动更新,
// 任何时刻 total == succeeded + failed
func (m *Metrics) Record(success bool, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	if success {
		m.succeeded++
	} else {
		m.failed++
	}
	m.avgLatency = (m.avgLatency*time.Duration(m.total-1) + elapsed) / time.Duration(m.total)
}

// AddRetry 记录一次实际发生的重试
func (m *Metrics) AddRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

// Snapshot 当前指标快照
func (m *Metrics) Snapshot() models.MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return models.MetricsSnapshot{
		Total:      m.total,
		Succeeded:  m.succeeded,
		Failed:     m.failed,
		AvgLatency: m.avgLatency,
		Retries:    m.retries,
	}
}

// Reset 显式清零所有指标
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total = 0
	m.succeeded = 0
	m.failed = 0
	m.avgLatency = 0
	m.retries = 0
}
