package engine

import (
	"fmt"
	"sync"

	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
)

// FailoverRegistry 引擎故障转移注册表
// 职责: 维护主引擎句柄和有限数量的备用句柄,主引擎不健康时按序启用备用,
// 必要时新建引擎(有创建上限,避免资源无限增长)
type FailoverRegistry struct {
	mu sync.Mutex

	primary *EngineHandle
	backups []*EngineHandle

	// 新建引擎计数与上限
	failureCount int
	maxFailures  int

	// 新引擎工厂(创建并启动)
	factory func() (*EngineHandle, error)
}

// NewFailoverRegistry 创建故障转移注册表
func NewFailoverRegistry(primary *EngineHandle, maxFailures int, factory func() (*EngineHandle, error)) *FailoverRegistry {
	if maxFailures < 1 {
		maxFailures = 3
	}
	return &FailoverRegistry{
		primary:     primary,
		backups:     make([]*EngineHandle, 0),
		maxFailures: maxFailures,
		factory:     factory,
	}
}

// usable 轻量健康检查: 运行中且未关闭
func usable(h *EngineHandle) bool {
	return h != nil && h.IsRunning() && !h.IsClosed()
}

// GetWorkingEngine 获取一个可用的引擎句柄
// 顺序: 主引擎 -> 备用引擎(注册顺序) -> 新建引擎(受maxFailures限制)
// 整个检查-新建过程持锁,两个goroutine不会同时越过创建上限
func (r *FailoverRegistry) GetWorkingEngine() (*EngineHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 1. 主引擎
	if usable(r.primary) {
		return r.primary, nil
	}

	// 2. 备用引擎
	for i, backup := range r.backups {
		if usable(backup) {
			utils.Warnf("主引擎不可用,启用备用引擎 #%d", i+1)
			return backup, nil
		}
	}

	// 3. 新建引擎(受上限约束)
	if r.failureCount >= r.maxFailures {
		return nil, fmt.Errorf("%w: 已创建%d个备用引擎", ErrFailoverExhausted, r.failureCount)
	}

	utils.Warnf("主引擎和备用引擎均不可用,新建引擎 (第%d/%d次)", r.failureCount+1, r.maxFailures)
	handle, err := r.factory()
	if err != nil {
		return nil, fmt.Errorf("新建引擎失败: %w", err)
	}

	r.backups = append(r.backups, handle)
	r.failureCount++

	utils.Infof("✅ 备用引擎创建成功,当前备用数: %d", len(r.backups))
	return handle, nil
}

// ResetFailureCount 清零新建计数(例如运维恢复后)
func (r *FailoverRegistry) ResetFailureCount() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failureCount = 0
	utils.Infof("故障转移计数已清零")
}

// FailureCount 当前新建计数
func (r *FailoverRegistry) FailureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failureCount
}

// BackupCount 当前备用引擎数量
func (r *FailoverRegistry) BackupCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.backups)
}

// Close 停止所有备用引擎
func (r *FailoverRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, backup := range r.backups {
		backup.Stop()
	}
	r.backups = nil
}
