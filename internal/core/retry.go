package core

import (
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/models"
	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
)

// ExecuteWithRetry 包装任意阶段调用,对瞬态失败做固定延迟重试
//
// 规则:
//   - 最多尝试attempts次,相邻两次之间固定等待delay
//   - 只重试标记为retryable(网络/超时类)的失败,校验类失败直接返回
//   - 尝试严格串行,绝不并发
//   - 全部尝试耗尽时返回最后一次失败
//
// 每次实际发生的重试计入指标
func (o *Orchestrator) ExecuteWithRetry(name string, attempts int, delay time.Duration, op func() models.StageResult) models.StageResult {
	if attempts < 1 {
		attempts = 1
	}

	var last models.StageResult
	for attempt := 1; attempt <= attempts; attempt++ {
		last = op()
		if last.Success {
			if attempt > 1 {
				utils.Infof("阶段 [%s] 第%d次尝试成功", name, attempt)
			}
			return last
		}

		// 校验类失败重试无意义,立即返回
		if !last.Retryable() {
			utils.Debugf("阶段 [%s] 失败且不可重试: %s", name, last.Error)
			return last
		}

		if attempt < attempts {
			o.metrics.AddRetry()
			utils.Warnf("阶段 [%s] 第%d/%d次尝试失败: %s, %v后重试", name, attempt, attempts, last.Error, delay)
			time.Sleep(delay)
		}
	}

	utils.Errorf("阶段 [%s] 已达最大尝试次数(%d), 放弃", name, attempts)
	return last
}
