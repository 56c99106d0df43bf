package core

import (
	"context"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/models"
	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
	"github.com/schollz/progressbar/v3"
)

// BatchSelector 批量选品器
// 复用同一个选品器实例(同一个引擎/浏览器)顺序处理URL列表
type BatchSelector struct {
	selector      *ProductSelector
	kind          models.OperationKind
	batchDelay    time.Duration
	continueOnErr bool
}

// BatchResult 单个URL的批量处理结果
type BatchResult struct {
	URL         string
	Success     bool
	Error       string
	Result      models.OperationResult
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量处理摘要
type BatchSummary struct {
	TotalURLs     int
	SuccessCount  int
	FailCount     int
	TotalProducts int
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchSelector 创建批量选品器
func NewBatchSelector(selector *ProductSelector, kind models.OperationKind, batchDelay int, continueOnErr bool) *BatchSelector {
	return &BatchSelector{
		selector:      selector,
		kind:          kind,
		batchDelay:    time.Duration(batchDelay) * time.Second,
		continueOnErr: continueOnErr,
	}
}

// SelectBatch 批量处理URL列表
func (b *BatchSelector) SelectBatch(ctx context.Context, urls []string) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量选品: %d个URL", len(urls))

	summary := &BatchSummary{
		TotalURLs: len(urls),
		Results:   make([]BatchResult, 0, len(urls)),
	}

	bar := progressbar.NewOptions(len(urls),
		progressbar.OptionSetDescription("批量选品"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)

	startTime := time.Now()

	for i, targetURL := range urls {
		utils.Infof("==================== [%d/%d] ====================", i+1, len(urls))
		utils.Infof("目标URL: %s", targetURL)

		result := b.selectSingleURL(ctx, targetURL)
		summary.Results = append(summary.Results, result)
		_ = bar.Add(1)

		if result.Success {
			summary.SuccessCount++
			if count, ok := result.Result.Data["product_count"].(int); ok {
				summary.TotalProducts += count
			}
		} else {
			summary.FailCount++
			utils.Errorf("❌ 选品失败 [%s]: %s", targetURL, result.Error)

			if !b.continueOnErr {
				utils.Warn("批量选品中止 (--continue-on-error=false)")
				break
			}
		}

		// 最后一个URL不需要延迟
		if i < len(urls)-1 && b.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个URL...", b.batchDelay.Seconds())
			select {
			case <-ctx.Done():
				utils.Warn("批量选品被取消")
				summary.TotalDuration = time.Since(startTime).Seconds()
				return summary, ctx.Err()
			case <-time.After(b.batchDelay):
			}
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()
	b.printSummary(summary)

	return summary, nil
}

// selectSingleURL 处理单个URL
func (b *BatchSelector) selectSingleURL(ctx context.Context, targetURL string) BatchResult {
	result := BatchResult{
		URL:         targetURL,
		ProcessedAt: time.Now(),
	}

	startTime := time.Now()

	opResult, err := b.selector.Select(ctx, targetURL, b.kind)
	result.Result = opResult
	result.Duration = time.Since(startTime).Seconds()

	if err != nil {
		result.Error = err.Error()
		return result
	}
	if !opResult.Success {
		result.Error = opResult.Error
		return result
	}

	result.Success = true
	return result
}

// printSummary 打印批量处理摘要
func (b *BatchSelector) printSummary(summary *BatchSummary) {
	utils.Info("==================================================")
	utils.Info("📊 批量选品摘要")
	utils.Info("==================================================")
	utils.Infof("总URL数: %d", summary.TotalURLs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📦 总商品数: %d", summary.TotalProducts)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("失败的URL:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %s", result.URL, result.Error)
			}
		}
	}
}
