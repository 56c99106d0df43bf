package stages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/browser"
	"github.com/arctrany/ai-product-selector-sub005/internal/fetch"
	"github.com/arctrany/ai-product-selector-sub005/internal/models"
	"github.com/arctrany/ai-product-selector-sub005/internal/readiness"
	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
)

// StageNameDetail 详情页阶段名称
const StageNameDetail = "product_detail"

// DetailStage 详情页提取阶段
// 依赖列表页阶段的产出: 取首个带详情链接的商品,等待详情主体就绪后
// 补全其销量等详情字段。详情失败不影响已提取的列表数据
type DetailStage struct {
	static     *fetch.StaticFetcher
	renderer   *browser.Marshaled
	ready      *readiness.Engine
	selectors  models.SelectorConfig
	navTimeout time.Duration
}

// NewDetailStage 创建详情页阶段
func NewDetailStage(static *fetch.StaticFetcher, renderer *browser.Marshaled, ready *readiness.Engine, selectors models.SelectorConfig, navTimeout time.Duration) *DetailStage {
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	return &DetailStage{
		static:     static,
		renderer:   renderer,
		ready:      ready,
		selectors:  selectors,
		navTimeout: navTimeout,
	}
}

// Name 阶段名称
func (s *DetailStage) Name() string {
	return StageNameDetail
}

// Requires 依赖列表页阶段的商品产出
func (s *DetailStage) Requires() []string {
	return []string{StageNameList}
}

// Ready 依赖就绪检查
func (s *DetailStage) Ready() bool {
	return s.static != nil && s.ready != nil && len(s.selectors.DetailContent) > 0
}

// Run 执行详情页提取
func (s *DetailStage) Run(ctx context.Context, accumulated map[string]interface{}, opts models.StageOptions) models.StageResult {
	start := time.Now()

	products, ok := accumulated["products"].([]models.Product)
	if !ok || len(products) == 0 {
		return models.NewStageFailure(s.Name(), fmt.Errorf("上游未提供商品列表"), models.FailureValidation, time.Since(start))
	}

	// 选取首个带详情链接的商品
	target := -1
	for i, p := range products {
		if p.URL != "" {
			target = i
			break
		}
	}
	if target < 0 {
		return models.NewStageFailure(s.Name(), fmt.Errorf("商品列表中没有可用的详情链接"), models.FailureValidation, time.Since(start))
	}
	detailURL := products[target].URL

	// 静态预取详情页
	var snapshot *readiness.Snapshot
	if s.static != nil {
		snap, err := s.static.FetchSnapshot(detailURL)
		if err != nil {
			utils.Warnf("详情页静态预取失败 [%s]: %v", detailURL, err)
		} else {
			snapshot = snap
		}
	}

	var live readiness.LiveFetcher
	if s.renderer != nil {
		if _, err := s.renderer.Navigate(detailURL, s.navTimeout); err != nil {
			utils.Warnf("详情页浏览器导航失败 [%s]: %v", detailURL, err)
		} else {
			live = s.renderer
		}
	}

	result, err := s.ready.WaitFor(ctx, readiness.Locator(s.selectors.DetailContent), snapshot, live, nil)
	if err != nil {
		return models.NewStageFailure(s.Name(), fmt.Errorf("等待详情内容失败: %w", err), models.FailureRetryable, time.Since(start))
	}
	if result.Status != readiness.StatusMatched {
		return models.NewStageFailure(s.Name(), fmt.Errorf("详情内容未就绪: %s", result.Describe()), models.FailureRetryable, time.Since(start))
	}

	content := strings.TrimSpace(result.Matched.First().Text())

	// 销量是可选字段,缺失不算失败
	sales := ""
	if len(s.selectors.DetailSales) > 0 && result.Snapshot != nil {
		if _, sel, ok := readiness.Locator(s.selectors.DetailSales).Match(result.Snapshot); ok {
			sales = strings.TrimSpace(sel.First().Text())
		}
	}
	products[target].Sales = sales

	utils.Infof("📥 详情页提取完成: %s (内容%d字符)", detailURL, len(content))

	return models.NewStageSuccess(s.Name(), map[string]interface{}{
		"products":        products,
		"detail_url":      detailURL,
		"detail_content":  content,
		"detail_sales":    sales,
		"detail_selector": result.Selector,
	}, time.Since(start))
}
