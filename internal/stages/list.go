package stages

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/arctrany/ai-product-selector-sub005/internal/browser"
	"github.com/arctrany/ai-product-selector-sub005/internal/fetch"
	"github.com/arctrany/ai-product-selector-sub005/internal/models"
	"github.com/arctrany/ai-product-selector-sub005/internal/readiness"
	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
)

// StageNameList 列表页阶段名称
const StageNameList = "product_list"

// ListStage 列表页提取阶段
// 流程: 静态预取快照 -> 就绪引擎等待列表容器 -> 逐项提取商品信息
// 静态快照命中时完全不触碰浏览器,未命中且配置了渲染能力时升级为实时轮询
type ListStage struct {
	static    *fetch.StaticFetcher
	renderer  *browser.Marshaled
	ready     *readiness.Engine
	selectors models.SelectorConfig
	navTimeout time.Duration
}

// NewListStage 创建列表页阶段
// renderer可为nil,此时只做静态提取
func NewListStage(static *fetch.StaticFetcher, renderer *browser.Marshaled, ready *readiness.Engine, selectors models.SelectorConfig, navTimeout time.Duration) *ListStage {
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	return &ListStage{
		static:     static,
		renderer:   renderer,
		ready:      ready,
		selectors:  selectors,
		navTimeout: navTimeout,
	}
}

// Name 阶段名称
func (s *ListStage) Name() string {
	return StageNameList
}

// Requires 列表页是主阶段,无前置依赖
func (s *ListStage) Requires() []string {
	return nil
}

// Ready 依赖就绪检查
func (s *ListStage) Ready() bool {
	return s.static != nil && s.ready != nil && len(s.selectors.ProductList) > 0
}

// Run 执行列表页提取
func (s *ListStage) Run(ctx context.Context, accumulated map[string]interface{}, opts models.StageOptions) models.StageResult {
	start := time.Now()

	if opts.TargetURL == "" {
		return models.NewStageFailure(s.Name(), fmt.Errorf("目标URL为空"), models.FailureValidation, time.Since(start))
	}

	// 静态预取: 失败不致命,只是失去快速路径
	var snapshot *readiness.Snapshot
	if s.static != nil {
		snap, err := s.static.FetchSnapshot(opts.TargetURL)
		if err != nil {
			utils.Warnf("列表页静态预取失败 [%s]: %v", opts.TargetURL, err)
		} else {
			snapshot = snap
		}
	}

	// 有渲染能力时先导航,使实时轮询拿到的是目标页面
	var live readiness.LiveFetcher
	if s.renderer != nil {
		if _, err := s.renderer.Navigate(opts.TargetURL, s.navTimeout); err != nil {
			utils.Warnf("列表页浏览器导航失败 [%s]: %v", opts.TargetURL, err)
		} else {
			live = s.renderer
		}
	}

	result, err := s.ready.WaitFor(ctx, readiness.Locator(s.selectors.ProductList), snapshot, live, nil)
	if err != nil {
		return models.NewStageFailure(s.Name(), fmt.Errorf("等待列表内容失败: %w", err), models.FailureRetryable, time.Since(start))
	}
	if result.Status != readiness.StatusMatched {
		return models.NewStageFailure(s.Name(), fmt.Errorf("列表内容未就绪: %s", result.Describe()), models.FailureRetryable, time.Since(start))
	}

	products := s.extractProducts(result.Matched, opts.TargetURL)
	if len(products) == 0 {
		// 容器命中但提取不到商品,属于选择器/页面结构问题,重试无意义
		return models.NewStageFailure(s.Name(), fmt.Errorf("列表容器命中(%s)但未提取到商品", result.Selector), models.FailureValidation, time.Since(start))
	}

	utils.Infof("📥 列表页提取完成: %d个商品 (选择器=%s)", len(products), result.Selector)

	return models.NewStageSuccess(s.Name(), map[string]interface{}{
		"products":      products,
		"product_count": len(products),
		"list_selector": result.Selector,
	}, time.Since(start))
}

// extractProducts 从命中的列表容器中逐项提取商品信息
func (s *ListStage) extractProducts(matched *goquery.Selection, baseURL string) []models.Product {
	products := make([]models.Product, 0, matched.Length())

	matched.Each(func(_ int, item *goquery.Selection) {
		product := models.Product{
			Title: firstText(item, s.selectors.ProductTitle),
			Price: firstText(item, s.selectors.ProductPrice),
		}

		// 详情页链接: 商品项本身或其内部首个带href的链接
		if href, ok := item.Attr("href"); ok {
			product.URL = resolveURL(baseURL, href)
		} else if href, ok := item.Find("a[href]").First().Attr("href"); ok {
			product.URL = resolveURL(baseURL, href)
		}

		// 无标题的项视为占位/广告节点,丢弃
		if product.Title != "" {
			products = append(products, product)
		}
	})

	return products
}

// firstText 按候选选择器顺序取首个非空文本
func firstText(item *goquery.Selection, candidates []string) string {
	for _, selector := range candidates {
		text := strings.TrimSpace(item.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// resolveURL 把相对链接解析为绝对链接
func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
