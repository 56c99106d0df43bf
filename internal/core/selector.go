package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/browser"
	"github.com/arctrany/ai-product-selector-sub005/internal/engine"
	"github.com/arctrany/ai-product-selector-sub005/internal/fetch"
	"github.com/arctrany/ai-product-selector-sub005/internal/models"
	"github.com/arctrany/ai-product-selector-sub005/internal/readiness"
	"github.com/arctrany/ai-product-selector-sub005/internal/stages"
	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
)

// 默认请求头,模拟常见桌面浏览器
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ProductSelector 商品选品器
// 顶层装配: 创建并初始化执行引擎监督器,把浏览器渲染能力编组到引擎上,
// 组装静态获取器/就绪引擎/提取阶段并注册到编排器
type ProductSelector struct {
	config     *Config
	outputDir  string
	useBrowser bool

	supervisor   *engine.Supervisor
	renderer     *browser.RodRenderer
	marshaled    *browser.Marshaled
	orchestrator *Orchestrator

	initialized bool
}

// NewProductSelector 创建商品选品器(未初始化)
func NewProductSelector(config *Config, outputDir string, useBrowser bool) *ProductSelector {
	return &ProductSelector{
		config:     config,
		outputDir:  outputDir,
		useBrowser: useBrowser,
	}
}

// Initialize 初始化选品器
// 浏览器启动失败不致命: 降级为纯静态提取并告警
func (p *ProductSelector) Initialize() error {
	if p.initialized {
		return nil
	}

	engineConfig := p.config.GetEngineConfig()
	p.supervisor = engine.NewSupervisor(engineConfig)
	if err := p.supervisor.Initialize(); err != nil {
		return fmt.Errorf("初始化执行引擎监督器失败: %w", err)
	}

	navTimeout := time.Duration(p.config.Browser.NavTimeoutSec) * time.Second
	callTimeout := time.Duration(p.config.Browser.CallTimeoutSec) * time.Second

	static := fetch.NewStaticFetcher(navTimeout)
	static.SetHeader("User-Agent", defaultUserAgent)

	ready := readiness.NewEngine(p.config.GetReadinessConfig())
	selectors := p.config.GetSelectorConfig()

	capability := "static"
	if p.useBrowser {
		// 浏览器的启动和后续所有调用都必须发生在引擎goroutine上
		renderer := browser.NewRodRenderer(p.config.Browser.Headless)
		_, err := p.supervisor.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
			return nil, renderer.Launch()
		}, navTimeout)
		if err != nil {
			utils.Warnf("浏览器启动失败, 降级为纯静态提取: %v", err)
		} else {
			p.renderer = renderer
			p.marshaled = browser.NewMarshaled(p.supervisor, renderer, callTimeout)
			capability = p.marshaled.Name()
		}
	}

	listStage := stages.NewListStage(static, p.marshaled, ready, selectors, navTimeout)
	detailStage := stages.NewDetailStage(static, p.marshaled, ready, selectors, navTimeout)

	p.orchestrator = NewOrchestrator(p.supervisor, p.config.GetRetryConfig())
	p.orchestrator.SetCapability(capability)
	p.orchestrator.RegisterKind(models.KindProductSelect, listStage, detailStage)
	p.orchestrator.RegisterKind(models.KindProductList, listStage)

	p.initialized = true
	utils.Infof("✅ 商品选品器初始化完成 (能力=%s)", capability)
	return nil
}

// Select 对目标URL执行一次选品操作
func (p *ProductSelector) Select(ctx context.Context, targetURL string, kind models.OperationKind) (models.OperationResult, error) {
	if !p.initialized {
		return models.OperationResult{}, engine.ErrNotInitialized
	}

	result, err := p.orchestrator.Execute(ctx, kind, models.StageOptions{
		TargetURL: targetURL,
	})
	if err != nil {
		return result, err
	}

	// 保存结果到输出目录
	if p.outputDir != "" {
		if saveErr := p.saveResult(&result); saveErr != nil {
			utils.Warnf("保存结果失败: %v", saveErr)
		}
	}

	return result, nil
}

// saveResult 把操作结果写为JSON文件
func (p *ProductSelector) saveResult(result *models.OperationResult) error {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	data, err := result.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化结果失败: %w", err)
	}

	path := filepath.Join(p.outputDir, fmt.Sprintf("result_%s.json", result.ID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入结果文件失败: %w", err)
	}

	utils.Debugf("结果已保存: %s", path)
	return nil
}

// GetMetrics 当前操作指标快照
func (p *ProductSelector) GetMetrics() models.MetricsSnapshot {
	if p.orchestrator == nil {
		return models.MetricsSnapshot{}
	}
	return p.orchestrator.GetMetrics()
}

// HealthCheck 选品器健康状态
func (p *ProductSelector) HealthCheck() HealthStatus {
	if p.orchestrator == nil {
		return HealthStatus{}
	}
	return p.orchestrator.HealthCheck()
}

// HealthReport 底层引擎健康报告
func (p *ProductSelector) HealthReport() models.HealthReport {
	if p.supervisor == nil {
		return models.HealthReport{}
	}
	return p.supervisor.HealthReport()
}

// Close 关闭选品器(幂等)
// 浏览器关闭同样编组到引擎goroutine,之后再停监督器
func (p *ProductSelector) Close() {
	if !p.initialized {
		return
	}
	p.initialized = false

	if p.renderer != nil && p.supervisor != nil {
		_, _ = p.supervisor.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
			p.renderer.Close()
			return nil, nil
		}, 10*time.Second)
		p.renderer = nil
		p.marshaled = nil
	}

	if p.supervisor != nil {
		p.supervisor.Shutdown()
	}
}
