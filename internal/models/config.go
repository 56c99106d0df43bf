package models

import (
	"fmt"
	"time"
)

// EngineConfig 执行引擎配置
type EngineConfig struct {
	StartupTimeout  time.Duration `json:"startup_timeout"`   // 引擎启动等待上限 (默认:5s)
	SubmitTimeout   time.Duration `json:"submit_timeout"`    // 默认任务提交等待上限 (默认:30s)
	WorkerPoolSize  int           `json:"worker_pool_size"`  // 阻塞调用工作池大小 (默认:4)
	MaxFailures     int           `json:"max_failures"`      // 故障转移新建引擎上限 (默认:3)
	CheckInterval   time.Duration `json:"check_interval"`    // 健康检查最小复查间隔 (默认:1s)
	ProbeTimeout    time.Duration `json:"probe_timeout"`     // 响应性探测超时 (默认:100ms)
	MonitorInterval time.Duration `json:"monitor_interval"`  // 监控采样间隔 (默认:1s)
	SummaryInterval time.Duration `json:"summary_interval"`  // 监控摘要输出间隔 (默认:5s)
}

// DefaultEngineConfig 默认引擎配置
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		StartupTimeout:  5 * time.Second,
		SubmitTimeout:   30 * time.Second,
		WorkerPoolSize:  4,
		MaxFailures:     3,
		CheckInterval:   time.Second,
		ProbeTimeout:    100 * time.Millisecond,
		MonitorInterval: time.Second,
		SummaryInterval: 5 * time.Second,
	}
}

// Validate 验证引擎配置
func (c *EngineConfig) Validate() error {
	if c.StartupTimeout <= 0 {
		return fmt.Errorf("启动超时必须大于0")
	}
	if c.WorkerPoolSize < 1 || c.WorkerPoolSize > 64 {
		return fmt.Errorf("工作池大小必须在1-64之间")
	}
	if c.MaxFailures < 1 || c.MaxFailures > 10 {
		return fmt.Errorf("故障转移上限必须在1-10之间")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("探测超时必须大于0")
	}
	return nil
}

// ReadinessConfig 内容就绪等待配置
type ReadinessConfig struct {
	MaxWait      time.Duration `json:"max_wait"`      // 最大等待时长 (默认:10s)
	PollInterval time.Duration `json:"poll_interval"` // 轮询间隔 (默认:500ms)
	MinTextLen   int           `json:"min_text_len"`  // 默认校验器的最小文本长度 (默认:1)
}

// DefaultReadinessConfig 默认就绪等待配置
func DefaultReadinessConfig() ReadinessConfig {
	return ReadinessConfig{
		MaxWait:      10 * time.Second,
		PollInterval: 500 * time.Millisecond,
		MinTextLen:   1,
	}
}

// Validate 验证就绪等待配置
func (c *ReadinessConfig) Validate() error {
	if c.MaxWait <= 0 {
		return fmt.Errorf("最大等待时长必须大于0")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("轮询间隔必须大于0")
	}
	if c.PollInterval >= c.MaxWait {
		return fmt.Errorf("轮询间隔必须小于最大等待时长")
	}
	return nil
}

// SelectorConfig 页面选择器配置
// 每项为按优先级排列的候选CSS选择器列表,首个命中者生效
type SelectorConfig struct {
	ProductList   []string `json:"product_list"`   // 商品列表容器选择器
	ProductTitle  []string `json:"product_title"`  // 商品标题选择器
	ProductPrice  []string `json:"product_price"`  // 商品价格选择器
	DetailContent []string `json:"detail_content"` // 详情页主体选择器
	DetailSales   []string `json:"detail_sales"`   // 详情页销量选择器
}

// DefaultSelectorConfig 默认选择器配置
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		ProductList:   []string{".product-item", ".goods-item", "[data-product-id]"},
		ProductTitle:  []string{".product-title", ".goods-title", "h1.title"},
		ProductPrice:  []string{".product-price", ".price", "[data-price]"},
		DetailContent: []string{".detail-content", "#detail", ".product-detail"},
		DetailSales:   []string{".sales-count", ".sold-num"},
	}
}

// Validate 验证选择器配置
func (c *SelectorConfig) Validate() error {
	if len(c.ProductList) == 0 {
		return fmt.Errorf("商品列表选择器不能为空")
	}
	if len(c.DetailContent) == 0 {
		return fmt.Errorf("详情页主体选择器不能为空")
	}
	return nil
}

// RetryConfig 阶段重试配置
type RetryConfig struct {
	Attempts int           `json:"attempts"` // 最大尝试次数 (默认:3)
	Delay    time.Duration `json:"delay"`    // 尝试间固定延迟 (默认:1s)
}

// DefaultRetryConfig 默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: 3,
		Delay:    time.Second,
	}
}

// Validate 验证重试配置
func (c *RetryConfig) Validate() error {
	if c.Attempts < 1 || c.Attempts > 10 {
		return fmt.Errorf("尝试次数必须在1-10之间")
	}
	if c.Delay < 0 {
		return fmt.Errorf("重试延迟不能为负数")
	}
	return nil
}
