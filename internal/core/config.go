package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Engine    EngineSettings        `mapstructure:"engine"`
	Readiness ReadinessSettings     `mapstructure:"readiness"`
	Selectors SelectorSettings      `mapstructure:"selectors"`
	Retry     RetrySettings         `mapstructure:"retry"`
	Browser   BrowserSettings       `mapstructure:"browser"`
	Logging   LoggingConfig         `mapstructure:"logging"`
	Batch     BatchSettings         `mapstructure:"batch"`
}

// EngineSettings 执行引擎配置(时间单位见各字段注释)
type EngineSettings struct {
	StartupTimeoutSec int `mapstructure:"startup_timeout"`  // 引擎启动等待上限(秒)
	SubmitTimeoutSec  int `mapstructure:"submit_timeout"`   // 默认任务等待上限(秒)
	WorkerPoolSize    int `mapstructure:"worker_pool_size"` // 阻塞调用工作池大小
	MaxFailures       int `mapstructure:"max_failures"`     // 故障转移新建引擎上限
	CheckIntervalSec  int `mapstructure:"check_interval"`   // 健康检查最小复查间隔(秒)
	ProbeTimeoutMs    int `mapstructure:"probe_timeout_ms"` // 响应性探测超时(毫秒)
}

// ReadinessSettings 内容就绪等待配置
type ReadinessSettings struct {
	MaxWaitSec     int `mapstructure:"max_wait"`      // 最大等待时长(秒)
	PollIntervalMs int `mapstructure:"poll_interval"` // 轮询间隔(毫秒)
	MinTextLen     int `mapstructure:"min_text_len"`  // 默认校验器最小文本长度
}

// SelectorSettings 页面选择器配置
type SelectorSettings struct {
	ProductList   []string `mapstructure:"product_list"`
	ProductTitle  []string `mapstructure:"product_title"`
	ProductPrice  []string `mapstructure:"product_price"`
	DetailContent []string `mapstructure:"detail_content"`
	DetailSales   []string `mapstructure:"detail_sales"`
}

// RetrySettings 阶段重试配置
type RetrySettings struct {
	Attempts int `mapstructure:"attempts"` // 最大尝试次数
	DelaySec int `mapstructure:"delay"`    // 尝试间延迟(秒)
}

// BrowserSettings 浏览器配置
type BrowserSettings struct {
	Headless      bool `mapstructure:"headless"`       // 无头模式
	NavTimeoutSec int  `mapstructure:"nav_timeout"`    // 导航超时(秒)
	CallTimeoutSec int `mapstructure:"call_timeout"`   // 单次编组调用超时(秒)
}

// BatchSettings 批量处理配置
type BatchSettings struct {
	DelaySec        int  `mapstructure:"delay"`             // URL之间延迟(秒)
	ContinueOnError bool `mapstructure:"continue_on_error"` // 遇到错误继续
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".productselector"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 引擎配置默认值
	v.SetDefault("engine.startup_timeout", 5)
	v.SetDefault("engine.submit_timeout", 30)
	v.SetDefault("engine.worker_pool_size", 4)
	v.SetDefault("engine.max_failures", 3)
	v.SetDefault("engine.check_interval", 1)
	v.SetDefault("engine.probe_timeout_ms", 100)

	// 就绪等待配置默认值
	v.SetDefault("readiness.max_wait", 10)
	v.SetDefault("readiness.poll_interval", 500)
	v.SetDefault("readiness.min_text_len", 1)

	// 选择器配置默认值
	defaults := models.DefaultSelectorConfig()
	v.SetDefault("selectors.product_list", defaults.ProductList)
	v.SetDefault("selectors.product_title", defaults.ProductTitle)
	v.SetDefault("selectors.product_price", defaults.ProductPrice)
	v.SetDefault("selectors.detail_content", defaults.DetailContent)
	v.SetDefault("selectors.detail_sales", defaults.DetailSales)

	// 重试配置默认值
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", 1)

	// 浏览器配置默认值
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.nav_timeout", 30)
	v.SetDefault("browser.call_timeout", 30)

	// 批量处理配置默认值
	v.SetDefault("batch.delay", 1)
	v.SetDefault("batch.continue_on_error", true)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// GetEngineConfig 从配置中提取引擎配置
func (c *Config) GetEngineConfig() models.EngineConfig {
	cfg := models.DefaultEngineConfig()
	if c.Engine.StartupTimeoutSec > 0 {
		cfg.StartupTimeout = time.Duration(c.Engine.StartupTimeoutSec) * time.Second
	}
	if c.Engine.SubmitTimeoutSec > 0 {
		cfg.SubmitTimeout = time.Duration(c.Engine.SubmitTimeoutSec) * time.Second
	}
	if c.Engine.WorkerPoolSize > 0 {
		cfg.WorkerPoolSize = c.Engine.WorkerPoolSize
	}
	if c.Engine.MaxFailures > 0 {
		cfg.MaxFailures = c.Engine.MaxFailures
	}
	if c.Engine.CheckIntervalSec > 0 {
		cfg.CheckInterval = time.Duration(c.Engine.CheckIntervalSec) * time.Second
	}
	if c.Engine.ProbeTimeoutMs > 0 {
		cfg.ProbeTimeout = time.Duration(c.Engine.ProbeTimeoutMs) * time.Millisecond
	}
	return cfg
}

// GetReadinessConfig 从配置中提取就绪等待配置
func (c *Config) GetReadinessConfig() models.ReadinessConfig {
	cfg := models.DefaultReadinessConfig()
	if c.Readiness.MaxWaitSec > 0 {
		cfg.MaxWait = time.Duration(c.Readiness.MaxWaitSec) * time.Second
	}
	if c.Readiness.PollIntervalMs > 0 {
		cfg.PollInterval = time.Duration(c.Readiness.PollIntervalMs) * time.Millisecond
	}
	if c.Readiness.MinTextLen > 0 {
		cfg.MinTextLen = c.Readiness.MinTextLen
	}
	return cfg
}

// GetSelectorConfig 从配置中提取选择器配置
func (c *Config) GetSelectorConfig() models.SelectorConfig {
	return models.SelectorConfig{
		ProductList:   c.Selectors.ProductList,
		ProductTitle:  c.Selectors.ProductTitle,
		ProductPrice:  c.Selectors.ProductPrice,
		DetailContent: c.Selectors.DetailContent,
		DetailSales:   c.Selectors.DetailSales,
	}
}

// GetRetryConfig 从配置中提取重试配置
func (c *Config) GetRetryConfig() models.RetryConfig {
	cfg := models.DefaultRetryConfig()
	if c.Retry.Attempts > 0 {
		cfg.Attempts = c.Retry.Attempts
	}
	if c.Retry.DelaySec >= 0 {
		cfg.Delay = time.Duration(c.Retry.DelaySec) * time.Second
	}
	return cfg
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(maxWait int, pollIntervalMs int, attempts int, headless bool, batchDelay int, continueOnError bool) {
	if maxWait > 0 {
		c.Readiness.MaxWaitSec = maxWait
	}
	if pollIntervalMs > 0 {
		c.Readiness.PollIntervalMs = pollIntervalMs
	}
	if attempts > 0 {
		c.Retry.Attempts = attempts
	}
	c.Browser.Headless = headless
	if batchDelay >= 0 {
		c.Batch.DelaySec = batchDelay
	}
	c.Batch.ContinueOnError = continueOnError
}
