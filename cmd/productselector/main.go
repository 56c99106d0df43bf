package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arctrany/ai-product-selector-sub005/internal/core"
	"github.com/arctrany/ai-product-selector-sub005/internal/models"
	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// 选品参数
	targetURL      string
	urlFile        string
	kind           string
	maxWait        int
	pollIntervalMs int
	retryAttempts  int
	useBrowser     bool
	headless       bool
	outputDir      string

	// 批量处理参数
	batchDelay      int
	continueOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "productselector",
	Short: "浏览器渲染页面的商品选品工具",
	Long: `ProductSelector - 浏览器渲染页面的商品选品工具 (Go版本)

专门用于从JavaScript渲染的电商页面提取商品数据,支持:
  • 静态优先的内容就绪检测(内容已就绪时不动用浏览器)
  • 单引擎编组的浏览器调用(任意并发调用方都线程安全)
  • 引擎健康监控与自动故障转移
  • 列表页/详情页组合提取,容忍部分失败
  • 瞬态失败自动重试
  • 批量URL处理

使用示例:
  # 单URL选品(列表页+详情页)
  productselector -u https://shop.example.com/list

  # 仅提取列表页
  productselector -u https://shop.example.com/list -k list

  # 批量处理
  productselector -f urls.txt --batch-delay 2

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 如果没有提供任何参数,显示帮助信息
		if targetURL == "" && urlFile == "" {
			return cmd.Help()
		}

		// 验证参数
		if err := ValidateFlags(targetURL, kind, maxWait, pollIntervalMs, retryAttempts); err != nil {
			return err
		}

		// 加载配置并合并命令行参数
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig.MergeCLIFlags(maxWait, pollIntervalMs, retryAttempts, headless, batchDelay, continueOnError)

		// 设置信号处理(Ctrl+C优雅退出)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			utils.Warnf("收到中断信号: %v, 正在优雅关闭...", sig)
			cancel()
		}()

		// 创建并初始化选品器
		selector := core.NewProductSelector(appConfig, outputDir, useBrowser)
		if err := selector.Initialize(); err != nil {
			return fmt.Errorf("初始化选品器失败: %w", err)
		}
		defer selector.Close()

		operationKind := parseKind(kind)

		// 批量处理模式
		if urlFile != "" {
			urls, err := utils.ReadURLsFromFile(urlFile)
			if err != nil {
				return fmt.Errorf("读取URL文件失败: %w", err)
			}

			batch := core.NewBatchSelector(selector, operationKind, appConfig.Batch.DelaySec, appConfig.Batch.ContinueOnError)
			if _, err := batch.SelectBatch(ctx, urls); err != nil {
				return fmt.Errorf("批量选品失败: %w", err)
			}

			utils.Info("✨ 批量选品任务完成!")
			return nil
		}

		// 单URL选品模式
		result, err := selector.Select(ctx, targetURL, operationKind)
		if err != nil {
			return fmt.Errorf("选品失败: %w", err)
		}

		// 显示统计结果
		metrics := selector.GetMetrics()
		fmt.Println("\n==================================================")
		fmt.Println("📊 选品统计")
		fmt.Println("==================================================")
		fmt.Printf("操作ID: %s\n", result.ID)
		fmt.Printf("整体结果: %s\n", formatSuccess(result.Success))
		for _, sr := range result.Stages {
			fmt.Printf("  阶段 [%s]: %s\n", sr.Stage, sr.Status)
		}
		if count, ok := result.Data["product_count"].(int); ok {
			fmt.Printf("📦 提取商品数: %d\n", count)
		}
		fmt.Printf("⏱️  总耗时: %.2f秒\n", result.Elapsed.Seconds())
		fmt.Printf("累计操作: %d (成功%d/失败%d, 重试%d次)\n", metrics.Total, metrics.Succeeded, metrics.Failed, metrics.Retries)
		fmt.Println("==================================================")

		if !result.Success {
			return fmt.Errorf("选品未成功: %s", result.Error)
		}

		utils.Info("✨ 选品任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ProductSelector %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 浏览器渲染页面的商品选品工具")
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "初始化引擎并输出健康状态",
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		selector := core.NewProductSelector(appConfig, "", false)
		if err := selector.Initialize(); err != nil {
			return fmt.Errorf("初始化选品器失败: %w", err)
		}
		defer selector.Close()

		status := selector.HealthCheck()
		report := selector.HealthReport()

		fmt.Println("==================================================")
		fmt.Println("🏥 健康状态")
		fmt.Println("==================================================")
		fmt.Printf("监督器: %s\n", formatSuccess(status.Supervisor))
		fmt.Printf("渲染能力: %s\n", status.Capability)
		for name, ready := range status.Stages {
			fmt.Printf("  阶段 [%s]: %s\n", name, formatSuccess(ready))
		}
		fmt.Printf("引擎运行中: %v, 可响应: %v\n", report.IsRunning, report.IsResponsive)
		fmt.Println("==================================================")
		return nil
	},
}

// parseKind 把命令行模式映射为操作类型
func parseKind(mode string) models.OperationKind {
	if mode == "list" {
		return models.KindProductList
	}
	return models.KindProductSelect
}

// formatSuccess 布尔状态的可读展示
func formatSuccess(ok bool) string {
	if ok {
		return "✅ 成功"
	}
	return "❌ 失败"
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// 选品参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "目标URL (必需,除非使用 --url-file)")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含URL列表的文件路径")
	rootCmd.Flags().StringVarP(&kind, "kind", "k", "select", "操作类型 (select|list)")
	rootCmd.Flags().IntVarP(&maxWait, "max-wait", "w", 0, "内容就绪最大等待时间(秒), 0=使用配置文件")
	rootCmd.Flags().IntVar(&pollIntervalMs, "poll-interval", 0, "实时轮询间隔(毫秒), 0=使用配置文件")
	rootCmd.Flags().IntVar(&retryAttempts, "retries", 0, "阶段最大尝试次数, 0=使用配置文件")
	rootCmd.Flags().BoolVar(&useBrowser, "browser", true, "启用浏览器渲染能力")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "output", "结果输出目录")

	// 批量处理参数
	rootCmd.Flags().IntVar(&batchDelay, "batch-delay", 1, "批量处理URL间延迟(秒)")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
