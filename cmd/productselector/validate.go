package main

import (
	"fmt"

	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
)

// ValidateFlags 验证命令行标志
func ValidateFlags(targetURL string, kind string, maxWait int, pollIntervalMs int, retryAttempts int) error {
	// 验证URL
	if targetURL != "" {
		if err := utils.ValidateURL(targetURL); err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
	}

	// 验证操作类型
	validKinds := map[string]bool{
		"select": true,
		"list":   true,
	}
	if !validKinds[kind] {
		return fmt.Errorf("无效的操作类型: %s (有效值: select, list)", kind)
	}

	// 验证等待时间
	if maxWait < 0 || maxWait > 300 {
		return fmt.Errorf("最大等待时间必须在0-300秒之间,当前值: %d", maxWait)
	}

	// 验证轮询间隔
	if pollIntervalMs < 0 || pollIntervalMs > 60000 {
		return fmt.Errorf("轮询间隔必须在0-60000毫秒之间,当前值: %d", pollIntervalMs)
	}

	// 验证重试次数
	if retryAttempts < 0 || retryAttempts > 10 {
		return fmt.Errorf("尝试次数必须在0-10之间,当前值: %d", retryAttempts)
	}

	return nil
}
