package models

import (
	"testing"
	"time"
)

// TestEngineConfigValidate 测试引擎配置验证
func TestEngineConfigValidate(t *testing.T) {
	t.Run("默认配置有效", func(t *testing.T) {
		cfg := DefaultEngineConfig()
		if err := cfg.Validate(); err != nil {
			t.Errorf("默认配置应通过验证: %v", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*EngineConfig)
	}{
		{"启动超时为0", func(c *EngineConfig) { c.StartupTimeout = 0 }},
		{"工作池过小", func(c *EngineConfig) { c.WorkerPoolSize = 0 }},
		{"工作池过大", func(c *EngineConfig) { c.WorkerPoolSize = 100 }},
		{"故障转移上限过小", func(c *EngineConfig) { c.MaxFailures = 0 }},
		{"故障转移上限过大", func(c *EngineConfig) { c.MaxFailures = 11 }},
		{"探测超时为0", func(c *EngineConfig) { c.ProbeTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEngineConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("非法配置应验证失败")
			}
		})
	}
}

// TestReadinessConfigValidate 测试就绪等待配置验证
func TestReadinessConfigValidate(t *testing.T) {
	t.Run("默认配置有效", func(t *testing.T) {
		cfg := DefaultReadinessConfig()
		if err := cfg.Validate(); err != nil {
			t.Errorf("默认配置应通过验证: %v", err)
		}
	})

	t.Run("轮询间隔不小于最大等待", func(t *testing.T) {
		cfg := DefaultReadinessConfig()
		cfg.PollInterval = cfg.MaxWait
		if err := cfg.Validate(); err == nil {
			t.Error("轮询间隔等于最大等待应验证失败")
		}
	})

	t.Run("最大等待为0", func(t *testing.T) {
		cfg := DefaultReadinessConfig()
		cfg.MaxWait = 0
		if err := cfg.Validate(); err == nil {
			t.Error("最大等待为0应验证失败")
		}
	})
}

// TestRetryConfigValidate 测试重试配置验证
func TestRetryConfigValidate(t *testing.T) {
	t.Run("默认配置有效", func(t *testing.T) {
		cfg := DefaultRetryConfig()
		if err := cfg.Validate(); err != nil {
			t.Errorf("默认配置应通过验证: %v", err)
		}
	})

	t.Run("尝试次数越界", func(t *testing.T) {
		cfg := DefaultRetryConfig()
		cfg.Attempts = 0
		if err := cfg.Validate(); err == nil {
			t.Error("尝试次数为0应验证失败")
		}
		cfg.Attempts = 11
		if err := cfg.Validate(); err == nil {
			t.Error("尝试次数超过10应验证失败")
		}
	})

	t.Run("负延迟", func(t *testing.T) {
		cfg := DefaultRetryConfig()
		cfg.Delay = -time.Second
		if err := cfg.Validate(); err == nil {
			t.Error("负延迟应验证失败")
		}
	})
}

// TestSelectorConfigValidate 测试选择器配置验证
func TestSelectorConfigValidate(t *testing.T) {
	t.Run("默认配置有效", func(t *testing.T) {
		cfg := DefaultSelectorConfig()
		if err := cfg.Validate(); err != nil {
			t.Errorf("默认配置应通过验证: %v", err)
		}
	})

	t.Run("列表选择器为空", func(t *testing.T) {
		cfg := DefaultSelectorConfig()
		cfg.ProductList = nil
		if err := cfg.Validate(); err == nil {
			t.Error("列表选择器为空应验证失败")
		}
	})
}

// TestStageResultHelpers 测试阶段结果构造器
func TestStageResultHelpers(t *testing.T) {
	t.Run("成功结果", func(t *testing.T) {
		sr := NewStageSuccess("list", map[string]interface{}{"n": 1}, time.Second)
		if !sr.Success || sr.Status != StageStatusCompleted {
			t.Errorf("成功结果状态错误: %+v", sr)
		}
		if sr.Retryable() {
			t.Error("成功结果不应可重试")
		}
	})

	t.Run("瞬态失败可重试", func(t *testing.T) {
		sr := NewStageFailure("list", nil, FailureRetryable, time.Second)
		if sr.Success || sr.Status != StageStatusFailed {
			t.Errorf("失败结果状态错误: %+v", sr)
		}
		if !sr.Retryable() {
			t.Error("瞬态失败应可重试")
		}
	})

	t.Run("校验失败不可重试", func(t *testing.T) {
		sr := NewStageFailure("list", nil, FailureValidation, time.Second)
		if sr.Retryable() {
			t.Error("校验失败不应可重试")
		}
	})

	t.Run("跳过结果", func(t *testing.T) {
		sr := NewStageSkipped("detail", "依赖失败")
		if sr.Success || sr.Status != StageStatusSkipped {
			t.Errorf("跳过结果状态错误: %+v", sr)
		}
	})
}

// TestHealthReportHealthy 测试健康报告的判定
func TestHealthReportHealthy(t *testing.T) {
	tests := []struct {
		name   string
		report HealthReport
		want   bool
	}{
		{"运行中且可响应", HealthReport{IsRunning: true, IsResponsive: true}, true},
		{"运行中但不可响应", HealthReport{IsRunning: true}, false},
		{"已关闭", HealthReport{IsRunning: true, IsClosed: true, IsResponsive: true}, false},
		{"未运行", HealthReport{IsResponsive: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.report.Healthy() != tt.want {
				t.Errorf("Healthy() = %v, 期望 %v", tt.report.Healthy(), tt.want)
			}
		})
	}
}
