package models

import (
	"encoding/json"
	"time"
)

// OperationKind 操作类型
// 采用类型化注册表: 每种操作类型在编排器构造时绑定一条固定的阶段序列
type OperationKind string

const (
	KindProductSelect OperationKind = "product_select" // 商品选品: 列表页 -> 详情页
	KindProductList   OperationKind = "product_list"   // 仅列表页提取
)

// StageStatus 阶段执行状态
type StageStatus string

const (
	StageStatusCompleted StageStatus = "completed" // 执行完成(成功)
	StageStatusFailed    StageStatus = "failed"    // 执行失败
	StageStatusSkipped   StageStatus = "skipped"   // 因依赖失败被跳过
)

// FailureKind 阶段失败类别
// 重试策略只对瞬态失败(网络/超时类)生效,校验类失败不重试
type FailureKind string

const (
	FailureNone       FailureKind = ""           // 无失败
	FailureRetryable  FailureKind = "retryable"  // 瞬态失败: 网络/超时类
	FailureValidation FailureKind = "validation" // 校验失败: 重试无意义
)

// StageResult 单个阶段的执行结果
// 阶段返回后不可变
type StageResult struct {
	Stage       string                 `json:"stage"`                 // 阶段名称
	Status      StageStatus            `json:"status"`                // 执行状态
	Success     bool                   `json:"success"`               // 是否成功
	Data        map[string]interface{} `json:"data,omitempty"`        // 阶段产出数据
	Error       string                 `json:"error,omitempty"`       // 错误消息
	FailureKind FailureKind            `json:"failure_kind,omitempty"` // 失败类别
	Elapsed     time.Duration          `json:"elapsed"`               // 执行耗时
}

// NewStageSuccess 构造成功的阶段结果
func NewStageSuccess(stage string, data map[string]interface{}, elapsed time.Duration) StageResult {
	return StageResult{
		Stage:   stage,
		Status:  StageStatusCompleted,
		Success: true,
		Data:    data,
		Elapsed: elapsed,
	}
}

// NewStageFailure 构造失败的阶段结果
func NewStageFailure(stage string, err error, kind FailureKind, elapsed time.Duration) StageResult {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return StageResult{
		Stage:       stage,
		Status:      StageStatusFailed,
		Success:     false,
		Error:       msg,
		FailureKind: kind,
		Elapsed:     elapsed,
	}
}

// NewStageSkipped 构造被跳过的阶段结果
func NewStageSkipped(stage string, reason string) StageResult {
	return StageResult{
		Stage:  stage,
		Status: StageStatusSkipped,
		Error:  reason,
	}
}

// Retryable 判断该阶段失败是否值得重试
func (r StageResult) Retryable() bool {
	return !r.Success && r.FailureKind == FailureRetryable
}

// OperationResult 一次完整操作的汇总结果
// execute()对普通操作性失败不抛异常,调用方检查Success/Error字段
type OperationResult struct {
	ID        string                 `json:"id"`                  // 操作唯一ID (UUID)
	Kind      OperationKind          `json:"kind"`                // 操作类型
	Success   bool                   `json:"success"`             // 整体是否成功
	Data      map[string]interface{} `json:"data,omitempty"`      // 各成功阶段的合并数据
	Error     string                 `json:"error,omitempty"`     // 首要错误消息
	Stages    []StageResult          `json:"stages"`              // 各阶段执行记录(含跳过)
	Elapsed   time.Duration          `json:"elapsed"`             // 总耗时
	Metrics   MetricsSnapshot        `json:"metrics"`             // 操作完成时的指标快照
	StartedAt time.Time              `json:"started_at"`          // 开始时间
}

// MetricsSnapshot 操作指标快照
// 不变量: Total == Succeeded + Failed; AvgLatency为Total次操作的滚动平均
type MetricsSnapshot struct {
	Total      int           `json:"total"`       // 总操作数
	Succeeded  int           `json:"succeeded"`   // 成功操作数
	Failed     int           `json:"failed"`      // 失败操作数
	AvgLatency time.Duration `json:"avg_latency"` // 平均耗时
	Retries    int           `json:"retries"`     // 实际发生的重试次数
}

// HealthReport 引擎健康报告
// 每次实时采集,不持久化; 最小复查间隔内的重复调用返回空报告
type HealthReport struct {
	IsRunning    bool      `json:"is_running"`      // 引擎是否运行中
	IsClosed     bool      `json:"is_closed"`       // 引擎是否已关闭
	IsResponsive bool      `json:"is_responsive"`   // 引擎是否可响应(100ms内完成空任务)
	Error        string    `json:"error,omitempty"` // 探测错误文本
	SampledAt    time.Time `json:"sampled_at"`      // 采样时间
}

// Healthy 引擎是否健康(运行中且可响应)
func (r HealthReport) Healthy() bool {
	return r.IsRunning && !r.IsClosed && r.IsResponsive
}

// ToJSON 序列化为JSON
func (r *OperationResult) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
