package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/engine"
	"github.com/arctrany/ai-product-selector-sub005/internal/models"
	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
	"github.com/google/uuid"
)

// 错误类型定义
var (
	ErrUnsupportedKind = errors.New("不支持的操作类型")
)

// Orchestrator 阶段编排器
// 职责: 把命名的提取阶段组合为一次逻辑操作,按依赖顺序执行,容忍部分失败,
// 从成功的阶段装配合并结果,并维护滚动指标
//
// 操作类型到阶段序列的绑定在构造期完成(类型化注册表),不做每次调用的
// 字符串匹配分发
type Orchestrator struct {
	supervisor *engine.Supervisor
	registry   map[models.OperationKind][]models.StageCapability
	metrics    *Metrics
	retry      models.RetryConfig
	capability string
}

// HealthStatus 编排器健康状态
type HealthStatus struct {
	Supervisor bool            `json:"supervisor"` // 监督器是否健康
	Stages     map[string]bool `json:"stages"`     // 各阶段依赖是否就绪
	Capability string          `json:"capability"` // 渲染能力名称
}

// NewOrchestrator 创建编排器
func NewOrchestrator(supervisor *engine.Supervisor, retry models.RetryConfig) *Orchestrator {
	return &Orchestrator{
		supervisor: supervisor,
		registry:   make(map[models.OperationKind][]models.StageCapability),
		metrics:    NewMetrics(),
		retry:      retry,
	}
}

// RegisterKind 在构造期绑定操作类型的阶段序列
func (o *Orchestrator) RegisterKind(kind models.OperationKind, stages ...models.StageCapability) {
	o.registry[kind] = stages
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, s.Name())
	}
	utils.Debugf("注册操作类型 [%s]: 阶段序列=%v", kind, names)
}

// SetCapability 记录使用中的渲染能力名称(供健康检查展示)
func (o *Orchestrator) SetCapability(name string) {
	o.capability = name
}

// Execute 执行一次组合操作
//
// 语义:
//   - 阶段按注册顺序执行,依赖失败的下游阶段被跳过
//   - 单个阶段失败不中止整个操作; 首个(主)阶段失败时整体success=false,
//     否则只要有任一阶段产出数据即success=true
//   - 普通操作性失败不返回error,调用方检查结果的Success/Error字段;
//     error只用于不支持的操作类型(调用方误用)
func (o *Orchestrator) Execute(ctx context.Context, kind models.OperationKind, opts models.StageOptions) (models.OperationResult, error) {
	stages, ok := o.registry[kind]
	if !ok {
		return models.OperationResult{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	start := time.Now()
	result := models.OperationResult{
		ID:        uuid.New().String(),
		Kind:      kind,
		Data:      make(map[string]interface{}),
		Stages:    make([]models.StageResult, 0, len(stages)),
		StartedAt: start,
	}

	utils.Infof("🚀 开始操作 [%s] id=%s 目标=%s", kind, result.ID, opts.TargetURL)

	succeeded := make(map[string]bool)
	primaryFailed := false

	for i, stage := range stages {
		// 依赖检查: 任一前置阶段未成功则跳过
		var missing string
		for _, dep := range stage.Requires() {
			if !succeeded[dep] {
				missing = dep
				break
			}
		}
		if missing != "" {
			utils.Warnf("阶段 [%s] 被跳过: 依赖阶段 [%s] 未成功", stage.Name(), missing)
			result.Stages = append(result.Stages, models.NewStageSkipped(stage.Name(), fmt.Sprintf("依赖阶段未成功: %s", missing)))
			continue
		}

		sr := o.ExecuteWithRetry(stage.Name(), o.retry.Attempts, o.retry.Delay, func() models.StageResult {
			return o.runStage(ctx, stage, result.Data, opts)
		})
		result.Stages = append(result.Stages, sr)

		if sr.Success {
			succeeded[stage.Name()] = true
			for k, v := range sr.Data {
				result.Data[k] = v
			}
			utils.Infof("✅ 阶段 [%s] 完成 (耗时%.2f秒)", stage.Name(), sr.Elapsed.Seconds())
		} else {
			if i == 0 {
				primaryFailed = true
			}
			if result.Error == "" {
				result.Error = sr.Error
			}
			utils.Warnf("阶段 [%s] 失败: %s (操作继续)", stage.Name(), sr.Error)
		}
	}

	result.Success = !primaryFailed && len(succeeded) > 0
	result.Elapsed = time.Since(start)

	o.metrics.Record(result.Success, result.Elapsed)
	result.Metrics = o.metrics.Snapshot()

	if result.Success {
		utils.Infof("✅ 操作 [%s] 完成: 成功阶段=%d/%d, 耗时%.2f秒", kind, len(succeeded), len(stages), result.Elapsed.Seconds())
	} else {
		utils.Warnf("操作 [%s] 失败: %s", kind, result.Error)
	}

	return result, nil
}

// runStage 执行单个阶段,panic和传输类异常统一转换为失败的阶段结果,
// 使编排器能够套用部分失败语义
func (o *Orchestrator) runStage(ctx context.Context, stage models.StageCapability, accumulated map[string]interface{}, opts models.StageOptions) (sr models.StageResult) {
	stageStart := time.Now()

	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("阶段 [%s] panic: %v", stage.Name(), r)
			sr = models.NewStageFailure(stage.Name(), fmt.Errorf("阶段panic: %v", r), models.FailureRetryable, time.Since(stageStart))
		}
	}()

	sr = stage.Run(ctx, accumulated, opts)
	if sr.Elapsed == 0 {
		sr.Elapsed = time.Since(stageStart)
	}
	return sr
}

// GetMetrics 当前指标快照
func (o *Orchestrator) GetMetrics() models.MetricsSnapshot {
	return o.metrics.Snapshot()
}

// ResetMetrics 显式清零指标
func (o *Orchestrator) ResetMetrics() {
	o.metrics.Reset()
	utils.Infof("操作指标已清零")
}

// HealthCheck 报告各配置依赖的状态,不执行真实工作
func (o *Orchestrator) HealthCheck() HealthStatus {
	status := HealthStatus{
		Supervisor: o.supervisor != nil && o.supervisor.IsHealthy(),
		Stages:     make(map[string]bool),
		Capability: o.capability,
	}

	for _, stages := range o.registry {
		for _, stage := range stages {
			status.Stages[stage.Name()] = stage.Ready()
		}
	}

	return status
}
