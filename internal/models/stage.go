package models

import (
	"context"
	"time"
)

// StageOptions 阶段运行选项
type StageOptions struct {
	TargetURL string            // 目标URL
	Timeout   time.Duration     // 阶段超时
	Params    map[string]string // 业务参数
}

// StageCapability 阶段能力接口
// 一次组合操作中独立可失败的单元,具体提取/业务逻辑由实现方封装
type StageCapability interface {
	// Name 阶段名称(注册表内唯一)
	Name() string

	// Requires 依赖的前置阶段名,任一依赖失败则本阶段被跳过
	Requires() []string

	// Ready 阶段依赖是否就绪(不执行真实工作,供健康检查用)
	Ready() bool

	// Run 执行阶段: 接收已累积的结果,返回本阶段结果
	Run(ctx context.Context, accumulated map[string]interface{}, opts StageOptions) StageResult
}
