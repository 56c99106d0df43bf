package engine

import "errors"

// 错误类型定义
var (
	ErrInitialization    = errors.New("引擎初始化失败")
	ErrNotInitialized    = errors.New("监督器尚未初始化")
	ErrSubmitTimeout     = errors.New("任务等待超时")
	ErrEngineClosed      = errors.New("引擎已关闭")
	ErrFailoverExhausted = errors.New("故障转移已达创建上限")
)
