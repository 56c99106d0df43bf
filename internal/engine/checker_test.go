package engine

import (
	"context"
	"testing"
	"time"
)

// TestCheckerMinInterval 测试最小复查间隔内返回空报告
func TestCheckerMinInterval(t *testing.T) {
	h := startedHandle(t)
	defer stopHandle(t, h)

	c := NewHealthChecker(func() *EngineHandle { return h }, time.Second, 100*time.Millisecond)

	first := c.CheckHealth()
	if first.SampledAt.IsZero() {
		t.Fatal("首次检查应执行真实探测")
	}
	if !first.Healthy() {
		t.Errorf("运行中的引擎应健康: %+v", first)
	}

	// 间隔内的重复调用: 空报告,不执行探测
	second := c.CheckHealth()
	if !second.SampledAt.IsZero() {
		t.Error("最小复查间隔内应返回空报告")
	}

	// 上次真实报告仍可获取
	last := c.LastReport()
	if !last.SampledAt.Equal(first.SampledAt) {
		t.Error("LastReport应返回上次真实检查的结果")
	}
}

// TestCheckerProbeTimeout 测试引擎被长任务占用时探测超时
func TestCheckerProbeTimeout(t *testing.T) {
	h := startedHandle(t)
	defer stopHandle(t, h)

	// 用一个长任务占住引擎goroutine
	blocker := &taskRequest{
		task: func(ctx context.Context) (interface{}, error) {
			time.Sleep(500 * time.Millisecond)
			return nil, nil
		},
		ctx:   context.Background(),
		reply: make(chan taskReply, 1),
	}
	if err := h.Submit(blocker); err != nil {
		t.Fatalf("提交占位任务失败: %v", err)
	}
	time.Sleep(20 * time.Millisecond) // 确保占位任务已开始

	c := NewHealthChecker(func() *EngineHandle { return h }, 10*time.Millisecond, 100*time.Millisecond)

	report := c.CheckHealth()
	if report.IsResponsive {
		t.Error("被占用的引擎不应可响应")
	}
	if report.Error == "" {
		t.Error("探测超时应记录错误文本")
	}
	if !report.IsRunning {
		t.Error("引擎仍在运行,IsRunning应为true")
	}

	// 等占位任务结束后恢复可响应
	<-blocker.reply
	time.Sleep(20 * time.Millisecond)

	report = c.CheckHealth()
	if !report.IsResponsive {
		t.Errorf("空闲引擎应恢复可响应: %+v", report)
	}
}

// TestCheckerStoppedEngine 测试已停止引擎的报告
func TestCheckerStoppedEngine(t *testing.T) {
	h := startedHandle(t)
	stopHandle(t, h)

	c := NewHealthChecker(func() *EngineHandle { return h }, 10*time.Millisecond, 100*time.Millisecond)

	report := c.CheckHealth()
	if report.IsRunning {
		t.Error("已停止的引擎IsRunning应为false")
	}
	if !report.IsClosed {
		t.Error("已停止的引擎IsClosed应为true")
	}
	if report.Healthy() {
		t.Error("已停止的引擎不应健康")
	}
}

// TestCheckerNilEngine 测试引擎句柄为空的报告
func TestCheckerNilEngine(t *testing.T) {
	c := NewHealthChecker(func() *EngineHandle { return nil }, 10*time.Millisecond, 100*time.Millisecond)

	report := c.CheckHealth()
	if report.Healthy() {
		t.Error("空句柄不应健康")
	}
	if report.Error == "" {
		t.Error("空句柄应记录错误文本")
	}
}
