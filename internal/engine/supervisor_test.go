package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/models"
)

// newTestConfig 测试用快速引擎配置
func newTestConfig() models.EngineConfig {
	return models.EngineConfig{
		StartupTimeout:  2 * time.Second,
		SubmitTimeout:   time.Second,
		WorkerPoolSize:  2,
		MaxFailures:     3,
		CheckInterval:   time.Second,
		ProbeTimeout:    100 * time.Millisecond,
		MonitorInterval: 50 * time.Millisecond,
		SummaryInterval: time.Hour, // 测试中不触发摘要
	}
}

// TestSupervisorNotInitialized 测试未初始化时的防御行为
func TestSupervisorNotInitialized(t *testing.T) {
	s := NewSupervisor(newTestConfig())

	t.Run("未初始化提交任务", func(t *testing.T) {
		_, err := s.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
			return nil, nil
		}, time.Second)
		if !errors.Is(err, ErrNotInitialized) {
			t.Errorf("期望ErrNotInitialized, 得到: %v", err)
		}
	})

	t.Run("未初始化提交阻塞调用", func(t *testing.T) {
		_, err := s.SubmitBlocking(func() (interface{}, error) {
			return nil, nil
		})
		if !errors.Is(err, ErrNotInitialized) {
			t.Errorf("期望ErrNotInitialized, 得到: %v", err)
		}
	})

	t.Run("未初始化不健康", func(t *testing.T) {
		if s.IsHealthy() {
			t.Error("未初始化的监督器不应健康")
		}
	})

	t.Run("未初始化关闭是无害的", func(t *testing.T) {
		s.Shutdown()
	})
}

// TestSupervisorLifecycle 测试初始化/提交/关闭全流程
func TestSupervisorLifecycle(t *testing.T) {
	s := NewSupervisor(newTestConfig())
	if err := s.Initialize(); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	defer s.Shutdown()

	t.Run("重复初始化是幂等的", func(t *testing.T) {
		if err := s.Initialize(); err != nil {
			t.Errorf("重复初始化不应失败: %v", err)
		}
	})

	t.Run("提交任务并等待结果", func(t *testing.T) {
		value, err := s.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
			return "完成", nil
		}, time.Second)
		if err != nil {
			t.Fatalf("任务执行失败: %v", err)
		}
		if value.(string) != "完成" {
			t.Errorf("期望'完成', 得到: %v", value)
		}
	})

	t.Run("任务错误原样传播", func(t *testing.T) {
		wantErr := errors.New("业务错误")
		_, err := s.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
			return nil, wantErr
		}, time.Second)
		if !errors.Is(err, wantErr) {
			t.Errorf("期望业务错误原样传播, 得到: %v", err)
		}
	})

	t.Run("阻塞调用经由工作池", func(t *testing.T) {
		value, err := s.SubmitBlocking(func() (interface{}, error) {
			return 7, nil
		})
		if err != nil {
			t.Fatalf("阻塞调用失败: %v", err)
		}
		if value.(int) != 7 {
			t.Errorf("期望7, 得到: %v", value)
		}
	})

	t.Run("阻塞调用panic转换为错误", func(t *testing.T) {
		_, err := s.SubmitBlocking(func() (interface{}, error) {
			panic("工作池panic")
		})
		if err == nil {
			t.Error("panic应转换为错误")
		}
	})

	t.Run("监督器健康", func(t *testing.T) {
		if !s.IsHealthy() {
			t.Error("初始化后的监督器应健康")
		}
	})
}

// TestSupervisorTimeoutAbandons 测试超时只解除调用方阻塞,不取消在途任务
func TestSupervisorTimeoutAbandons(t *testing.T) {
	s := NewSupervisor(newTestConfig())
	if err := s.Initialize(); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	defer s.Shutdown()

	taskDone := make(chan struct{})

	start := time.Now()
	_, err := s.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
		time.Sleep(300 * time.Millisecond)
		close(taskDone)
		return nil, nil
	}, 100*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrSubmitTimeout) {
		t.Fatalf("期望ErrSubmitTimeout, 得到: %v", err)
	}
	// 调用方应在约100ms被解除阻塞,而不是等待任务的300ms
	if elapsed > 250*time.Millisecond {
		t.Errorf("超时解除阻塞过慢: %v", elapsed)
	}

	// 被放弃的任务仍应在后台执行完成
	select {
	case <-taskDone:
	case <-time.After(time.Second):
		t.Fatal("被放弃的任务应继续执行完成")
	}

	// 引擎保持可用
	_, err = s.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}, time.Second)
	if err != nil {
		t.Errorf("超时后引擎应继续可用: %v", err)
	}
}

// TestSupervisorShutdown 测试关闭行为
func TestSupervisorShutdown(t *testing.T) {
	s := NewSupervisor(newTestConfig())
	if err := s.Initialize(); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}

	s.Shutdown()
	s.Shutdown() // 幂等

	if s.IsInitialized() {
		t.Error("关闭后不应标记为已初始化")
	}

	_, err := s.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}, time.Second)
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("关闭后提交应返回ErrNotInitialized, 得到: %v", err)
	}
}

// TestDefaultSupervisor 测试包级默认实例
func TestDefaultSupervisor(t *testing.T) {
	defer ShutdownDefault()

	value, err := RunSafe(func(ctx context.Context) (interface{}, error) {
		return "默认实例", nil
	}, time.Second)
	if err != nil {
		t.Fatalf("RunSafe失败: %v", err)
	}
	if value.(string) != "默认实例" {
		t.Errorf("期望'默认实例', 得到: %v", value)
	}

	// 再次调用复用同一实例
	s1, err := Default()
	if err != nil {
		t.Fatalf("获取默认实例失败: %v", err)
	}
	s2, err := Default()
	if err != nil {
		t.Fatalf("获取默认实例失败: %v", err)
	}
	if s1 != s2 {
		t.Error("Default应返回同一实例")
	}
}
