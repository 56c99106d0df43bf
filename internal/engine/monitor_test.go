package engine

import (
	"testing"
	"time"
)

// TestMonitorStartStop 测试监控启停的幂等性
func TestMonitorStartStop(t *testing.T) {
	h := startedHandle(t)
	defer stopHandle(t, h)

	m := NewHealthMonitor(func() *EngineHandle { return h }, 10*time.Millisecond, time.Hour)

	t.Run("重复启动是幂等的", func(t *testing.T) {
		m.StartMonitoring()
		m.StartMonitoring()
		if !m.IsRunning() {
			t.Fatal("启动后监控应运行中")
		}
	})

	t.Run("采样按节奏推进", func(t *testing.T) {
		time.Sleep(100 * time.Millisecond)
		if m.SampleCount() == 0 {
			t.Error("100ms内应至少完成一次采样")
		}
	})

	t.Run("重复停止是幂等的", func(t *testing.T) {
		m.StopMonitoring()
		m.StopMonitoring()
		if m.IsRunning() {
			t.Error("停止后监控不应运行中")
		}
	})

	t.Run("停止后采样不再推进", func(t *testing.T) {
		count := m.SampleCount()
		time.Sleep(50 * time.Millisecond)
		if m.SampleCount() != count {
			t.Error("停止后不应继续采样")
		}
	})
}

// TestMonitorRestart 测试监控停止后可重新启动
func TestMonitorRestart(t *testing.T) {
	h := startedHandle(t)
	defer stopHandle(t, h)

	m := NewHealthMonitor(func() *EngineHandle { return h }, 10*time.Millisecond, time.Hour)

	m.StartMonitoring()
	time.Sleep(50 * time.Millisecond)
	m.StopMonitoring()

	countAfterStop := m.SampleCount()

	m.StartMonitoring()
	time.Sleep(50 * time.Millisecond)
	m.StopMonitoring()

	if m.SampleCount() <= countAfterStop {
		t.Error("重新启动后采样应继续推进")
	}
}

// TestMonitorNilEngine 测试空句柄下监控不panic
func TestMonitorNilEngine(t *testing.T) {
	m := NewHealthMonitor(func() *EngineHandle { return nil }, 10*time.Millisecond, 20*time.Millisecond)

	m.StartMonitoring()
	time.Sleep(60 * time.Millisecond)
	m.StopMonitoring()
}
