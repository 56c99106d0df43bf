package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/engine"
)

// Marshaled 把渲染能力的调用统一经由监督器编组到引擎goroutine
// 任意goroutine持有Marshaled都可以安全调用,底层渲染器只在引擎上被触碰
type Marshaled struct {
	supervisor *engine.Supervisor
	renderer   RenderingCapability
	timeout    time.Duration // 单次编组调用的等待上限
}

// NewMarshaled 创建编组包装
func NewMarshaled(supervisor *engine.Supervisor, renderer RenderingCapability, timeout time.Duration) *Marshaled {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Marshaled{
		supervisor: supervisor,
		renderer:   renderer,
		timeout:    timeout,
	}
}

// Navigate 编组导航调用
func (m *Marshaled) Navigate(target string, timeout time.Duration) (bool, error) {
	value, err := m.supervisor.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
		ok, err := m.renderer.Navigate(target, timeout)
		return ok, err
	}, timeout+m.timeout)
	if err != nil {
		return false, err
	}
	return value.(bool), nil
}

// Evaluate 编组脚本执行
func (m *Marshaled) Evaluate(script string) (string, error) {
	value, err := m.supervisor.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
		return m.renderer.Evaluate(script)
	}, m.timeout)
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// WaitForSelector 编组选择器等待
func (m *Marshaled) WaitForSelector(selector string, timeout time.Duration) (bool, error) {
	value, err := m.supervisor.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
		ok, err := m.renderer.WaitForSelector(selector, timeout)
		return ok, err
	}, timeout+m.timeout)
	if err != nil {
		return false, err
	}
	return value.(bool), nil
}

// Click 编组点击调用
func (m *Marshaled) Click(selector string, timeout time.Duration) (bool, error) {
	value, err := m.supervisor.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
		ok, err := m.renderer.Click(selector, timeout)
		return ok, err
	}, timeout+m.timeout)
	if err != nil {
		return false, err
	}
	return value.(bool), nil
}

// HTML 编组页面内容获取
func (m *Marshaled) HTML() (string, error) {
	value, err := m.supervisor.SubmitAndWait(func(ctx context.Context) (interface{}, error) {
		return m.renderer.HTML()
	}, m.timeout)
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// Name 能力名称
func (m *Marshaled) Name() string {
	return fmt.Sprintf("marshaled(%s)", m.renderer.Name())
}

// FetchContent 实现readiness.LiveFetcher: 经由引擎获取一份新鲜页面内容
func (m *Marshaled) FetchContent(ctx context.Context) (string, error) {
	return m.HTML()
}
