package browser

import (
	"fmt"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RenderingCapability 渲染能力接口
// 注意: 实现只保证在引擎goroutine上调用安全,跨goroutine调用必须经由
// Marshaled包装(由监督器负责调度)
type RenderingCapability interface {
	Navigate(target string, timeout time.Duration) (bool, error)
	Evaluate(script string) (string, error)
	WaitForSelector(selector string, timeout time.Duration) (bool, error)
	Click(selector string, timeout time.Duration) (bool, error)
	HTML() (string, error)
	Name() string
}

// RodRenderer 基于Rod的渲染能力实现
type RodRenderer struct {
	browser  *rod.Browser
	page     *rod.Page
	headless bool
}

// NewRodRenderer 创建Rod渲染器(未启动)
func NewRodRenderer(headless bool) *RodRenderer {
	return &RodRenderer{headless: headless}
}

// Launch 启动浏览器并打开工作页
func (r *RodRenderer) Launch() error {
	l := launcher.New().Headless(r.headless)

	// 跳过HTTPS证书验证,适用于内网/开发环境的自签名证书
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	r.browser = rod.New().ControlURL(controlURL)
	if err := r.browser.Connect(); err != nil {
		return fmt.Errorf("连接浏览器失败: %w", err)
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		r.browser.MustClose()
		return fmt.Errorf("创建标签页失败: %w", err)
	}
	r.page = page

	utils.Debugf("浏览器已启动: %s", controlURL)
	return nil
}

// Close 关闭浏览器
func (r *RodRenderer) Close() {
	if r.browser != nil {
		r.browser.MustClose()
		r.browser = nil
		r.page = nil
		utils.Debugf("浏览器已关闭")
	}
}

// Navigate 导航到目标URL并等待页面加载完成
func (r *RodRenderer) Navigate(target string, timeout time.Duration) (bool, error) {
	if r.page == nil {
		return false, fmt.Errorf("浏览器未启动")
	}

	page := r.page.Timeout(timeout)
	if err := page.Navigate(target); err != nil {
		return false, fmt.Errorf("导航失败 [%s]: %w", target, err)
	}
	if err := page.WaitLoad(); err != nil {
		return false, fmt.Errorf("等待页面加载失败 [%s]: %w", target, err)
	}
	return true, nil
}

// Evaluate 在页面上执行JavaScript并返回字符串结果
func (r *RodRenderer) Evaluate(script string) (string, error) {
	if r.page == nil {
		return "", fmt.Errorf("浏览器未启动")
	}

	result, err := r.page.Eval(script)
	if err != nil {
		return "", fmt.Errorf("执行脚本失败: %w", err)
	}
	return result.Value.Str(), nil
}

// WaitForSelector 等待选择器出现
func (r *RodRenderer) WaitForSelector(selector string, timeout time.Duration) (bool, error) {
	if r.page == nil {
		return false, fmt.Errorf("浏览器未启动")
	}

	if _, err := r.page.Timeout(timeout).Element(selector); err != nil {
		return false, nil
	}
	return true, nil
}

// Click 点击选择器命中的首个元素
func (r *RodRenderer) Click(selector string, timeout time.Duration) (bool, error) {
	if r.page == nil {
		return false, fmt.Errorf("浏览器未启动")
	}

	el, err := r.page.Timeout(timeout).Element(selector)
	if err != nil {
		return false, fmt.Errorf("未找到元素 [%s]: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("点击元素失败 [%s]: %w", selector, err)
	}
	return true, nil
}

// HTML 获取当前页面完整HTML
func (r *RodRenderer) HTML() (string, error) {
	if r.page == nil {
		return "", fmt.Errorf("浏览器未启动")
	}
	return r.page.HTML()
}

// Name 能力名称
func (r *RodRenderer) Name() string {
	return "rod"
}
