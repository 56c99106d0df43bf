package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/arctrany/ai-product-selector-sub005/internal/models"
	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
)

// 错误类型定义
var (
	ErrEmptyLocator  = errors.New("定位器不能为空")
	ErrNoLiveFetcher = errors.New("静态内容未就绪且无实时获取能力")
)

// Status 就绪等待的终态
// 状态机: UNCHECKED -> 静态命中/未命中 -> (有实时能力) 轮询 -> MATCHED | EXHAUSTED
type Status string

const (
	StatusMatched   Status = "matched"   // 内容已就绪并通过校验
	StatusExhausted Status = "exhausted" // 等待预算耗尽,内容始终未就绪
)

// Result 就绪等待结果
// "内容未就绪"用显式状态表达,错误只用于真正的故障(参数误用、能力缺失)
type Result struct {
	Status   Status             // 终态
	Snapshot *Snapshot          // 命中时的内容快照
	Matched  *goquery.Selection // 命中的元素集合
	Selector string             // 实际生效的选择器
	Attempts int                // 实时轮询次数(快速路径为0)
}

// LiveFetcher 实时内容获取能力
// 按需重新获取一份新鲜的页面内容(经由执行引擎监督器调度)
type LiveFetcher interface {
	FetchContent(ctx context.Context) (string, error)
}

// Engine 内容就绪引擎
// 策略: 先做廉价的静态检查,未就绪且有实时能力时才升级为有界轮询——
// 页面是增量渲染的,对一次性静态快照重试永远不会成功,而内容已就绪时
// 反复实时获取又是浪费
type Engine struct {
	config models.ReadinessConfig
}

// NewEngine 创建就绪引擎
func NewEngine(config models.ReadinessConfig) *Engine {
	return &Engine{config: config}
}

// WaitFor 等待目标内容就绪
//
// 参数:
//   - locator: 候选选择器列表(首个命中者独占生效)
//   - snapshot: 可选的预取内容快照(快速路径输入)
//   - live: 可选的实时获取能力,nil表示只能做静态检查
//   - validator: 内容校验器,nil时使用默认的最小文本长度校验
//
// 快速路径: 快照命中且通过校验时立即返回,不触碰实时能力
// 轮询路径: 按固定间隔重新获取内容,直到命中或墙钟预算耗尽
// 预算在每轮迭代检查一次,不在迭代中途抢占
func (e *Engine) WaitFor(ctx context.Context, locator Locator, snapshot *Snapshot, live LiveFetcher, validator Validator) (Result, error) {
	if len(locator) == 0 {
		return Result{}, ErrEmptyLocator
	}
	if validator == nil {
		validator = MinTextValidator(e.config.MinTextLen)
	}

	// 静态检查(快速路径)
	if snapshot != nil {
		if selector, sel, ok := locator.Match(snapshot); ok && validator(sel) {
			utils.Debugf("静态快照命中: %s (%d个元素)", selector, sel.Length())
			return Result{
				Status:   StatusMatched,
				Snapshot: snapshot,
				Matched:  sel,
				Selector: selector,
			}, nil
		}
		utils.Debugf("静态快照未命中,准备升级为实时轮询")
	}

	if live == nil {
		return Result{Status: StatusExhausted}, ErrNoLiveFetcher
	}

	// 实时轮询(有界)
	deadline := time.Now().Add(e.config.MaxWait)
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return Result{Status: StatusExhausted, Attempts: attempts}, ctx.Err()
		default:
		}

		attempts++

		// 单轮获取失败按一次失败尝试处理,记录日志后继续等待
		content, err := live.FetchContent(ctx)
		if err != nil {
			utils.Warnf("实时获取内容失败 (第%d次): %v", attempts, err)
		} else {
			fresh, snapErr := NewSnapshot(content)
			if snapErr != nil {
				utils.Warnf("构建内容快照失败 (第%d次): %v", attempts, snapErr)
			} else if selector, sel, ok := locator.Match(fresh); ok && validator(sel) {
				utils.Debugf("实时轮询命中: %s (第%d次, %d个元素)", selector, attempts, sel.Length())
				return Result{
					Status:   StatusMatched,
					Snapshot: fresh,
					Matched:  sel,
					Selector: selector,
					Attempts: attempts,
				}, nil
			}
		}

		// 墙钟预算检查(每轮一次)
		if time.Now().After(deadline) {
			utils.Warnf("内容就绪等待预算耗尽 (%v, 共%d次尝试)", e.config.MaxWait, attempts)
			return Result{Status: StatusExhausted, Attempts: attempts}, nil
		}

		select {
		case <-ctx.Done():
			return Result{Status: StatusExhausted, Attempts: attempts}, ctx.Err()
		case <-time.After(e.config.PollInterval):
		}
	}
}

// WaitForSelectors 便捷入口: 按默认校验器等待一组选择器
func (e *Engine) WaitForSelectors(ctx context.Context, selectors []string, snapshot *Snapshot, live LiveFetcher) (Result, error) {
	return e.WaitFor(ctx, Locator(selectors), snapshot, live, nil)
}

// String 终态的可读描述
func (s Status) String() string {
	return string(s)
}

// Describe 结果摘要(用于日志)
func (r Result) Describe() string {
	if r.Status == StatusMatched {
		return fmt.Sprintf("matched selector=%s attempts=%d", r.Selector, r.Attempts)
	}
	return fmt.Sprintf("exhausted attempts=%d", r.Attempts)
}
