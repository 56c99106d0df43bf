package readiness

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Snapshot 某一时刻页面内容的不可变解析视图
// 持有原始内容和解析后的文档,就绪引擎只读取不修改
type Snapshot struct {
	raw     string
	doc     *goquery.Document
	takenAt time.Time
}

// NewSnapshot 从原始HTML内容构建快照
func NewSnapshot(raw string) (*Snapshot, error) {
	node, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("解析页面内容失败: %w", err)
	}

	return &Snapshot{
		raw:     raw,
		doc:     goquery.NewDocumentFromNode(node),
		takenAt: time.Now(),
	}, nil
}

// Raw 原始内容
func (s *Snapshot) Raw() string {
	return s.raw
}

// Doc 解析后的文档
func (s *Snapshot) Doc() *goquery.Document {
	return s.doc
}

// TakenAt 快照采集时间
func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// Find 在快照上执行选择器查询
func (s *Snapshot) Find(selector string) *goquery.Selection {
	return s.doc.Find(selector)
}

// Locator 候选选择器列表,按顺序尝试,首个非空命中者独占生效
// (不跨候选合并匹配结果)
type Locator []string

// Match 在快照上逐个尝试候选选择器
// 返回命中的选择器、匹配集合和是否命中
func (l Locator) Match(snapshot *Snapshot) (string, *goquery.Selection, bool) {
	for _, selector := range l {
		sel := snapshot.Find(selector)
		if sel.Length() > 0 {
			return selector, sel, true
		}
	}
	return "", nil, false
}

// Validator 内容校验器: 判断匹配到的元素集合是否为可接受的内容
type Validator func(sel *goquery.Selection) bool

// MinTextValidator 默认校验器: 首个元素的文本长度超过阈值
func MinTextValidator(minLen int) Validator {
	return func(sel *goquery.Selection) bool {
		if sel == nil || sel.Length() == 0 {
			return false
		}
		text := strings.TrimSpace(sel.First().Text())
		return len(text) >= minLen
	}
}
