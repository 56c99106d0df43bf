package stages

import (
	"context"
	"testing"
	"time"

	"github.com/arctrany/ai-product-selector-sub005/internal/models"
	"github.com/arctrany/ai-product-selector-sub005/internal/readiness"
)

const listPageHTML = `
<html><body>
<div class="product-item">
	<a href="/item/1001"><span class="product-title">无线蓝牙耳机</span></a>
	<span class="product-price">￥199.00</span>
</div>
<div class="product-item">
	<a href="https://shop.example.com/item/1002"><span class="product-title">机械键盘</span></a>
	<span class="product-price">￥499.00</span>
</div>
<div class="product-item">
	<span class="product-price">￥9.90</span>
</div>
</body></html>`

func newTestListStage() *ListStage {
	cfg := models.DefaultReadinessConfig()
	cfg.MaxWait = 100 * time.Millisecond
	cfg.PollInterval = 10 * time.Millisecond
	return NewListStage(nil, nil, readiness.NewEngine(cfg), models.DefaultSelectorConfig(), 0)
}

func newTestDetailStage() *DetailStage {
	cfg := models.DefaultReadinessConfig()
	cfg.MaxWait = 100 * time.Millisecond
	cfg.PollInterval = 10 * time.Millisecond
	return NewDetailStage(nil, nil, readiness.NewEngine(cfg), models.DefaultSelectorConfig(), 0)
}

func TestListStageExtractProducts(t *testing.T) {
	snapshot, err := readiness.NewSnapshot(listPageHTML)
	if err != nil {
		t.Fatalf("构建快照失败: %v", err)
	}

	stage := newTestListStage()
	matched := snapshot.Find(".product-item")
	products := stage.extractProducts(matched, "https://shop.example.com/list")

	// 第三项没有标题,应被丢弃
	if len(products) != 2 {
		t.Fatalf("期望提取2个商品, 实际%d个", len(products))
	}

	t.Run("标题和价格提取", func(t *testing.T) {
		if products[0].Title != "无线蓝牙耳机" {
			t.Errorf("首个商品标题错误: %s", products[0].Title)
		}
		if products[0].Price != "￥199.00" {
			t.Errorf("首个商品价格错误: %s", products[0].Price)
		}
	})

	t.Run("相对链接解析为绝对链接", func(t *testing.T) {
		if products[0].URL != "https://shop.example.com/item/1001" {
			t.Errorf("相对链接解析错误: %s", products[0].URL)
		}
		if products[1].URL != "https://shop.example.com/item/1002" {
			t.Errorf("绝对链接不应被改写: %s", products[1].URL)
		}
	})
}

func TestListStageRunValidation(t *testing.T) {
	stage := newTestListStage()

	t.Run("空目标URL直接失败", func(t *testing.T) {
		sr := stage.Run(context.Background(), nil, models.StageOptions{})
		if sr.Success {
			t.Fatal("空目标URL不应成功")
		}
		if sr.FailureKind != models.FailureValidation {
			t.Errorf("期望校验类失败, 实际: %s", sr.FailureKind)
		}
	})

	t.Run("无静态获取器时阶段未就绪", func(t *testing.T) {
		if stage.Ready() {
			t.Error("缺少静态获取器的阶段不应就绪")
		}
	})
}

func TestDetailStageRun(t *testing.T) {
	stage := newTestDetailStage()
	ctx := context.Background()

	t.Run("上游无商品列表", func(t *testing.T) {
		sr := stage.Run(ctx, map[string]interface{}{}, models.StageOptions{})
		if sr.Success {
			t.Fatal("无上游数据不应成功")
		}
		if sr.FailureKind != models.FailureValidation {
			t.Errorf("期望校验类失败, 实际: %s", sr.FailureKind)
		}
	})

	t.Run("商品均无详情链接", func(t *testing.T) {
		accumulated := map[string]interface{}{
			"products": []models.Product{{Title: "无链接商品"}},
		}
		sr := stage.Run(ctx, accumulated, models.StageOptions{})
		if sr.Success {
			t.Fatal("无详情链接不应成功")
		}
		if sr.FailureKind != models.FailureValidation {
			t.Errorf("期望校验类失败, 实际: %s", sr.FailureKind)
		}
	})
}

func TestDetailStageRequires(t *testing.T) {
	stage := newTestDetailStage()
	deps := stage.Requires()
	if len(deps) != 1 || deps[0] != StageNameList {
		t.Errorf("详情页阶段应依赖列表页阶段, 实际: %v", deps)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{"相对路径", "https://shop.example.com/list", "/item/1", "https://shop.example.com/item/1"},
		{"绝对链接", "https://shop.example.com/list", "https://other.example.com/x", "https://other.example.com/x"},
		{"相对文件", "https://shop.example.com/a/b", "c", "https://shop.example.com/a/c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveURL(tt.base, tt.href); got != tt.want {
				t.Errorf("resolveURL(%s, %s) = %s, 期望 %s", tt.base, tt.href, got, tt.want)
			}
		})
	}
}
