package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"testing"

	"github.com/andybalholm/brotli"
)

// TestDecompressResponse 测试各压缩格式的响应解压
func TestDecompressResponse(t *testing.T) {
	payload := []byte(`<html><body class="product-list">商品列表页面内容</body></html>`)

	t.Run("gzip", func(t *testing.T) {
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		_, _ = w.Write(payload)
		_ = w.Close()

		got, err := decompressResponse("gzip", buf.Bytes())
		if err != nil {
			t.Fatalf("gzip解压失败: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Error("gzip解压内容不匹配")
		}
	})

	t.Run("deflate", func(t *testing.T) {
		var buf bytes.Buffer
		w, _ := flate.NewWriter(&buf, flate.DefaultCompression)
		_, _ = w.Write(payload)
		_ = w.Close()

		got, err := decompressResponse("deflate", buf.Bytes())
		if err != nil {
			t.Fatalf("deflate解压失败: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Error("deflate解压内容不匹配")
		}
	})

	t.Run("brotli", func(t *testing.T) {
		var buf bytes.Buffer
		w := brotli.NewWriter(&buf)
		_, _ = w.Write(payload)
		_ = w.Close()

		got, err := decompressResponse("br", buf.Bytes())
		if err != nil {
			t.Fatalf("brotli解压失败: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Error("brotli解压内容不匹配")
		}
	})

	t.Run("无压缩", func(t *testing.T) {
		got, err := decompressResponse("", payload)
		if err != nil {
			t.Fatalf("无压缩应原样返回: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Error("无压缩内容不匹配")
		}
	})

	t.Run("未知编码原样返回", func(t *testing.T) {
		got, err := decompressResponse("zstd", payload)
		if err != nil {
			t.Fatalf("未知编码不应报错: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Error("未知编码应原样返回")
		}
	})

	t.Run("损坏的gzip数据报错", func(t *testing.T) {
		if _, err := decompressResponse("gzip", []byte("不是gzip")); err == nil {
			t.Error("损坏的gzip数据应报错")
		}
	})

	t.Run("大小写和空白容忍", func(t *testing.T) {
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		_, _ = w.Write(payload)
		_ = w.Close()

		got, err := decompressResponse("  GZIP  ", buf.Bytes())
		if err != nil {
			t.Fatalf("编码名应忽略大小写和空白: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Error("解压内容不匹配")
		}
	})
}

// TestFetcherHeaders 测试自定义头部设置
func TestFetcherHeaders(t *testing.T) {
	f := NewStaticFetcher(0)
	f.SetHeader("User-Agent", "TestBot/1.0")
	f.SetHeader("Accept-Language", "zh-CN")

	if f.headers["User-Agent"] != "TestBot/1.0" {
		t.Error("User-Agent头部未生效")
	}
	if len(f.headers) != 2 {
		t.Errorf("期望2个头部, 得到: %d", len(f.headers))
	}
}

// TestFetchHTMLInvalidURL 测试非法URL直接拒绝
func TestFetchHTMLInvalidURL(t *testing.T) {
	f := NewStaticFetcher(0)

	if _, err := f.FetchHTML("not-a-url"); err == nil {
		t.Error("非法URL应返回错误")
	}
	if _, err := f.FetchHTML("ftp://example.com"); err == nil {
		t.Error("非HTTP协议应返回错误")
	}
}
