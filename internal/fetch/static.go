package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/arctrany/ai-product-selector-sub005/internal/readiness"
	"github.com/arctrany/ai-product-selector-sub005/internal/utils"
	"github.com/gocolly/colly/v2"
)

// StaticFetcher 静态页面获取器(使用Colly)
// 用途: 为就绪引擎的快速路径提供一份无需浏览器的预取快照——
// 内容已经在静态HTML里时不必动用渲染引擎
type StaticFetcher struct {
	timeout time.Duration
	headers map[string]string
}

// NewStaticFetcher 创建静态获取器
func NewStaticFetcher(timeout time.Duration) *StaticFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StaticFetcher{
		timeout: timeout,
		headers: make(map[string]string),
	}
}

// SetHeader 设置自定义HTTP头部
func (f *StaticFetcher) SetHeader(name, value string) {
	f.headers[name] = value
}

// FetchHTML 获取目标URL的HTML内容(自动处理gzip/deflate/brotli压缩)
func (f *StaticFetcher) FetchHTML(targetURL string) (string, error) {
	if err := utils.ValidateURL(targetURL); err != nil {
		return "", err
	}

	// 自定义HTTP客户端: 跳过证书验证,允许访问自签名HTTPS站点
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		Timeout: f.timeout,
	}

	c := colly.NewCollector()
	c.SetClient(httpClient)
	c.SetRequestTimeout(f.timeout)

	var body []byte
	var fetchErr error

	c.OnRequest(func(r *colly.Request) {
		for name, value := range f.headers {
			r.Headers.Set(name, value)
		}
		utils.Debugf("静态获取: %s", r.URL.String())
	})

	c.OnResponse(func(r *colly.Response) {
		contentEncoding := r.Headers.Get("Content-Encoding")
		decompressed, err := decompressResponse(contentEncoding, r.Body)
		if err != nil {
			utils.Warnf("解压响应失败 [%s] (编码=%s): %v", targetURL, contentEncoding, err)
			// 解压失败,仍然尝试使用原始body
			decompressed = r.Body
		}
		body = decompressed
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("静态获取失败 [%s]: %w", targetURL, err)
	})

	if err := c.Visit(targetURL); err != nil {
		return "", fmt.Errorf("访问目标URL失败: %w", err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fetchErr
	}
	if len(body) == 0 {
		return "", fmt.Errorf("静态获取返回空内容: %s", targetURL)
	}

	return string(body), nil
}

// FetchSnapshot 获取目标URL的内容快照
func (f *StaticFetcher) FetchSnapshot(targetURL string) (*readiness.Snapshot, error) {
	html, err := f.FetchHTML(targetURL)
	if err != nil {
		return nil, err
	}
	return readiness.NewSnapshot(html)
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		// 没有压缩,直接返回原始内容
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
