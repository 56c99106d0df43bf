package models

// Product 提取到的商品信息
type Product struct {
	Title string `json:"title"`           // 商品标题
	Price string `json:"price"`           // 商品价格(原始文本)
	URL   string `json:"url,omitempty"`   // 详情页链接
	Sales string `json:"sales,omitempty"` // 销量文本
}
