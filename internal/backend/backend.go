// Package backend 定义与生成式 AI 后端交互的请求/响应契约。
// 具体模型调用由 gemini、einomodel 等适配器实现，调用方只依赖 Generator 接口。
package backend

import "context"

// Tool 请求声明的检索能力
type Tool string

const (
	ToolWebSearch Tool = "web_search"
	ToolMaps      Tool = "maps"
)

// ResponseMIMEJSON 要求后端直接返回 JSON
const ResponseMIMEJSON = "application/json"

// InlineImage 随请求发送的内联图片
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// LatLng 位置偏置
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// Request 一次后端调用
type Request struct {
	SystemInstruction string
	Prompt            string
	Image             *InlineImage
	Tools             []Tool
	Location          *LatLng // 为空时不带位置偏置
	Temperature       *float32
	ResponseMIMEType  string // 非空时使用结构化输出模式
	SearchHint        string // 供自行实现检索的后端使用的查询词
}

// HasTool 判断请求是否声明了某项能力
func (r *Request) HasTool(t Tool) bool {
	for _, tool := range r.Tools {
		if tool == t {
			return true
		}
	}
	return false
}

// CitationKind 引用类型
type CitationKind string

const (
	CitationWeb  CitationKind = "web"
	CitationMaps CitationKind = "maps"
)

// Citation 后端响应元数据中的一条引用
type Citation struct {
	Kind  CitationKind
	URI   string
	Title string
}

// Response 后端原始响应
type Response struct {
	Text      string
	Citations []Citation
}

// Generator 生成式 AI 后端
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// GeneratorFunc 便于测试和包装的函数适配
type GeneratorFunc func(ctx context.Context, req *Request) (*Response, error)

func (f GeneratorFunc) Generate(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Float32 返回指针，便于设置 Temperature
func Float32(v float32) *float32 { return &v }
