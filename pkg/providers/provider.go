// Package providers 定义文本转换服务端点的统一接口。
package providers

import "context"

// Request 对转换端点的一次生成请求
type Request struct {
	Model  string
	Prompt string
	System string
}

// Response 生成结果
type Response struct {
	Text  string
	Model string
}

// StreamFunc 流式响应的增量回调，参数为到达顺序的文本增量
type StreamFunc func(delta string)

// Provider 文本转换服务的客户端。
// 连接在创建时获取一次，Close 在所有退出路径上都必须被调用。
type Provider interface {
	// Generate 单次阻塞生成
	Generate(ctx context.Context, req *Request) (*Response, error)
	// GenerateStream 流式生成，每个增量触发一次回调，返回拼接后的完整文本
	GenerateStream(ctx context.Context, req *Request, onDelta StreamFunc) (string, error)
	// ListModels 列出端点可用的模型标识
	ListModels(ctx context.Context) ([]string, error)
	// CheckConnection 轻量连通性检查
	CheckConnection(ctx context.Context) bool
	// Name 提供商名称
	Name() string
	// Close 释放底层连接
	Close() error
}
