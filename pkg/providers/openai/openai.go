// Package openai 实现对 OpenAI 兼容聊天端点的客户端，
// 可用于任何暴露 chat completions API 的转换服务。
package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
)

// Config OpenAI 兼容端点配置
type Config struct {
	APIKey  string        `json:"api_key"`
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Timeout: 120 * time.Second,
	}
}

// Client OpenAI 兼容客户端
type Client struct {
	config     Config
	api        *goopenai.Client
	httpClient *http.Client
}

// New 创建新的客户端
func New(config Config) *Client {
	httpClient := &http.Client{Timeout: config.Timeout}

	clientConfig := goopenai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = httpClient

	return &Client{
		config:     config,
		api:        goopenai.NewClientWithConfig(clientConfig),
		httpClient: httpClient,
	}
}

// Name 返回提供商名称
func (c *Client) Name() string {
	return "openai"
}

func chatRequest(req *providers.Request, stream bool) goopenai.ChatCompletionRequest {
	return goopenai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.System},
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Stream: stream,
	}
}

// Generate 单次阻塞生成
func (c *Client) Generate(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	resp, err := c.api.CreateChatCompletion(ctx, chatRequest(req, false))
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty completion response")
	}
	return &providers.Response{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
	}, nil
}

// GenerateStream 流式生成，增量按到达顺序拼接并逐个回调
func (c *Client) GenerateStream(ctx context.Context, req *providers.Request, onDelta providers.StreamFunc) (string, error) {
	stream, err := c.api.CreateChatCompletionStream(ctx, chatRequest(req, true))
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var full strings.Builder
	for {
		piece, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if len(piece.Choices) == 0 {
			continue
		}
		delta := piece.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}
	return full.String(), nil
}

// ListModels 列出端点可用的模型标识
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.ID)
	}
	return names, nil
}

// CheckConnection 轻量连通性检查
func (c *Client) CheckConnection(ctx context.Context) bool {
	_, err := c.api.ListModels(ctx)
	return err == nil
}

// Close 释放底层连接
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
