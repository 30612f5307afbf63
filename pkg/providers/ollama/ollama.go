// Package ollama 实现对本地 Ollama 端点的客户端。
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
)

// Config Ollama 客户端配置
type Config struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
	// Think 是否允许模型输出推理块；翻译只需要最终文本
	Think bool `json:"think"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:11434",
		Timeout: 120 * time.Second,
		Think:   false,
	}
}

// Client Ollama HTTP 客户端
type Client struct {
	config     Config
	httpClient *http.Client
}

// New 创建新的 Ollama 客户端
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// GenerateRequest /api/generate 请求体
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
	Think  bool   `json:"think"`
}

// GenerateResponse /api/generate 响应体。
// 流式模式下每行 NDJSON 各携带一个 Response 增量。
type GenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// APIError 端点返回的错误
type APIError struct {
	ErrorMsg string `json:"error"`
}

func (e *APIError) Error() string {
	return e.ErrorMsg
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Name 返回提供商名称
func (c *Client) Name() string {
	return "ollama"
}

// Generate 单次阻塞生成
func (c *Client) Generate(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	resp, err := c.post(ctx, GenerateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Think:  c.config.Think,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var generateResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generateResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &providers.Response{
		Text:  generateResp.Response,
		Model: generateResp.Model,
	}, nil
}

// GenerateStream 流式生成。响应为按行分隔的 JSON 对象，
// Response 增量按到达顺序拼接并逐个回调。
func (c *Client) GenerateStream(ctx context.Context, req *providers.Request, onDelta providers.StreamFunc) (string, error) {
	resp, err := c.post(ctx, GenerateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: true,
		Think:  c.config.Think,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var piece GenerateResponse
		if err := json.Unmarshal(line, &piece); err != nil {
			return "", fmt.Errorf("failed to decode stream line: %w", err)
		}
		if piece.Response != "" {
			full.WriteString(piece.Response)
			if onDelta != nil {
				onDelta(piece.Response)
			}
		}
		if piece.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("stream read failed: %w", err)
	}

	return full.String(), nil
}

// post 编码并发送生成请求，非 2xx 状态转换为 APIError
func (c *Client) post(ctx context.Context, generateReq GenerateRequest) (*http.Response, error) {
	body, err := json.Marshal(generateReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		var apiErr APIError
		if json.Unmarshal(errBody, &apiErr) == nil && apiErr.ErrorMsg != "" {
			return nil, &apiErr
		}
		return nil, fmt.Errorf("API error: %s", resp.Status)
	}

	return resp, nil
}

// ListModels 通过 /api/tags 获取可用模型名列表
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %s", resp.Status)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags response: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// CheckConnection 轻量连通性检查：GET /api/tags 返回 200 即认为可用
func (c *Client) CheckConnection(ctx context.Context) bool {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Close 释放底层连接
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
