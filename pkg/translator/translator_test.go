package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-doc-translator/pkg/document"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
)

// fakeProvider 可编程的假提供商：按提示词内容决定成功或失败
type fakeProvider struct {
	mu        sync.Mutex
	calls     int
	reachable bool
	// respond 返回 (响应文本, 错误)，按调用次数与提示词决定行为
	respond func(call int, req *providers.Request) (string, error)
	closed  bool
}

func newFakeProvider(respond func(call int, req *providers.Request) (string, error)) *fakeProvider {
	return &fakeProvider{reachable: true, respond: respond}
}

func (f *fakeProvider) Generate(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	text, err := f.respond(call, req)
	if err != nil {
		return nil, err
	}
	return &providers.Response{Text: text, Model: req.Model}, nil
}

func (f *fakeProvider) GenerateStream(ctx context.Context, req *providers.Request, onDelta providers.StreamFunc) (string, error) {
	resp, err := f.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if onDelta != nil {
		onDelta(resp.Text)
	}
	return resp.Text, nil
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]string, error) {
	return []string{"translategemma"}, nil
}

func (f *fakeProvider) CheckConnection(ctx context.Context) bool { return f.reachable }
func (f *fakeProvider) Name() string                             { return "fake" }

func (f *fakeProvider) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func testFragment(index int, text string) *document.Fragment {
	return document.NewFragment(index, []document.Element{
		{Kind: document.KindParagraph, Text: text, Ref: -1},
	}, "")
}

func fastConfig() Config {
	return Config{
		Model:      "translategemma",
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}
}

// 测试单片段翻译：提示词构造与净化
func TestTranslateSingle(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		// 提示词包含原文与目标语言
		assert.Contains(t, req.Prompt, "hello world")
		assert.Contains(t, req.Prompt, "Russian")
		assert.True(t, strings.HasSuffix(req.Prompt, "TRANSLATION:"))
		return "TRANSLATION:\nпривет мир", nil
	})

	trans := New(provider, fastConfig(), nil)
	tf, err := trans.Translate(context.Background(), testFragment(0, "hello world"), "Russian", nil)
	require.NoError(t, err)

	assert.Equal(t, "привет мир", tf.Text)
	assert.Equal(t, "Russian", tf.TargetLanguage)
	assert.Equal(t, "translategemma", tf.ModelID)
	assert.Equal(t, 0, tf.Index())
}

// 测试超时重试：前两次超时，第三次成功
func TestTranslateRetryOnTimeout(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		if call < 3 {
			return "", ErrTimeout
		}
		return "done", nil
	})

	trans := New(provider, fastConfig(), nil)
	tf, err := trans.Translate(context.Background(), testFragment(0, "text"), "Russian", nil)
	require.NoError(t, err)
	assert.Equal(t, "done", tf.Text)
	assert.Equal(t, 3, provider.calls)
}

// 测试重试预算耗尽：单片段模式错误向调用方传播
func TestTranslateTimeoutExhausted(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		return "", ErrTimeout
	})

	trans := New(provider, fastConfig(), nil)
	_, err := trans.Translate(context.Background(), testFragment(0, "text"), "Russian", nil)
	require.Error(t, err)

	var te *TranslationError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrCodeTimeout, te.Code)
	assert.Equal(t, 3, provider.calls)
}

// 测试非超时错误不重试
func TestTranslateTransportErrorNoRetry(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		return "", errors.New("connection refused")
	})

	trans := New(provider, fastConfig(), nil)
	_, err := trans.Translate(context.Background(), testFragment(0, "text"), "Russian", nil)
	require.Error(t, err)

	var te *TranslationError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrCodeTransport, te.Code)
	assert.Equal(t, 1, provider.calls)
}

// 测试净化结果为空时使用哨兵加原文，不返回空片段
func TestTranslateEmptyResultSentinel(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		return "<think>nothing else</think>", nil
	})

	trans := New(provider, fastConfig(), nil)
	tf, err := trans.Translate(context.Background(), testFragment(0, "original text"), "Russian", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(tf.Text, UntranslatedTag))
	assert.Contains(t, tf.Text, "original text")
	assert.True(t, tf.Degraded)
}

// 测试正常译文即使以哨兵字样开头也不算降级
func TestTranslateSentinelLookalikeNotDegraded(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		return UntranslatedTag + " — так писали в отчёте", nil
	})

	trans := New(provider, fastConfig(), nil)
	tf, err := trans.Translate(context.Background(), testFragment(0, "text"), "Russian", nil)
	require.NoError(t, err)
	assert.False(t, tf.Degraded)
}

// 测试批量流式模式：配置增量回调后批量翻译走 GenerateStream
func TestTranslateBatchStreamDeltas(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		return "поток", nil
	})

	var deltas []string
	cfg := fastConfig()
	cfg.OnDelta = func(delta string) {
		deltas = append(deltas, delta)
	}
	trans := New(provider, cfg, nil)

	fragments := []*document.Fragment{
		testFragment(0, "a"),
		testFragment(1, "b"),
	}
	results, err := trans.TranslateBatch(context.Background(), fragments, "Russian", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// 假提供商每个片段回调一次完整文本
	assert.Equal(t, []string{"поток", "поток"}, deltas)
	assert.Equal(t, "поток", results[0].Text)
}

// 测试批量隔离：持续超时的片段降级为哨兵，其余片段正常翻译
func TestTranslateBatchIsolatesTimeout(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		if strings.Contains(req.Prompt, "poison") {
			return "", ErrTimeout
		}
		return "translated", nil
	})

	fragments := []*document.Fragment{
		testFragment(0, "first"),
		testFragment(1, "poison fragment"),
		testFragment(2, "third"),
	}

	trans := New(provider, fastConfig(), nil)
	results, err := trans.TranslateBatch(context.Background(), fragments, "Russian", nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "translated", results[0].Text)
	assert.True(t, strings.HasPrefix(results[1].Text, UntranslatedTag))
	assert.Contains(t, results[1].Text, "poison fragment")
	assert.Equal(t, "translated", results[2].Text)

	// 降级标志只在哨兵片段上置位
	assert.False(t, results[0].Degraded)
	assert.True(t, results[1].Degraded)
	assert.False(t, results[2].Degraded)
}

// 测试批量隔离：传输错误使用 FailedTag 哨兵
func TestTranslateBatchIsolatesTransportError(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		if strings.Contains(req.Prompt, "broken") {
			return "", errors.New("connection reset by peer")
		}
		return "ok", nil
	})

	fragments := []*document.Fragment{
		testFragment(0, "fine"),
		testFragment(1, "broken fragment"),
	}

	trans := New(provider, fastConfig(), nil)
	results, err := trans.TranslateBatch(context.Background(), fragments, "Russian", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "ok", results[0].Text)
	assert.True(t, strings.HasPrefix(results[1].Text, FailedTag))
	assert.Contains(t, results[1].Text, "broken fragment")
	assert.True(t, results[1].Degraded)
}

// 测试批量进度回调单调递增且覆盖全部片段
func TestTranslateBatchProgress(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		return "x", nil
	})

	fragments := []*document.Fragment{
		testFragment(0, "a"),
		testFragment(1, "b"),
		testFragment(2, "c"),
	}

	var progress []int
	trans := New(provider, fastConfig(), nil)
	_, err := trans.TranslateBatch(context.Background(), fragments, "Russian",
		func(current, total int, status string) {
			assert.Equal(t, 3, total)
			progress = append(progress, current)
		})
	require.NoError(t, err)

	require.NotEmpty(t, progress)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
	assert.Equal(t, 3, progress[len(progress)-1])
}

// 测试并发批量：结果按片段位置排列，与串行语义一致
func TestTranslateBatchParallel(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		return "TRANSLATION:\nout", nil
	})

	var fragments []*document.Fragment
	for i := 0; i < 8; i++ {
		fragments = append(fragments, testFragment(i, fmt.Sprintf("fragment %d", i)))
	}

	cfg := fastConfig()
	cfg.Concurrency = 4
	trans := New(provider, cfg, nil)

	results, err := trans.TranslateBatch(context.Background(), fragments, "Russian", nil)
	require.NoError(t, err)
	require.Len(t, results, 8)

	for i, tf := range results {
		assert.Equal(t, i, tf.Index())
		assert.Equal(t, "out", tf.Text)
	}
}

// 测试上下文取消中止批量
func TestTranslateBatchContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		cancel()
		return "x", nil
	})

	fragments := []*document.Fragment{
		testFragment(0, "a"),
		testFragment(1, "b"),
	}

	trans := New(provider, fastConfig(), nil)
	_, err := trans.TranslateBatch(ctx, fragments, "Russian", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// 测试连通性检查：不可达时返回致命错误
func TestCheckConnectivity(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		return "", nil
	})

	trans := New(provider, fastConfig(), nil)
	assert.NoError(t, trans.CheckConnectivity(context.Background()))

	provider.reachable = false
	err := trans.CheckConnectivity(context.Background())
	require.Error(t, err)

	var te *TranslationError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrCodeConnectivity, te.Code)
}

// 测试流式模式：提供回调时走 GenerateStream
func TestTranslateStream(t *testing.T) {
	provider := newFakeProvider(func(call int, req *providers.Request) (string, error) {
		return "streamed", nil
	})

	var deltas []string
	trans := New(provider, fastConfig(), nil)
	tf, err := trans.Translate(context.Background(), testFragment(0, "text"), "Russian",
		func(delta string) {
			deltas = append(deltas, delta)
		})
	require.NoError(t, err)
	assert.Equal(t, "streamed", tf.Text)
	assert.Equal(t, []string{"streamed"}, deltas)
}

// 测试 Close 释放提供商连接
func TestTranslatorClose(t *testing.T) {
	provider := newFakeProvider(nil)
	trans := New(provider, fastConfig(), nil)
	require.NoError(t, trans.Close())
	assert.True(t, provider.closed)
}
