package webutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// FetchOptions 出站 HTTP 请求选项
type FetchOptions struct {
	Method  string            `cfg:"method" def:"GET"`
	URL     string            `cfg:"url" validate:"required"`
	Headers map[string]string `cfg:"headers"`
	Body    []byte            `cfg:"body"`

	// Retries 失败后的额外尝试次数，重试只发生在这里，映射核心从不重试
	Retries  int           `cfg:"retries"`
	Interval time.Duration `cfg:"interval" def:"100ms"`
	Timeout  time.Duration `cfg:"timeout" def:"10s"`
}

// FetchResult 请求结果
type FetchResult struct {
	Status int
	Body   []byte
}

// Fetch 发起出站 HTTP 请求，5xx 和网络错误按配置重试
func Fetch(ctx context.Context, options *FetchOptions) (*FetchResult, error) {
	if options == nil || options.URL == "" {
		return nil, errors.New("url is required")
	}
	method := options.Method
	if method == "" {
		method = "GET"
	}

	client := &http.Client{Timeout: options.Timeout}

	var lastErr error
	for attempt := 0; attempt <= options.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(options.Interval):
			}
		}

		result, err := fetchOnce(ctx, client, method, options)
		if err != nil {
			lastErr = err
			continue
		}
		if result.Status >= 500 && attempt < options.Retries {
			lastErr = errors.Errorf("server returned %d", result.Status)
			continue
		}
		return result, nil
	}
	return nil, errors.WithMessage(lastErr, "fetch failed")
}

func fetchOnce(ctx context.Context, client *http.Client, method string, options *FetchOptions) (*FetchResult, error) {
	var body io.Reader
	if len(options.Body) > 0 {
		body = bytes.NewReader(options.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, options.URL, body)
	if err != nil {
		return nil, errors.Wrap(err, "http.NewRequest failed")
	}
	for key, value := range options.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	return &FetchResult{Status: resp.StatusCode, Body: buf}, nil
}
