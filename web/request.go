package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// Request 当前请求的抽象，处理器只依赖它而不是 http.Request
type Request struct {
	Method   string
	Path     string
	Segments []string
	// Params 路由模式中 :name 捕获的路径参数
	Params map[string]string
	Query  url.Values
	// Body JSON 请求体解码后的 map，无请求体时为 nil
	Body map[string]any
}

// normalizePath 统一的路径归一规则：清理冗余段、去掉尾部斜杠、保证前导斜杠
// 全部路由匹配只用这一条规则
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = path.Clean(p)
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// splitSegments 把归一后的路径切成段，根路径为空段列表
func splitSegments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// newRequest 从 http.Request 构建请求抽象，basePath 只剥离一次
// 剥离严格按段边界进行，/apifoo 不属于前缀 /api
func newRequest(r *http.Request, basePath string) (*Request, error) {
	p := normalizePath(r.URL.Path)
	if basePath != "" && basePath != "/" && strings.HasPrefix(p, basePath) {
		switch {
		case len(p) == len(basePath):
			p = "/"
		case p[len(basePath)] == '/':
			p = normalizePath(p[len(basePath):])
		}
	}

	req := &Request{
		Method:   r.Method,
		Path:     p,
		Segments: splitSegments(p),
		Params:   map[string]string{},
		Query:    r.URL.Query(),
	}

	if r.Body == nil {
		return req, nil
	}
	buf, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read request body")
	}
	if len(buf) == 0 {
		return req, nil
	}

	var body map[string]any
	if err := json.Unmarshal(buf, &body); err != nil {
		return nil, NewError(http.StatusBadRequest, "invalid json body: %v", err)
	}
	req.Body = body
	return req, nil
}
