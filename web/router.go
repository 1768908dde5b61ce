package web

import (
	"context"
	"strings"
)

// HandlerFunc 请求处理器，返回值被序列化为 JSON 响应
type HandlerFunc func(ctx context.Context, req *Request) (any, error)

type route struct {
	method   string
	pattern  string
	segments []string
	handler  HandlerFunc
}

// Router 路由表，模式按 / 分段，:name 段为路径参数
// 匹配是严格的逐段比较，不做前缀匹配
type Router struct {
	routes []route
}

func NewRouter() *Router {
	return &Router{}
}

// Handle 注册路由，例如 Handle("GET", "/users/:id", handler)
func (r *Router) Handle(method string, pattern string, handler HandlerFunc) *Router {
	pattern = normalizePath(pattern)
	r.routes = append(r.routes, route{
		method:   strings.ToUpper(method),
		pattern:  pattern,
		segments: splitSegments(pattern),
		handler:  handler,
	})
	return r
}

func (r *Router) GET(pattern string, handler HandlerFunc) *Router {
	return r.Handle("GET", pattern, handler)
}

func (r *Router) POST(pattern string, handler HandlerFunc) *Router {
	return r.Handle("POST", pattern, handler)
}

func (r *Router) PUT(pattern string, handler HandlerFunc) *Router {
	return r.Handle("PUT", pattern, handler)
}

func (r *Router) DELETE(pattern string, handler HandlerFunc) *Router {
	return r.Handle("DELETE", pattern, handler)
}

// match 查找路由并提取路径参数，未命中返回 ok=false
func (r *Router) match(method string, segments []string) (HandlerFunc, string, map[string]string, bool) {
	for _, rt := range r.routes {
		if rt.method != method || len(rt.segments) != len(segments) {
			continue
		}
		params := map[string]string{}
		matched := true
		for i, seg := range rt.segments {
			if strings.HasPrefix(seg, ":") {
				params[seg[1:]] = segments[i]
				continue
			}
			if seg != segments[i] {
				matched = false
				break
			}
		}
		if matched {
			return rt.handler, rt.pattern, params, true
		}
	}
	return nil, "", nil, false
}
