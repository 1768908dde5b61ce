package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hatlonely/webx/log/logger"
)

type ServerOptions struct {
	Addr     string `cfg:"addr" def:":8080"`
	BasePath string `cfg:"basePath"`

	// Name 组件名称标识，作为指标名前缀和日志 component 字段值
	Name string `cfg:"name" def:"webx"`

	EnableMetrics bool `cfg:"enableMetrics" def:"true"`
	EnableLogging bool `cfg:"enableLogging" def:"true"`
	EnableTracing bool `cfg:"enableTracing" def:"false"`
}

// routeUnmatched 未命中路由时的观测标签
const routeUnmatched = "unmatched"

// Server 请求分发器
// 提取方法和路径、查路由表、调用处理器，并把结果或错误翻译成 HTTP 响应
type Server struct {
	router   *Router
	basePath string
	observer *dispatchObserver
	server   *http.Server
	metrics  http.Handler
}

func NewServerWithOptions(options *ServerOptions, opts ...ServerOption) (*Server, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	if options.Name == "" {
		options.Name = "webx"
	}

	extra := &serverExtra{}
	for _, opt := range opts {
		opt(extra)
	}

	s := &Server{
		router:   NewRouter(),
		basePath: normalizePath(options.BasePath),
		observer: newDispatchObserver(options.Name, extra.logger,
			options.EnableMetrics, options.EnableLogging, options.EnableTracing),
	}
	if options.EnableMetrics {
		s.metrics = promhttp.Handler()
	}
	s.server = &http.Server{Addr: options.Addr, Handler: s}
	return s, nil
}

type serverExtra struct {
	logger logger.Logger
}

type ServerOption func(*serverExtra)

// WithLogger 设置分发日志器
func WithLogger(l logger.Logger) ServerOption {
	return func(extra *serverExtra) {
		extra.logger = l
	}
}

// Router 返回路由表用于注册处理器
func (s *Server) Router() *Router {
	return s.router
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.metrics != nil && normalizePath(r.URL.Path) == "/metrics" {
		s.metrics.ServeHTTP(w, r)
		return
	}

	req, err := newRequest(r, s.basePath)
	if err != nil {
		writeError(w, err)
		return
	}

	handler, pattern, params, ok := s.router.match(req.Method, req.Segments)
	if !ok {
		// 未命中的路径不能作为指标标签，任意请求路径会撑爆标签基数
		s.observer.observe(r.Context(), routeUnmatched, req.Method, func(ctx context.Context) int {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "route not found"})
			return http.StatusNotFound
		})
		return
	}
	req.Params = params

	s.observer.observe(r.Context(), pattern, req.Method, func(ctx context.Context) int {
		result, err := handler(ctx, req)
		if err != nil {
			return writeError(w, err)
		}
		writeJSON(w, http.StatusOK, result)
		return http.StatusOK
	})
}

// ListenAndServe 阻塞运行直到 Shutdown 或出错
func (s *Server) ListenAndServe() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) int {
	status := statusOf(err)
	writeJSON(w, status, map[string]any{"error": err.Error()})
	return status
}
