package web

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/", normalizePath(""))
	assert.Equal(t, "/", normalizePath("/"))
	assert.Equal(t, "/users", normalizePath("users"))
	assert.Equal(t, "/users", normalizePath("/users/"))
	assert.Equal(t, "/a/c", normalizePath("/a//b/../c"))
	assert.Equal(t, "/users/1", normalizePath("/users/1"))
}

func TestSplitSegments(t *testing.T) {
	assert.Nil(t, splitSegments("/"))
	assert.Equal(t, []string{"users"}, splitSegments("/users"))
	assert.Equal(t, []string{"users", "1"}, splitSegments("/users/1"))
}

func TestRouterMatch(t *testing.T) {
	noop := func(ctx context.Context, req *Request) (any, error) { return nil, nil }

	router := NewRouter()
	router.GET("/users", noop)
	router.GET("/users/:id", noop)
	router.POST("/users/:id/orders/:oid", noop)

	t.Run("静态路由", func(t *testing.T) {
		_, pattern, params, ok := router.match("GET", []string{"users"})
		require.True(t, ok)
		assert.Equal(t, "/users", pattern)
		assert.Empty(t, params)
	})

	t.Run("路径参数捕获", func(t *testing.T) {
		_, pattern, params, ok := router.match("GET", []string{"users", "42"})
		require.True(t, ok)
		assert.Equal(t, "/users/:id", pattern)
		assert.Equal(t, map[string]string{"id": "42"}, params)
	})

	t.Run("多个路径参数", func(t *testing.T) {
		_, _, params, ok := router.match("POST", []string{"users", "42", "orders", "7"})
		require.True(t, ok)
		assert.Equal(t, map[string]string{"id": "42", "oid": "7"}, params)
	})

	t.Run("方法不同视为未命中", func(t *testing.T) {
		_, _, _, ok := router.match("DELETE", []string{"users", "42"})
		assert.False(t, ok)
	})

	t.Run("段数不同视为未命中", func(t *testing.T) {
		_, _, _, ok := router.match("GET", []string{"users", "42", "extra"})
		assert.False(t, ok)
	})

	t.Run("注册时模式也会归一化", func(t *testing.T) {
		router.GET("items/", noop)
		_, pattern, _, ok := router.match("GET", []string{"items"})
		require.True(t, ok)
		assert.Equal(t, "/items", pattern)
	})
}
