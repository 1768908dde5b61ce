package cfg

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Options 配置类初始化选项
type Options struct {
	// 配置文件路径
	Path string `cfg:"path" validate:"required"`
	// 文件格式：json, yaml, toml, ini，缺省按扩展名推断
	Format string `cfg:"format" validate:"omitempty,oneof=json yaml yml toml ini"`
}

// Config 文件后端的键路径配置存储
// Get/Set 的 key 用点号表示嵌套，[i] 表示数组索引
type Config struct {
	provider *fileProvider
	format   string

	mu      sync.RWMutex
	storage *Storage
}

// NewConfigWithOptions 根据选项创建配置对象
func NewConfigWithOptions(options *Options) (*Config, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}

	format := options.Format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(options.Path), ".")
	}

	provider, err := newFileProvider(options.Path)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create provider")
	}

	data, err := provider.Load()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to load config file")
	}

	value, err := decode(data, format)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to decode config file")
	}

	return &Config{
		provider: provider,
		format:   format,
		storage:  NewStorage(value),
	}, nil
}

// Get 按键路径读取配置值
func (c *Config) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storage.Get(key)
}

// Set 按键路径写入配置值，只改内存，Save 时落盘
func (c *Config) Set(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storage.Set(key, value)
}

// Sub 获取子配置数据
func (c *Config) Sub(key string) *Storage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storage.Sub(key)
}

// ConvertTo 将配置数据绑定到结构体并校验
func (c *Config) ConvertTo(object any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storage.ConvertTo(object)
}

// Save 把当前配置数据编码后写回文件
func (c *Config) Save() error {
	c.mu.RLock()
	buf, err := encode(c.storage.Data(), c.format)
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	return c.provider.Save(buf)
}

// OnChange 注册文件变更回调，需调用 Watch 后才会触发
func (c *Config) OnChange(fn func(storage *Storage) error) {
	c.provider.OnChange(func(data []byte) error {
		value, err := decode(data, c.format)
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.storage = NewStorage(value)
		storage := c.storage
		c.mu.Unlock()

		return fn(storage)
	})
}

// Watch 启动配置文件变更监听
func (c *Config) Watch() error {
	return c.provider.Watch()
}

// Close 关闭配置对象，释放文件监听资源
func (c *Config) Close() error {
	return c.provider.Close()
}
