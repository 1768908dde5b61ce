package cfg

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// fileProvider 文件数据源，支持 fsnotify 变更监听
type fileProvider struct {
	filePath string
	watcher  *fsnotify.Watcher
	mu        sync.RWMutex
	onChange  []func(data []byte) error
	once      sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

func newFileProvider(filePath string) (*fileProvider, error) {
	if filePath == "" {
		return nil, errors.New("file path is required")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "invalid file path")
	}

	return &fileProvider{filePath: absPath, done: make(chan struct{})}, nil
}

func (p *fileProvider) Load() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data, err := os.ReadFile(p.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}
	return data, nil
}

func (p *fileProvider) Save(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.WriteFile(p.filePath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write file")
	}
	return nil
}

func (p *fileProvider) OnChange(fn func(data []byte) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = append(p.onChange, fn)
}

// Watch 启动文件变更监听，重复调用只生效一次
func (p *fileProvider) Watch() error {
	var initErr error
	p.once.Do(func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			initErr = errors.Wrap(err, "failed to create file watcher")
			return
		}
		p.watcher = watcher

		go func() {
			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if event.Op&fsnotify.Write == fsnotify.Write {
						p.notify()
					}
				case _, ok := <-watcher.Errors:
					if !ok {
						return
					}
				case <-p.done:
					return
				}
			}
		}()

		if err := watcher.Add(p.filePath); err != nil {
			initErr = errors.Wrap(err, "failed to watch file")
		}
	})
	return initErr
}

func (p *fileProvider) notify() {
	data, err := os.ReadFile(p.filePath)
	if err != nil {
		return
	}

	p.mu.RLock()
	handlers := make([]func(data []byte) error, len(p.onChange))
	copy(handlers, p.onChange)
	p.mu.RUnlock()

	for _, fn := range handlers {
		// 单个回调失败不影响其他回调
		_ = fn(data)
	}
}

// Close 关闭监听资源，重复调用安全
func (p *fileProvider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if p.watcher != nil {
			err = p.watcher.Close()
		}
	})
	return err
}
