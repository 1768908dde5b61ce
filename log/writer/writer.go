package writer

import (
	"io"

	"github.com/pkg/errors"
)

// Writer 日志输出器接口
type Writer interface {
	io.Writer
	io.Closer
}

// Options 输出器配置，Type 决定具体实现
type Options struct {
	Type    string         `cfg:"type" def:"Console" validate:"omitempty,oneof=Console File"`
	Console ConsoleOptions `cfg:"console"`
	File    FileOptions    `cfg:"file"`
}

// NewWriterWithOptions 根据配置创建输出器
func NewWriterWithOptions(options *Options) (Writer, error) {
	if options == nil {
		options = &Options{}
	}
	switch options.Type {
	case "", "Console":
		return NewConsoleWriterWithOptions(&options.Console)
	case "File":
		return NewFileWriterWithOptions(&options.File)
	default:
		return nil, errors.Errorf("unknown writer type: %s", options.Type)
	}
}
