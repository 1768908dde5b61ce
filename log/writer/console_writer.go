package writer

import (
	"os"

	"github.com/pkg/errors"
)

// ConsoleOptions 控制台输出配置
type ConsoleOptions struct {
	// 输出目标：stdout, stderr
	Target string `cfg:"target" def:"stdout" validate:"omitempty,oneof=stdout stderr"`
}

// ConsoleWriter 控制台输出器
type ConsoleWriter struct {
	file *os.File
}

func NewConsoleWriterWithOptions(options *ConsoleOptions) (*ConsoleWriter, error) {
	if options == nil {
		options = &ConsoleOptions{}
	}
	switch options.Target {
	case "", "stdout":
		return &ConsoleWriter{file: os.Stdout}, nil
	case "stderr":
		return &ConsoleWriter{file: os.Stderr}, nil
	default:
		return nil, errors.Errorf("unknown console target: %s", options.Target)
	}
}

func (w *ConsoleWriter) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

// Close 控制台输出器不持有需要释放的资源
func (w *ConsoleWriter) Close() error {
	return nil
}
