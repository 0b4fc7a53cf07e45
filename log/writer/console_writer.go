package writer

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// ConsoleWriterOptions 控制台输出配置
type ConsoleWriterOptions struct {
	// 输出目标：stdout, stderr
	Target string `cfg:"target" def:"stderr" validate:"omitempty,oneof=stdout stderr"`
}

// ConsoleWriter 控制台输出器
type ConsoleWriter struct {
	writer io.Writer
}

// NewConsoleWriterWithOptions 创建控制台输出器，默认输出到 stderr，避免和命令输出混在一起
func NewConsoleWriterWithOptions(options *ConsoleWriterOptions) (*ConsoleWriter, error) {
	target := "stderr"
	if options != nil && options.Target != "" {
		target = options.Target
	}

	switch target {
	case "stdout":
		return &ConsoleWriter{writer: os.Stdout}, nil
	case "stderr":
		return &ConsoleWriter{writer: os.Stderr}, nil
	}
	return nil, errors.Errorf("unsupported console target %q", target)
}

func (c *ConsoleWriter) Write(p []byte) (int, error) {
	return c.writer.Write(p)
}

// Close 控制台不需要关闭
func (c *ConsoleWriter) Close() error {
	return nil
}
