package log

import (
	"sync/atomic"

	"github.com/hatlonely/modelorm/log/logger"
)

type Logger = logger.Logger
type Options = logger.SLogOptions

var defaultLogger atomic.Pointer[Logger]

func init() {
	// 默认向 stderr 输出 text 格式日志
	l, err := logger.NewSLogWithOptions(&logger.SLogOptions{Level: "info", Format: "text"})
	if err != nil {
		panic("failed to initialize default logger: " + err.Error())
	}
	SetDefault(l)
}

// NewLoggerWithOptions 按配置创建日志器，options 为空时返回默认日志器
func NewLoggerWithOptions(options *Options) (Logger, error) {
	if options == nil {
		return Default(), nil
	}
	return logger.NewSLogWithOptions(options)
}

func Default() Logger {
	return *defaultLogger.Load()
}

func SetDefault(l Logger) {
	defaultLogger.Store(&l)
}

// Discard 丢弃所有日志，测试中使用
func Discard() Logger {
	return logger.NewDiscard()
}
