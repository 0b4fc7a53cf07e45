package cfg

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hatlonely/modelorm/log"
	"github.com/pkg/errors"
)

// Watcher 监听配置文件变更。文件被写入、替换后回调所有 handler
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  log.Logger

	mu       sync.RWMutex
	handlers []func(path string) error
	once     sync.Once
	done     chan struct{}
}

// NewWatcher 创建文件监听器。监听的是文件所在目录，编辑器的原子替换也能感知到
func NewWatcher(path string, logger log.Logger) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("file path is required")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "invalid file path")
	}
	if logger == nil {
		logger = log.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	if err := w.Add(filepath.Dir(absPath)); err != nil {
		_ = w.Close()
		return nil, errors.Wrap(err, "failed to add directory to watcher")
	}

	return &Watcher{
		path:    absPath,
		watcher: w,
		logger:  logger.With("path", absPath),
		done:    make(chan struct{}),
	}, nil
}

// OnChange 注册变更回调
func (w *Watcher) OnChange(fn func(path string) error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, fn)
}

// Watch 阻塞监听直到 ctx 结束或 Close 被调用
func (w *Watcher) Watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.notify(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "watch config file failed", "error", err)
		}
	}
}

func (w *Watcher) notify(ctx context.Context) {
	w.mu.RLock()
	handlers := append([]func(string) error(nil), w.handlers...)
	w.mu.RUnlock()

	w.logger.InfoContext(ctx, "config file changed")
	for _, handler := range handlers {
		if err := handler(w.path); err != nil {
			w.logger.ErrorContext(ctx, "config change handler failed", "error", err)
		}
	}
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
