package configwatcher

import (
	"context"
	"learnhub_backend/internal/config"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type Reloader func(cfg *config.Config)

const debounce = time.Second

// Watch 监听配置文件写入，防抖后重新加载并回调；ctx 取消时退出
func Watch(ctx context.Context, configFile string, log *zap.Logger, reload Reloader) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configFile)
	if err != nil {
		return err
	}

	// 监听目录而不是文件，编辑器 rename 写入时文件句柄会失效
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				timer.Reset(debounce)
			}
		case <-timer.C:
			newCfg, err := config.LoadConfig(filepath.Dir(absPath))
			if err != nil {
				log.Error("Failed to reload config", zap.Error(err))
				continue
			}
			log.Info("Config reloaded", zap.String("file", absPath))
			reload(newCfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("Config watcher error", zap.Error(err))
		}
	}
}
