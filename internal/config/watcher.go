package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"solwatch/internal/logger"
)

// Watch 监听配置文件变更，重新加载成功后回调 onReload。
// 加载失败只告警，不影响正在运行的配置。阻塞直到 ctx 取消。
func Watch(ctx context.Context, path string, onReload func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// 监听目录而不是文件本身，编辑器原子替换时 inode 会变
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)
	logger.Infof("配置热加载已启用：%s", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(target)
			if err != nil {
				logger.Warnf("配置重载失败，保持原配置: %v", err)
				continue
			}
			logger.Infof("配置已重载（log_level=%s）", cfg.App.LogLevel)
			if onReload != nil {
				onReload(cfg)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("配置监听错误: %v", err)
		}
	}
}
