package badger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// slogLogger 将 badger 日志转发到 slog
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Errorf(f string, v ...any)   { s.log(slog.LevelError, f, v...) }
func (s slogLogger) Warningf(f string, v ...any) { s.log(slog.LevelWarn, f, v...) }
func (s slogLogger) Infof(f string, v ...any)    { s.log(slog.LevelDebug, f, v...) }
func (s slogLogger) Debugf(f string, v ...any)   { s.log(slog.LevelDebug, f, v...) }

// log badger 的 info 日志很多, 统一降为 debug
func (s slogLogger) log(level slog.Level, f string, v ...any) {
	ctx := context.Background()
	if !s.l.Enabled(ctx, level) {
		return
	}
	s.l.Log(ctx, level, strings.TrimSpace(fmt.Sprintf(f, v...)))
}
