package util

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
)

// InitLog path为空时输出到stderr，返回的Closer用于关闭日志文件
func InitLog(name string, level slog.Level, path string) (*slog.Logger, io.Closer, error) {
	if path == "" {
		return NewLogger(name, level, os.Stderr), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, err
	}
	return NewLogger(name, level, file), file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func NewLogger(name string, level slog.Level, w io.Writer) *slog.Logger {
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
	return l.With("ServiceName", name)
}

func SetTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	return logger.With("TraceId", span.SpanContext().TraceID().String()).
		With("SpanId", span.SpanContext().SpanID().String()).
		WithGroup("detail")
}

// ParseLevel 无法识别时返回Info
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
