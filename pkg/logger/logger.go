// Package logger 提供结构化日志功能
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ContextKey 用于从 context 中提取值的键类型
type ContextKey string

// 预定义的 context 键
const (
	TraceIDKey   ContextKey = "trace_id"
	SpanIDKey    ContextKey = "span_id"
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
	MailIDKey    ContextKey = "mail_id"
)

var contextKeys = []ContextKey{TraceIDKey, SpanIDKey, RequestIDKey, UserIDKey, MailIDKey}

// Options 日志初始化选项
type Options struct {
	Level  string
	Format string
	// Output 取值 stdout / stderr / 文件路径
	Output string

	// 以下仅在输出到文件时生效
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
	fileWriter    *lumberjack.Logger
)

// Init 初始化日志器
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	if fileWriter != nil {
		_ = fileWriter.Close()
		fileWriter = nil
	}

	w := resolveWriter(opts)
	defaultLogger = slog.New(newHandler(w, opts.Level, opts.Format))
	slog.SetDefault(defaultLogger)
}

// resolveWriter 根据 Output 选择写入目标
func resolveWriter(opts Options) io.Writer {
	switch strings.ToLower(strings.TrimSpace(opts.Output)) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}

	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := opts.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}
	fileWriter = &lumberjack.Logger{
		Filename:   opts.Output,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return fileWriter
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	handlerOpts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
	}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, handlerOpts)
	}
	return slog.NewTextHandler(w, handlerOpts)
}

// parseLevel 解析日志级别字符串
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Close 关闭文件输出
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

// Default 返回默认日志器
func Default() *slog.Logger {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if l == nil {
		Init(Options{Level: "info", Format: "json"})
		mu.Lock()
		l = defaultLogger
		mu.Unlock()
	}
	return l
}

// FromContext 从 Context 提取追踪信息创建带上下文的 Logger
func FromContext(ctx context.Context) *slog.Logger {
	l := Default()
	if ctx == nil {
		return l
	}
	for _, key := range contextKeys {
		if v := ctx.Value(key); v != nil {
			l = l.With(string(key), v)
		}
	}
	return l
}

// WithContext 将日志上下文信息注入到 context
func WithContext(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

// Info 记录 INFO 级别日志
func Info(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

// Debug 记录 DEBUG 级别日志
func Debug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

// Warn 记录 WARN 级别日志
func Warn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

// Error 记录 ERROR 级别日志
func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	FromContext(ctx).Error(msg, args...)
}

// Fatal 记录 Fatal 级别日志并退出
func Fatal(ctx context.Context, msg string, err error, args ...any) {
	Error(ctx, msg, err, args...)
	_ = Close()
	os.Exit(1)
}
