package logger

// 全局日志组件，对 logrus 做一层薄封装，调用方只依赖本包提供的函数

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Settings stores config for logger
type Settings struct {
	// 日志文件所在目录，为空时输出到 stderr
	Path string `yaml:"path"`
	// 日志文件名
	Name string `yaml:"name"`
	// debug, info, warn, error
	Level string `yaml:"level"`
	// 使用 json 格式输出
	JSON bool `yaml:"json"`
}

// Fields 是 logrus.Fields 的别名，方便调用方附加结构化字段
type Fields = logrus.Fields

var (
	mu     sync.Mutex
	logger = newDefault()
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Setup 根据配置初始化日志输出
func Setup(settings *Settings) error {
	l := newDefault()
	if settings == nil {
		replace(l)
		return nil
	}
	if settings.Level != "" {
		level, err := logrus.ParseLevel(strings.ToLower(settings.Level))
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		l.SetLevel(level)
	}
	if settings.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	if settings.Name != "" {
		dir := settings.Path
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("logger: create log dir %s: %w", dir, err)
		}
		file, err := os.OpenFile(filepath.Join(dir, settings.Name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("logger: open log file: %w", err)
		}
		l.SetOutput(io.MultiWriter(os.Stderr, file))
	}
	replace(l)
	return nil
}

// SetOutput redirects log output, mostly used by tests
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// SetLevel changes the minimum level that will be written
func SetLevel(level logrus.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetLevel(level)
}

func replace(l *logrus.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func current() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// WithFields 返回一个带结构化字段的日志条目
func WithFields(fields Fields) *logrus.Entry {
	return current().WithFields(fields)
}

// Debug prints debug log
func Debug(v ...interface{}) {
	current().Debug(v...)
}

// Debugf prints debug log with format
func Debugf(format string, v ...interface{}) {
	current().Debugf(format, v...)
}

// Info prints normal log
func Info(v ...interface{}) {
	current().Info(v...)
}

// Infof prints normal log with format
func Infof(format string, v ...interface{}) {
	current().Infof(format, v...)
}

// Warn prints warning log
func Warn(v ...interface{}) {
	current().Warn(v...)
}

// Warnf prints warning log with format
func Warnf(format string, v ...interface{}) {
	current().Warnf(format, v...)
}

// Error prints error log
func Error(v ...interface{}) {
	current().Error(v...)
}

// Errorf prints error log with format
func Errorf(format string, v ...interface{}) {
	current().Errorf(format, v...)
}

// Fatal prints error log then stop the program
func Fatal(v ...interface{}) {
	current().Fatal(v...)
}
