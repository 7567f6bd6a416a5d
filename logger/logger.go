// Package logger 基于 zerolog 的全局结构化日志
//
// 启动时调用 Init 初始化，之后通过 Get 获取。
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options 日志初始化选项
type Options struct {
	// Level 最低日志级别：trace、debug、info、warn、error，默认 info
	Level string
	// Pretty 控制台彩色输出，生产环境应关闭以输出纯 JSON
	Pretty bool
	// Output 输出目标，默认 os.Stdout
	Output io.Writer
}

var (
	mu          sync.Mutex
	instance    zerolog.Logger
	initialized bool
)

// Init 初始化全局日志，仅首次调用生效
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return instance
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lvl := ParseLevel(opts.Level)
	zerolog.SetGlobalLevel(lvl)

	instance = zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("app", "palmera").
		Logger()
	initialized = true
	return instance
}

// Get 获取全局日志；未初始化时返回丢弃输出的 logger，便于测试
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if !initialized {
		return zerolog.Nop()
	}
	return instance
}

// Reset 重置全局日志，仅用于测试
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = zerolog.Logger{}
	initialized = false
}

// ParseLevel 字符串转 zerolog.Level，无法识别时返回 info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
