package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// L 全局 SugaredLogger，Init 之前默认输出 info 级别到 stderr。
var L *zap.SugaredLogger

func init() {
	L = newLogger(zapcore.InfoLevel, os.Stderr)
}

// Init 按配置初始化全局日志：控制台始终输出，file 非空时同时写入轮转文件
// （对应原始脚本里 StreamHandler + FileHandler 的组合）。
func Init(level, file string) error {
	var lv zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = zapcore.DebugLevel
	case "info", "":
		lv = zapcore.InfoLevel
	case "warn":
		lv = zapcore.WarnLevel
	case "error":
		lv = zapcore.ErrorLevel
	default:
		return fmt.Errorf("unsupported log level: %s", level)
	}

	var out io.Writer = os.Stderr
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    64, // MB
			MaxBackups: 3,
			MaxAge:     7, // 天
			Compress:   true,
		})
	}

	L = newLogger(lv, out)
	return nil
}

func newLogger(lv zapcore.Level, out io.Writer) *zap.SugaredLogger {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(out), lv)
	return zap.New(core).Sugar()
}

// Sync 刷新缓冲区，进程退出前调用。
func Sync() {
	_ = L.Sync()
}

func Debugf(template string, args ...interface{}) { L.Debugf(template, args...) }
func Infof(template string, args ...interface{})  { L.Infof(template, args...) }
func Warnf(template string, args ...interface{})  { L.Warnf(template, args...) }
func Errorf(template string, args ...interface{}) { L.Errorf(template, args...) }

// Infow / Warnw / Errorw 输出带结构化字段的日志，用于可恢复错误的事件记录。
func Infow(msg string, kv ...interface{})  { L.Infow(msg, kv...) }
func Warnw(msg string, kv ...interface{})  { L.Warnw(msg, kv...) }
func Errorw(msg string, kv ...interface{}) { L.Errorw(msg, kv...) }
