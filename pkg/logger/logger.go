package logger

import (
	"fmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"os"
	"path/filepath"
	"sync/atomic"
)

const logFileName = "inspector.log"

// LogOption 日志初始化参数
type LogOption struct {
	Format   string // "console" 或 "json"
	LogDir   string // 为空时只输出到 stderr
	Level    string // debug / info / warn / error
	Compress bool   // 是否压缩轮转后的旧日志
}

var sugar atomic.Pointer[zap.SugaredLogger]

func init() {
	sugar.Store(newSugar(zapcore.InfoLevel, consoleEncoder(), zapcore.Lock(os.Stderr)))
}

// Init 按配置重建全局 logger，可重复调用
func Init(opt LogOption) error {
	var level zapcore.Level
	if opt.Level != "" {
		if err := level.UnmarshalText([]byte(opt.Level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", opt.Level, err)
		}
	}

	var encoder zapcore.Encoder
	switch opt.Format {
	case "", "console":
		encoder = consoleEncoder()
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	default:
		return fmt.Errorf("invalid log format %q", opt.Format)
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stderr)}
	if opt.LogDir != "" {
		if err := os.MkdirAll(opt.LogDir, 0o755); err != nil {
			return fmt.Errorf("create log dir %s: %w", opt.LogDir, err)
		}
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opt.LogDir, logFileName),
			MaxSize:    100, // MB
			MaxBackups: 10,
			MaxAge:     7, // 天
			Compress:   opt.Compress,
		}))
	}

	old := sugar.Swap(newSugar(level, encoder, zapcore.NewMultiWriteSyncer(sinks...)))
	_ = old.Sync()
	return nil
}

func newSugar(level zapcore.Level, encoder zapcore.Encoder, ws zapcore.WriteSyncer) *zap.SugaredLogger {
	core := zapcore.NewCore(encoder, ws, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	return cfg
}

func consoleEncoder() zapcore.Encoder {
	cfg := encoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func Debugf(template string, args ...interface{}) {
	sugar.Load().Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	sugar.Load().Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	sugar.Load().Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	sugar.Load().Errorf(template, args...)
}

// Sync 进程退出前刷新缓冲
func Sync() {
	_ = sugar.Load().Sync()
}
