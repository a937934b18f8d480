package logger

import (
	"os"

	"github.com/amilz/mad-raffle/internal/platform/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// Initialize 根据配置构建全局的zap日志器。
// 控制台输出使用Console编码，文件输出使用JSON编码，两者可同时启用。
func Initialize(cfg config.LogConfig) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var cores []zapcore.Core

	if cfg.File != "" {
		logFile, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			panic(err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(logFile),
			level,
		))
	}

	if cfg.Console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}

	log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

// ensure 保证在未显式初始化时（例如单元测试中）日志调用不会崩溃
func ensure() *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return log
}

func Debug(message string, fields ...zap.Field) {
	ensure().Debug(message, fields...)
}

func Info(message string, fields ...zap.Field) {
	ensure().Info(message, fields...)
}

func Warn(message string, fields ...zap.Field) {
	ensure().Warn(message, fields...)
}

func Error(message string, fields ...zap.Field) {
	ensure().Error(message, fields...)
}

func Fatal(message string, fields ...zap.Field) {
	ensure().Fatal(message, fields...)
}
