// Package logger builds the application zap logger from config.
// Package logger 根据配置构建应用的 zap 日志器。
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config logger configuration
// Config 日志器配置
type Config struct {
	// Level log level: debug / info / warn / error
	// Level 日志级别：debug / info / warn / error
	Level string
	// File log file path; empty means console only
	// File 日志文件路径，为空则仅输出到控制台
	File string
	// Production production mode uses JSON encoding and drops console color
	// Production 生产模式使用 JSON 编码并关闭控制台着色
	Production bool
}

// NewLogger creates a zap logger.
// NewLogger 创建 zap 日志器。
func NewLogger(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil && cfg.Level != "" {
		return nil, err
	}

	var cores []zapcore.Core

	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.Lock(f),
			level,
		))
	}

	if !cfg.Production || cfg.File == "" {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		if !cfg.Production {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	lg := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return lg, nil
}
