package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *zap.Logger

type Options struct {
	Production bool
	// File enables an additional rotated JSON log next to the console one.
	File string
}

func InitProd() *zap.Logger {
	return initLogger(zap.NewProductionConfig(), "")
}

func InitDev() *zap.Logger {
	return initLogger(zap.NewDevelopmentConfig(), "")
}

func Init(opts Options) *zap.Logger {
	if opts.Production {
		return initLogger(zap.NewProductionConfig(), opts.File)
	}
	return initLogger(zap.NewDevelopmentConfig(), opts.File)
}

func initLogger(config zap.Config, file string) *zap.Logger {
	options := []zap.Option{zap.AddStacktrace(zap.WarnLevel)}
	if file != "" {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   file,
				MaxSize:    100,
				MaxBackups: 5,
				MaxAge:     30,
			}),
			config.Level,
		)
		options = append(options, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	var err error
	logger, err = config.Build(options...)
	if err != nil {
		fmt.Printf("Failed to init zap logger: %v", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)
	return logger
}

func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
