package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// до Init логгер молчит, чтобы пакеты можно было тестировать без настройки
var Logger *zap.Logger = zap.NewNop()

const timeLayout = "2006/01/02 15:04:05"

// Init настраивает глобальный логгер. Вывод по умолчанию stderr,
// stdout занят меню.
func Init(development bool, outputs ...string) error {
	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)

	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	config.OutputPaths = outputs
	config.ErrorOutputPaths = outputs

	built, err := config.Build()
	if err != nil {
		return err
	}
	Logger = built
	return nil
}

func Sync() {
	_ = Logger.Sync()
}

func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Log(lvl zapcore.Level, msg string, fields ...zap.Field) {
	Logger.Log(lvl, msg, fields...)
}

func Error(msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Logger.Error(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}
