package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.Must(zap.NewDevelopment()).WithOptions(zap.AddCallerSkip(1)).Named("procwire")

// InitLogger initializes the logger from the logger.yaml file in the
// data/config directory, with PROCWIRE_LOGGER_* environment overrides.
// If no usable config is found the default development logger stays.
func InitLogger() {
	cfg, err := loadLoggerConfig()
	if err != nil {
		logger.Warn("couldn't load logging config, using default logger", zap.Error(err))
		return
	}

	outputPaths, err := resolveOutputPaths(cfg.GetStringSlice("OutputPaths"))
	if err != nil {
		logger.Warn("failed to resolve output paths, using default logger", zap.Error(err))
		return
	}

	level, err := zap.ParseAtomicLevel(cfg.GetString("level"))
	if err != nil {
		logger.Warn("failed to parse log level, using INFO level", zap.Error(err))
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	loggerConfig := zap.Config{
		Level:            level,
		Development:      false,
		Encoding:         cfg.GetString("encoding"),
		OutputPaths:      outputPaths,
		ErrorOutputPaths: outputPaths,
		EncoderConfig:    buildEncoderConfig(cfg),
	}

	logger = zap.Must(loggerConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func loadLoggerConfig() (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetConfigType("yaml")
	cfg.SetConfigName("logger")
	cfg.AddConfigPath("data/config")
	cfg.SetEnvPrefix("PROCWIRE_LOGGER")
	cfg.AutomaticEnv()
	if err := cfg.BindEnv("OutputPaths", "PROCWIRE_LOGGER_OUTPUT_PATHS"); err != nil {
		return nil, err
	}

	if err := cfg.ReadInConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveOutputPaths turns directory entries into a per-session log
// file, keeping stdout/stderr entries as they are.
func resolveOutputPaths(paths []string) ([]string, error) {
	for i, path := range paths {
		if path == "stdout" || path == "stderr" {
			continue
		}

		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}

		name := fmt.Sprintf("procwire_log-%s.log", time.Now().Format("2006-01-02_15-04-05"))
		logPath := filepath.Join(path, name)
		for n := 1; ; n++ {
			if _, err := os.Stat(logPath); os.IsNotExist(err) {
				break
			}
			logPath = filepath.Join(path, fmt.Sprintf("%s.%d", name, n))
		}

		f, err := os.Create(logPath)
		if err != nil {
			return nil, fmt.Errorf("creating log file: %w", err)
		}
		f.Close()

		paths[i] = logPath
	}
	return paths, nil
}

// buildEncoderConfig reads the encoder knobs from config. The encoder
// funcs parse their own names (zapcore falls back to a sane default on
// anything unrecognized), so the knobs procwire doesn't set cost nothing.
func buildEncoderConfig(cfg *viper.Viper) zapcore.EncoderConfig {
	encCfg := zapcore.EncoderConfig{
		MessageKey:    cfg.GetString("encoderConfig.messageKey"),
		LevelKey:      cfg.GetString("encoderConfig.levelKey"),
		TimeKey:       cfg.GetString("encoderConfig.timeKey"),
		NameKey:       cfg.GetString("encoderConfig.nameKey"),
		CallerKey:     cfg.GetString("encoderConfig.callerKey"),
		StacktraceKey: cfg.GetString("encoderConfig.stacktraceKey"),
		LineEnding:    zapcore.DefaultLineEnding,
	}

	encCfg.EncodeLevel.UnmarshalText([]byte(cfg.GetString("encoderConfig.levelEncoder")))
	encCfg.EncodeTime.UnmarshalText([]byte(cfg.GetString("encoderConfig.timeEncoder")))
	encCfg.EncodeDuration.UnmarshalText([]byte(cfg.GetString("encoderConfig.durationEncoder")))
	encCfg.EncodeCaller.UnmarshalText([]byte(cfg.GetString("encoderConfig.callerEncoder")))

	return encCfg
}

// Info logs an info message
func Info(message string, fields ...zap.Field) {
	logger.Info(message, fields...)
}

// Warn logs a warning message
func Warn(message string, fields ...zap.Field) {
	logger.Warn(message, fields...)
}

// Debug logs a debug message
func Debug(message string, fields ...zap.Field) {
	logger.Debug(message, fields...)
}

// Fatal logs a fatal message
func Fatal(message string, fields ...zap.Field) {
	logger.Fatal(message, fields...)
}

// Error logs an error message
func Error(message string, fields ...zap.Field) {
	logger.Error(message, fields...)
}

// Log retrieves the underlying zap logger
func Log() *zap.Logger {
	return logger.WithOptions(zap.AddCallerSkip(-1))
}
