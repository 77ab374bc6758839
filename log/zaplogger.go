//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package log

import (
	"errors"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"trpc.group/trpc-go/streambuf/log/rollwriter"
)

// Writer kinds.
const (
	OutputConsole = "console"
	OutputFile    = "file"
)

// OutputConfig is the config of one log output.
type OutputConfig struct {
	// Writer is the output kind, console or file.
	Writer string `yaml:"writer"`
	// Level is the minimum level this output logs.
	Level string `yaml:"level"`
	// Formatter is console or json.
	Formatter string `yaml:"formatter"`

	// WriteConfig applies to the file writer.
	WriteConfig WriteConfig `yaml:"writer_config"`
}

// WriteConfig is the file writer config.
type WriteConfig struct {
	// Filename is the log file path.
	Filename string `yaml:"filename"`
	// TimeFormat is the strftime pattern rolled files are named by.
	TimeFormat string `yaml:"time_format"`
	// MaxSize is the roll size of one file in MB, 0 disables size rolling.
	MaxSize int `yaml:"max_size"`
	// MaxBackups is how many rolled files are kept, 0 keeps all.
	MaxBackups int `yaml:"max_backups"`
}

// Config is the set of outputs of one logger.
type Config []OutputConfig

var defaultConfig = Config{
	{
		Writer:    OutputConsole,
		Level:     "debug",
		Formatter: "console",
	},
}

var zapLevels = map[string]zapcore.Level{
	"":      zapcore.DebugLevel,
	"trace": zapcore.DebugLevel,
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"fatal": zapcore.FatalLevel,
}

var levelToZapLevel = map[Level]zapcore.Level{
	LevelTrace: zapcore.DebugLevel,
	LevelDebug: zapcore.DebugLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelError: zapcore.ErrorLevel,
	LevelFatal: zapcore.FatalLevel,
}

var zapLevelToLevel = map[zapcore.Level]Level{
	zapcore.DebugLevel: LevelDebug,
	zapcore.InfoLevel:  LevelInfo,
	zapcore.WarnLevel:  LevelWarn,
	zapcore.ErrorLevel: LevelError,
	zapcore.FatalLevel: LevelFatal,
}

// NewZapLog creates a Logger from zap with the given outputs.
func NewZapLog(cfg Config) Logger {
	var (
		cores  []zapcore.Core
		levels []zap.AtomicLevel
	)
	for _, c := range cfg {
		core, lvl, err := newCore(&c)
		if err != nil {
			panic("log: writer core " + c.Writer + " setup fail: " + err.Error())
		}
		cores = append(cores, core)
		levels = append(levels, lvl)
	}
	return &zapLog{
		levels: levels,
		logger: zap.New(
			zapcore.NewTee(cores...),
			zap.AddCallerSkip(2),
			zap.AddCaller(),
		).Sugar(),
	}
}

func newCore(c *OutputConfig) (zapcore.Core, zap.AtomicLevel, error) {
	lvl := zap.NewAtomicLevelAt(zapLevels[c.Level])
	switch c.Writer {
	case OutputConsole:
		return zapcore.NewCore(newEncoder(c), zapcore.Lock(os.Stdout), lvl), lvl, nil
	case OutputFile:
		w, err := rollwriter.NewRollWriter(
			c.WriteConfig.Filename,
			rollwriter.WithMaxSize(c.WriteConfig.MaxSize),
			rollwriter.WithMaxBackups(c.WriteConfig.MaxBackups),
			rollwriter.WithTimeFormat(c.WriteConfig.TimeFormat),
		)
		if err != nil {
			return nil, lvl, err
		}
		return zapcore.NewCore(newEncoder(c), zapcore.AddSync(w), lvl), lvl, nil
	default:
		return nil, lvl, errors.New("log: writer " + c.Writer + " not registered")
	}
}

func newEncoder(c *OutputConfig) zapcore.Encoder {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      "C",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if c.Formatter == "json" {
		return zapcore.NewJSONEncoder(encoderCfg)
	}
	return zapcore.NewConsoleEncoder(encoderCfg)
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

var _ Logger = (*zapLog)(nil)

type zapLog struct {
	levels []zap.AtomicLevel
	logger *zap.SugaredLogger
}

func (l *zapLog) Trace(args ...interface{}) { l.logger.Debug(args...) }

func (l *zapLog) Tracef(format string, args ...interface{}) { l.logger.Debugf(format, args...) }

func (l *zapLog) Debug(args ...interface{}) { l.logger.Debug(args...) }

func (l *zapLog) Debugf(format string, args ...interface{}) { l.logger.Debugf(format, args...) }

func (l *zapLog) Info(args ...interface{}) { l.logger.Info(args...) }

func (l *zapLog) Infof(format string, args ...interface{}) { l.logger.Infof(format, args...) }

func (l *zapLog) Warn(args ...interface{}) { l.logger.Warn(args...) }

func (l *zapLog) Warnf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }

func (l *zapLog) Error(args ...interface{}) { l.logger.Error(args...) }

func (l *zapLog) Errorf(format string, args ...interface{}) { l.logger.Errorf(format, args...) }

func (l *zapLog) Fatal(args ...interface{}) { l.logger.Fatal(args...) }

func (l *zapLog) Fatalf(format string, args ...interface{}) { l.logger.Fatalf(format, args...) }

// Sync flushes any buffered log entries.
func (l *zapLog) Sync() error { return l.logger.Sync() }

// SetLevel sets the output log level. The output is the index of the
// config entry, "0" for the first.
func (l *zapLog) SetLevel(output string, level Level) {
	i, err := strconv.Atoi(output)
	if err != nil {
		return
	}
	if i < 0 || i >= len(l.levels) {
		return
	}
	l.levels[i].SetLevel(levelToZapLevel[level])
}

// GetLevel gets the output log level.
func (l *zapLog) GetLevel(output string) Level {
	i, err := strconv.Atoi(output)
	if err != nil {
		return LevelDebug
	}
	if i < 0 || i >= len(l.levels) {
		return LevelDebug
	}
	return zapLevelToLevel[l.levels[i].Level()]
}

// With returns a new Logger carrying the extra fields.
func (l *zapLog) With(fields ...Field) Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return &zapLog{
		levels: l.levels,
		logger: l.logger.With(args...),
	}
}
