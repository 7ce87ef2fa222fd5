// Package logger holds the process-wide zap logger.
//
// Log is a no-op until Init or Setup runs, so libraries and tests can log
// without any setup.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the installed logger.
	Log = zap.NewNop()
	// Sugar wraps Log for printf-style messages.
	Sugar = Log.Sugar()

	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	direct = Log
)

// Rotation limits the size and age of the log file.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation keeps three compressed 20 MB backups for a week.
var DefaultRotation = Rotation{MaxSizeMB: 20, MaxBackups: 3, MaxAgeDays: 7, Compress: true}

// Options selects the outputs of Setup.
type Options struct {
	// Level is a zap level name; "" means info.
	Level string
	// Console writes colored text to stderr.
	Console bool
	// File receives JSON lines when set.
	File     string
	Rotation Rotation
}

// Init logs to the console and, if file is set, to a rotated JSON file.
func Init(lvl, file string) error {
	return Setup(Options{Level: lvl, Console: true, File: file, Rotation: DefaultRotation})
}

// Setup replaces Log with a logger built from o.
func Setup(o Options) error {
	if err := SetLevel(o.Level); err != nil {
		return err
	}

	var cores []zapcore.Core
	if o.Console {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.ConsoleSeparator = " "
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr), level))
	}
	if o.File != "" {
		r := o.Rotation
		if r == (Rotation{}) {
			r = DefaultRotation
		}
		sink := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    r.MaxSizeMB,
			MaxBackups: r.MaxBackups,
			MaxAge:     r.MaxAgeDays,
			Compress:   r.Compress,
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(sink), level))
	}

	install(zap.New(zapcore.NewTee(cores...), zap.AddCaller()))
	return nil
}

func install(l *zap.Logger) {
	Log = l
	Sugar = l.Sugar()
	direct = l.WithOptions(zap.AddCallerSkip(1))
}

// SetLevel changes the minimum level of the installed logger.
func SetLevel(name string) error {
	l, err := zapcore.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	level.SetLevel(l)
	return nil
}

// Level reports the current minimum level.
func Level() zapcore.Level {
	return level.Level()
}

// Named returns a child of the logger installed at call time.
func Named(component string) *zap.Logger {
	return Log.Named(component)
}

// Sync flushes buffered entries.
func Sync() {
	_ = Log.Sync()
}

func Debug(msg string, fields ...zap.Field) { direct.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field) { direct.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field) { direct.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { direct.Error(msg, fields...) }

// Fatal logs at fatal level and exits the process.
func Fatal(msg string, fields ...zap.Field) { direct.Fatal(msg, fields...) }
