package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/trainplan/internal/constants"
)

// Logger is nil until Init runs; every helper is a no-op before then
var Logger *log.Logger

// Rotation bounds the log file on disk
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultRotation applies when Config.Rotation is left zero
var DefaultRotation = Rotation{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28}

// Config holds logger configuration
type Config struct {
	Debug     bool
	ConfigDir string
	Rotation  Rotation
}

// Path returns the log file location under configDir
func Path(configDir string) string {
	return filepath.Join(configDir, "logs", constants.AppName+".log")
}

func (c Config) rotation() Rotation {
	if c.Rotation == (Rotation{}) {
		return DefaultRotation
	}
	return c.Rotation
}

// Init points the global logger at a rotating file. Projections run inside
// a CLI whose stdout carries results, so the terminal only sees log lines
// in debug mode.
func Init(cfg Config) error {
	path := Path(cfg.ConfigDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	rot := cfg.rotation()
	var out io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAgeDays,
		Compress:   true,
	}

	level := log.WarnLevel
	if cfg.Debug {
		level = log.DebugLevel
		out = io.MultiWriter(os.Stderr, out)
	}

	Logger = log.NewWithOptions(out, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})
	return nil
}

func logAt(level log.Level, msg string, keyvals []interface{}) {
	if Logger == nil {
		return
	}
	Logger.Log(level, msg, keyvals...)
}

func Debug(msg string, keyvals ...interface{}) { logAt(log.DebugLevel, msg, keyvals) }

func Info(msg string, keyvals ...interface{}) { logAt(log.InfoLevel, msg, keyvals) }

func Warn(msg string, keyvals ...interface{}) { logAt(log.WarnLevel, msg, keyvals) }

func Error(msg string, keyvals ...interface{}) { logAt(log.ErrorLevel, msg, keyvals) }

// Since logs a finished stage at debug level with elapsed_ms appended
func Since(msg string, start time.Time, keyvals ...interface{}) {
	logAt(log.DebugLevel, msg, append(keyvals, "elapsed_ms", time.Since(start).Milliseconds()))
}

// Enabled reports whether Init has run
func Enabled() bool {
	return Logger != nil
}
