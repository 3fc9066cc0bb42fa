package internal

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Logging setup mirrors pawndev-gabagool's internal/logging.go: a lazily
// initialized slog.JSONHandler writing to both stdout and a log file, with
// a runtime-adjustable level. Two loggers are kept: one for host-facing
// session events, one for engine-internal step-resolution detail that
// would otherwise flood a 60 Hz log stream at anything above Debug.
var (
	logFile     *os.File
	logFilename string

	setupOnce   sync.Once
	multiWriter io.Writer

	loggerOnce sync.Once
	logger     *slog.Logger
	levelVar   *slog.LevelVar

	engineLoggerOnce sync.Once
	engineLogger     *slog.Logger
	engineLevelVar   *slog.LevelVar
)

// SetLogFilename overrides the log file name before the first logger is
// constructed. Has no effect once logging has been set up.
func SetLogFilename(filename string) {
	logFilename = filename
}

func setup() {
	setupOnce.Do(func() {
		if err := os.MkdirAll("logs", 0755); err != nil {
			panic("combotrial: failed to create logs directory: " + err.Error())
		}

		filename := logFilename
		if filename == "" {
			filename = "combotrial.log"
		}

		var err error
		logFile, err = os.OpenFile(filepath.Join("logs", filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			panic("combotrial: failed to open log file: " + err.Error())
		}

		multiWriter = io.MultiWriter(os.Stdout, logFile)
	})
}

// GetLogger returns the host-facing logger (session lifecycle, driver
// errors, compile failures).
func GetLogger() *slog.Logger {
	loggerOnce.Do(func() {
		levelVar = &slog.LevelVar{}
		setup()
		logger = slog.New(slog.NewJSONHandler(multiWriter, &slog.HandlerOptions{Level: levelVar}))
	})
	return logger
}

// GetEngineLogger returns the engine-internal logger (per-frame step
// resolution, matcher decisions), kept separate so it can be silenced
// independently of the host-facing logger.
func GetEngineLogger() *slog.Logger {
	engineLoggerOnce.Do(func() {
		engineLevelVar = &slog.LevelVar{}
		setup()
		engineLogger = slog.New(slog.NewJSONHandler(multiWriter, &slog.HandlerOptions{Level: engineLevelVar}))
	})
	return engineLogger
}

// SetLogLevel sets the host-facing logger's level.
func SetLogLevel(level slog.Level) {
	GetLogger()
	levelVar.Set(level)
}

// SetEngineLogLevel sets the engine-internal logger's level.
func SetEngineLogLevel(level slog.Level) {
	GetEngineLogger()
	engineLevelVar.Set(level)
}

// SetRawLogLevel parses a level name (case-insensitive) and applies it to
// the host-facing logger, defaulting to Info on an unrecognized value.
func SetRawLogLevel(rawLevel string) {
	var level slog.Level
	switch strings.ToLower(rawLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	SetLogLevel(level)
}

// CloseLogger flushes and closes the underlying log file.
func CloseLogger() {
	if logFile != nil {
		logFile.Close()
	}
}
