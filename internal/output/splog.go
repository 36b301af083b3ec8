// Package output provides console output and file logging for taskstack.
package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// simpleHandler is a slog handler that writes bare messages without
// timestamps or level prefixes, matching plain CLI output.
type simpleHandler struct {
	writer    io.Writer
	debugMode bool
	quiet     *bool
}

func (h *simpleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level == slog.LevelDebug {
		return h.debugMode
	}
	return true
}

func (h *simpleHandler) Handle(_ context.Context, record slog.Record) error {
	if *h.quiet {
		return nil
	}
	_, err := fmt.Fprintln(h.writer, record.Message)
	return err
}

func (h *simpleHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *simpleHandler) WithGroup(_ string) slog.Handler {
	return h
}

// multiHandler fans out log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// createLumberjackLogger creates a rotating file logger configured from
// environment variables.
func createLumberjackLogger(logFilePath string) *lumberjack.Logger {
	logger := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    1, // megabytes
		MaxBackups: 2,
		MaxAge:     30, // days
		Compress:   false,
	}

	if v := os.Getenv("TASKSTACK_LOG_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			logger.MaxSize = n
		}
	}
	if v := os.Getenv("TASKSTACK_LOG_MAX_BACKUPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			logger.MaxBackups = n
		}
	}
	if v := os.Getenv("TASKSTACK_LOG_MAX_AGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			logger.MaxAge = n
		}
	}
	return logger
}

// GetLogFilePath returns the path of the rotating log file. TASKSTACK_LOG_FILE
// overrides the default of ~/.taskstack/logs/taskstack.log.
func GetLogFilePath() string {
	if customPath := os.Getenv("TASKSTACK_LOG_FILE"); customPath != "" {
		return customPath
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "taskstack.log"
	}
	return filepath.Join(homeDir, ".taskstack", "logs", "taskstack.log")
}

// Splog provides console output plus optional file logging.
type Splog struct {
	logger    *slog.Logger
	logWriter io.WriteCloser
	quiet     bool
}

// NewSplog creates a console-only splog. Debug messages are enabled when the
// DEBUG environment variable is set.
func NewSplog() *Splog {
	splog, _ := NewSplogWithLogFile("")
	return splog
}

// NewSplogWithLogFile creates a splog that also writes to a rotating log file
// when logFilePath is non-empty.
func NewSplogWithLogFile(logFilePath string) (*Splog, error) {
	splog := &Splog{}

	consoleHandler := &simpleHandler{
		writer:    os.Stdout,
		debugMode: os.Getenv("DEBUG") != "",
		quiet:     &splog.quiet,
	}
	handlers := []slog.Handler{consoleHandler}

	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		fileWriter := createLumberjackLogger(logFilePath)
		splog.logWriter = fileWriter

		handlers = append(handlers, slog.NewTextHandler(fileWriter, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	splog.logger = slog.New(&multiHandler{handlers: handlers})
	return splog, nil
}

// SetQuiet suppresses console output when true.
func (s *Splog) SetQuiet(quiet bool) {
	s.quiet = quiet
}

// Info writes an info message.
func (s *Splog) Info(format string, args ...interface{}) {
	s.logger.Info(fmt.Sprintf(format, args...))
}

// Warn writes a warning message.
func (s *Splog) Warn(format string, args ...interface{}) {
	s.logger.Warn("⚠️  " + fmt.Sprintf(format, args...))
}

// Debug writes a debug message, console-visible only with DEBUG set.
func (s *Splog) Debug(format string, args ...interface{}) {
	s.logger.Debug(fmt.Sprintf(format, args...))
}

// Tip writes a tip message.
func (s *Splog) Tip(format string, args ...interface{}) {
	s.logger.Info("💡 " + fmt.Sprintf(format, args...))
}

// Newline writes a blank line.
func (s *Splog) Newline() {
	s.logger.Info("")
}

// Close releases the file log writer, if any.
func (s *Splog) Close() error {
	if s.logWriter != nil {
		return s.logWriter.Close()
	}
	return nil
}
