// Package logging provides the tagged console/file logger used across
// the server. Messages may carry a leading "[Tag]" which is colored on
// terminals so the pipeline stages (ASR, VLLLM, TTS, HTTP) stand out.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type Config struct {
	Level    string `yaml:"log_level"`
	Dir      string `yaml:"log_dir"`
	Filename string `yaml:"log_file"`
}

const (
	colorReset = "\x1b[0m"
	colorTime  = "\x1b[90m"
	colorDebug = "\x1b[36m"
	colorInfo  = "\x1b[32m"
	colorWarn  = "\x1b[33m"
	colorError = "\x1b[31m"
)

var tagColors = map[string]string{
	"Boot":     "\x1b[96m",
	"HTTP":     "\x1b[95m",
	"ASR":      "\x1b[35m",
	"LLM":      "\x1b[34m",
	"VLLLM":    "\x1b[94m",
	"TTS":      "\x1b[95m",
	"Pipeline": "\x1b[92m",
	"Auth":     "\x1b[93m",
	"Storage":  "\x1b[36m",
}

// Logger wraps slog with printf-style helpers and tag support.
type Logger struct {
	slogger *slog.Logger
	file    *os.File
	level   slog.Level
}

type consoleHandler struct {
	writer io.Writer
	level  slog.Level
	mu     sync.Mutex
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	timeStr := r.Time.Format("2006-01-02 15:04:05.000")

	var levelStr, levelColor string
	switch r.Level {
	case slog.LevelDebug:
		levelStr, levelColor = "DEBUG", colorDebug
	case slog.LevelWarn:
		levelStr, levelColor = "WARN", colorWarn
	case slog.LevelError:
		levelStr, levelColor = "ERROR", colorError
	default:
		levelStr, levelColor = "INFO", colorInfo
	}

	msg := r.Message
	if tag, rest, ok := splitTag(msg); ok {
		if color, known := tagColors[tag]; known {
			msg = fmt.Sprintf("%s[%s]%s %s", color, tag, colorReset, rest)
		}
	}

	_, err := fmt.Fprintf(h.writer, "%s%s%s %s[%s]%s %s\n",
		colorTime, timeStr, colorReset,
		levelColor, levelStr, colorReset,
		msg,
	)
	return err
}

func (h *consoleHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *consoleHandler) WithGroup(string) slog.Handler      { return h }

func splitTag(msg string) (tag, rest string, ok bool) {
	if !strings.HasPrefix(msg, "[") {
		return "", msg, false
	}
	end := strings.Index(msg, "]")
	if end < 1 {
		return "", msg, false
	}
	return msg[1:end], strings.TrimPrefix(msg[end+1:], " "), true
}

// New creates a Logger writing colored output to stdout and, when a
// directory is configured, plain text to a daily log file.
func New(cfg Config) (*Logger, error) {
	level := parseLevel(cfg.Level)

	logger := &Logger{level: level}
	writer := io.Writer(os.Stdout)

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		name := cfg.Filename
		if name == "" {
			name = fmt.Sprintf("server_%s.log", time.Now().Format("2006-01-02"))
		}
		file, err := os.OpenFile(filepath.Join(cfg.Dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logger.file = file
		writer = io.MultiWriter(os.Stdout, file)
	}

	logger.slogger = slog.New(&consoleHandler{writer: writer, level: level})
	return logger, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog exposes the structured logger for integrations that want it.
func (l *Logger) Slog() *slog.Logger { return l.slogger }

func (l *Logger) Debug(format string, args ...any) {
	l.slogger.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any) {
	l.slogger.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.slogger.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.slogger.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) DebugTag(tag, format string, args ...any) {
	l.Debug("[%s] %s", tag, fmt.Sprintf(format, args...))
}

func (l *Logger) InfoTag(tag, format string, args ...any) {
	l.Info("[%s] %s", tag, fmt.Sprintf(format, args...))
}

func (l *Logger) WarnTag(tag, format string, args ...any) {
	l.Warn("[%s] %s", tag, fmt.Sprintf(format, args...))
}

func (l *Logger) ErrorTag(tag, format string, args ...any) {
	l.Error("[%s] %s", tag, fmt.Sprintf(format, args...))
}

// Close flushes and closes the file sink, if any.
func (l *Logger) Close() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}
