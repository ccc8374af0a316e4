package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Fantasim/hdada/internal/config"
)

// Redacted replaces the value of any attribute whose key names a secret.
const Redacted = "[REDACTED]"

// secretKeys are attribute keys whose values never reach a log sink.
var secretKeys = map[string]bool{
	"mnemonic":   true,
	"phrase":     true,
	"passphrase": true,
	"password":   true,
	"privatekey": true,
	"xprv":       true,
	"signingkey": true,
	"entropy":    true,
}

// Setup initializes the global slog logger with dual output: stdout + daily rotated log file.
// Returns an io.Closer that the caller should close on shutdown (closes the log file handle).
func Setup(levelStr, logDir string) (io.Closer, error) {
	level, err := parseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level %q: %w", levelStr, err)
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", logDir, err)
	}

	filename := fmt.Sprintf(config.LogFilePattern, time.Now().Format("2006-01-02"))
	logFilePath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %q: %w", logFilePath, err)
	}

	slog.SetDefault(slog.New(newHandler(io.MultiWriter(os.Stdout, file), level)))

	slog.Info("logging initialized",
		"level", levelStr,
		"logDir", logDir,
		"logFile", filename,
	)

	// Clean up old log files on startup.
	removed := CleanOldLogs(logDir, config.LogMaxAgeDays)
	if removed > 0 {
		slog.Info("cleaned old log files", "removed", removed, "maxAgeDays", config.LogMaxAgeDays)
	}

	return file, nil
}

// SetupCLI logs to stderr only, leaving stdout to command output.
func SetupCLI(levelStr string) error {
	level, err := parseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", levelStr, err)
	}
	slog.SetDefault(slog.New(newHandler(os.Stderr, level)))
	return nil
}

func newHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactSecrets,
	})
}

// redactSecrets masks attributes whose key names secret material.
func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// CleanOldLogs deletes log files in logDir that are older than maxAgeDays.
// Returns the number of files removed.
func CleanOldLogs(logDir string, maxAgeDays int) int {
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	prefix, suffix, _ := strings.Cut(config.LogFilePattern, "%s")
	removed := 0

	entries, err := os.ReadDir(logDir)
	if err != nil {
		slog.Warn("failed to read log directory for cleanup", "logDir", logDir, "error", err)
		return 0
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			fullPath := filepath.Join(logDir, name)
			if err := os.Remove(fullPath); err != nil {
				slog.Warn("failed to remove old log file", "file", fullPath, "error", err)
			} else {
				removed++
			}
		}
	}

	return removed
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}
