package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tally-cli/internal/config"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup builds a logger from cfg. With log.file set, output goes to a
// rotating file; otherwise it goes to fallback (stderr when nil). The
// returned close func flushes and closes the file sink, if any.
func Setup(cfg config.LogConfig, fallback io.Writer) (*log.Logger, func() error, error) {
	logger := log.New()

	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "warn"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("log.level: %w", err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: cfg.File != ""})
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, nil, fmt.Errorf("log.format: unknown %q (want text|json)", cfg.Format)
	}

	closeFn := func() error { return nil }
	if path := expandHome(strings.TrimSpace(cfg.File)); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, err
		}
		sink := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		logger.SetOutput(sink)
		closeFn = sink.Close
	} else {
		if fallback == nil {
			fallback = os.Stderr
		}
		logger.SetOutput(fallback)
	}
	return logger, closeFn, nil
}

// Discard is a logger that drops everything. Lists and view controllers
// built without a logger use it.
func Discard() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
