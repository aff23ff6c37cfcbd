package initialize

import (
	"fmt"
	"io"
	"os"
	"pollhub/backend/config"
	"pollhub/backend/global"
	"strings"

	"github.com/rs/zerolog"
)

// InitLogger builds global.Logger: console writer by default, JSON for format=json,
// written to path when set.
func InitLogger(cfg config.Log) error {
	var w io.Writer = os.Stdout
	if cfg.Path != "" {
		file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = file
	}
	if !strings.EqualFold(cfg.Format, "json") {
		w = zerolog.ConsoleWriter{Out: w, NoColor: cfg.Path != ""}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	global.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

// SetLevel changes the active log level at runtime. It only touches zerolog's
// atomic global level, so it is safe while other goroutines log.
func SetLevel(s string) error {
	level, err := ParseLevel(s)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
