package observability

import (
	"log/slog"
	"os"

	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/config"
	"github.com/lmittmann/tint"
)

// NewLogger builds the service logger from config: JSON output by default,
// tint's console handler when LOG_FORMAT=text.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.LogLevel)

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// parseLevel maps a level name to a slog.Level, defaulting to info on
// anything unrecognized.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
