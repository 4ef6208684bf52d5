package logger

import (
	"log/slog"
	"os"
)

// New returns the structured logger used across the service. JSON output so
// log aggregation gets consistent key-value fields.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
