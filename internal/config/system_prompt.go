package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
)

// LoadSystemPrompt reads the process-wide system instruction.
// A missing or unreadable file yields an empty instruction and a warning, never an error.
func LoadSystemPrompt(path string) string {
	if path == "" {
		slog.Warn("system prompt path not set, using empty system prompt")
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("system prompt file not found, using empty system prompt", "path", path)
		} else {
			slog.Warn("system prompt unreadable, using empty system prompt", "path", path, "error", err)
		}
		return ""
	}
	slog.Info("system prompt loaded", "path", path, "length", len(data))
	return string(data)
}
