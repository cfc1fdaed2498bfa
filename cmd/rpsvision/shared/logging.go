package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// DisableColor forces plain output for styles and logs.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// SetupLogger creates a logger writing to w at the named level.
func SetupLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
	}), nil
}

// SetupFileLogger logs to path, for programs that own the terminal. The
// returned function closes the file.
func SetupFileLogger(path, level string) (*log.Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger, err := SetupLogger(f, level)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	logger.SetColorProfile(termenv.Ascii)
	return logger, func() { _ = f.Close() }, nil
}
