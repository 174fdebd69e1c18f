package logging

import (
	"io"
	"log/slog"

	"hermannm.dev/devlog"
	"hermannm.dev/widgets/config"
	"hermannm.dev/wrap"
)

// Sets the default slog logger: human-readable colored output in development, and JSON in
// production.
func Setup(config config.Config, output io.Writer) error {
	level, err := config.LogLevel.SlogLevel()
	if err != nil {
		return wrap.Error(err, "failed to set up logger")
	}

	slog.SetDefault(slog.New(NewHandler(config.IsProduction, level, output)))
	return nil
}

func NewHandler(isProduction bool, level slog.Level, output io.Writer) slog.Handler {
	if isProduction {
		return slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level, AddSource: true})
	}
	return devlog.NewHandler(output, &devlog.Options{Level: level})
}
