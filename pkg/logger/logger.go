package logger

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	level := zerolog.InfoLevel
	if os.Getenv("ENVIRONMENT") == "development" {
		level = zerolog.DebugLevel
	}

	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

func Info(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}

func Error(format string, v ...interface{}) {
	log.Error().Msgf(format, v...)
}

func Debug(format string, v ...interface{}) {
	log.Debug().Msgf(format, v...)
}

func Warn(format string, v ...interface{}) {
	log.Warn().Msgf(format, v...)
}

// WithContext prefixes a log line with an arbitrary context value, used by
// handlers that log on behalf of a request.
func WithContext(ctx interface{}, format string, v ...interface{}) string {
	if ctx != nil {
		return fmt.Sprintf("[%v] %s", ctx, fmt.Sprintf(format, v...))
	}
	return fmt.Sprintf(format, v...)
}

// Helper for purchase lifecycle logs
func LogPurchaseError(purchaseID, action string, err error) {
	Warn("Purchase log error: action=%s, purchaseID=%s, error=%v", action, purchaseID, err)
}
