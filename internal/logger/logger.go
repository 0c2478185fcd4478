package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Brownie44l1/modeld/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global zerolog level and output for the daemon. Production
// emits JSON lines, everything else a console writer.
func Init(cfg *config.Configs) error {
	level, err := parseLevel(cfg.AppLogLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	ctx := zerolog.New(os.Stdout).With().Timestamp().Str("app", cfg.AppName)
	if cfg.AppEnv != "prod" {
		ctx = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000"}).
			With().Timestamp().Str("app", cfg.AppName)
	}
	log.Logger = ctx.Logger()
	log.Info().Str("level", level.String()).Msg("Logger initialized")
	return nil
}

func parseLevel(level string) (zerolog.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel, nil
	case "INFO":
		return zerolog.InfoLevel, nil
	case "WARN":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	case "FATAL":
		return zerolog.FatalLevel, nil
	case "PANIC":
		return zerolog.PanicLevel, nil
	case "DISABLED":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("incorrect log level %s", level)
	}
}
