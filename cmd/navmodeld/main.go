package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Brownie44l1/modeld/internal/config"
	"github.com/Brownie44l1/modeld/internal/denorm"
	"github.com/Brownie44l1/modeld/internal/logger"
	"github.com/Brownie44l1/modeld/internal/metrics"
	"github.com/Brownie44l1/modeld/internal/model"
	"github.com/Brownie44l1/modeld/internal/modeld"
	"github.com/Brownie44l1/modeld/internal/navmodel"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("navmodeld failed")
	}
}

func run() error {
	cfg, err := config.Load("navmodeld")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg); err != nil {
		return err
	}
	metrics.Init(cfg)
	defer metrics.Close()

	table, err := denorm.LoadFile(cfg.DenormPath, navmodel.Layout)
	if err != nil {
		return err
	}
	log.Info().Str("path", cfg.DenormPath).Int("values", navmodel.DenormSize).Msg("Denorm table loaded")

	m, err := navmodel.New(model.NewFactory(modeld.RunnerOptions(cfg)), table)
	if err != nil {
		return err
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := modeld.NewApp(ctx, cfg, "navModel", modeld.FrameSize{Width: 256, Height: 256})
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx, m)
}
