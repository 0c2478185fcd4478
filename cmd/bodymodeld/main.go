package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Brownie44l1/modeld/internal/bodymodel"
	"github.com/Brownie44l1/modeld/internal/config"
	"github.com/Brownie44l1/modeld/internal/logger"
	"github.com/Brownie44l1/modeld/internal/messaging"
	"github.com/Brownie44l1/modeld/internal/metrics"
	"github.com/Brownie44l1/modeld/internal/model"
	"github.com/Brownie44l1/modeld/internal/modeld"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("bodymodeld failed")
	}
}

func run() error {
	cfg, err := config.Load("bodymodeld")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg); err != nil {
		return err
	}
	metrics.Init(cfg)
	defer metrics.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := modeld.NewApp(ctx, cfg, "bodyModel", modeld.FrameSize{Width: 256, Height: 256})
	if err != nil {
		return err
	}
	defer app.Close()

	carState, err := messaging.NewRedisSubscriber(ctx, app.Redis, cfg.CarStateChannel, messaging.PickCarState)
	if err != nil {
		return err
	}
	defer carState.Close()
	carControl, err := messaging.NewRedisSubscriber(ctx, app.Redis, cfg.CarControlChannel, messaging.PickCarControl)
	if err != nil {
		return err
	}
	defer carControl.Close()

	m, err := bodymodel.New(model.NewFactory(modeld.RunnerOptions(cfg)), carState, carControl)
	if err != nil {
		return err
	}
	defer m.Close()

	return app.Run(ctx, m)
}
