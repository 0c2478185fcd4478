// framepub streams a directory of images into a frame stream so the model
// daemons can run without a camera.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brownie44l1/modeld/internal/config"
	"github.com/Brownie44l1/modeld/internal/frames"
	"github.com/Brownie44l1/modeld/internal/logger"
	"github.com/Brownie44l1/modeld/internal/messaging"
	"github.com/Brownie44l1/modeld/internal/navmodel"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("framepub failed")
	}
}

func run() error {
	cfg, err := config.Load("framepub")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg); err != nil {
		return err
	}
	if cfg.FrameDir == "" {
		return errors.New("MODELD_FRAME_DIR is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(cfg.FrameIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	src, err := frames.NewDirSource(cfg.FrameDir, 256, 256, interval)
	if err != nil {
		return err
	}

	client := messaging.NewRedisClient(messaging.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()

	log.Info().Str("stream", cfg.FrameStream).Int("frames", src.Len()).Dur("interval", interval).
		Int("frame_bytes", navmodel.InputBytes).Msg("Publishing frames")
	for {
		frame, err := src.Receive(ctx)
		if errors.Is(err, frames.ErrExhausted) || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		if err := frames.AddFrame(ctx, client, cfg.FrameStream, frame.ID, frame.Data); err != nil {
			return err
		}
		log.Debug().Uint32("frame_id", frame.ID).Msg("Frame published")
	}
}
