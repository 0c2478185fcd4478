package modeld

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Brownie44l1/modeld/internal/config"
	"github.com/Brownie44l1/modeld/internal/frames"
	"github.com/Brownie44l1/modeld/internal/handlers"
	"github.com/Brownie44l1/modeld/internal/messaging"
	"github.com/Brownie44l1/modeld/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// App holds the collaborators shared by every model daemon: bus client,
// frame source, publisher and status endpoint.
type App struct {
	Cfg    *config.Configs
	Redis  *redis.Client
	Frames frames.Source
	Status *handlers.Handler

	publisher messaging.Publisher
	server    *http.Server
}

// FrameSize is the image size a directory frame source scales to.
type FrameSize struct {
	Width  int
	Height int
}

func NewApp(ctx context.Context, cfg *config.Configs, modelName string, size FrameSize) (*App, error) {
	client := messaging.NewRedisClient(messaging.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	src, err := newFrameSource(ctx, cfg, client, size)
	if err != nil {
		client.Close()
		return nil, err
	}

	status := handlers.NewHandler(modelName)
	app := &App{
		Cfg:       cfg,
		Redis:     client,
		Frames:    src,
		Status:    status,
		publisher: messaging.Fanout{messaging.NewRedisPublisher(client), status},
	}
	app.serveStatus()
	return app, nil
}

func newFrameSource(ctx context.Context, cfg *config.Configs, client *redis.Client, size FrameSize) (frames.Source, error) {
	switch cfg.FrameSource {
	case "dir":
		src, err := frames.NewDirSource(cfg.FrameDir, size.Width, size.Height,
			time.Duration(cfg.FrameIntervalMs)*time.Millisecond)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dir", cfg.FrameDir).Int("frames", src.Len()).Msg("Replaying frames from directory")
		return src, nil
	default:
		src := frames.NewRedisStreamSource(client, cfg.FrameStream, time.Duration(cfg.FrameTimeoutMs)*time.Millisecond)
		retry := time.Duration(cfg.FrameConnectRetryMs) * time.Millisecond
		if err := frames.WaitConnected(ctx, src, retry, cfg.FrameConnectAttempts); err != nil {
			return nil, fmt.Errorf("frame source %s not reachable: %w", cfg.FrameStream, err)
		}
		bufSize, err := src.BufferSize(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Could not read frame buffer size")
		}
		log.Warn().Str("stream", cfg.FrameStream).Int("buffer_size", bufSize).Msg("Connected to frame stream")
		return src, nil
	}
}

func (a *App) serveStatus() {
	if a.Cfg.StatusPort <= 0 {
		return
	}
	a.server = &http.Server{
		Addr:              ":" + strconv.Itoa(a.Cfg.StatusPort),
		Handler:           a.Status.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Int("port", a.Cfg.StatusPort).Msg("Status server starting")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Status server failed")
		}
	}()
}

// RunnerOptions maps the backend configuration onto runner options.
func RunnerOptions(cfg *config.Configs) model.Options {
	return model.Options{
		Backend:           cfg.ModelBackend,
		ModelPath:         cfg.ModelPath,
		SharedLibraryPath: cfg.OnnxSharedLibrary,
		InputName:         cfg.OnnxInputName,
		OutputName:        cfg.OnnxOutputName,
	}
}

// Run drives m until ctx ends or the frame source runs dry.
func (a *App) Run(ctx context.Context, m Model) error {
	return NewLoop(a.Frames, m, a.publisher, a.Cfg.PublishChannel).Run(ctx)
}

func (a *App) Close() {
	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Status server shutdown failed")
		}
	}
	if err := a.Redis.Close(); err != nil {
		log.Warn().Err(err).Msg("Redis client close failed")
	}
}
