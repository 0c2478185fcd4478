package modeld

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Brownie44l1/modeld/internal/bodymodel"
	"github.com/Brownie44l1/modeld/internal/config"
	"github.com/Brownie44l1/modeld/internal/messaging"
	"github.com/Brownie44l1/modeld/internal/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFrames(t *testing.T, dir string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		f, err := os.Create(filepath.Join(dir, "frame"+string(rune('a'+i))+".png"))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 4))))
		require.NoError(t, f.Close())
	}
}

func TestRunnerOptions(t *testing.T) {
	opts := RunnerOptions(&config.Configs{
		ModelBackend:      "onnx-cuda",
		ModelPath:         "models/navmodel.onnx",
		OnnxSharedLibrary: "/usr/lib/libonnxruntime.so",
		OnnxInputName:     "input_imgs",
		OnnxOutputName:    "outputs",
	})
	assert.Equal(t, model.BackendONNXCUDA, opts.Backend)
	assert.Equal(t, "input_imgs", opts.InputName)
	assert.Equal(t, "/usr/lib/libonnxruntime.so", opts.SharedLibraryPath)
}

func TestApp_BodyModelEndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	frameDir := t.TempDir()
	writeFrames(t, frameDir, 3)
	replay := filepath.Join(t.TempDir(), "body.replay")
	require.NoError(t, os.WriteFile(replay, []byte("0.5 0.7\n"), 0o644))

	cfg := &config.Configs{
		AppName:           "bodymodeld",
		ModelBackend:      model.BackendReplay,
		ModelPath:         replay,
		FrameSource:       "dir",
		FrameDir:          frameDir,
		RedisAddr:         mr.Addr(),
		PublishChannel:    "bodyModel",
		CarStateChannel:   "carState",
		CarControlChannel: "carControl",
	}
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	app, err := NewApp(ctx, cfg, "bodyModel", FrameSize{Width: 8, Height: 8})
	require.NoError(t, err)
	defer app.Close()

	carState, err := messaging.NewRedisSubscriber(ctx, app.Redis, cfg.CarStateChannel, messaging.PickCarState)
	require.NoError(t, err)
	defer carState.Close()
	carControl, err := messaging.NewRedisSubscriber(ctx, app.Redis, cfg.CarControlChannel, messaging.PickCarControl)
	require.NoError(t, err)
	defer carControl.Close()

	out := app.Redis.Subscribe(ctx, cfg.PublishChannel)
	defer out.Close()
	_, err = out.Receive(ctx)
	require.NoError(t, err)

	m, err := bodymodel.New(model.NewFactory(RunnerOptions(cfg)), carState, carControl)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, app.Run(ctx, m))

	for want := uint32(0); want < 3; want++ {
		received, err := out.ReceiveTimeout(ctx, time.Second)
		require.NoError(t, err)
		msg, ok := received.(*redis.Message)
		require.True(t, ok, "unexpected %T", received)

		var event messaging.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		require.NotNil(t, event.BodyModel)
		assert.Equal(t, want, event.BodyModel.FrameID)
		assert.Equal(t, float32(0.5), event.BodyModel.TorqueLeft)
		assert.Equal(t, float32(0.7), event.BodyModel.TorqueRight)
	}
}
