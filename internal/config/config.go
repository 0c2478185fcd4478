package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Configs holds the static configuration of a model daemon. Values come from
// MODELD_* environment variables and, when MODELD_CONFIG_FILE is set, from
// that file.
type Configs struct {
	AppName     string `mapstructure:"app_name"`
	AppEnv      string `mapstructure:"app_env"`
	AppLogLevel string `mapstructure:"app_log_level"`

	// backend
	ModelPath         string `mapstructure:"model_path"`
	ModelBackend      string `mapstructure:"model_backend"`
	OnnxSharedLibrary string `mapstructure:"onnx_shared_library"`
	OnnxInputName     string `mapstructure:"onnx_input_name"`
	OnnxOutputName    string `mapstructure:"onnx_output_name"`
	DenormPath        string `mapstructure:"denorm_path"`

	// frame transport
	FrameSource          string `mapstructure:"frame_source"`
	FrameStream          string `mapstructure:"frame_stream"`
	FrameDir             string `mapstructure:"frame_dir"`
	FrameTimeoutMs       int    `mapstructure:"frame_timeout_ms"`
	FrameIntervalMs      int    `mapstructure:"frame_interval_ms"`
	FrameConnectRetryMs  int    `mapstructure:"frame_connect_retry_ms"`
	FrameConnectAttempts int    `mapstructure:"frame_connect_attempts"`

	// pub/sub transport
	RedisAddr         string `mapstructure:"redis_addr"`
	RedisPassword     string `mapstructure:"redis_password"`
	RedisDB           int    `mapstructure:"redis_db"`
	PublishChannel    string `mapstructure:"publish_channel"`
	CarStateChannel   string `mapstructure:"car_state_channel"`
	CarControlChannel string `mapstructure:"car_control_channel"`

	// telegraf
	MetricsSamplingRate float64 `mapstructure:"metrics_sampling_rate"`
	TelegrafHost        string  `mapstructure:"telegraf_host"`
	TelegrafPort        string  `mapstructure:"telegraf_port"`

	// status endpoint, 0 disables it
	StatusPort int `mapstructure:"status_port"`
}

const envPrefix = "MODELD"

// Load reads the configuration for the daemon called appName. Defaults are
// per daemon so body and nav can share one environment.
func Load(appName string) (*Configs, error) {
	v := viper.New()
	setDefaults(v, appName)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Configs{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, appName string) {
	v.SetDefault("config_file", "")
	v.SetDefault("app_name", appName)
	v.SetDefault("app_env", "local")
	v.SetDefault("app_log_level", "INFO")

	v.SetDefault("model_backend", "onnx")
	v.SetDefault("onnx_shared_library", "")
	v.SetDefault("onnx_input_name", "input")
	v.SetDefault("onnx_output_name", "output")
	v.SetDefault("denorm_path", "")

	v.SetDefault("frame_source", "redis")
	v.SetDefault("frame_dir", "")
	v.SetDefault("frame_timeout_ms", 100)
	v.SetDefault("frame_interval_ms", 0)
	v.SetDefault("frame_connect_retry_ms", 100)
	v.SetDefault("frame_connect_attempts", 0)

	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("car_state_channel", "carState")
	v.SetDefault("car_control_channel", "carControl")

	v.SetDefault("metrics_sampling_rate", 1.0)
	v.SetDefault("telegraf_host", "localhost")
	v.SetDefault("telegraf_port", "8125")

	v.SetDefault("status_port", 0)

	switch appName {
	case "navmodeld":
		v.SetDefault("model_path", "models/navmodel.onnx")
		v.SetDefault("denorm_path", "models/navmodel.denorm")
		v.SetDefault("frame_stream", "camerad:map")
		v.SetDefault("publish_channel", "navModel")
	default:
		v.SetDefault("model_path", "models/bodycontrol.onnx")
		v.SetDefault("frame_stream", "camerad:wideRoad")
		v.SetDefault("publish_channel", "bodyModel")
	}
}

// Validate rejects combinations the daemons cannot start with.
func (c *Configs) Validate() error {
	switch c.ModelBackend {
	case "onnx", "onnx-cuda", "replay":
	default:
		return fmt.Errorf("unknown model backend %q", c.ModelBackend)
	}
	switch c.FrameSource {
	case "redis":
		if c.FrameStream == "" {
			return fmt.Errorf("frame_stream is required for the redis frame source")
		}
	case "dir":
		if c.FrameDir == "" {
			return fmt.Errorf("frame_dir is required for the dir frame source")
		}
	default:
		return fmt.Errorf("unknown frame source %q", c.FrameSource)
	}
	if c.ModelPath == "" {
		return fmt.Errorf("model_path is required")
	}
	if c.PublishChannel == "" {
		return fmt.Errorf("publish_channel is required")
	}
	return nil
}

// TelegrafAddress is the statsd endpoint.
func (c *Configs) TelegrafAddress() string {
	return c.TelegrafHost + ":" + c.TelegrafPort
}
