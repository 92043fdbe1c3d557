package morph

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the prefix of environment overrides, e.g. MORPH_LOG_LEVEL.
const EnvPrefix = "MORPH"

// WindowConfig holds window and tick settings.
type WindowConfig struct {
	Title  string `mapstructure:"title"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	TPS    int    `mapstructure:"tps"`
}

// TwinkleConfig controls the decorative point clouds.
type TwinkleConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Density float64 `mapstructure:"density"`
	Seed    uint64  `mapstructure:"seed"`
}

// ScreenshotConfig sets where and how captures are written.
type ScreenshotConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

// Config is the full runtime configuration.
type Config struct {
	Window     WindowConfig     `mapstructure:"window"`
	Log        LogConfig        `mapstructure:"log"`
	Tuning     Tuning           `mapstructure:"tuning"`
	Camera     CameraConfig     `mapstructure:"camera"`
	Twinkle    TwinkleConfig    `mapstructure:"twinkle"`
	Screenshot ScreenshotConfig `mapstructure:"screenshot"`
	Scenario   string           `mapstructure:"scenario"`
	Debug      bool             `mapstructure:"debug"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Title:  "morph",
			Width:  1280,
			Height: 720,
			TPS:    60,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Tuning: DefaultTuning(),
		Camera: DefaultCameraConfig(),
		Twinkle: TwinkleConfig{
			Enabled: true,
			Density: DefaultTwinkleDensity,
			Seed:    1,
		},
		Screenshot: ScreenshotConfig{
			Dir:    "screenshots",
			Format: string(ScreenshotPNG),
		},
	}
}

// setDefaults registers every key of cfg with v so environment overrides
// resolve during Unmarshal.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("window.title", cfg.Window.Title)
	v.SetDefault("window.width", cfg.Window.Width)
	v.SetDefault("window.height", cfg.Window.Height)
	v.SetDefault("window.tps", cfg.Window.TPS)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.encoding", cfg.Log.Encoding)

	t := cfg.Tuning
	v.SetDefault("tuning.accel", t.Accel)
	v.SetDefault("tuning.max_speed", t.MaxSpeed)
	v.SetDefault("tuning.deceleration", t.Deceleration)
	v.SetDefault("tuning.turn_rate", t.TurnRate)
	v.SetDefault("tuning.bank_angle", t.BankAngle)
	v.SetDefault("tuning.bank_smoothing", t.BankSmoothing)
	v.SetDefault("tuning.flight_altitude", t.FlightAltitude)
	v.SetDefault("tuning.altitude_wobble", t.AltitudeWobble)
	v.SetDefault("tuning.altitude_freq", t.AltitudeFreq)
	v.SetDefault("tuning.altitude_smoothing", t.AltSmoothing)
	v.SetDefault("tuning.wheel_spin_ratio", t.WheelSpinRatio)

	c := cfg.Camera
	v.SetDefault("camera.distance", c.Distance)
	v.SetDefault("camera.min_distance", c.MinDistance)
	v.SetDefault("camera.max_distance", c.MaxDistance)
	v.SetDefault("camera.min_polar", c.MinPolar)
	v.SetDefault("camera.max_polar", c.MaxPolar)
	v.SetDefault("camera.fov", c.FOV)
	v.SetDefault("camera.near", c.Near)
	v.SetDefault("camera.far", c.Far)

	v.SetDefault("twinkle.enabled", cfg.Twinkle.Enabled)
	v.SetDefault("twinkle.density", cfg.Twinkle.Density)
	v.SetDefault("twinkle.seed", cfg.Twinkle.Seed)

	v.SetDefault("screenshot.dir", cfg.Screenshot.Dir)
	v.SetDefault("screenshot.format", cfg.Screenshot.Format)

	v.SetDefault("scenario", cfg.Scenario)
	v.SetDefault("debug", cfg.Debug)
}

// RegisterFlags defines the command-line flags Load understands.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.StringP("config", "c", "", "config file (yaml or json)")
	fs.String("log-level", d.Log.Level, "log level: debug, info, warn, error")
	fs.String("log-encoding", d.Log.Encoding, "log encoding: console or json")
	fs.Int("width", d.Window.Width, "window width")
	fs.Int("height", d.Window.Height, "window height")
	fs.Int("tps", d.Window.TPS, "ticks per second")
	fs.Bool("twinkle", d.Twinkle.Enabled, "draw twinkle points")
	fs.String("screenshot-dir", d.Screenshot.Dir, "screenshot output directory")
	fs.String("screenshot-format", d.Screenshot.Format, "screenshot format: png or webp")
	fs.String("scenario", "", "scenario script to run instead of the keyboard")
	fs.Bool("debug", false, "log frame stats and check the scene tree")
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"log-level":         "log.level",
	"log-encoding":      "log.encoding",
	"width":             "window.width",
	"height":            "window.height",
	"tps":               "window.tps",
	"twinkle":           "twinkle.enabled",
	"screenshot-dir":    "screenshot.dir",
	"screenshot-format": "screenshot.format",
	"scenario":          "scenario",
	"debug":             "debug",
}

// Load resolves the configuration from defaults, the optional file at path,
// MORPH_* environment variables and fs, in increasing precedence. fs may be
// nil. When path is empty and fs has a "config" flag, that flag names the
// file.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if path == "" {
			if f := fs.Lookup("config"); f != nil {
				path = f.Value.String()
			}
		}
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the session cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Window.TPS <= 0 {
		errs = append(errs, fmt.Errorf("tps must be positive, got %d", c.Window.TPS))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	if c.Log.Encoding != "console" && c.Log.Encoding != "json" {
		errs = append(errs, fmt.Errorf("log encoding must be console or json, got %q", c.Log.Encoding))
	}
	if err := c.Tuning.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tuning: %w", err))
	}
	if err := c.Camera.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("camera: %w", err))
	}
	if c.Twinkle.Density <= 0 {
		errs = append(errs, fmt.Errorf("twinkle density must be positive, got %v", c.Twinkle.Density))
	}
	if !ScreenshotFormat(c.Screenshot.Format).Valid() {
		errs = append(errs, fmt.Errorf("screenshot format must be png or webp, got %q", c.Screenshot.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate checks the orbit limits and projection settings.
func (c CameraConfig) Validate() error {
	switch {
	case c.MinDistance <= 0:
		return fmt.Errorf("min_distance must be positive, got %v", c.MinDistance)
	case c.MinDistance > c.MaxDistance:
		return fmt.Errorf("min_distance %v exceeds max_distance %v", c.MinDistance, c.MaxDistance)
	case c.MinPolar <= 0 || c.MaxPolar >= math.Pi || c.MinPolar > c.MaxPolar:
		return fmt.Errorf("polar range [%v, %v] must lie inside (0, pi)", c.MinPolar, c.MaxPolar)
	case c.FOV <= 0 || c.FOV >= 180:
		return fmt.Errorf("fov must be in (0, 180), got %v", c.FOV)
	case c.Near <= 0 || c.Far <= c.Near:
		return fmt.Errorf("clip planes near=%v far=%v are invalid", c.Near, c.Far)
	}
	return nil
}
