// Package config loads dsviz configuration from a YAML file and DSVIZ_*
// environment variables and adapts it into the options of the animation,
// layout, session and observability packages.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/dsviz/pkg/anim"
	"github.com/Sumatoshi-tech/dsviz/pkg/layout"
	"github.com/Sumatoshi-tech/dsviz/pkg/observability"
	"github.com/Sumatoshi-tech/dsviz/pkg/session"
	"github.com/Sumatoshi-tech/dsviz/pkg/viz"
)

// Sentinel validation errors.
var (
	ErrInvalidHold          = errors.New("hold durations must be positive")
	ErrInvalidPolicy        = errors.New("busy policy must be ignore or preempt")
	ErrInvalidGeometry      = errors.New("layout dimensions must be positive")
	ErrInvalidNoticeTTL     = errors.New("notice ttl must be positive")
	ErrInvalidHistoryDepth  = errors.New("history depth must not be negative")
	ErrInvalidDragThreshold = errors.New("drag threshold must not be negative")
	ErrInvalidLogLevel      = errors.New("unknown log level")
	ErrInvalidSampleRatio   = errors.New("sample ratio must be within [0, 1]")
)

// EnvPrefix prefixes every environment override, e.g. DSVIZ_ANIMATION_POLICY.
const EnvPrefix = "DSVIZ"

// Config holds all dsviz configuration.
type Config struct {
	Animation AnimationConfig `mapstructure:"animation"`
	Layout    LayoutConfig    `mapstructure:"layout"`
	Session   SessionConfig   `mapstructure:"session"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AnimationConfig holds step hold durations and the busy policy.
type AnimationConfig struct {
	VisitHold  time.Duration `mapstructure:"visit_hold"`
	ChangeHold time.Duration `mapstructure:"change_hold"`
	ResultHold time.Duration `mapstructure:"result_hold"`
	Policy     string        `mapstructure:"policy"`
}

// LayoutConfig holds canvas geometry in logical units.
type LayoutConfig struct {
	CanvasWidth float64 `mapstructure:"canvas_width"`
	LevelHeight float64 `mapstructure:"level_height"`
	NodeWidth   float64 `mapstructure:"node_width"`
	CellWidth   float64 `mapstructure:"cell_width"`
	RowHeight   float64 `mapstructure:"row_height"`
	Margin      float64 `mapstructure:"margin"`
}

// SessionConfig holds per-session behavior.
type SessionConfig struct {
	NoticeTTL     time.Duration `mapstructure:"notice_ttl"`
	HistoryDepth  int           `mapstructure:"history_depth"`
	DragThreshold float64       `mapstructure:"drag_threshold"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	ServiceName     string        `mapstructure:"service_name"`
	Environment     string        `mapstructure:"environment"`
	OTLPEndpoint    string        `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string        `mapstructure:"otlp_headers"`
	OTLPInsecure    bool          `mapstructure:"otlp_insecure"`
	SampleRatio     float64       `mapstructure:"sample_ratio"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load reads configuration from path, or from ./dsviz.yaml and
// $HOME/.config/dsviz when path is empty. A missing default file is not an
// error; environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dsviz")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/dsviz")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	readErr := v.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no environment.
func Default() *Config {
	timing := viz.DefaultTiming()
	geo := layout.DefaultOptions()

	return &Config{
		Animation: AnimationConfig{
			VisitHold: timing.Visit, ChangeHold: timing.Change, ResultHold: timing.Result,
			Policy: string(anim.PolicyIgnore),
		},
		Layout: LayoutConfig{
			CanvasWidth: geo.CanvasWidth, LevelHeight: geo.LevelHeight, NodeWidth: geo.NodeWidth,
			CellWidth: geo.CellWidth, RowHeight: geo.RowHeight, Margin: geo.Margin,
		},
		Session: SessionConfig{
			NoticeTTL:     session.DefaultNoticeTTL,
			HistoryDepth:  session.DefaultHistoryDepth,
			DragThreshold: session.DefaultDragThreshold,
		},
		Logging: LoggingConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			ServiceName:     observability.DefaultConfig().ServiceName,
			ShutdownTimeout: time.Duration(observability.DefaultConfig().ShutdownTimeoutSec) * time.Second,
		},
	}
}

// setDefaults registers every key so environment overrides apply even
// without a config file.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("animation.visit_hold", d.Animation.VisitHold)
	v.SetDefault("animation.change_hold", d.Animation.ChangeHold)
	v.SetDefault("animation.result_hold", d.Animation.ResultHold)
	v.SetDefault("animation.policy", d.Animation.Policy)

	v.SetDefault("layout.canvas_width", d.Layout.CanvasWidth)
	v.SetDefault("layout.level_height", d.Layout.LevelHeight)
	v.SetDefault("layout.node_width", d.Layout.NodeWidth)
	v.SetDefault("layout.cell_width", d.Layout.CellWidth)
	v.SetDefault("layout.row_height", d.Layout.RowHeight)
	v.SetDefault("layout.margin", d.Layout.Margin)

	v.SetDefault("session.notice_ttl", d.Session.NoticeTTL)
	v.SetDefault("session.history_depth", d.Session.HistoryDepth)
	v.SetDefault("session.drag_threshold", d.Session.DragThreshold)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.json", d.Logging.JSON)

	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.environment", "")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_headers", "")
	v.SetDefault("telemetry.otlp_insecure", false)
	v.SetDefault("telemetry.sample_ratio", 0.0)
	v.SetDefault("telemetry.shutdown_timeout", d.Telemetry.ShutdownTimeout)
}

// Validate checks every section.
func (c *Config) Validate() error {
	a := c.Animation
	if a.VisitHold <= 0 || a.ChangeHold <= 0 || a.ResultHold <= 0 {
		return fmt.Errorf("%w: visit=%s change=%s result=%s", ErrInvalidHold, a.VisitHold, a.ChangeHold, a.ResultHold)
	}

	_, err := anim.ParsePolicy(a.Policy)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPolicy, a.Policy)
	}

	l := c.Layout
	for name, v := range map[string]float64{
		"canvas_width": l.CanvasWidth, "level_height": l.LevelHeight, "node_width": l.NodeWidth,
		"cell_width": l.CellWidth, "row_height": l.RowHeight,
	} {
		if v <= 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidGeometry, name, v)
		}
	}

	if l.Margin < 0 {
		return fmt.Errorf("%w: margin=%v", ErrInvalidGeometry, l.Margin)
	}

	if c.Session.NoticeTTL <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidNoticeTTL, c.Session.NoticeTTL)
	}

	if c.Session.HistoryDepth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHistoryDepth, c.Session.HistoryDepth)
	}

	if c.Session.DragThreshold < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDragThreshold, c.Session.DragThreshold)
	}

	_, err = c.LogLevel()
	if err != nil {
		return err
	}

	if r := c.Telemetry.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, r)
	}

	return nil
}

// Timing returns the step hold durations.
func (c *Config) Timing() viz.Timing {
	return viz.Timing{Visit: c.Animation.VisitHold, Change: c.Animation.ChangeHold, Result: c.Animation.ResultHold}
}

// Policy returns the busy policy, falling back to ignore when unset.
func (c *Config) Policy() anim.Policy {
	p, err := anim.ParsePolicy(c.Animation.Policy)
	if err != nil {
		return anim.PolicyIgnore
	}

	return p
}

// LayoutOptions returns the canvas geometry.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		CanvasWidth: c.Layout.CanvasWidth,
		LevelHeight: c.Layout.LevelHeight,
		NodeWidth:   c.Layout.NodeWidth,
		CellWidth:   c.Layout.CellWidth,
		RowHeight:   c.Layout.RowHeight,
		Margin:      c.Layout.Margin,
	}
}

// LogLevel parses the configured level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level

	err := lvl.UnmarshalText([]byte(c.Logging.Level))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return lvl, nil
}

// SessionOptions returns the options for session.New. Each session gets its
// own scheduler with the configured policy; extra scheduler options such as
// a logger are appended to it.
func (c *Config) SessionOptions(logger *slog.Logger, extra ...anim.Option) []session.Option {
	schedOpts := []anim.Option{anim.WithPolicy(c.Policy())}
	if logger != nil {
		schedOpts = append(schedOpts, anim.WithLogger(logger))
	}

	opts := []session.Option{
		session.WithScheduler(anim.New(append(schedOpts, extra...)...)),
		session.WithTiming(c.Timing()),
		session.WithLayout(c.LayoutOptions()),
		session.WithNoticeTTL(c.Session.NoticeTTL),
		session.WithHistoryDepth(c.Session.HistoryDepth),
		session.WithDragThreshold(c.Session.DragThreshold),
	}

	if logger != nil {
		opts = append(opts, session.WithLogger(logger))
	}

	return opts
}

// Observability returns the telemetry configuration for mode.
func (c *Config) Observability(mode observability.AppMode) observability.Config {
	oc := observability.DefaultConfig()
	oc.Mode = mode
	oc.ServiceName = c.Telemetry.ServiceName
	oc.Environment = c.Telemetry.Environment
	oc.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	oc.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	oc.OTLPInsecure = c.Telemetry.OTLPInsecure
	oc.SampleRatio = c.Telemetry.SampleRatio
	oc.LogJSON = c.Logging.JSON

	if lvl, err := c.LogLevel(); err == nil {
		oc.LogLevel = lvl
	}

	if c.Telemetry.ShutdownTimeout > 0 {
		oc.ShutdownTimeoutSec = int(c.Telemetry.ShutdownTimeout / time.Second)
	}

	return oc
}
