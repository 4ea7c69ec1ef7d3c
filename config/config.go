// Package config reads peekpop settings from an INI file. Every key is
// optional; anything missing keeps its default.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/mobile-next/peekpop/gesture"
	"github.com/mobile-next/peekpop/presentation"
	"github.com/mobile-next/peekpop/progress"
	"github.com/mobile-next/peekpop/runloop"
	"github.com/mobile-next/peekpop/touch"
	"github.com/mobile-next/peekpop/types"
	"github.com/mobile-next/peekpop/utils"
	"gopkg.in/ini.v1"
)

const (
	DefaultListenAddress = "localhost:12000"
	DefaultMaxSessions   = 32
)

type Animation struct {
	RisingStep       float64       `ini:"rising_step"`
	PreviewThreshold float64       `ini:"preview_threshold"`
	CommitThreshold  float64       `ini:"commit_threshold"`
	Debounce         time.Duration `ini:"debounce"`
	RefreshInterval  time.Duration `ini:"refresh_interval"`
}

type Tracking struct {
	BottomMargin         float64 `ini:"bottom_margin"`
	EscalationRatio      float64 `ini:"escalation_ratio"`
	EngageTopThreshold   float64 `ini:"engage_top_threshold"`
	AnchoredTopThreshold float64 `ini:"anchored_top_threshold"`
	AnchorOffset         float64 `ini:"anchor_offset"`
	StrictInvariants     bool    `ini:"strict_invariants"`
}

type Presentation struct {
	Mode             string  `ini:"mode"`
	Width            float64 `ini:"width"`
	Height           float64 `ini:"height"`
	ShowActionButton bool    `ini:"show_action_button"`
	BlurLevels       int     `ini:"blur_levels"`
	PaddingWidth     float64 `ini:"padding_width"`
	PaddingHeight    float64 `ini:"padding_height"`
	CornerRadius     float64 `ini:"corner_radius"`
}

type Server struct {
	Listen      string `ini:"listen"`
	CORS        bool   `ini:"cors"`
	MaxSessions int    `ini:"max_sessions"`
}

type Config struct {
	Animation    Animation    `ini:"animation"`
	Tracking     Tracking     `ini:"tracking"`
	Presentation Presentation `ini:"presentation"`
	Server       Server       `ini:"server"`
}

// Default returns the reference tuning on a 375x667 surface.
func Default() *Config {
	return &Config{
		Animation: Animation{
			RisingStep:       progress.DefaultRisingStep,
			PreviewThreshold: progress.PreviewThreshold,
			CommitThreshold:  progress.CommitThreshold,
			Debounce:         gesture.DefaultDebounce,
			RefreshInterval:  runloop.DefaultInterval,
		},
		Tracking: Tracking{
			BottomMargin:         touch.DefaultBottomMargin,
			EscalationRatio:      touch.DefaultEscalationRatio,
			EngageTopThreshold:   touch.EngageTopThreshold,
			AnchoredTopThreshold: touch.AnchoredTopThreshold,
			AnchorOffset:         gesture.DefaultAnchorOffset,
		},
		Presentation: Presentation{
			Mode:             presentation.ModePlain.String(),
			Width:            375,
			Height:           667,
			ShowActionButton: true,
			BlurLevels:       presentation.DefaultBlurLevels,
			PaddingWidth:     presentation.DefaultPadding.Width,
			PaddingHeight:    presentation.DefaultPadding.Height,
			CornerRadius:     presentation.DefaultCornerRadius,
		},
		Server: Server{
			Listen:      DefaultListenAddress,
			MaxSessions: DefaultMaxSessions,
		},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		utils.Verbose("Config file %s not found, using defaults", path)
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := file.MapTo(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	utils.Verbose("Loaded config from %s", path)
	return cfg, nil
}

// Validate checks the combined settings.
func (c *Config) Validate() error {
	if err := c.Gesture().Validate(); err != nil {
		return err
	}
	if _, err := c.PresentationOptions(); err != nil {
		return err
	}
	if c.Animation.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %v", c.Animation.RefreshInterval)
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("max sessions must be positive, got %d", c.Server.MaxSessions)
	}
	return nil
}

// Gesture returns the controller configuration.
func (c *Config) Gesture() gesture.Config {
	g := gesture.DefaultConfig()
	g.Animation = progress.Config{
		RisingStep:      c.Animation.RisingStep,
		CommitThreshold: c.Animation.CommitThreshold,
	}
	g.Tracking = touch.Config{
		BottomMargin:    c.Tracking.BottomMargin,
		EscalationRatio: c.Tracking.EscalationRatio,
	}
	g.Debounce = c.Animation.Debounce
	g.PreviewThreshold = c.Animation.PreviewThreshold
	g.EngageTopThreshold = c.Tracking.EngageTopThreshold
	g.AnchoredTopThreshold = c.Tracking.AnchoredTopThreshold
	g.AnchorOffset = c.Tracking.AnchorOffset
	g.StrictInvariants = c.Tracking.StrictInvariants
	return g
}

// PresentationOptions returns the surface options.
func (c *Config) PresentationOptions() (presentation.Options, error) {
	mode, err := presentation.ParseRenderMode(c.Presentation.Mode)
	if err != nil {
		return presentation.Options{}, err
	}

	opts := presentation.Options{
		Mode:             mode,
		Bounds:           types.Size{Width: c.Presentation.Width, Height: c.Presentation.Height},
		ShowActionButton: c.Presentation.ShowActionButton,
		BlurLevels:       c.Presentation.BlurLevels,
		Padding:          types.Size{Width: c.Presentation.PaddingWidth, Height: c.Presentation.PaddingHeight},
		CornerRadius:     c.Presentation.CornerRadius,
	}
	return opts, opts.Validate()
}

// WriteTo writes the effective configuration in INI form.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	file := ini.Empty()
	if err := ini.ReflectFrom(file, c); err != nil {
		return 0, fmt.Errorf("failed to encode config: %w", err)
	}
	return file.WriteTo(w)
}
