package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mobile-next/peekpop/gesture"
	"github.com/mobile-next/peekpop/presentation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "peekpop.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.ini"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesOnlyGivenKeys(t *testing.T) {
	path := writeConfig(t, `
[animation]
rising_step = 0.05
debounce = 350ms

[tracking]
strict_invariants = true

[presentation]
mode = embedded
width = 414
height = 896

[server]
listen = 0.0.0.0:13000
cors = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Animation.RisingStep)
	assert.Equal(t, 350*time.Millisecond, cfg.Animation.Debounce)
	assert.Equal(t, 0.66, cfg.Animation.PreviewThreshold)
	assert.True(t, cfg.Tracking.StrictInvariants)
	assert.Equal(t, 0.6, cfg.Tracking.EscalationRatio)
	assert.Equal(t, "0.0.0.0:13000", cfg.Server.Listen)
	assert.True(t, cfg.Server.CORS)
	assert.Equal(t, DefaultMaxSessions, cfg.Server.MaxSessions)

	g := cfg.Gesture()
	assert.Equal(t, 0.05, g.Animation.RisingStep)
	assert.Equal(t, 350*time.Millisecond, g.Debounce)
	assert.Equal(t, gesture.DefaultAnchorOffset, g.AnchorOffset)
	assert.True(t, g.StrictInvariants)

	opts, err := cfg.PresentationOptions()
	require.NoError(t, err)
	assert.Equal(t, presentation.ModeEmbedded, opts.Mode)
	assert.Equal(t, 414.0, opts.Bounds.Width)
	assert.Equal(t, 140.0, opts.Padding.Height)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"preview above commit", "[animation]\npreview_threshold = 0.995\n"},
		{"unknown mode", "[presentation]\nmode = layered\n"},
		{"no sessions", "[server]\nmax_sessions = 0\n"},
		{"escalation ratio", "[tracking]\nescalation_ratio = 1.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "[animation\nrising_step = 0.05\n"))
	assert.Error(t, err)
}

func TestWriteTo_RoundTrips(t *testing.T) {
	cfg := Default()
	cfg.Presentation.Mode = "embedded"
	cfg.Animation.Debounce = 150 * time.Millisecond

	var buf bytes.Buffer
	_, err := cfg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[presentation]")

	loaded, err := Load(writeConfig(t, buf.String()))
	require.NoError(t, err)
	assert.Equal(t, "embedded", loaded.Presentation.Mode)
	assert.Equal(t, 150*time.Millisecond, loaded.Animation.Debounce)
}
