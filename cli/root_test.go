package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mobile-next/peekpop/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(func() {
		configPath = ""
		simulateRealtime = false
		if r := commands.GetRegistry(); r != nil {
			r.CloseAll()
		}
		commands.SetRegistry(nil)
	})
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestConfigFlag_LoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peekpop.ini")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nlisten = localhost:13000\nmax_sessions = 4\n"), 0o644))

	require.NoError(t, run(t, "config", "--config", path))
	assert.Equal(t, "localhost:13000", cfg.Server.Listen)
	assert.Equal(t, 4, cfg.Server.MaxSessions)
	assert.NotNil(t, commands.GetRegistry())
}

func TestConfigFlag_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peekpop.ini")
	require.NoError(t, os.WriteFile(path, []byte("[animation]\ncommit_threshold = 2\n"), 0o644))

	assert.Error(t, run(t, "config", "--config", path))
}

func TestSimulate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
	  "session": {"sourceRegion": {"x": 0, "y": 0, "width": 100, "height": 100}},
	  "steps": [
	    {"op": "touch", "phase": "began", "x": 10, "y": 10, "radius": 6},
	    {"op": "touch", "phase": "ended", "x": 10, "y": 10, "radius": 6}
	  ]
	}`), 0o644))

	require.NoError(t, run(t, "simulate", path))
	assert.Error(t, run(t, "simulate", filepath.Join(t.TempDir(), "missing.json")))
}

func TestWriteJson(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJson(&buf, commands.NewSuccessResponse(map[string]int{"ticks": 3})))
	assert.JSONEq(t, `{"status":"ok","data":{"ticks":3}}`, buf.String())

	buf.Reset()
	assert.Error(t, writeJson(&buf, map[string]interface{}{"events": make(chan int)}))
	assert.Empty(t, buf.String())
}
