package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mobile-next/peekpop/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"12000", "http://localhost:12000"},
		{":13000", "http://localhost:13000"},
		{"localhost:12000", "http://localhost:12000"},
		{"0.0.0.0:8080", "http://0.0.0.0:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, ServerURL(tt.addr))
		})
	}
}

func TestIsChild(t *testing.T) {
	t.Setenv(DaemonEnvVar, "")
	assert.False(t, IsChild())

	t.Setenv(DaemonEnvVar, "1")
	assert.True(t, IsChild())
}

func TestKillServer(t *testing.T) {
	var got server.JSONRPCRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rpc", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(server.JSONRPCResponse{JSONRPC: "2.0", Result: map[string]string{"status": "ok"}, ID: got.ID})
	}))
	defer ts.Close()

	require.NoError(t, KillServer(strings.TrimPrefix(ts.URL, "http://")))
	assert.Equal(t, "server.shutdown", got.Method)
}

func TestKillServer_Refused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(server.JSONRPCResponse{
			JSONRPC: "2.0",
			Error:   map[string]interface{}{"code": -32601, "message": "Method not found"},
			ID:      1,
		})
	}))
	defer ts.Close()

	err := KillServer(strings.TrimPrefix(ts.URL, "http://"))
	assert.ErrorContains(t, err, "server refused shutdown")
}

func TestKillServer_NotRunning(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(ts.URL, "http://")
	ts.Close()

	assert.Error(t, KillServer(addr))
}
