package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsClient issues JSON-RPC calls over one connection and sets aside the
// notifications that arrive in between
type wsClient struct {
	t             *testing.T
	conn          *websocket.Conn
	nextID        int
	notifications []map[string]interface{}
}

func startWSServer(t *testing.T, enableCORS bool) string {
	t.Helper()
	server := httptest.NewServer(NewWebSocketHandler(enableCORS))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dialWS(t *testing.T, url string) *wsClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "should connect to WebSocket")
	t.Cleanup(func() { _ = conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) read() map[string]interface{} {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]interface{}
	require.NoError(c.t, c.conn.ReadJSON(&msg), "should read message")
	return msg
}

// request sends method and returns its response message
func (c *wsClient) request(method string, params string) map[string]interface{} {
	c.t.Helper()
	c.nextID++
	req := fmt.Sprintf(`{"jsonrpc":"2.0","method":%q,"id":%d`, method, c.nextID)
	if params != "" {
		req += `,"params":` + params
	}
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, []byte(req+"}")))

	for {
		msg := c.read()
		if msg["id"] == float64(c.nextID) {
			return msg
		}
		c.notifications = append(c.notifications, msg)
	}
}

// ok returns the result of a successful call
func (c *wsClient) ok(method string, params string) map[string]interface{} {
	c.t.Helper()
	msg := c.request(method, params)
	require.Nil(c.t, msg["error"], "%s failed", method)
	result, isMap := msg["result"].(map[string]interface{})
	require.True(c.t, isMap, "Expected result to be map, got %T", msg["result"])
	return result
}

// await returns the params of the next notification named method
func (c *wsClient) await(method string) map[string]interface{} {
	c.t.Helper()
	for {
		for i, n := range c.notifications {
			if n["method"] == method {
				c.notifications = c.notifications[i+1:]
				return n["params"].(map[string]interface{})
			}
		}
		c.notifications = append(c.notifications, c.read())
	}
}

func (c *wsClient) createSession() string {
	c.t.Helper()
	created := c.ok("session_create", `{"sourceRegion":{"x":0,"y":200,"width":375,"height":100}}`)
	return created["sessionId"].(string)
}

func TestWebSocket_EnvelopeErrors(t *testing.T) {
	client := dialWS(t, startWSServer(t, false))

	tests := []struct {
		name     string
		kind     int
		payload  string
		wantCode int
		wantMsg  string
		wantData string
	}{
		{"not json", websocket.TextMessage, `touch 50 250`, ErrCodeParseError, errTitleParseError, errMsgParseError},
		{"binary frame", websocket.BinaryMessage, `{"jsonrpc":"2.0","method":"sessions_list","id":1}`, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgTextOnly},
		{"old protocol", websocket.TextMessage, `{"jsonrpc":"1.0","method":"sessions_list","id":1}`, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgInvalidJSONRPC},
		{"no id", websocket.TextMessage, `{"jsonrpc":"2.0","method":"sessions_list"}`, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgIDRequired},
		{"no method", websocket.TextMessage, `{"jsonrpc":"2.0","id":1}`, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgMethodRequired},
		{"shutdown is http only", websocket.TextMessage, `{"jsonrpc":"2.0","method":"server.shutdown","id":1}`, ErrCodeMethodNotFound, errTitleMethodNotSupp, errMsgShutdownWS},
		{"unknown method", websocket.TextMessage, `{"jsonrpc":"2.0","method":"session_pop","id":1}`, ErrCodeMethodNotFound, errTitleMethodNotFound, "session_pop not found"},
		{"touch without params", websocket.TextMessage, `{"jsonrpc":"2.0","method":"session_touch","id":1}`, ErrCodeInvalidParams, errTitleServerError, "invalid parameters: 'params' is required with fields: sessionId, phase, x, y, radius"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, client.conn.WriteMessage(tt.kind, []byte(tt.payload)))
			msg := client.read()

			assert.Equal(t, "2.0", msg["jsonrpc"])
			assert.Nil(t, msg["result"])
			errorMap := msg["error"].(map[string]interface{})
			assert.Equal(t, float64(tt.wantCode), errorMap["code"])
			assert.Equal(t, tt.wantMsg, errorMap["message"])
			assert.Equal(t, tt.wantData, errorMap["data"])
		})
	}

	select {
	case <-shutdownRequested:
		t.Fatal("server.shutdown over WebSocket must not stop the server")
	default:
	}
}

func TestWebSocket_TouchTickRoundTrip(t *testing.T) {
	client := dialWS(t, startWSServer(t, false))
	id := client.createSession()
	params := func(extra string) string { return fmt.Sprintf(`{"sessionId":%q%s}`, id, extra) }

	began := client.ok("session_touch", params(`,"phase":"began","x":50,"y":250,"radius":6`))
	assert.Equal(t, id, began["sessionId"])
	assert.Equal(t, "pending", gestureState(began))

	advanced := client.ok("session_advance", params(`,"duration":"200ms"`))
	assert.Equal(t, "confirmed", gestureState(advanced))
	assert.Equal(t, float64(1), advanced["fired"])

	ticked := client.ok("session_tick", params(`,"count":5`))
	state := ticked["state"].(map[string]interface{})
	snapshot := state["gesture"].(map[string]interface{})
	frame := state["frame"].(map[string]interface{})

	assert.Equal(t, "previewing", snapshot["state"])
	assert.Greater(t, snapshot["progress"], 0.0)
	assert.Equal(t, true, frame["presented"])
	assert.Equal(t, true, state["shown"])

	ended := client.ok("session_touch", params(`,"phase":"ended","x":50,"y":250,"radius":6`))
	assert.Equal(t, "cancelled", gestureState(ended))

	client.ok("session_tick", params(`,"count":200`))
	final := client.ok("session_state", params(""))
	assert.Equal(t, "idle", gestureState(final))
	assert.Equal(t, "cancelled", final["state"].(map[string]interface{})["gesture"].(map[string]interface{})["outcome"])
	assert.NotEmpty(t, final["events"])

	client.ok("session_close", params(""))
}

func TestWebSocket_SubscribeLifecycle(t *testing.T) {
	client := dialWS(t, startWSServer(t, false))
	id := client.createSession()
	params := fmt.Sprintf(`{"sessionId":%q}`, id)

	subscribed := client.ok("session_subscribe", params)
	assert.Equal(t, id, subscribed["subscribed"])
	assert.Equal(t, subscribed, client.ok("session_subscribe", params), "subscribing twice is a no-op")

	client.ok("session_touch", fmt.Sprintf(`{"sessionId":%q,"phase":"began","x":50,"y":250,"radius":6}`, id))
	event := client.await(notificationEvent)
	assert.Equal(t, id, event["session"])
	assert.Equal(t, "state", event["kind"])
	assert.Equal(t, map[string]interface{}{"from": "idle", "to": "pending"}, event["data"])

	client.ok("session_close", params)
	closed := client.await(notificationClosed)
	assert.Equal(t, map[string]interface{}{"sessionId": id}, closed)
}

func TestWebSocket_SubscribeErrors(t *testing.T) {
	client := dialWS(t, startWSServer(t, false))

	tests := []struct {
		name     string
		params   string
		wantCode int
		wantData string
	}{
		{"missing params", "", ErrCodeInvalidParams, "invalid parameters: 'params' is required with fields: sessionId"},
		{"unknown session", `{"sessionId":"missing"}`, ErrCodeServerError, "session not found: missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := client.request("session_subscribe", tt.params)

			errorMap := msg["error"].(map[string]interface{})
			assert.Equal(t, float64(tt.wantCode), errorMap["code"])
			assert.Equal(t, tt.wantData, errorMap["data"])
		})
	}
}

func TestWebSocket_SessionOutlivesSubscriber(t *testing.T) {
	url := startWSServer(t, false)

	first := dialWS(t, url)
	id := first.createSession()
	first.ok("session_subscribe", fmt.Sprintf(`{"sessionId":%q}`, id))
	require.NoError(t, first.conn.Close())

	second := dialWS(t, url)
	touched := second.ok("session_touch", fmt.Sprintf(`{"sessionId":%q,"phase":"began","x":50,"y":250,"radius":6}`, id))
	assert.Equal(t, "pending", gestureState(touched))

	second.ok("session_close", fmt.Sprintf(`{"sessionId":%q}`, id))
	assert.Empty(t, second.notifications, "only subscribers receive notifications")
}

func TestWebSocket_OriginCheck(t *testing.T) {
	tests := []struct {
		name    string
		cors    bool
		origin  string
		allowed bool
	}{
		{"cors off, no origin", false, "", true},
		{"cors off, foreign origin", false, "http://elsewhere.example", false},
		{"cors on, foreign origin", true, "http://elsewhere.example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.origin != "" {
				headers.Set("Origin", tt.origin)
			}

			conn, _, err := websocket.DefaultDialer.Dial(startWSServer(t, tt.cors), headers)
			if !tt.allowed {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_ = conn.Close()
		})
	}
}

func TestIsSameOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:12000", true},
		{"http://localhost:13000", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		req := &http.Request{Header: http.Header{}, Host: "localhost:12000"}
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, isSameOrigin(req), "origin %q", tt.origin)
	}
}

func TestValidateJSONRPCRequest(t *testing.T) {
	assert.Nil(t, validateJSONRPCRequest(JSONRPCRequest{JSONRPC: "2.0", Method: "session_state", ID: "abc"}))

	verr := validateJSONRPCRequest(JSONRPCRequest{JSONRPC: "2.0", ID: 1})
	require.NotNil(t, verr)
	assert.Equal(t, ErrCodeInvalidRequest, verr.code)
	assert.Equal(t, errMsgMethodRequired, verr.data)
}
