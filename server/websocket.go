package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/mobile-next/peekpop/commands"
	"github.com/mobile-next/peekpop/utils"
)

const (
	notificationEvent  = "session_event"
	notificationClosed = "session_closed"
)

type wsConnection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	subsMu sync.Mutex
	subs   map[string]func()
}

// SubscribeParams selects the session whose events are pushed
type SubscribeParams struct {
	SessionID string `json:"sessionId"`
}

func newUpgrader(enableCORS bool) *websocket.Upgrader {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	if enableCORS {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	} else {
		upgrader.CheckOrigin = isSameOrigin
	}

	return &upgrader
}

// NewWebSocketHandler serves JSON-RPC over a WebSocket connection
func NewWebSocketHandler(enableCORS bool) http.Handler {
	upgrader := newUpgrader(enableCORS)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, upgrader)
	})
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, upgrader *websocket.Upgrader) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Warn("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	wsConn := &wsConnection{conn: conn, subs: make(map[string]func())}
	defer wsConn.unsubscribeAll()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			// connection closed or error
			utils.Verbose("WebSocket connection closed: %v", err)
			break
		}

		if messageType != websocket.TextMessage {
			wsConn.sendError(nil, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgTextOnly)
			continue
		}

		handleWSMessage(wsConn, message)
	}
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return originURL.Host == r.Host
}

func handleWSMessage(wsConn *wsConnection, message []byte) {
	var req JSONRPCRequest
	if err := json.Unmarshal(message, &req); err != nil {
		wsConn.sendError(nil, ErrCodeParseError, errTitleParseError, errMsgParseError)
		return
	}

	if verr := validateJSONRPCRequest(req); verr != nil {
		wsConn.sendError(req.ID, verr.code, verr.message, verr.data)
		return
	}

	utils.Info("WebSocket Request ID: %v, Method: %s, Params: %s", req.ID, req.Method, string(req.Params))

	switch req.Method {
	case methodSubscribe:
		handleWSSubscribe(wsConn, req)
		return
	case methodShutdown:
		wsConn.sendError(req.ID, ErrCodeMethodNotFound, errTitleMethodNotSupp, errMsgShutdownWS)
		return
	}

	handleWSMethodCall(wsConn, req)
}

func handleWSMethodCall(wsConn *wsConnection, req JSONRPCRequest) {
	handler, exists := GetMethodRegistry()[req.Method]
	if !exists {
		wsConn.sendError(req.ID, ErrCodeMethodNotFound, errTitleMethodNotFound, req.Method+" not found")
		return
	}

	result, err := handler(req.Params)
	if err != nil {
		utils.Warn("Error executing method %s: %v", req.Method, err)
		code := ErrCodeServerError
		if errors.Is(err, errInvalidParams) {
			code = ErrCodeInvalidParams
		}
		wsConn.sendError(req.ID, code, errTitleServerError, err.Error())
		return
	}

	wsConn.sendResponse(req.ID, result)
}

// handleWSSubscribe pushes the session's events as notifications until the
// session or the connection closes
func handleWSSubscribe(wsConn *wsConnection, req JSONRPCRequest) {
	var params SubscribeParams
	if err := decodeParams(req.Params, &params, "sessionId"); err != nil {
		wsConn.sendError(req.ID, ErrCodeInvalidParams, errTitleServerError, err.Error())
		return
	}

	session, err := commands.FindSession(params.SessionID)
	if err != nil {
		wsConn.sendError(req.ID, ErrCodeServerError, errTitleServerError, err.Error())
		return
	}

	wsConn.subsMu.Lock()
	if _, exists := wsConn.subs[session.ID]; exists {
		wsConn.subsMu.Unlock()
		wsConn.sendResponse(req.ID, map[string]interface{}{"subscribed": session.ID})
		return
	}
	events, cancel := session.Subscribe()
	wsConn.subs[session.ID] = cancel
	wsConn.subsMu.Unlock()

	// the response goes out before the first notification
	wsConn.sendResponse(req.ID, map[string]interface{}{"subscribed": session.ID})

	go func() {
		for ev := range events {
			if err := wsConn.sendNotification(notificationEvent, ev); err != nil {
				utils.Verbose("Stopped pushing events of session %s: %v", session.ID, err)
				wsConn.unsubscribe(session.ID)
				for range events {
				}
				return
			}
		}
		wsConn.subsMu.Lock()
		_, active := wsConn.subs[session.ID]
		delete(wsConn.subs, session.ID)
		wsConn.subsMu.Unlock()
		if active {
			_ = wsConn.sendNotification(notificationClosed, map[string]interface{}{"sessionId": session.ID})
		}
	}()
}

func (wsc *wsConnection) unsubscribe(sessionID string) {
	wsc.subsMu.Lock()
	cancel, ok := wsc.subs[sessionID]
	delete(wsc.subs, sessionID)
	wsc.subsMu.Unlock()
	if ok {
		cancel()
	}
}

func (wsc *wsConnection) unsubscribeAll() {
	wsc.subsMu.Lock()
	subs := wsc.subs
	wsc.subs = make(map[string]func())
	wsc.subsMu.Unlock()
	for _, cancel := range subs {
		cancel()
	}
}

func (wsc *wsConnection) sendResponse(id interface{}, result interface{}) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendNotification(method string, params interface{}) error {
	return wsc.sendJSON(JSONRPCNotification{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
}

func (wsc *wsConnection) sendError(id interface{}, code int, message string, data interface{}) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendJSON(v interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	return wsc.conn.WriteJSON(v)
}
