package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DachengChen/paiERP/ai"
	"github.com/DachengChen/paiERP/applog"
	"github.com/DachengChen/paiERP/chat"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 64 << 10
	frameUpdate  = "update"
	frameInvalid = "invalid"
	frameError   = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsFrame struct {
	Type      string       `json:"type"`
	SessionID string       `json:"sessionId"`
	Response  *ai.Response `json:"response,omitempty"`
	Errors    []string     `json:"errors,omitempty"`
}

// handleWS streams answers over a websocket. Every question frame yields a
// loading update followed by the final or error update, or a single error
// frame when the session cannot be loaded. The connection's
// session id comes from ?session= or is generated.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.L().Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	send := func(f wsFrame) error {
		f.SessionID = sessionID
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(f)
	}

	ctx := r.Context()
	for {
		var req queryRequest
		if err := conn.ReadJSON(&req); err != nil {
			var (
				syntaxErr *json.SyntaxError
				typeErr   *json.UnmarshalTypeError
			)
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				if send(wsFrame{Type: frameError, Errors: []string{"invalid frame"}}) != nil {
					return
				}
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				applog.L().Warn("websocket read", zap.String("session_id", sessionID), zap.Error(err))
			}
			return
		}

		if v := s.assistant.Validate(req.Query); !v.Valid {
			if send(wsFrame{Type: frameInvalid, Errors: v.Errors}) != nil {
				return
			}
			continue
		}

		var (
			writeErr error
			ran      bool
		)
		err := s.withSession(ctx, sessionID, func(sess *chat.Session) error {
			ran = true
			sess.Transcript.Append(chat.NewMessage(chat.RoleUser, req.Query))
			pending := chat.NewMessage(chat.RoleAssistant, "")
			pending.IsLoading = true
			sess.Transcript.Append(pending)

			userContext := req.Context
			if userContext == nil {
				userContext = map[string]any{"sessionId": sessionID}
			}
			resp, err := s.assistant.ProcessStream(ctx, req.Query, userContext, req.ProviderID, func(update ai.Response) {
				if writeErr == nil {
					writeErr = send(wsFrame{Type: frameUpdate, Response: &update})
				}
			})
			sess.Transcript.Update(pending.ID, func(m *chat.Message) {
				chat.Settle(m, resp, err)
			})
			return err
		})
		if writeErr != nil {
			return
		}
		// The session could not be loaded, so no update was sent.
		if err != nil && !ran {
			applog.L().Error("load session", zap.String("session_id", sessionID), zap.Error(err))
			if send(wsFrame{Type: frameError, Errors: []string{"session unavailable"}}) != nil {
				return
			}
		}
	}
}
