package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DachengChen/paiERP/ai"
	"github.com/DachengChen/paiERP/applog"
	"github.com/DachengChen/paiERP/chat"
)

// SessionHeader carries the chat session id on query requests and
// responses.
const SessionHeader = "X-Session-ID"

type queryRequest struct {
	Query      string `json:"query"`
	ProviderID string `json:"providerId,omitempty"`
	Context    any    `json:"context,omitempty"`
}

type queryResponse struct {
	SessionID string       `json:"sessionId"`
	Response  ai.Response  `json:"response"`
	Message   chat.Message `json:"message"`
}

type corsProxyRequest struct {
	Enabled bool `json:"enabled"`
}

// capture remembers the last response a processor produced.
type capture struct {
	next chat.Processor
	resp ai.Response
}

func (c *capture) Process(ctx context.Context, text string, userContext any, providerID string) (ai.Response, error) {
	resp, err := c.next.Process(ctx, text, userContext, providerID)
	c.resp = resp
	return resp, err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if v := s.assistant.Validate(req.Query); !v.Valid {
		writeError(w, r, http.StatusBadRequest, "INVALID_QUERY", "Invalid query", v.Errors...)
		return
	}

	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(SessionHeader, sessionID)

	var (
		reply chat.Message
		cp    = &capture{next: s.assistant}
	)
	err := s.withSession(r.Context(), sessionID, func(sess *chat.Session) error {
		sess.ProviderID = req.ProviderID
		sess.UserContext = req.Context
		var err error
		reply, err = sess.Send(r.Context(), cp, req.Query)
		return err
	})
	if err != nil {
		status, code := http.StatusBadGateway, "PROCESSING_FAILED"
		if ai.IsConfigError(err) {
			status, code = http.StatusUnprocessableEntity, "PROVIDER_NOT_CONFIGURED"
		}
		writeError(w, r, status, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		SessionID: sessionID,
		Response:  cp.resp,
		Message:   reply,
	})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	providers := s.assistant.Providers()
	for i := range providers {
		providers[i] = providers[i].Redacted()
	}
	active, _ := s.assistant.ActiveProvider()
	writeJSON(w, http.StatusOK, map[string]any{
		"providers":    providers,
		"activeId":     active.ID,
		"useCorsProxy": s.assistant.UseCORSProxy(),
	})
}

func (s *Server) findProvider(id string) (ai.ProviderConfig, bool) {
	for _, p := range s.assistant.Providers() {
		if p.ID == id {
			return p, true
		}
	}
	return ai.ProviderConfig{}, false
}

func (s *Server) handleUpdateProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, ok := s.findProvider(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "PROVIDER_NOT_FOUND", fmt.Sprintf("unknown provider %q", id))
		return
	}

	var p ai.ProviderConfig
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	p.ID = id
	if p.Name == "" {
		p.Name = existing.Name
	}
	if p.APIKey == "" {
		p.APIKey = existing.APIKey
	}
	if p.Model == "" {
		p.Model = existing.Model
	}
	if p.CostPerToken == 0 {
		p.CostPerToken = existing.CostPerToken
	}
	if _, ok := ai.VendorOf(p.Name); !ok {
		writeError(w, r, http.StatusUnprocessableEntity, "UNSUPPORTED_PROVIDER", ai.ErrUnsupportedProvider.Error()+": "+p.Name)
		return
	}

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	s.assistant.UpdateProvider(p)
	if s.settings != nil {
		if err := s.settings.ApplyProvider(p); err == nil {
			if err := s.persistSettings(); err != nil {
				s.settingsFailed(w, r, err)
				return
			}
		}
	}
	writeJSON(w, http.StatusOK, p.Redacted())
}

func (s *Server) handleActivateProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	if err := s.assistant.SetActiveProvider(id); err != nil {
		writeError(w, r, http.StatusNotFound, "PROVIDER_NOT_FOUND", err.Error())
		return
	}
	if s.settings != nil {
		if err := s.settings.SetActive(id); err == nil {
			if err := s.persistSettings(); err != nil {
				s.settingsFailed(w, r, err)
				return
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"activeId": id})
}

func (s *Server) handleCORSProxy(w http.ResponseWriter, r *http.Request) {
	var req corsProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	s.assistant.SetUseCORSProxy(req.Enabled)
	if s.settings != nil {
		s.settings.UseCORSProxy = req.Enabled
		if err := s.persistSettings(); err != nil {
			s.settingsFailed(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"useCorsProxy": req.Enabled})
}

func (s *Server) settingsFailed(w http.ResponseWriter, r *http.Request, err error) {
	applog.L().Error("save settings", zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "SETTINGS_SAVE_FAILED", "Failed to save settings")
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	msgs, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.storeFailed(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessionId": id, "messages": msgs})
}

func (s *Server) handleSessionExport(w http.ResponseWriter, r *http.Request) {
	if s.settings != nil && !s.settings.Features.ExportEnabled {
		writeError(w, r, http.StatusForbidden, "EXPORT_DISABLED", "Export is disabled in settings")
		return
	}
	id := chi.URLParam(r, "id")
	msgs, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.storeFailed(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", chat.ExportFilename(time.Now())))
	if err := chat.Export(w, msgs, nil); err != nil {
		applog.L().Error("export session", zap.String("session_id", id), zap.Error(err))
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.lockSession(id)
	defer unlock()

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.storeFailed(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) storeFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	applog.L().Error("session store", zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "STORE_FAILED", "Session store unavailable")
}
