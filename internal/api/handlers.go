package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/seo-lead-finder/internal/leads"
	"github.com/sells-group/seo-lead-finder/internal/model"
)

type searchRequest struct {
	Location   string `json:"location"`
	Industries string `json:"industries"`
	Mode       string `json:"mode"`
}

type automationRequest struct {
	Enabled    bool   `json:"enabled"`
	Location   string `json:"location"`
	DayOfWeek  string `json:"day_of_week"`
	Time       string `json:"time"`
	Industries string `json:"industries"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode := model.ModeAuto
	if strings.TrimSpace(body.Mode) != "" {
		m, err := model.ParseMode(body.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, "mode must be auto, manual or hybrid")
			return
		}
		mode = m
	}
	if strings.TrimSpace(body.Location) == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}

	if s.searcher == nil {
		writeError(w, http.StatusInternalServerError, leads.ErrMissingCredentials.Error())
		return
	}

	results, err := s.searcher.Run(r.Context(), model.SearchRequest{
		Location:      body.Location,
		IndustriesRaw: body.Industries,
		Mode:          mode,
	})
	switch {
	case errors.Is(err, leads.ErrMissingCredentials):
		writeError(w, http.StatusInternalServerError, leads.ErrMissingCredentials.Error())
		return
	case errors.Is(err, leads.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "location is required")
		return
	case errors.Is(err, context.DeadlineExceeded):
		zap.L().Warn("api: search timed out",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusGatewayTimeout, "Search timed out")
		return
	case err != nil:
		zap.L().Error("api: search failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to search for leads")
		return
	}

	if results == nil {
		results = []model.LeadResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch leads")
		return
	}
	rows, err := s.store.ListLeads(r.Context(), 0)
	if err != nil {
		zap.L().Error("api: list leads", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch leads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": rows})
}

func (s *Server) getAutomation(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch automation config")
		return
	}
	cfg, err := s.store.GetAutomationConfig(r.Context())
	if err != nil {
		zap.L().Error("api: get automation config", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch automation config")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
}

func (s *Server) saveAutomation(w http.ResponseWriter, r *http.Request) {
	var body automationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg := model.AutomationConfig{
		Enabled:    body.Enabled,
		Location:   strings.TrimSpace(body.Location),
		DayOfWeek:  strings.ToLower(strings.TrimSpace(body.DayOfWeek)),
		Time:       strings.TrimSpace(body.Time),
		Industries: body.Industries,
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.store == nil {
		writeError(w, http.StatusInternalServerError, "Failed to save automation config")
		return
	}
	saved, err := s.store.SaveAutomationConfig(r.Context(), cfg)
	if err != nil {
		zap.L().Error("api: save automation config", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save automation config")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": saved})
}
