package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"asin-lister/models"
	"asin-lister/services"
	"asin-lister/storage"
	"asin-lister/utils"
)

const maxBodyBytes = 8 << 20

// RunRequest starts a run from raw tabular text or from typed identifiers.
type RunRequest struct {
	Text  string   `json:"text" validate:"required_without=ASINs"`
	ASINs []string `json:"asins" validate:"required_without=Text,max=10000"`
}

// DeleteRequest removes items from the store. Identifiers on the keep list survive.
type DeleteRequest struct {
	ASINs []string `json:"asins" validate:"required,min=1,dive,required"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Invalid []string `json:"invalid,omitempty"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.settings.LoadOrDefault(r.Context())
	if err != nil {
		s.logger.Error("[api] load settings: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var st models.Settings
	if err := decodeBody(w, r, &st); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := st.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}
	if err := s.settings.Save(r.Context(), st); err != nil {
		s.logger.Error("[api] save settings: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	set := utils.NewStringSet()
	var invalid []string
	for _, raw := range req.ASINs {
		asin, ok := services.NormalizeIdentifier(raw)
		if !ok {
			invalid = append(invalid, raw)
			continue
		}
		set.Add(asin)
	}
	if len(invalid) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid identifiers", Invalid: invalid})
		return
	}
	if strings.TrimSpace(req.Text) != "" {
		for _, asin := range s.extractor.Extract(req.Text) {
			set.Add(asin)
		}
	}
	if set.Size() == 0 {
		writeError(w, http.StatusUnprocessableEntity, "nothing importable")
		return
	}

	ctx := r.Context()
	settings, err := s.settings.LoadOrDefault(ctx)
	if err != nil {
		s.logger.Error("[api] load settings: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	candidates, err := storage.ResolveCandidates(ctx, s.items, set.Values())
	if err != nil {
		s.logger.Warn("[api] item store: %v", err)
	}
	report := s.runner.Run(ctx, candidates, settings)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.Load(r.Context())
	if err != nil {
		s.logger.Error("[api] load items: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load items")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) deleteItems(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	ctx := r.Context()
	settings, err := s.settings.LoadOrDefault(ctx)
	if err != nil {
		s.logger.Error("[api] load settings: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	asins := make([]string, 0, len(req.ASINs))
	for _, a := range req.ASINs {
		asins = append(asins, strings.ToUpper(strings.TrimSpace(a)))
	}
	deleted, err := s.items.Delete(ctx, asins, settings.KeepASINs)
	if err != nil {
		s.logger.Error("[api] delete items: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete items")
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
