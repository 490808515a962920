package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"labtrack/internal/domain"
	"labtrack/internal/service"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// API exposes the core over HTTP. Auth, sessions and the rest of the
// surrounding surface live in other services.
type API struct {
	conversions service.ConversionService
	recycle     service.RecycleService
	logger      *zap.Logger
}

func NewAPI(conversions service.ConversionService, recycle service.RecycleService, logger *zap.Logger) *API {
	return &API{conversions: conversions, recycle: recycle, logger: logger}
}

// LeadsHandler serves /leads/{id}/convert, /leads/{id}/status and
// DELETE /leads/{id}.
func (a *API) LeadsHandler(w http.ResponseWriter, r *http.Request) {
	id, action := splitIDAction(r.URL.Path, "/leads/")
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case action == "convert" && r.Method == http.MethodPost:
		a.convertLead(w, r, id)
	case action == "status" && r.Method == http.MethodPatch:
		a.updateLeadStatus(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		a.deleteEntity(w, r, domain.EntityLeads, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SamplesHandler serves /samples/{id}/status and DELETE /samples/{id}.
func (a *API) SamplesHandler(w http.ResponseWriter, r *http.Request) {
	id, action := splitIDAction(r.URL.Path, "/samples/")
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case action == "status" && r.Method == http.MethodPatch:
		a.updateSampleStatus(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		a.deleteEntity(w, r, domain.EntitySamples, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// EntityDeleteHandler serves DELETE /{resource}/{id} for the entity
// types without a dedicated handler.
func (a *API) EntityDeleteHandler(t domain.EntityType) http.HandlerFunc {
	prefix := "/" + string(t) + "/"
	return func(w http.ResponseWriter, r *http.Request) {
		id, action := splitIDAction(r.URL.Path, prefix)
		if id == "" || action != "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		a.deleteEntity(w, r, t, id)
	}
}

// RecycleHandler serves GET /recycle, GET/DELETE /recycle/{id} and
// POST /recycle/{id}/restore.
func (a *API) RecycleHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/recycle")
	rest = strings.TrimPrefix(rest, "/")

	if rest == "" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		entries, err := a.recycle.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	id := rest
	action := ""
	if i := strings.Index(rest, "/"); i >= 0 {
		id, action = rest[:i], rest[i+1:]
	}

	switch {
	case action == "restore" && r.Method == http.MethodPost:
		resp, err := a.recycle.Restore(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":         true,
			"restored":   resp.Restored,
			"entityType": resp.EntityType,
		})
	case action == "" && r.Method == http.MethodGet:
		entry, err := a.recycle.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case action == "" && r.Method == http.MethodDelete:
		if err := a.recycle.Purge(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ============================================
// handler bodies
// ============================================

func (a *API) convertLead(w http.ResponseWriter, r *http.Request, leadID string) {
	var input service.SampleInput
	if err := readBodyJSON(r, maxBodyBytes, &input); err != nil {
		a.logger.Warn("invalid conversion request body",
			zap.String("lead_id", leadID), zap.Error(err))
		writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}

	resp, err := a.conversions.Convert(r.Context(), service.ConvertLeadRequest{LeadID: leadID, Input: input})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) updateLeadStatus(w http.ResponseWriter, r *http.Request, leadID string) {
	var body struct {
		Status string `json:"status"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		a.logger.Warn("invalid status request body",
			zap.String("lead_id", leadID), zap.Error(err))
		writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}

	lead, err := a.conversions.UpdateLeadStatus(r.Context(), leadID, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lead": lead})
}

func (a *API) updateSampleStatus(w http.ResponseWriter, r *http.Request, sampleID string) {
	var body struct {
		Status string `json:"status"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		a.logger.Warn("invalid status request body",
			zap.String("sample_id", sampleID), zap.Error(err))
		writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return
	}

	sample, err := a.conversions.UpdateSampleStatus(r.Context(), sampleID, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sample": sample})
}

// deleteEntity answers 200 {id} once the row is gone, even when the
// snapshot write failed (the snapshot is best-effort by contract).
func (a *API) deleteEntity(w http.ResponseWriter, r *http.Request, t domain.EntityType, id string) {
	if _, err := a.recycle.CaptureAndDelete(r.Context(), t, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// splitIDAction parses "{id}" or "{id}/{action}" after the prefix.
func splitIDAction(path, prefix string) (id, action string) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" {
		return "", ""
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		return rest[:i], rest[i+1:]
	}
	return rest, ""
}
