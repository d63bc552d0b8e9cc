package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"jobflow/internal/app"
	"jobflow/internal/domain/application"
	"jobflow/internal/domain/mail"
	"jobflow/internal/infra/settings"
	"jobflow/internal/infra/sheets"
	"jobflow/internal/infra/templates"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analytics.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	timeline, err := s.analytics.Timeline(r.Context(), days)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, timeline)
}

func (s *Server) handleTopCompanies(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	top, err := s.analytics.TopCompanies(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, top)
}

func (s *Server) handleEffectiveness(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.analytics.Effectiveness(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	weekly, err := s.analytics.Weekly(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, weekly)
}

// handleFollowupsPreview runs the cycle in dry-run mode: it reports what
// would be sent without sending or writing anything.
func (s *Server) handleFollowupsPreview(w http.ResponseWriter, r *http.Request) {
	partition := queryDefault(r, "partition", "both")
	stats, err := s.followups.ProcessFollowups(r.Context(), partition, true)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

type processRequest struct {
	Partition string `json:"partition"`
	DryRun    bool   `json:"dry_run"`
}

func (s *Server) handleFollowupsProcess(w http.ResponseWriter, r *http.Request) {
	req := processRequest{Partition: "both"}
	if err := decodeBody(r, &req); err != nil && err != io.EOF {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := s.followups.ProcessFollowups(r.Context(), req.Partition, req.DryRun)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

type sendRequest struct {
	Applications []app.ApplicationInput `json:"applications"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Applications) == 0 {
		s.writeError(w, http.StatusBadRequest, "applications list is empty")
		return
	}
	stats, err := s.sender.SendApplications(r.Context(), req.Applications)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAddDraft(w http.ResponseWriter, r *http.Request) {
	var input app.ApplicationInput
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.sender.AddDraft(r.Context(), input)
	if err != nil {
		if mail.IsValidation(err) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, recordResponse(rec))
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	languages, ok := languagesFromQuery(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown language")
		return
	}
	out := []map[string]interface{}{}
	for _, lang := range languages {
		records, err := s.repo.ListAll(r.Context(), lang)
		if err != nil {
			s.writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		for _, rec := range records {
			out = append(out, recordResponse(rec))
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	languages, ok := languagesFromQuery(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown language")
		return
	}
	for _, lang := range languages {
		rec, err := s.repo.GetByID(r.Context(), id, lang)
		if err == nil {
			s.writeJSON(w, http.StatusOK, recordResponse(rec))
			return
		}
		if !errors.Is(err, sheets.ErrApplicationNotFound) {
			s.writeError(w, http.StatusBadGateway, err.Error())
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "application not found")
}

type updateRequest struct {
	Language application.Language `json:"language"`
	Company  *string              `json:"company"`
	Email    *string              `json:"email"`
	Position *string              `json:"position"`
	Phone    *string              `json:"phone"`
	Website  *string              `json:"website"`
	Notes    *string              `json:"notes"`
	Status   *string              `json:"status"`
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lang, ok := parseLanguage(string(req.Language))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "language is required")
		return
	}

	fields := application.FieldUpdate{
		Company:  req.Company,
		Email:    req.Email,
		Position: req.Position,
		Phone:    req.Phone,
		Website:  req.Website,
		Notes:    req.Notes,
	}
	if req.Email != nil && !mail.ValidAddress(*req.Email) {
		s.writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if req.Status != nil {
		status := application.Status(*req.Status)
		if !application.ValidStatus(status) {
			s.writeError(w, http.StatusBadRequest, "unknown status "+*req.Status)
			return
		}
		fields.Status = &status
	}

	if err := s.repo.UpdateFields(r.Context(), id, lang, fields); err != nil {
		if errors.Is(err, sheets.ErrApplicationNotFound) {
			s.writeError(w, http.StatusNotFound, "application not found")
			return
		}
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	lang, ok := parseLanguage(chi.URLParam(r, "language"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown language")
		return
	}
	infos, err := s.resolver.List(lang)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	out := make([]map[string]interface{}, 0, len(infos))
	for _, info := range infos {
		out = append(out, map[string]interface{}{
			"name": info.Name,
			"size": info.Size,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	entries, err := s.repo.ListActivity(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	out := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, map[string]string{
			"timestamp": entry.Timestamp,
			"id":        entry.ApplicationID,
			"email":     entry.Email,
			"action":    entry.Action,
			"result":    entry.Result,
			"details":   entry.Details,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) templateScope(r *http.Request) (string, application.Language, bool) {
	category := chi.URLParam(r, "category")
	if category != templates.CategoryApplication && category != templates.CategoryFollowup {
		return "", "", false
	}
	lang, ok := parseLanguage(chi.URLParam(r, "language"))
	if !ok {
		return "", "", false
	}
	return category, lang, true
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	category, lang, ok := s.templateScope(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown template scope")
		return
	}
	s.writeJSON(w, http.StatusOK, s.templates.List(category, lang))
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	category, lang, ok := s.templateScope(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown template scope")
		return
	}
	var tpl templates.Template
	if err := decodeBody(r, &tpl); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.templates.Save(category, lang, tpl); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, tpl)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	category, lang, ok := s.templateScope(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown template scope")
		return
	}
	if err := s.templates.Delete(category, lang, chi.URLParam(r, "name")); err != nil {
		if errors.Is(err, templates.ErrTemplateNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.settings.Get())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var next settings.Settings
	if err := decodeBody(r, &next); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := s.settings.Update(next)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind := queryDefault(r, "type", "applications")
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind+`.csv"`)

	var err error
	switch kind {
	case "applications":
		err = s.exporter.Applications(r.Context(), w)
	case "activity":
		err = s.exporter.Activity(r.Context(), w)
	default:
		s.writeError(w, http.StatusBadRequest, "unknown export type "+kind)
		return
	}
	if err != nil {
		s.log.Errorf("Export %s failed: %v", kind, err)
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func queryDefault(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func parseLanguage(raw string) (application.Language, bool) {
	switch raw {
	case "en":
		return application.LanguageEN, true
	case "fr":
		return application.LanguageFR, true
	default:
		return "", false
	}
}

func languagesFromQuery(r *http.Request) ([]application.Language, bool) {
	raw := r.URL.Query().Get("language")
	if raw == "" {
		return []application.Language{application.LanguageEN, application.LanguageFR}, true
	}
	lang, ok := parseLanguage(raw)
	if !ok {
		return nil, false
	}
	return []application.Language{lang}, true
}

func recordResponse(rec *application.Record) map[string]interface{} {
	return map[string]interface{}{
		"id":                 rec.ID,
		"company":            rec.Company,
		"email":              rec.Email,
		"position":           rec.Position,
		"status":             string(rec.Status),
		"sent_date":          rec.SentDate,
		"followups":          rec.Followups,
		"next_followup_date": rec.NextFollowupDate,
		"phone":              rec.Phone,
		"website":            rec.Website,
		"cv":                 rec.Attachment,
		"notes":              rec.Notes,
		"language":           string(rec.Language),
	}
}
