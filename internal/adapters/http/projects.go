package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

type projectRequest struct {
	GroupID        int64   `json:"groupId"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	IsActive       *bool   `json:"isActive"`
	SourceLanguage string  `json:"sourceLanguage"`
	TargetLanguage string  `json:"targetLanguage"`
	SourceCurrency string  `json:"sourceCurrency"`
	TargetCurrency string  `json:"targetCurrency"`
	ExchangeRate   float64 `json:"exchangeRate"`
}

func (rt *Router) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	status := domain.ProjectStatus(req.Status)
	if status == "" {
		status = domain.ProjectDraft
	}

	now := time.Now().UTC()
	project := domain.Project{
		GUID:           uuid.NewString(),
		GroupID:        req.GroupID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         status,
		IsActive:       true,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		SourceCurrency: req.SourceCurrency,
		TargetCurrency: req.TargetCurrency,
		ExchangeRate:   req.ExchangeRate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.IsActive != nil {
		project.IsActive = *req.IsActive
	}
	if err := project.Validate(); err != nil {
		writeErr(w, err)
		return
	}
	if _, err := rt.groups.GetByKey(r.Context(), domain.KeyFromID(project.GroupID)); err != nil {
		writeErr(w, err)
		return
	}

	if err := rt.projects.Create(r.Context(), &project); err != nil {
		writeErr(w, err)
		return
	}
	rt.recordActivity(r, project.GroupID, "project", project.ID, "created")
	writeData(w, http.StatusCreated, project)
}

func (rt *Router) listProjects(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	projects, total, err := rt.projects.List(r.Context(), page)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload(projects, page, total))
}

func (rt *Router) getProject(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	project, err := rt.projects.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, project)
}

func (rt *Router) updateProject(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	project, err := rt.projects.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Title != "" {
		project.Title = req.Title
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.Status != "" {
		project.Status = domain.ProjectStatus(req.Status)
	}
	if req.IsActive != nil {
		project.IsActive = *req.IsActive
	}
	if req.SourceLanguage != "" {
		project.SourceLanguage = req.SourceLanguage
	}
	if req.TargetLanguage != "" {
		project.TargetLanguage = req.TargetLanguage
	}
	if req.SourceCurrency != "" {
		project.SourceCurrency = req.SourceCurrency
	}
	if req.TargetCurrency != "" {
		project.TargetCurrency = req.TargetCurrency
	}
	if req.ExchangeRate > 0 {
		project.ExchangeRate = req.ExchangeRate
	}
	project.UpdatedAt = time.Now().UTC()

	if err := project.Validate(); err != nil {
		writeErr(w, err)
		return
	}
	if err := rt.projects.Update(r.Context(), project); err != nil {
		writeErr(w, err)
		return
	}
	rt.recordActivity(r, project.GroupID, "project", project.ID, "updated")
	writeData(w, http.StatusOK, project)
}

func (rt *Router) deleteProject(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := rt.projects.Delete(r.Context(), key); err != nil {
		writeErr(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "project deleted")
}
