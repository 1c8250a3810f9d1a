package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

type groupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

func (rt *Router) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now().UTC()
	group := domain.Group{
		GUID:        uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		group.IsActive = *req.IsActive
	}

	if err := rt.groups.Create(r.Context(), &group); err != nil {
		writeErr(w, err)
		return
	}
	rt.recordActivity(r, group.ID, "group", group.ID, "created")
	writeData(w, http.StatusCreated, group)
}

func (rt *Router) listGroups(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	groups, total, err := rt.groups.List(r.Context(), page)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload(groups, page, total))
}

func (rt *Router) getGroup(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	group, err := rt.groups.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, group)
}

func (rt *Router) updateGroup(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	group, err := rt.groups.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Name != "" {
		group.Name = req.Name
	}
	if req.Description != "" {
		group.Description = req.Description
	}
	if req.IsActive != nil {
		group.IsActive = *req.IsActive
	}
	group.UpdatedAt = time.Now().UTC()

	if err := rt.groups.Update(r.Context(), group); err != nil {
		writeErr(w, err)
		return
	}
	rt.recordActivity(r, group.ID, "group", group.ID, "updated")
	writeData(w, http.StatusOK, group)
}

func (rt *Router) deleteGroup(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := rt.groups.Delete(r.Context(), key); err != nil {
		writeErr(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "group deleted")
}

func (rt *Router) listGroupUsers(w http.ResponseWriter, r *http.Request) {
	group, ok := rt.resolveGroup(w, r)
	if !ok {
		return
	}
	page := parsePage(r)
	users, total, err := rt.users.ListByGroup(r.Context(), group.ID, page)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload(users, page, total))
}

func (rt *Router) listGroupProjects(w http.ResponseWriter, r *http.Request) {
	group, ok := rt.resolveGroup(w, r)
	if !ok {
		return
	}
	page := parsePage(r)
	projects, total, err := rt.projects.ListByGroup(r.Context(), group.ID, page)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload(projects, page, total))
}

func (rt *Router) listGroupActivity(w http.ResponseWriter, r *http.Request) {
	group, ok := rt.resolveGroup(w, r)
	if !ok {
		return
	}
	page := parsePage(r)
	entries, total, err := rt.activity.ListByGroup(r.Context(), group.ID, page)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload(entries, page, total))
}

// resolveGroup writes the error response itself when the group could
// not be loaded.
func (rt *Router) resolveGroup(w http.ResponseWriter, r *http.Request) (*domain.Group, bool) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	group, err := rt.groups.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	return group, true
}
