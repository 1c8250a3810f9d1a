package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

type userRequest struct {
	GroupID  int64  `json:"groupId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive *bool  `json:"isActive"`
}

func (rt *Router) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.GroupID <= 0 || req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "groupId and email are required")
		return
	}
	role := domain.UserRole(req.Role)
	if role == "" {
		role = domain.RoleMember
	}
	if role != domain.RoleAdmin && role != domain.RoleMember {
		writeMessage(w, http.StatusBadRequest, "unknown role")
		return
	}

	if _, err := rt.groups.GetByKey(r.Context(), domain.KeyFromID(req.GroupID)); err != nil {
		writeErr(w, err)
		return
	}

	now := time.Now().UTC()
	user := domain.User{
		GUID:      uuid.NewString(),
		GroupID:   req.GroupID,
		Email:     req.Email,
		Name:      req.Name,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := rt.users.Create(r.Context(), &user); err != nil {
		writeErr(w, err)
		return
	}
	rt.recordActivity(r, user.GroupID, "user", user.ID, "created")
	writeData(w, http.StatusCreated, user)
}

func (rt *Router) getUser(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	user, err := rt.users.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (rt *Router) updateUser(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	user, err := rt.users.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Role != "" {
		role := domain.UserRole(req.Role)
		if role != domain.RoleAdmin && role != domain.RoleMember {
			writeMessage(w, http.StatusBadRequest, "unknown role")
			return
		}
		user.Role = role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedAt = time.Now().UTC()

	if err := rt.users.Update(r.Context(), user); err != nil {
		writeErr(w, err)
		return
	}
	rt.recordActivity(r, user.GroupID, "user", user.ID, "updated")
	writeData(w, http.StatusOK, user)
}

func (rt *Router) deleteUser(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := rt.users.Delete(r.Context(), key); err != nil {
		writeErr(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "user deleted")
}
