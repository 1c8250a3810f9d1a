package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aurumline/exportdesk/internal/core/domain"
	"github.com/aurumline/exportdesk/internal/core/ports"
)

// Customs agents and shipping services are the same resource shape, so
// each route pair shares one handler body parameterized by repository
// and entity label.

type contactRequest struct {
	GroupID  int64  `json:"groupId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	IsActive *bool  `json:"isActive"`
}

func (rt *Router) createCustomAgent(w http.ResponseWriter, r *http.Request) {
	rt.createContact(w, r, rt.customAgents, "custom_agent")
}

func (rt *Router) getCustomAgent(w http.ResponseWriter, r *http.Request) {
	rt.getContact(w, r, rt.customAgents)
}

func (rt *Router) updateCustomAgent(w http.ResponseWriter, r *http.Request) {
	rt.updateContact(w, r, rt.customAgents, "custom_agent")
}

func (rt *Router) deleteCustomAgent(w http.ResponseWriter, r *http.Request) {
	rt.deleteContact(w, r, rt.customAgents, "custom agent")
}

func (rt *Router) listGroupCustomAgents(w http.ResponseWriter, r *http.Request) {
	rt.listGroupContacts(w, r, rt.customAgents)
}

func (rt *Router) createShippingService(w http.ResponseWriter, r *http.Request) {
	rt.createContact(w, r, rt.shippingServices, "shipping_service")
}

func (rt *Router) getShippingService(w http.ResponseWriter, r *http.Request) {
	rt.getContact(w, r, rt.shippingServices)
}

func (rt *Router) updateShippingService(w http.ResponseWriter, r *http.Request) {
	rt.updateContact(w, r, rt.shippingServices, "shipping_service")
}

func (rt *Router) deleteShippingService(w http.ResponseWriter, r *http.Request) {
	rt.deleteContact(w, r, rt.shippingServices, "shipping service")
}

func (rt *Router) listGroupShippingServices(w http.ResponseWriter, r *http.Request) {
	rt.listGroupContacts(w, r, rt.shippingServices)
}

func (rt *Router) createContact(w http.ResponseWriter, r *http.Request, repo ports.GroupContactRepository, entity string) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.GroupID <= 0 || req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "groupId and name are required")
		return
	}
	if len(req.Name) > maxContactNameLen {
		writeMessage(w, http.StatusBadRequest, "name is too long")
		return
	}

	if _, err := rt.groups.GetByKey(r.Context(), domain.KeyFromID(req.GroupID)); err != nil {
		writeErr(w, err)
		return
	}

	now := time.Now().UTC()
	contact := domain.GroupContact{
		GUID:      uuid.NewString(),
		GroupID:   req.GroupID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.IsActive != nil {
		contact.IsActive = *req.IsActive
	}

	if err := repo.Create(r.Context(), &contact); err != nil {
		writeErr(w, err)
		return
	}
	rt.recordActivity(r, contact.GroupID, entity, contact.ID, "created")
	writeData(w, http.StatusCreated, contact)
}

func (rt *Router) getContact(w http.ResponseWriter, r *http.Request, repo ports.GroupContactRepository) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	contact, err := repo.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, contact)
}

func (rt *Router) updateContact(w http.ResponseWriter, r *http.Request, repo ports.GroupContactRepository, entity string) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	contact, err := repo.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Name != "" {
		if len(req.Name) > maxContactNameLen {
			writeMessage(w, http.StatusBadRequest, "name is too long")
			return
		}
		contact.Name = req.Name
	}
	if req.Email != "" {
		contact.Email = req.Email
	}
	if req.Phone != "" {
		contact.Phone = req.Phone
	}
	if req.IsActive != nil {
		contact.IsActive = *req.IsActive
	}
	contact.UpdatedAt = time.Now().UTC()

	if err := repo.Update(r.Context(), contact); err != nil {
		writeErr(w, err)
		return
	}
	rt.recordActivity(r, contact.GroupID, entity, contact.ID, "updated")
	writeData(w, http.StatusOK, contact)
}

func (rt *Router) deleteContact(w http.ResponseWriter, r *http.Request, repo ports.GroupContactRepository, label string) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := repo.Delete(r.Context(), key); err != nil {
		writeErr(w, err)
		return
	}
	writeMessage(w, http.StatusOK, label+" deleted")
}

func (rt *Router) listGroupContacts(w http.ResponseWriter, r *http.Request, repo ports.GroupContactRepository) {
	group, ok := rt.resolveGroup(w, r)
	if !ok {
		return
	}
	page := parsePage(r)
	contacts, total, err := repo.ListByGroup(r.Context(), group.ID, page)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload(contacts, page, total))
}

const maxContactNameLen = 40
