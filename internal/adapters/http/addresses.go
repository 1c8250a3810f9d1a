package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

type addressRequest struct {
	GroupID      int64  `json:"groupId"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	Country      string `json:"country"`
	ContactName  string `json:"contactName"`
	ContactPhone string `json:"contactPhone"`
	ContactEmail string `json:"contactEmail"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
	IsActive     *bool  `json:"isActive"`
}

func (rt *Router) createGroupAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.GroupID <= 0 || req.Address == "" {
		writeMessage(w, http.StatusBadRequest, "groupId and address are required")
		return
	}

	if _, err := rt.groups.GetByKey(r.Context(), domain.KeyFromID(req.GroupID)); err != nil {
		writeErr(w, err)
		return
	}

	now := time.Now().UTC()
	addr := domain.GroupAddress{
		GUID:         uuid.NewString(),
		GroupID:      req.GroupID,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		Zip:          req.Zip,
		Country:      req.Country,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.IsActive != nil {
		addr.IsActive = *req.IsActive
	}

	if err := rt.addresses.Create(r.Context(), &addr); err != nil {
		writeErr(w, err)
		return
	}
	rt.recordActivity(r, addr.GroupID, "group_address", addr.ID, "created")
	writeData(w, http.StatusCreated, addr)
}

func (rt *Router) getGroupAddress(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	addr, err := rt.addresses.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, addr)
}

func (rt *Router) updateGroupAddress(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	addr, err := rt.addresses.GetByKey(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}

	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Address != "" {
		addr.Address = req.Address
	}
	if req.City != "" {
		addr.City = req.City
	}
	if req.State != "" {
		addr.State = req.State
	}
	if req.Zip != "" {
		addr.Zip = req.Zip
	}
	if req.Country != "" {
		addr.Country = req.Country
	}
	if req.ContactName != "" {
		addr.ContactName = req.ContactName
	}
	if req.ContactPhone != "" {
		addr.ContactPhone = req.ContactPhone
	}
	if req.ContactEmail != "" {
		addr.ContactEmail = req.ContactEmail
	}
	if req.Latitude != "" {
		addr.Latitude = req.Latitude
	}
	if req.Longitude != "" {
		addr.Longitude = req.Longitude
	}
	if req.IsActive != nil {
		addr.IsActive = *req.IsActive
	}
	addr.UpdatedAt = time.Now().UTC()

	if err := rt.addresses.Update(r.Context(), addr); err != nil {
		writeErr(w, err)
		return
	}
	rt.recordActivity(r, addr.GroupID, "group_address", addr.ID, "updated")
	writeData(w, http.StatusOK, addr)
}

func (rt *Router) deleteGroupAddress(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := rt.addresses.Delete(r.Context(), key); err != nil {
		writeErr(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "group address deleted")
}

func (rt *Router) listGroupAddresses(w http.ResponseWriter, r *http.Request) {
	group, ok := rt.resolveGroup(w, r)
	if !ok {
		return
	}
	page := parsePage(r)
	addrs, total, err := rt.addresses.ListByGroup(r.Context(), group.ID, page)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, listPayload(addrs, page, total))
}
