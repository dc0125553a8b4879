package rest

import (
	"net/http"
	"strings"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/service"
	"github.com/go-chi/chi/v5"
)

// ListRequests serves the admin request list. Listing ids are resolved to
// full listing records by the reconciliation service.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.svc.Reconciliation.ListRequests(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, requests, "")
}

// CreateOperatorListing creates a listing that belongs to no customer.
func (h *Handler) CreateOperatorListing(w http.ResponseWriter, r *http.Request) {
	h.createListing(w, r, "")
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.svc.Requests.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, request, "")
}

func (h *Handler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	status := entity.RequestStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	request, err := h.svc.Requests.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, request, "Adoption request updated")
}

func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Requests.DeleteRequest(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Adoption request deleted")
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Reconciliation.Reconcile(r.Context(), r.URL.Query().Get("status"), service.TriggerManual)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, report, "")
}
