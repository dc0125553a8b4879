package rest

import (
	"net/http"
	"strings"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/service"
	"github.com/go-chi/chi/v5"
)

type listingPage struct {
	Data       []entity.Listing `json:"data"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"totalPages"`
}

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.ListListingsQuery{
		Status:   q.Get("status"),
		Species:  q.Get("species"),
		Breed:    q.Get("breed"),
		Location: q.Get("location"),
	}

	var err error
	if query.AgeMin, err = queryInt(r, "ageMin"); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if query.AgeMax, err = queryInt(r, "ageMax"); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	if page, err := queryInt(r, "page"); err != nil {
		writeError(w, h.log, r, err)
		return
	} else if page != nil {
		query.Page = *page
	}
	if limit, err := queryInt(r, "limit"); err != nil {
		writeError(w, h.log, r, err)
		return
	} else if limit != nil {
		query.Limit = *limit
	}

	result, err := h.svc.Listings.ListListings(r.Context(), query)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, listingPage{
		Data:       result.Listings,
		Page:       result.Page,
		Limit:      result.Limit,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	}, "")
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.svc.Listings.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, listing, "")
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.caller(r)
	h.createListing(w, r, userID)
}

// createListing creates a listing owned by ownerID. An empty ownerID makes
// an operator listing.
func (h *Handler) createListing(w http.ResponseWriter, r *http.Request, ownerID string) {
	var req createListingRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	listing, err := h.svc.Listings.CreateListing(r.Context(), entity.NewListingInput{
		OwnerID:     ownerID,
		PetID:       strings.TrimSpace(req.PetID),
		Title:       req.Title,
		Description: req.Description,
		Location:    strings.TrimSpace(req.Location),
		PetName:     req.PetName,
		Species:     req.Species,
		Breed:       req.Breed,
		Age:         req.Age,
		Gender:      req.Gender,
		AvatarURL:   req.AvatarURL,
		Contact:     entity.ContactInfo{Name: req.Contact.Name, Email: req.Contact.Email, Phone: req.Contact.Phone},
		Price:       req.Price,
	})
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusCreated, listing, "")
}

func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := h.caller(r)
	if err := h.svc.Listings.DeleteListing(r.Context(), chi.URLParam(r, "id"), userID, isAdmin); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Adoption listing deleted")
}

func (h *Handler) MyListings(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.caller(r)
	listings, err := h.svc.Listings.ListOwnerListings(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, listings, "")
}

func (h *Handler) UpdateListingStatus(w http.ResponseWriter, r *http.Request) {
	adminID, _ := h.caller(r)
	var req statusRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	status := entity.ListingStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if err := h.svc.Listings.UpdateStatusByAdmin(r.Context(), chi.URLParam(r, "id"), adminID, status); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Adoption status updated")
}

func (h *Handler) RequestAdoption(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.caller(r)
	request, err := h.svc.Requests.CreateRequest(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusCreated, request, "Adoption request submitted")
}
