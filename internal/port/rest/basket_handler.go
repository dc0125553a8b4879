package rest

import (
	"fmt"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/service"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetBasket(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.caller(r)
	basket, err := h.svc.Baskets.GetBasket(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, basket, "")
}

func (h *Handler) AddBasketItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.caller(r)
	var req basketItemRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	basket, err := h.svc.Baskets.AddItem(r.Context(), userID, req.ListingID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, basket, "Listing added to basket")
}

func (h *Handler) RemoveBasketItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.caller(r)
	basket, err := h.svc.Baskets.RemoveItem(r.Context(), userID, chi.URLParam(r, "listingId"))
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, basket, "Listing removed from basket")
}

func (h *Handler) RemoveBasketItems(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.caller(r)
	var req basketItemsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	basket, err := h.svc.Baskets.RemoveItems(r.Context(), userID, req.ListingIDs)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, basket, "")
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.caller(r)
	var req checkoutRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	listingIDs := req.ListingIDs
	if listingIDs == nil {
		basket, err := h.svc.Baskets.GetBasket(r.Context(), userID)
		if err != nil {
			writeError(w, h.log, r, err)
			return
		}
		listingIDs = make([]string, 0, len(basket.Items))
		for _, item := range basket.Items {
			listingIDs = append(listingIDs, item.ListingID)
		}
	}

	result, err := h.svc.Checkout.Checkout(r.Context(), service.CheckoutInput{
		CustomerID: userID,
		ListingIDs: listingIDs,
		CustomerInfo: entity.CustomerInfo{
			Name:    req.Customer.Name,
			Address: req.Customer.Address,
			Phone:   req.Customer.Phone,
			Email:   req.Customer.Email,
		},
	})
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusCreated, toCheckoutResponse(result), "Checkout started")
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.caller(r)
	orders, err := h.svc.Orders.OrdersByCustomer(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, orders, "")
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := h.caller(r)
	order, err := h.svc.Orders.GetOrder(r.Context(), chi.URLParam(r, "id"), userID, isAdmin)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeData(w, http.StatusOK, order, "")
}

func (h *Handler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := h.caller(r)
	content, fileName, err := h.svc.Receipts.GenerateReceipt(r.Context(), chi.URLParam(r, "id"), userID, isAdmin)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
