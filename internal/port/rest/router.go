package rest

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, jwtSecret string, metricsManager *metrics.MetricsManager, log logger.Logger) http.Handler {
	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(chimw.Recoverer)
	mux.Use(Observe(log, metricsManager))

	mux.Get("/healthz", h.Health)
	mux.Method(http.MethodGet, "/metrics", metricsManager.Handler())

	mux.Route("/api/adoption", func(r chi.Router) {
		r.Get("/", h.ListListings)

		r.Group(func(r chi.Router) {
			r.Use(JWTAuth(jwtSecret, log))

			r.Post("/", h.CreateListing)
			r.Get("/me/listings", h.MyListings)
			r.Get("/me/orders", h.MyOrders)
			r.Get("/orders/{id}", h.GetOrder)
			r.Get("/orders/{id}/receipt", h.DownloadReceipt)

			r.Route("/basket", func(r chi.Router) {
				r.Get("/", h.GetBasket)
				r.Post("/items", h.AddBasketItem)
				r.Delete("/items", h.RemoveBasketItems)
				r.Delete("/items/{listingId}", h.RemoveBasketItem)
				r.Post("/checkout", h.Checkout)
			})

			r.Delete("/{id}", h.DeleteListing)
			r.Post("/{id}/request", h.RequestAdoption)
		})

		r.Get("/{id}", h.GetListing)
	})

	mux.Route("/api/admin/adoption", func(r chi.Router) {
		r.Use(JWTAuth(jwtSecret, log))
		r.Use(RequireRole(h.adminRole))

		r.Post("/listings", h.CreateOperatorListing)
		r.Patch("/{id}/status", h.UpdateListingStatus)
		r.Post("/reconcile", h.Reconcile)
		r.Get("/requests", h.ListRequests)
		r.Get("/requests/{id}", h.GetRequest)
		r.Patch("/requests/{id}/status", h.UpdateRequestStatus)
		r.Delete("/requests/{id}", h.DeleteRequest)
	})

	return mux
}
