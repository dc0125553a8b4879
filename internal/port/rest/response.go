package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/service"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data interface{}, message string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: status < http.StatusBadRequest, Message: message})
}

// writeError maps service errors onto HTTP statuses. Unknown errors are
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, log logger.Logger, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPartialNotFound):
		writeMessage(w, http.StatusNotFound, service.ErrPartialNotFound.Error())
	case errors.Is(err, service.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrGateway):
		log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusBadGateway, service.ErrGateway.Error())
	default:
		log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a bounded JSON body into dst and runs struct validation.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}
