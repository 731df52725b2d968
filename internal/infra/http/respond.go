package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"clubnet/internal/domain"
)

// ErrorResponse описывает ошибку.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON отправляет значение как JSON.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError отправляет JSON с ошибкой.
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, ErrorResponse{Error: err.Error()})
}

// WriteDomainError переводит вид ошибки ядра в HTTP статус.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrConflict):
		WriteError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, err)
	case errors.Is(err, domain.ErrInvalid):
		WriteError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrStoreUnavailable):
		WriteError(w, http.StatusServiceUnavailable, err)
	default:
		WriteError(w, http.StatusInternalServerError, err)
	}
}
