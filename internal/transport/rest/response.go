package rest

import (
	"encoding/json"
	"log"
	"net/http"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type APIError struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, httpStatus int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] write response error: %v", err)
	}
}

func Success(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

func SuccessAccepted(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusAccepted, APIResponse{Success: true, Message: message, Data: data})
}

func SuccessCreated(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Message: message, Data: data})
}

func Error(w http.ResponseWriter, message string, details []string, httpStatus int) {
	writeJSON(w, httpStatus, APIError{Error: message, Details: details})
}

func ErrorBadRequest(w http.ResponseWriter, message string, details ...string) {
	Error(w, message, details, http.StatusBadRequest)
}

func ErrorUnauthorized(w http.ResponseWriter, message string) {
	Error(w, message, nil, http.StatusUnauthorized)
}

func ErrorNotFound(w http.ResponseWriter, message string) {
	Error(w, message, nil, http.StatusNotFound)
}

func ErrorInternal(w http.ResponseWriter, message string) {
	Error(w, message, nil, http.StatusInternalServerError)
}
