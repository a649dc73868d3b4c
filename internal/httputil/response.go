// Package httputil contains shared HTTP utilities for consistent response
// formatting across handlers.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Response is the JSON envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Status  int    `json:"status"`
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeResponse(w, Response{
		Success: true,
		Message: message,
		Data:    data,
		Status:  status,
	})
}

func WriteError(w http.ResponseWriter, status int, message string, err error) {
	resp := Response{
		Message: message,
		Status:  status,
	}
	if err != nil {
		resp.Error = err.Error()
	}

	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)

	_ = json.NewEncoder(w).Encode(resp)
}
