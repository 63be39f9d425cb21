package common

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Responder writes JSON bodies. Detail of internal errors is only exposed
// when ExposeErrors is set (every environment except production).
type Responder struct {
	ExposeErrors bool
}

func (r Responder) Error(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorBody{Code: code, Message: message})
}

// Internal writes a 500 style body with the underlying error as detail.
func (r Responder) Internal(w http.ResponseWriter, status int, code, message string, err error) {
	body := errorBody{Code: code, Message: message}
	if r.ExposeErrors && err != nil {
		body.Error = err.Error()
	}
	WriteJSON(w, status, body)
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// DecodeJSON decodes a JSON body. Unknown fields are accepted because clients
// post whole form objects.
func DecodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
