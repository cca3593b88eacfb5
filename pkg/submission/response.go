package submission

import (
	"encoding/json"
	"net/http"

	"github.com/vango-dev/thbase/pkg/records"
)

// Response is the JSON body of every submission reply.
type Response struct {
	Message string          `json:"message"`
	Data    *records.Record `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
