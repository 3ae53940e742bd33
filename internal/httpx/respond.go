// Package httpx writes the uniform JSON response envelopes used by every
// handler: {success:true, data} on success and {success:false, message,
// error_code, data?} on failure.
package httpx

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/MailPilot/MP-Backend/internal/apperror"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorEnvelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorCode int    `json:"error_code"`
	Data      any    `json:"data,omitempty"`
}

// SendSuccess writes a success envelope. data may be nil.
func SendSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Success: true, Data: data})
}

// SendError logs the underlying error and writes an error envelope carrying
// the catalog message. extra, when present, is attached as the envelope data
// (e.g. a consent URL alongside a consent-required error).
func SendError(w http.ResponseWriter, status int, msg apperror.Message, err error, extra ...any) {
	if err != nil {
		log.Printf("request failed (code %d): %v", msg.Code, err)
	}

	env := errorEnvelope{Message: msg.Message, ErrorCode: msg.Code}
	if len(extra) > 0 {
		env.Data = extra[0]
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
