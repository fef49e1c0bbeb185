package server

import (
	"encoding/json"
	"net/http"

	"github.com/tradeview-lab/tradeview/pkg/errors"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// The header is already out; an encode failure here is unrecoverable.
	_ = json.NewEncoder(w).Encode(resp)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), Response{Success: false, Message: err.Error()})
}

// statusFor maps typed error codes onto HTTP statuses.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeUnknownStrategy:
		return http.StatusNotFound
	case errors.ErrCodeStrategyMismatch:
		return http.StatusConflict
	case errors.ErrCodeImportFailed, errors.ErrCodeFormatIncompatible, errors.ErrCodeBacktestConfig, errors.ErrCodeBacktestNoData:
		return http.StatusBadRequest
	default:
		if errors.IsValidation(err) {
			return http.StatusBadRequest
		}

		return http.StatusInternalServerError
	}
}
