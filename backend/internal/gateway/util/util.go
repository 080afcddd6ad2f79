package util

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schoolstats/backend/internal/stats"
)

// JSONResponse structure for successful responses. Degraded is set when the
// report was built with partial data.
type JSONResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Message  string      `json:"message,omitempty"`
	Degraded bool        `json:"degraded,omitempty"`
}

// JSONError structure for error responses
type JSONError struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// WriteJSON is a helper to write JSON responses
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	var response interface{}
	switch {
	case status >= 200 && status < 300:
		response = JSONResponse{Success: true, Data: payload}
	default:
		// Fallback for errors if WriteJSONError wasn't used
		response = JSONError{Success: false, Message: "Unknown error"}
	}
	encode(w, status, response)
}

// WriteReport writes a report, flagging it as degraded when it carries warnings
func WriteReport(w http.ResponseWriter, report interface{}, warnings []string) {
	encode(w, http.StatusOK, JSONResponse{
		Success:  true,
		Data:     report,
		Degraded: len(warnings) > 0,
	})
}

// WriteJSONError is a helper to write standardized error JSON responses
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	writeError(w, status, message, false)
}

func writeError(w http.ResponseWriter, status int, message string, retryable bool) {
	log.Printf("HTTP Error %d: %s", status, message)
	encode(w, status, JSONError{Success: false, Message: message, Retryable: retryable})
}

func encode(w http.ResponseWriter, status int, response interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

// HandleError translates report errors to HTTP responses. A missing base
// entity is a 404; any other base roster failure is a retryable 503. Other
// errors are mapped from their gRPC status code.
func HandleError(w http.ResponseWriter, err error) {
	st, _ := status.FromError(err)
	code := st.Code()

	var base *stats.BaseRosterError
	if errors.As(err, &base) {
		what := strings.TrimSpace(base.Entity + " " + base.ID)
		switch code {
		case codes.NotFound:
			WriteJSONError(w, http.StatusNotFound, what+" not found")
		case codes.InvalidArgument:
			WriteJSONError(w, http.StatusBadRequest, "invalid "+base.Entity+" id")
		default:
			writeError(w, http.StatusServiceUnavailable, "Service Unavailable: could not load "+what, true)
		}
		return
	}

	switch {
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "Request cancelled before the report was built", true)
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "Report Timeout: building the report took too long.", true)
		return
	}

	switch code {
	case codes.InvalidArgument:
		WriteJSONError(w, http.StatusBadRequest, st.Message())
	case codes.NotFound:
		WriteJSONError(w, http.StatusNotFound, st.Message())
	case codes.Unavailable:
		writeError(w, http.StatusServiceUnavailable, "Service Unavailable: the record store is unreachable.", true)
	case codes.DeadlineExceeded:
		writeError(w, http.StatusGatewayTimeout, "Service Timeout: the record store took too long to respond.", true)
	default:
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}
