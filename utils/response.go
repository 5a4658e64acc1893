package utils

import (
	"encoding/json"
	"net/http"
)

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondSuccess wraps data in the standard {success, data} envelope.
func RespondSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	RespondWithJSON(w, statusCode, map[string]any{
		"success": true,
		"data":    data,
	})
}

// RespondSuccessMessage is RespondSuccess with a human-readable message.
func RespondSuccessMessage(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	resp := map[string]any{
		"success": true,
		"message": message,
	}
	if data != nil {
		resp["data"] = data
	}
	RespondWithJSON(w, statusCode, resp)
}

// RespondError emits {success: false, message} with the given status code.
func RespondError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, map[string]any{
		"success": false,
		"message": message,
	})
}

type M map[string]interface{}
