package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// WriteError escribe el envelope {"success":false,"code","error","detail"?,...fields}.
// Maneja automáticamente errores de tipo *AppError y errores genéricos.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := make(map[string]any, 4+len(appErr.Fields))
	for k, v := range appErr.Fields {
		resp[k] = v
	}
	resp["success"] = false
	resp["code"] = appErr.Code
	resp["error"] = appErr.Message
	if appErr.Detail != "" {
		resp["detail"] = appErr.Detail
	}

	if appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(appErr.RetryAfter)))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
