package helpers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/dropDatabas3/procurauth/internal/http/v2/errors"
)

// MaxBodyBytes es el límite de body para todas las rutas JSON.
const MaxBodyBytes = 4 << 10

// ReadJSON decodifica el body de forma tolerante (ignora campos desconocidos).
// Un body vacío deja v en cero; la validación de campos queda para el service.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) *errors.AppError {
	if ct := strings.ToLower(r.Header.Get("Content-Type")); ct != "" && !strings.Contains(ct, "application/json") {
		return errors.ErrBadRequest.WithDetail("Content-Type must be application/json")
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.ErrBodyTooLarge
		}
		return errors.ErrInvalidJSON
	}
	return nil
}

// WriteJSON escribe una respuesta JSON.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData escribe {"success":true,"data":...}.
func WriteData(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// WriteMessage escribe {"success":true,"message":...}.
func WriteMessage(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
}

// RequireMethod responde 405 con Allow si el método no coincide.
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	errors.WriteError(w, errors.ErrMethodNotAllowed)
	return false
}
