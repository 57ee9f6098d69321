package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (d Dependencies) publicForm(w http.ResponseWriter, r *http.Request) {
	f, err := d.Public.FetchForm(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, f)
}

func (d Dependencies) publicSubmit(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", d.Log)
		return
	}

	result, err := d.Public.Submit(r.Context(), chi.URLParam(r, "slug"), payload, clientIP(r), r.UserAgent())
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	if len(result.FieldErrors) > 0 {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Errors:  result.FieldErrors,
		})
		return
	}

	resp := map[string]interface{}{
		"id":      result.Submission.ID,
		"message": result.Settings.SuccessMessage,
	}
	if result.Settings.EnableRedirect && result.Settings.RedirectURL != "" {
		resp["redirectUrl"] = result.Settings.RedirectURL
	}
	WriteJSON(w, http.StatusCreated, resp)
}

// clientIP prefers the forwarding headers set by the edge proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
