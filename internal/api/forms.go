package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"formcraft/internal/auth"
	"formcraft/internal/model"
	"formcraft/internal/service"

	"github.com/go-chi/chi/v5"
)

func (d Dependencies) createForm(w http.ResponseWriter, r *http.Request) {
	owner, ok := d.owner(w, r)
	if !ok {
		return
	}

	var input service.CreateFormInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", d.Log)
		return
	}

	f, err := d.Forms.CreateForm(r.Context(), owner, input)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusCreated, f)
}

func (d Dependencies) listForms(w http.ResponseWriter, r *http.Request) {
	forms, err := d.Forms.ListForms(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"forms": forms})
}

func (d Dependencies) getForm(w http.ResponseWriter, r *http.Request) {
	f, err := d.Forms.GetForm(r.Context(), auth.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, f)
}

func (d Dependencies) updateForm(w http.ResponseWriter, r *http.Request) {
	owner, ok := d.owner(w, r)
	if !ok {
		return
	}

	var input service.UpdateFormInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", d.Log)
		return
	}

	f, err := d.Forms.UpdateForm(r.Context(), owner, chi.URLParam(r, "id"), input)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, f)
}

func (d Dependencies) deleteForm(w http.ResponseWriter, r *http.Request) {
	if err := d.Forms.DeleteForm(r.Context(), auth.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (d Dependencies) formAnalytics(w http.ResponseWriter, r *http.Request) {
	sample, _ := strconv.Atoi(r.URL.Query().Get("sample"))
	if sample <= 0 {
		sample = d.SampleSize
	}

	view, err := d.Forms.Analytics(r.Context(), auth.GetUserID(r.Context()), chi.URLParam(r, "id"), sample)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// owner loads the authenticated user for handlers that need plan information.
func (d Dependencies) owner(w http.ResponseWriter, r *http.Request) (owner model.User, ok bool) {
	u, err := d.Users.GetUser(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return u, false
	}
	return u, true
}
