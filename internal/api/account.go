package api

import (
	"encoding/json"
	"net/http"

	"formcraft/internal/auth"
	"formcraft/internal/service"
)

func (d Dependencies) register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", d.Log)
		return
	}
	if input.Email == "" || input.Password == "" || input.Username == "" {
		WriteError(w, http.StatusBadRequest, "Email, username and password are required", d.Log)
		return
	}

	u, err := d.Users.Register(r.Context(), input)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"user":    u,
		"message": "Please check your email to verify your account",
	})
}

func (d Dependencies) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", d.Log)
		return
	}

	u, token, err := d.Users.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":  u,
		"token": token,
	})
}

func (d Dependencies) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteError(w, http.StatusBadRequest, "Verification token is required", d.Log)
		return
	}

	u, err := d.Users.VerifyEmail(r.Context(), token)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":    u,
		"message": "Email verified successfully",
	})
}

func (d Dependencies) currentUser(w http.ResponseWriter, r *http.Request) {
	u, err := d.Users.GetUser(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

func (d Dependencies) updateProfile(w http.ResponseWriter, r *http.Request) {
	var input service.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", d.Log)
		return
	}

	u, err := d.Users.UpdateProfile(r.Context(), auth.GetUserID(r.Context()), input)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}
