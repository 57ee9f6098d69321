package api

import (
	"encoding/json"
	"net/http"

	"formcraft/internal/auth"
)

func (d Dependencies) createUpgrade(w http.ResponseWriter, r *http.Request) {
	payment, err := d.Users.CreateUpgradePayment(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"paymentId":    payment.ID,
		"clientSecret": payment.ClientSecret,
	})
}

func (d Dependencies) confirmUpgrade(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PaymentID string `json:"paymentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", d.Log)
		return
	}
	if body.PaymentID == "" {
		WriteError(w, http.StatusBadRequest, "Payment id is required", d.Log)
		return
	}

	u, err := d.Users.ConfirmUpgrade(r.Context(), auth.GetUserID(r.Context()), body.PaymentID)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}
