package api

import (
	"net/http"

	"formcraft/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the dashboard origin once it is deployed
		return true
	},
}

// formEvents upgrades the owner's dashboard connection and subscribes it to
// the form's live view and submission events. Ownership is checked before the
// upgrade.
func (d Dependencies) formEvents(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "id")

	if _, err := d.Forms.GetForm(r.Context(), auth.GetUserID(r.Context()), formID); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Log.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	d.Hub.Subscribe(conn, "form:"+formID)
}
