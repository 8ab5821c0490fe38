package session

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-portal/internal/auth"
	"github.com/frahmantamala/expense-portal/internal/transport"
	"github.com/frahmantamala/expense-portal/pkg/logger"
)

// Handler exposes the session manager over HTTP: credential endpoints plus
// a snapshot of the resolved identity.
type Handler struct {
	*transport.BaseHandler
	Manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Manager:     manager,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto auth.LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.Manager.SignIn(r.Context(), dto.Email, dto.Password)
	if err != nil {
		h.Logger.Error("sign in failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var dto auth.SignUpDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.Manager.SignUp(r.Context(), dto.Email, dto.Password, dto.Name, dto.Role)
	if err != nil {
		h.Logger.Error("sign up failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, sess)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.SignOut(r.Context()); err != nil {
		h.Logger.Error("sign out failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Session reports the manager's current view: session, profile, role flags
// and whether a profile fetch is still in flight.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"session":  h.Manager.Session(),
		"profile":  h.Manager.Profile(),
		"roles":    h.Manager.Roles(),
		"is_admin": h.Manager.IsAdmin(),
		"loading":  h.Manager.Loading(),
		"state":    h.Manager.State(),
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// Resume clears a stale loading flag after a client reconnects.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	h.Manager.Resume()
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "resumed"})
}
