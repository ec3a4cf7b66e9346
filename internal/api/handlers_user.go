package api

import (
	"net/http"

	"github.com/WesleyKlop/journali-api/internal/api/respond"
	"github.com/WesleyKlop/journali-api/internal/api/validate"
	"github.com/WesleyKlop/journali-api/internal/services"
)

// UserHandler is a thin HTTP transport over UserService.
type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler { return &UserHandler{svc: svc} }

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	raw, err := validate.ReadBody(r.Body)
	if err != nil {
		return c, err
	}
	if err := validate.DecodeJSON(raw, &c); err != nil {
		return c, err
	}
	return c, nil
}

// Register POST /api/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(r)
	if err == nil {
		err = validate.Credentials(c.Username, c.Password)
	}
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	u, err := h.svc.Register(r.Context(), c.Username, c.Password)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, u)
}

// Login POST /api/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(r)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	tok, err := h.svc.Login(r.Context(), c.Username, c.Password)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, tok)
}

// Me GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	u, err := h.svc.GetUser(r.Context(), caller)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// UpdateMe PATCH /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	raw, err := validate.ReadBody(r.Body)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	var upd services.UserUpdate
	if err := validate.DecodeJSON(raw, &upd); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	u, err := h.svc.UpdateSelf(r.Context(), caller, upd)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}
