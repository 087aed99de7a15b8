package httpapi

import (
	"net/http"
	"strings"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/session"
)

type bindRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (b *bindRequest) bindForm(r *http.Request) error {
	b.Email = r.PostForm.Get("email")
	b.Role = r.PostForm.Get("role")
	return nil
}

// BindSession attaches the principal asserted by the upstream gateway to the
// session. No credentials are checked here.
func (h *Handler) BindSession(w http.ResponseWriter, r *http.Request) {
	var req bindRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	var id session.Identity
	switch session.Role(strings.ToLower(strings.TrimSpace(req.Role))) {
	case session.RoleCustomer, "":
		c, err := h.directory.FindByEmail(r.Context(), req.Email)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		id = session.Identity{UserID: c.ID, Email: c.Email, FullName: c.FullName, Role: session.RoleCustomer}
	case session.RoleMechanic:
		m, err := h.directory.FindMechanicByEmail(r.Context(), req.Email)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		id = session.Identity{UserID: m.ID, Email: m.Email, FullName: m.FullName, Role: session.RoleMechanic}
	default:
		h.fail(w, r, apperr.Invalid("http.session", "invalid user type"))
		return
	}

	if err := sess(r).Bind(r.Context(), id); err != nil {
		h.fail(w, r, apperr.Store("http.session", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "identity": id})
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := sess(r).Destroy(r.Context()); err != nil {
		h.fail(w, r, apperr.Store("http.signout", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
