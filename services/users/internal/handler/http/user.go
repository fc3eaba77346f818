package http

import (
	"net/http"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/validator"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/service"
)

// ListUsers handles GET /api/v1/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, err := pagination.FromRequest(r, domain.UserSortColumns()...)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	users, total, err := h.queries.ListUsers(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(users, total, p.Page, p.PerPage))
}

// GetUser handles GET /api/v1/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.queries.GetUser(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// UpdateUsername handles PUT /api/v1/users/{id}/username.
func (h *Handler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var cmd service.UpdateUsername
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.Decode(r, &cmd); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cmd.Actor = middleware.ActorFromContext(r.Context())
	cmd.UserID = id

	user, err := command.Send[*domain.User](r.Context(), h.commands, cmd)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// ChangePassword handles PUT /api/v1/users/{id}/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var cmd service.ChangePassword
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.Decode(r, &cmd); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cmd.Actor = middleware.ActorFromContext(r.Context())
	cmd.UserID = id

	if _, err := command.Send[struct{}](r.Context(), h.commands, cmd); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser handles DELETE /api/v1/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	_, err := command.Send[struct{}](r.Context(), h.commands, service.DeleteUser{
		Actor:  middleware.ActorFromContext(r.Context()),
		UserID: id,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
