package http

import (
	"net/http"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
	"github.com/TomWia9/HoppyHub-sub002/pkg/validator"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/service"
)

const maxBodyBytes = 1 << 20

// Register handles POST /api/v1/users/register. Self-registered accounts
// always get the User role.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var cmd service.RegisterUser
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.Decode(r, &cmd); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cmd.Role = ""
	h.register(w, r, cmd)
}

// CreateUser handles POST /api/v1/users for administrators, who may pick
// the role.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var cmd service.RegisterUser
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.Decode(r, &cmd); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	cmd.Actor = middleware.ActorFromContext(r.Context())
	h.register(w, r, cmd)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, cmd service.RegisterUser) {
	user, err := command.Send[*domain.User](r.Context(), h.commands, cmd)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.Header().Set("Location", "/api/v1/users/"+user.ID)
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: user})
}

// Login handles POST /api/v1/users/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var cmd service.Login
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.Decode(r, &cmd); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	token, err := command.Send[*domain.Token](r.Context(), h.commands, cmd)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: token})
}
