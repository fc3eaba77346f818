package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/validator"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/images/internal/service"
)

const maxBodyBytes = 1 << 20

type uriResponse struct {
	URI string `json:"uri"`
}

type successResponse struct {
	Success bool `json:"success"`
	Removed int  `json:"removed"`
}

// UploadImage handles POST /api/v1/images (multipart, fields "path" and "file").
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	file, contentType, err := httputil.FormFile(w, r, "file", h.maxUploadBytes)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer file.Close()

	img, err := command.Send[*domain.Image](r.Context(), h.commands, service.UploadImage{
		Path:        r.FormValue("path"),
		ContentType: contentType,
		Content:     file,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.Header().Set("Location", img.URI)
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: uriResponse{URI: img.URI}})
}

// GetImage handles GET /api/v1/images?path=.
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		httputil.WriteError(w, r, apperrors.Validation(map[string]string{"path": "is required"}), h.logger)
		return
	}
	img, err := h.queries.GetImage(r.Context(), path)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: img})
}

// DeleteImage handles DELETE /api/v1/images?uri=.
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	_, err := command.Send[struct{}](r.Context(), h.commands, service.DeleteImage{
		URI: r.URL.Query().Get("uri"),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: successResponse{Success: true, Removed: 1}})
}

// DeletePaths handles POST /api/v1/images/delete-paths.
func (h *Handler) DeletePaths(w http.ResponseWriter, r *http.Request) {
	var cmd service.DeletePaths
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.Decode(r, &cmd); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	removed, err := command.Send[int](r.Context(), h.commands, cmd)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: successResponse{Success: true, Removed: removed}})
}

// ServeFile handles GET /files/*. Range and conditional requests are
// answered by http.ServeContent.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	obj, err := h.queries.Open(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	http.ServeContent(w, r, "", obj.ModTime, obj.ReadSeeker)
}
