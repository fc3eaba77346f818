package http

import (
	"net/http"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/service"
)

// UpsertBeerImage handles PUT /api/v1/beers/{id}/image (multipart, field "file").
func (h *Handler) UpsertBeerImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	file, contentType, err := httputil.FormFile(w, r, "file", h.maxImageBytes)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer file.Close()

	img, err := command.Send[*domain.BeerImage](r.Context(), h.commands, service.UpsertBeerImage{
		Actor:       middleware.ActorFromContext(r.Context()),
		BeerID:      id,
		Content:     file,
		ContentType: contentType,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: img})
}

// DeleteBeerImage handles DELETE /api/v1/beers/{id}/image.
func (h *Handler) DeleteBeerImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	img, err := command.Send[*domain.BeerImage](r.Context(), h.commands, service.DeleteBeerImage{
		Actor:  middleware.ActorFromContext(r.Context()),
		BeerID: id,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: img})
}
