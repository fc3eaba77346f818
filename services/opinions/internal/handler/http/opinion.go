package http

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/pkg/validator"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/repository"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/service"
)

// opinionForm is the body of a create or update request.
type opinionForm struct {
	BeerID  string `json:"beer_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`

	image *service.Image
	file  io.Closer
}

func (f *opinionForm) close() {
	if f.file != nil {
		_ = f.file.Close()
	}
}

// readOpinionForm accepts JSON, or a multipart form with the fields beer_id,
// rating and comment plus an optional "image" file part.
func (h *Handler) readOpinionForm(w http.ResponseWriter, r *http.Request) (*opinionForm, error) {
	form := &opinionForm{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := validator.Decode(r, form); err != nil {
			return nil, err
		}
		return form, nil
	}

	if err := httputil.ParseMultipart(w, r, h.maxImageBytes); err != nil {
		return nil, err
	}
	form.BeerID = r.FormValue("beer_id")
	form.Comment = r.FormValue("comment")
	if v := r.FormValue("rating"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, apperrors.Validation(map[string]string{"rating": "must be a whole number"})
		}
		form.Rating = n
	}

	file, contentType, ok, err := httputil.OptionalFile(r, "image", h.maxImageBytes)
	if err != nil {
		return nil, err
	}
	if ok {
		form.image = &service.Image{Content: file, ContentType: contentType}
		form.file = file
	}
	return form, nil
}

// opinionFilter reads beer_id, user_id, min_rating and max_rating on top of
// the shared pagination parameters.
func opinionFilter(r *http.Request) (repository.OpinionFilter, error) {
	p, err := pagination.FromRequest(r, domain.OpinionSortColumns()...)
	if err != nil {
		return repository.OpinionFilter{}, err
	}
	f := repository.OpinionFilter{Params: p}
	q := r.URL.Query()
	fields := map[string]string{}

	for param, dst := range map[string]**string{"beer_id": &f.BeerID, "user_id": &f.UserID} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		if _, err := uuid.Parse(v); err != nil {
			fields[param] = "must be a valid UUID"
			continue
		}
		*dst = &v
	}

	for param, dst := range map[string]**int{"min_rating": &f.MinRating, "max_rating": &f.MaxRating} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < domain.MinRating || n > domain.MaxRating {
			fields[param] = "must be a whole number between 1 and 10"
			continue
		}
		*dst = &n
	}

	if f.MinRating != nil && f.MaxRating != nil && *f.MinRating > *f.MaxRating {
		fields["min_rating"] = "must not exceed max_rating"
	}
	if len(fields) > 0 {
		return repository.OpinionFilter{}, apperrors.Validation(fields)
	}
	return f, nil
}

// ListOpinions handles GET /api/v1/opinions.
func (h *Handler) ListOpinions(w http.ResponseWriter, r *http.Request) {
	f, err := opinionFilter(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	opinions, total, err := h.queries.ListOpinions(r.Context(), f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(opinions, total, f.Page, f.PerPage))
}

// GetOpinion handles GET /api/v1/opinions/{id}.
func (h *Handler) GetOpinion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	opinion, err := h.queries.GetOpinion(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: opinion})
}

// CreateOpinion handles POST /api/v1/opinions.
func (h *Handler) CreateOpinion(w http.ResponseWriter, r *http.Request) {
	form, err := h.readOpinionForm(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer form.close()

	opinion, err := command.Send[*domain.Opinion](r.Context(), h.commands, service.CreateOpinion{
		Actor:   middleware.ActorFromContext(r.Context()),
		BeerID:  form.BeerID,
		Rating:  form.Rating,
		Comment: form.Comment,
		Image:   form.image,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: opinion})
}

// UpdateOpinion handles PUT /api/v1/opinions/{id}.
func (h *Handler) UpdateOpinion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	form, err := h.readOpinionForm(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer form.close()

	opinion, err := command.Send[*domain.Opinion](r.Context(), h.commands, service.UpdateOpinion{
		Actor:   middleware.ActorFromContext(r.Context()),
		ID:      id,
		Rating:  form.Rating,
		Comment: form.Comment,
		Image:   form.image,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: opinion})
}

// DeleteOpinion handles DELETE /api/v1/opinions/{id}.
func (h *Handler) DeleteOpinion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	_, err := command.Send[struct{}](r.Context(), h.commands, service.DeleteOpinion{
		Actor: middleware.ActorFromContext(r.Context()),
		ID:    id,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteOpinionImage handles DELETE /api/v1/opinions/{id}/image.
func (h *Handler) DeleteOpinionImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	opinion, err := command.Send[*domain.Opinion](r.Context(), h.commands, service.DeleteOpinionImage{
		Actor: middleware.ActorFromContext(r.Context()),
		ID:    id,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: opinion})
}
