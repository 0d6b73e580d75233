package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/server"
	"github.com/pharmintel/pharmintel/internal/service"
	"github.com/pharmintel/pharmintel/internal/validation"
)

const defaultDigestLimit = 20

// DigestsHandler serves the digest history endpoints.
type DigestsHandler struct {
	Handler
	digests *service.DigestService
}

func NewDigestsHandler(s *server.Server, digests *service.DigestService) *DigestsHandler {
	return &DigestsHandler{
		Handler: NewHandler(s),
		digests: digests,
	}
}

type ListDigestsRequest struct {
	Limit int    `query:"limit" validate:"omitempty,gte=1,lte=100"`
	Since string `query:"since" validate:"omitempty"`
}

func (r *ListDigestsRequest) Validate() error {
	if err := validation.Validator.Struct(r); err != nil {
		return err
	}
	if r.Since != "" {
		if _, err := time.Parse(time.RFC3339, r.Since); err != nil {
			return validation.CustomValidationErrors{
				{Field: "since", Message: "must be an RFC 3339 timestamp"},
			}
		}
	}
	return nil
}

// List returns recent digests, newest first, without their events.
func (h *DigestsHandler) List() echo.HandlerFunc {
	return Handle(h.Handler, h.list, http.StatusOK, &ListDigestsRequest{})
}

func (h *DigestsHandler) list(c echo.Context, req *ListDigestsRequest) ([]model.Digest, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultDigestLimit
	}

	var since time.Time
	if req.Since != "" {
		since, _ = time.Parse(time.RFC3339, req.Since)
	}

	return h.digests.List(c.Request().Context(), limit, since)
}

type GetDigestRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *GetDigestRequest) Validate() error {
	return validation.Validator.Struct(r)
}

// Get returns one digest with its change events.
func (h *DigestsHandler) Get() echo.HandlerFunc {
	return Handle(h.Handler, h.get, http.StatusOK, &GetDigestRequest{})
}

func (h *DigestsHandler) get(c echo.Context, req *GetDigestRequest) (*model.Digest, error) {
	return h.digests.Get(c.Request().Context(), req.ID)
}
