package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/server"
	"github.com/pharmintel/pharmintel/internal/service"
	"github.com/pharmintel/pharmintel/internal/validation"
)

const defaultPaperLimit = 20

// DrugsHandler serves the drug browse/detail endpoints.
type DrugsHandler struct {
	Handler
	intel *service.IntelService
}

func NewDrugsHandler(s *server.Server, intel *service.IntelService) *DrugsHandler {
	return &DrugsHandler{
		Handler: NewHandler(s),
		intel:   intel,
	}
}

type ListDrugsRequest struct {
	Search string `query:"search" validate:"omitempty,max=200"`
}

func (r *ListDrugsRequest) Validate() error {
	return validation.Validator.Struct(r)
}

// List returns all tracked drugs, optionally filtered by a search term.
func (h *DrugsHandler) List() echo.HandlerFunc {
	return Handle(h.Handler, h.list, http.StatusOK, &ListDrugsRequest{})
}

func (h *DrugsHandler) list(c echo.Context, req *ListDrugsRequest) ([]model.Drug, error) {
	return h.intel.ListDrugs(c.Request().Context(), req.Search)
}

type GetDrugRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *GetDrugRequest) Validate() error {
	return validation.Validator.Struct(r)
}

// Get returns one drug with its targets, adverse events, and latest quote.
func (h *DrugsHandler) Get() echo.HandlerFunc {
	return Handle(h.Handler, h.get, http.StatusOK, &GetDrugRequest{})
}

func (h *DrugsHandler) get(c echo.Context, req *GetDrugRequest) (*service.DrugDetail, error) {
	return h.intel.GetDrug(c.Request().Context(), req.ID)
}

type ListTrialsRequest struct {
	DrugID int64 `param:"id" validate:"required,gt=0"`
}

func (r *ListTrialsRequest) Validate() error {
	return validation.Validator.Struct(r)
}

// ListTrials returns a drug's clinical trials, most recently updated first.
func (h *DrugsHandler) ListTrials() echo.HandlerFunc {
	return Handle(h.Handler, h.listTrials, http.StatusOK, &ListTrialsRequest{})
}

func (h *DrugsHandler) listTrials(c echo.Context, req *ListTrialsRequest) ([]model.Trial, error) {
	return h.intel.ListTrials(c.Request().Context(), req.DrugID)
}

type ListPapersRequest struct {
	DrugID int64 `param:"id" validate:"required,gt=0"`
	Limit  int   `query:"limit" validate:"omitempty,gte=1,lte=100"`
}

func (r *ListPapersRequest) Validate() error {
	return validation.Validator.Struct(r)
}

// ListPapers returns a drug's publications, newest first.
func (h *DrugsHandler) ListPapers() echo.HandlerFunc {
	return Handle(h.Handler, h.listPapers, http.StatusOK, &ListPapersRequest{})
}

func (h *DrugsHandler) listPapers(c echo.Context, req *ListPapersRequest) ([]model.Paper, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultPaperLimit
	}
	return h.intel.ListPapers(c.Request().Context(), req.DrugID, limit)
}
