package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pharmintel/pharmintel/internal/errs"
	"github.com/pharmintel/pharmintel/internal/middleware"
	"github.com/pharmintel/pharmintel/internal/model"
	"github.com/pharmintel/pharmintel/internal/server"
	"github.com/pharmintel/pharmintel/internal/service"
	"github.com/pharmintel/pharmintel/internal/validation"
)

// WatchlistHandler serves the per-user watchlist CRUD endpoints. All
// routes sit behind the auth middleware, so a missing user ID is a
// programming error surfaced as 401.
type WatchlistHandler struct {
	Handler
	watchlists *service.WatchlistService
}

func NewWatchlistHandler(s *server.Server, watchlists *service.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{
		Handler:    NewHandler(s),
		watchlists: watchlists,
	}
}

func requireUserID(c echo.Context) (string, error) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return "", errs.NewUnauthorizedError("Unauthorized", false)
	}
	return userID, nil
}

type CreateWatchlistRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (r *CreateWatchlistRequest) Validate() error {
	return validation.Validator.Struct(r)
}

// Create makes a new empty watchlist owned by the caller.
func (h *WatchlistHandler) Create() echo.HandlerFunc {
	return Handle(h.Handler, h.create, http.StatusCreated, &CreateWatchlistRequest{})
}

func (h *WatchlistHandler) create(c echo.Context, req *CreateWatchlistRequest) (*model.Watchlist, error) {
	userID, err := requireUserID(c)
	if err != nil {
		return nil, err
	}
	return h.watchlists.Create(c.Request().Context(), userID, req.Name)
}

type ListWatchlistsRequest struct{}

func (r *ListWatchlistsRequest) Validate() error {
	return nil
}

// List returns the caller's watchlists without items.
func (h *WatchlistHandler) List() echo.HandlerFunc {
	return Handle(h.Handler, h.list, http.StatusOK, &ListWatchlistsRequest{})
}

func (h *WatchlistHandler) list(c echo.Context, _ *ListWatchlistsRequest) ([]model.Watchlist, error) {
	userID, err := requireUserID(c)
	if err != nil {
		return nil, err
	}
	return h.watchlists.List(c.Request().Context(), userID)
}

type GetWatchlistRequest struct {
	ID string `param:"id" validate:"required"`
}

func (r *GetWatchlistRequest) Validate() error {
	if err := validation.Validator.Struct(r); err != nil {
		return err
	}
	if !validation.IsValidUUID(r.ID) {
		return validation.CustomValidationErrors{
			{Field: "id", Message: "must be a valid UUID"},
		}
	}
	return nil
}

// Get returns one watchlist with its drugs. 404 when the list does not
// exist or belongs to another user.
func (h *WatchlistHandler) Get() echo.HandlerFunc {
	return Handle(h.Handler, h.get, http.StatusOK, &GetWatchlistRequest{})
}

func (h *WatchlistHandler) get(c echo.Context, req *GetWatchlistRequest) (*model.Watchlist, error) {
	userID, err := requireUserID(c)
	if err != nil {
		return nil, err
	}
	return h.watchlists.Get(c.Request().Context(), userID, uuid.MustParse(req.ID))
}

// Delete removes a watchlist and its items.
func (h *WatchlistHandler) Delete() echo.HandlerFunc {
	return HandleNoContent(h.Handler, h.delete, http.StatusNoContent, &GetWatchlistRequest{})
}

func (h *WatchlistHandler) delete(c echo.Context, req *GetWatchlistRequest) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	return h.watchlists.Delete(c.Request().Context(), userID, uuid.MustParse(req.ID))
}

type AddWatchlistItemRequest struct {
	ID     string `param:"id" validate:"required"`
	DrugID int64  `json:"drug_id" validate:"required,gt=0"`
}

func (r *AddWatchlistItemRequest) Validate() error {
	if err := validation.Validator.Struct(r); err != nil {
		return err
	}
	if !validation.IsValidUUID(r.ID) {
		return validation.CustomValidationErrors{
			{Field: "id", Message: "must be a valid UUID"},
		}
	}
	return nil
}

// AddItem puts a drug on a watchlist. Adding a drug that is already on
// the list succeeds without duplicating it.
func (h *WatchlistHandler) AddItem() echo.HandlerFunc {
	return Handle(h.Handler, h.addItem, http.StatusOK, &AddWatchlistItemRequest{})
}

func (h *WatchlistHandler) addItem(c echo.Context, req *AddWatchlistItemRequest) (*model.Watchlist, error) {
	userID, err := requireUserID(c)
	if err != nil {
		return nil, err
	}
	return h.watchlists.AddDrug(c.Request().Context(), userID, uuid.MustParse(req.ID), req.DrugID)
}

type RemoveWatchlistItemRequest struct {
	ID     string `param:"id" validate:"required"`
	DrugID int64  `param:"drug_id" validate:"required,gt=0"`
}

func (r *RemoveWatchlistItemRequest) Validate() error {
	if err := validation.Validator.Struct(r); err != nil {
		return err
	}
	if !validation.IsValidUUID(r.ID) {
		return validation.CustomValidationErrors{
			{Field: "id", Message: "must be a valid UUID"},
		}
	}
	return nil
}

// RemoveItem takes a drug off a watchlist.
func (h *WatchlistHandler) RemoveItem() echo.HandlerFunc {
	return HandleNoContent(h.Handler, h.removeItem, http.StatusNoContent, &RemoveWatchlistItemRequest{})
}

func (h *WatchlistHandler) removeItem(c echo.Context, req *RemoveWatchlistItemRequest) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	return h.watchlists.RemoveDrug(c.Request().Context(), userID, uuid.MustParse(req.ID), req.DrugID)
}
