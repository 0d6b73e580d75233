package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pharmintel/pharmintel/internal/server"
	"github.com/pharmintel/pharmintel/internal/service"
	"github.com/pharmintel/pharmintel/internal/validation"
)

// ExportsHandler serves CSV downloads of the ingested data.
type ExportsHandler struct {
	Handler
	intel *service.IntelService
}

func NewExportsHandler(s *server.Server, intel *service.IntelService) *ExportsHandler {
	return &ExportsHandler{
		Handler: NewHandler(s),
		intel:   intel,
	}
}

type ExportTrialsRequest struct {
	DrugID *int64 `query:"drug_id" validate:"omitempty,gt=0"`
}

func (r *ExportTrialsRequest) Validate() error {
	return validation.Validator.Struct(r)
}

// ExportTrials streams all trials (or one drug's trials) as a CSV
// attachment.
func (h *ExportsHandler) ExportTrials() echo.HandlerFunc {
	return HandleFile(h.Handler, h.exportTrials, http.StatusOK, &ExportTrialsRequest{}, "trials.csv", "text/csv")
}

func (h *ExportsHandler) exportTrials(c echo.Context, req *ExportTrialsRequest) ([]byte, error) {
	return h.intel.ExportTrialsCSV(c.Request().Context(), req.DrugID)
}
