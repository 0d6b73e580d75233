package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pharmintel/pharmintel/internal/agent"
	"github.com/pharmintel/pharmintel/internal/server"
	"github.com/pharmintel/pharmintel/internal/validation"
)

// QueryHandler serves the natural-language query endpoint backed by the
// agent orchestrator.
type QueryHandler struct {
	Handler
	agents *agent.Orchestrator
}

func NewQueryHandler(s *server.Server, agents *agent.Orchestrator) *QueryHandler {
	return &QueryHandler{
		Handler: NewHandler(s),
		agents:  agents,
	}
}

type QueryRequest struct {
	Query string `json:"query" validate:"required,max=500"`
}

func (r *QueryRequest) Validate() error {
	return validation.Validator.Struct(r)
}

// Query classifies the question, fans it out to the matching agents, and
// returns their merged answer.
func (h *QueryHandler) Query() echo.HandlerFunc {
	return Handle(h.Handler, h.query, http.StatusOK, &QueryRequest{})
}

func (h *QueryHandler) query(c echo.Context, req *QueryRequest) (*agent.Answer, error) {
	return h.agents.Query(c.Request().Context(), req.Query)
}
