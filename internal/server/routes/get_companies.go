package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/factfeed/factfeed/internal/server/middleware"
	"github.com/factfeed/factfeed/pkg/graph"
)

type neighborResponse struct {
	Name string      `json:"name"`
	Edge *graph.Edge `json:"edge"`
}

func toNeighborResponses(neighbors []graph.Neighbor) []neighborResponse {
	out := make([]neighborResponse, 0, len(neighbors))
	for _, n := range neighbors {
		out = append(out, neighborResponse{Name: n.Name, Edge: n.Edge})
	}
	return out
}

func GetCompanyInvestmentsHandler(c echo.Context) error {
	type getCompanyInvestmentsParams struct {
		Name string `param:"name" validate:"required"`
	}

	params := new(getCompanyInvestmentsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	g := c.(*middleware.AppContext).App.Graph.Graph()
	edges := g.InvestmentsFor(params.Name)
	if edges == nil {
		edges = []*graph.Edge{}
	}
	return c.JSON(http.StatusOK, edges)
}

func GetCompanyInvestorsHandler(c echo.Context) error {
	type getCompanyInvestorsParams struct {
		Name string `param:"name" validate:"required"`
	}

	params := new(getCompanyInvestorsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	g := c.(*middleware.AppContext).App.Graph.Graph()
	return c.JSON(http.StatusOK, toNeighborResponses(g.InvestorsOf(params.Name)))
}

func GetInvestorPortfolioHandler(c echo.Context) error {
	type getInvestorPortfolioParams struct {
		Name string `param:"name" validate:"required"`
	}

	params := new(getInvestorPortfolioParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	g := c.(*middleware.AppContext).App.Graph.Graph()
	return c.JSON(http.StatusOK, toNeighborResponses(g.PortfolioOf(params.Name)))
}

func GetCoInvestorsHandler(c echo.Context) error {
	type getCoInvestorsParams struct {
		Limit int `query:"limit"`
	}

	params := new(getCoInvestorsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	g := c.(*middleware.AppContext).App.Graph.Graph()
	pairs := g.TopCoInvestorPairs(params.Limit)
	if pairs == nil {
		pairs = []graph.CoInvestorPair{}
	}
	return c.JSON(http.StatusOK, pairs)
}
