package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/factfeed/factfeed/internal/server/middleware"
	"github.com/factfeed/factfeed/pkg/graph"
)

func GetGraphHandler(c echo.Context) error {
	type getGraphResponse struct {
		BuiltAt time.Time      `json:"built_at"`
		Graph   graph.Document `json:"graph"`
	}

	state := c.(*middleware.AppContext).App.Graph
	return c.JSON(http.StatusOK, getGraphResponse{
		BuiltAt: state.BuiltAt(),
		Graph:   state.Graph().Export(),
	})
}

func GetGraphDOTHandler(c echo.Context) error {
	state := c.(*middleware.AppContext).App.Graph
	return c.Blob(http.StatusOK, "text/vnd.graphviz", []byte(state.Graph().DOT()))
}
