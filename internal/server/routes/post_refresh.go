package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/factfeed/factfeed/internal/queue"
	"github.com/factfeed/factfeed/internal/server/middleware"
)

// PostRefreshHandler publishes refresh jobs for the worker. Kind selects
// which queues receive a job; default is both.
func PostRefreshHandler(c echo.Context) error {
	type postRefreshParams struct {
		Kind      string `json:"kind" validate:"omitempty,oneof=investments events all"`
		DaysBack  int    `json:"days_back" validate:"omitempty,min=1"`
		DaysAhead int    `json:"days_ahead" validate:"omitempty,min=1"`
	}

	type postRefreshResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id"`
	}

	params := new(postRefreshParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, postRefreshResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, postRefreshResponse{Message: "Invalid request params"})
	}
	if params.Kind == "" {
		params.Kind = "all"
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, postRefreshResponse{Message: "Internal server error"})
	}

	msg := queue.RefreshMsg{
		Message:       "Refresh requested",
		CorrelationID: correlationID,
		DaysBack:      params.DaysBack,
		DaysAhead:     params.DaysAhead,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, postRefreshResponse{Message: "Internal server error"})
	}

	ch := c.(*middleware.AppContext).App.Queue

	if params.Kind == "investments" || params.Kind == "all" {
		if err := queue.PublishFIFO(ch, queue.InvestmentRefreshQueue, msgBytes); err != nil {
			return c.JSON(http.StatusInternalServerError, postRefreshResponse{Message: "Failed to publish refresh job"})
		}
	}
	if params.Kind == "events" || params.Kind == "all" {
		if err := queue.PublishFIFO(ch, queue.EventRefreshQueue, msgBytes); err != nil {
			return c.JSON(http.StatusInternalServerError, postRefreshResponse{Message: "Failed to publish refresh job"})
		}
	}

	return c.JSON(http.StatusAccepted, postRefreshResponse{
		Message:       "Refresh scheduled",
		CorrelationID: correlationID,
	})
}
