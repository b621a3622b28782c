package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/factfeed/factfeed/internal/server/middleware"
	"github.com/factfeed/factfeed/pkg/common"
)

func GetInvestmentsHandler(c echo.Context) error {
	type getInvestmentsParams struct {
		DaysBack int `query:"days_back"`
	}

	params := new(getInvestmentsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if params.DaysBack <= 0 {
		params.DaysBack = 30
	}

	ctx := c.Request().Context()
	factStore := c.(*middleware.AppContext).App.Store

	investments, err := factStore.LoadInvestments(ctx, params.DaysBack)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if investments == nil {
		investments = []common.Investment{}
	}
	return c.JSON(http.StatusOK, investments)
}

func GetEventsHandler(c echo.Context) error {
	type getEventsParams struct {
		DaysAhead int `query:"days_ahead"`
	}

	params := new(getEventsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if params.DaysAhead <= 0 {
		params.DaysAhead = 90
	}

	ctx := c.Request().Context()
	factStore := c.(*middleware.AppContext).App.Store

	events, err := factStore.LoadEvents(ctx, params.DaysAhead)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if events == nil {
		events = []common.Event{}
	}
	return c.JSON(http.StatusOK, events)
}
