package server

import (
	"github.com/labstack/echo/v4"

	"github.com/factfeed/factfeed/internal/server/middleware"
	"github.com/factfeed/factfeed/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Graph routes
	apiRoutes.GET("/graph", routes.GetGraphHandler)
	apiRoutes.GET("/graph/dot", routes.GetGraphDOTHandler)

	// Company routes
	apiRoutes.GET("/companies/:name/investments", routes.GetCompanyInvestmentsHandler)
	apiRoutes.GET("/companies/:name/investors", routes.GetCompanyInvestorsHandler)
	apiRoutes.GET("/investors/:name/portfolio", routes.GetInvestorPortfolioHandler)
	apiRoutes.GET("/co-investors", routes.GetCoInvestorsHandler)

	// Fact routes
	apiRoutes.GET("/investments", routes.GetInvestmentsHandler)
	apiRoutes.GET("/events", routes.GetEventsHandler)

	// Ingestion routes
	apiRoutes.POST("/refresh", routes.PostRefreshHandler)
}
