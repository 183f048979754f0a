package bootstrap

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	app "github.com/crmkit/contact-ingest/internal/application/bulk"
	httpecho "github.com/crmkit/contact-ingest/internal/interfaces/http/echo"
)

func NewHTTPServer(submit app.SubmitBulkAction, queries app.BulkActionQueries, remediate app.RemediateErrorLog) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("25M"))

	bulkHandler := httpecho.NewBulkActionHandler(submit, queries, remediate)
	httpecho.RegisterRoutes(server, bulkHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	return server
}
