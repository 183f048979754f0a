package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, bulkHandler *BulkActionHandler) {
	server.POST("/api/v1/bulk-actions/:fileType", bulkHandler.Upload)
	server.GET("/api/v1/bulk-actions", bulkHandler.List)
	server.GET("/api/v1/bulk-actions/:actionId/detail", bulkHandler.Detail)
	server.GET("/api/v1/bulk-actions/:actionId/stats", bulkHandler.Stats)
	server.PUT("/api/v1/bulk-actions/error-logs/:errorLogId", bulkHandler.Remediate)
}
