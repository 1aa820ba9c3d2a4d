package routes

import (
	"net/http"

	"github.com/netgraph-io/netgraph/internal/server/middleware"
	"github.com/netgraph-io/netgraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StatusHandler reports the size of the ingested graph.
func StatusHandler(c echo.Context) error {
	type statusResponse struct {
		Message       string `json:"message,omitempty"`
		Entities      int    `json:"entities"`
		Relationships int    `json:"relationships"`
		Communities   int    `json:"communities"`
		Reports       int    `json:"reports"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	var res statusResponse
	err := app.DBConn.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM entities),
			(SELECT count(*) FROM relationships),
			(SELECT count(DISTINCT community_id) FROM entities WHERE community_id IS NOT NULL),
			(SELECT count(*) FROM community_reports)
	`).Scan(&res.Entities, &res.Relationships, &res.Communities, &res.Reports)
	if err != nil {
		logger.Error("Failed to load graph status", "err", err)
		return c.JSON(http.StatusInternalServerError, statusResponse{
			Message: "Failed to load graph status",
		})
	}

	return c.JSON(http.StatusOK, res)
}
