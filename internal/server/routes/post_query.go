package routes

import (
	"net/http"
	"strings"

	"github.com/netgraph-io/netgraph/internal/server/middleware"
	"github.com/netgraph-io/netgraph/pkg/logger"
	"github.com/netgraph-io/netgraph/pkg/query"
	bqc "github.com/netgraph-io/netgraph/pkg/query/base"
	graphstorage "github.com/netgraph-io/netgraph/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// QueryHandler answers a question over the ingested graph. Mode defaults to
// AUTO, which lets the router pick global or local search.
func QueryHandler(c echo.Context) error {
	type queryBody struct {
		Question string `json:"question" validate:"required"`
		Mode     string `json:"mode" validate:"omitempty,oneof=AUTO GLOBAL LOCAL auto global local"`
	}

	type queryResponse struct {
		Message string `json:"message,omitempty"`
		Answer  string `json:"answer,omitempty"`
		Mode    string `json:"mode,omitempty"`
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	mode := query.Mode(strings.ToUpper(data.Mode))
	if mode == "" {
		mode = query.ModeAuto
	}

	app := c.(*middleware.AppContext).App
	st := graphstorage.NewGraphDBStorageWithConnection(app.DBConn)
	client := bqc.NewBaseQueryClient(app.AiClient, st, bqc.Options{})

	ctx := c.Request().Context()

	if mode == query.ModeAuto {
		routed, err := client.Route(ctx, data.Question)
		if err != nil {
			logger.Error("Failed to route query", "err", err)
			return c.JSON(http.StatusInternalServerError, queryResponse{
				Message: "Failed to route query",
			})
		}
		mode = routed
	}

	answer, err := client.Answer(ctx, data.Question, mode)
	if err != nil {
		logger.Error("Query failed", "mode", mode, "err", err)
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Query failed",
		})
	}

	return c.JSON(http.StatusOK, queryResponse{
		Answer: answer,
		Mode:   string(mode),
	})
}
