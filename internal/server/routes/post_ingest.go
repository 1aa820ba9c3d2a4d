package routes

import (
	"encoding/json"
	"net/http"

	"github.com/netgraph-io/netgraph/internal/queue"
	"github.com/netgraph-io/netgraph/internal/server/middleware"
	"github.com/netgraph-io/netgraph/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// IngestHandler enqueues an ingestion job for a configuration corpus. The
// corpus is accepted inline or as an object key; the worker does the heavy
// lifting.
func IngestHandler(c echo.Context) error {
	type ingestBody struct {
		Corpus   string `json:"corpus"`
		S3Key    string `json:"s3_key"`
		Strategy string `json:"strategy" validate:"omitempty,oneof=rules model"`
		Reset    bool   `json:"reset"`
	}

	type ingestResponse struct {
		Message string `json:"message"`
		RunID   string `json:"run_id,omitempty"`
	}

	data := new(ingestBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}
	if data.Corpus == "" && data.S3Key == "" {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Either corpus or s3_key is required",
		})
	}

	runID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Failed to create run ID",
		})
	}

	msg := queue.IngestMessage{
		RunID:    runID,
		Corpus:   data.Corpus,
		S3Key:    data.S3Key,
		Strategy: data.Strategy,
		Reset:    data.Reset,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Failed to encode job",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.IngestQueue, payload); err != nil {
		logger.Error("Failed to enqueue ingestion job", "run_id", runID, "err", err)
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Failed to enqueue job",
		})
	}

	return c.JSON(http.StatusAccepted, ingestResponse{
		Message: "Ingestion queued",
		RunID:   runID,
	})
}
