package base

import (
	"context"
	"strings"

	"github.com/netgraph-io/netgraph/pkg/ai"
	"github.com/netgraph-io/netgraph/pkg/logger"
	"github.com/netgraph-io/netgraph/pkg/query"
)

type routeDecision struct {
	Destination string `json:"destination"`
}

// Route classifies a question into global or local search. Routing fails
// open: any model failure or unexpected destination falls back to local
// search, which degrades gracefully to its own terminal messages.
func (c *BaseQueryClient) Route(
	ctx context.Context,
	question string,
) (query.Mode, error) {
	var decision routeDecision
	err := c.aiClient.GenerateCompletionWithFormat(
		ctx,
		"route_decision",
		"Retrieval strategy decision for a user question",
		question,
		&decision,
		c.generateOpts(ai.WithSystemPrompts(ai.RouterPrompt))...,
	)
	if err != nil {
		logger.Warn("query routing failed, falling back to local search", "error", err)
		return query.ModeLocal, nil
	}

	switch strings.ToUpper(strings.TrimSpace(decision.Destination)) {
	case string(query.ModeGlobal):
		return query.ModeGlobal, nil
	case string(query.ModeLocal):
		return query.ModeLocal, nil
	default:
		logger.Warn("router returned unknown destination, falling back to local search",
			"destination", decision.Destination)
		return query.ModeLocal, nil
	}
}
