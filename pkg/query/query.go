// Package query defines the interface for answering questions over the
// network knowledge graph.
package query

import (
	"context"
)

// Mode selects the retrieval strategy for a question.
type Mode string

const (
	// ModeAuto lets the router pick between global and local search.
	ModeAuto Mode = "AUTO"
	// ModeGlobal answers from community reports via map-reduce.
	ModeGlobal Mode = "GLOBAL"
	// ModeLocal answers from vector-anchored graph traversal.
	ModeLocal Mode = "LOCAL"
)

// GraphQueryClient answers questions over an ingested knowledge graph.
type GraphQueryClient interface {
	// Route classifies a question into ModeGlobal or ModeLocal.
	Route(ctx context.Context, question string) (Mode, error)

	// QueryGlobal answers a holistic question from community reports.
	QueryGlobal(ctx context.Context, question string) (string, error)

	// QueryLocal answers an entity-level question by expanding the graph
	// around the entities most similar to the question.
	QueryLocal(ctx context.Context, question string) (string, error)

	// Answer dispatches the question according to mode, routing first when
	// mode is ModeAuto.
	Answer(ctx context.Context, question string, mode Mode) (string, error)
}
