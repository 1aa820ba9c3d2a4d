// Package base implements the default query client over a graph store and an
// AI client.
package base

import (
	"context"
	"fmt"

	"github.com/netgraph-io/netgraph/pkg/common"
	"github.com/netgraph-io/netgraph/pkg/query"
	"github.com/netgraph-io/netgraph/pkg/store"

	"github.com/netgraph-io/netgraph/pkg/ai"
)

// Fixed responses for states where no model call can help. They are returned
// verbatim so callers and tests can match on them.
const (
	MsgNoReports = "No community reports are available yet. Run ingestion before asking global questions."
	MsgNoIndex   = "The entity vector index has not been built yet. Run ingestion before asking local questions."
	MsgNoAnchor  = "I could not find any device or entity in the graph related to this question."
	MsgNoContext = "I found a matching device but no connectivity information for it in the graph."
)

// QueryStore is the slice of graph storage the query client needs.
type QueryStore interface {
	GetReports(ctx context.Context) ([]common.CommunityReport, error)
	GetSimilarEntities(ctx context.Context, embedding []float32, limit int) ([]store.ScoredEntity, error)
	GetNeighborhood(ctx context.Context, entityIDs []string) ([]store.Edge, error)
}

// Options tunes the query client. Zero values select the defaults.
type Options struct {
	// Model overrides the AI client's default completion model.
	Model string
	// MapChunkSize is the number of reports scored per map call.
	MapChunkSize int
	// TopPoints caps the ranked map points passed into the reduce step.
	TopPoints int
	// AnchorLimit is the number of vector-search anchors for local search.
	AnchorLimit int
	// MaxHops bounds the traversal depth of local search.
	MaxHops int
	// HopDecay is the per-hop score multiplier of local search.
	HopDecay float64
	// TokenBudget bounds the rendered local context size in tokens.
	TokenBudget int
	// Seed fixes the report shuffle order of global search. Zero picks a
	// time-based seed.
	Seed int64
}

func (o *Options) applyDefaults() {
	if o.MapChunkSize <= 0 {
		o.MapChunkSize = 5
	}
	if o.TopPoints <= 0 {
		o.TopPoints = 50
	}
	if o.AnchorLimit <= 0 {
		o.AnchorLimit = 5
	}
	if o.MaxHops <= 0 {
		o.MaxHops = 2
	}
	if o.HopDecay <= 0 || o.HopDecay > 1 {
		o.HopDecay = 0.5
	}
	if o.TokenBudget <= 0 {
		o.TokenBudget = 6000
	}
}

// BaseQueryClient implements query.GraphQueryClient.
type BaseQueryClient struct {
	aiClient ai.GraphAIClient
	store    QueryStore
	options  Options
}

var _ query.GraphQueryClient = (*BaseQueryClient)(nil)

// NewBaseQueryClient creates a query client over the given store and AI
// client.
func NewBaseQueryClient(
	aiClient ai.GraphAIClient,
	st QueryStore,
	options Options,
) *BaseQueryClient {
	options.applyDefaults()
	return &BaseQueryClient{
		aiClient: aiClient,
		store:    st,
		options:  options,
	}
}

// Answer dispatches the question according to mode, routing first when mode
// is ModeAuto.
func (c *BaseQueryClient) Answer(
	ctx context.Context,
	question string,
	mode query.Mode,
) (string, error) {
	if mode == "" || mode == query.ModeAuto {
		routed, err := c.Route(ctx, question)
		if err != nil {
			return "", err
		}
		mode = routed
	}

	switch mode {
	case query.ModeGlobal:
		return c.QueryGlobal(ctx, question)
	case query.ModeLocal:
		return c.QueryLocal(ctx, question)
	default:
		return "", fmt.Errorf("unknown query mode: %s", mode)
	}
}

func (c *BaseQueryClient) generateOpts(extra ...ai.GenerateOption) []ai.GenerateOption {
	opts := make([]ai.GenerateOption, 0, len(extra)+1)
	if c.options.Model != "" {
		opts = append(opts, ai.WithModel(c.options.Model))
	}
	return append(opts, extra...)
}
