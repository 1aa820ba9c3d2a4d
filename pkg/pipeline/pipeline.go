// Package pipeline orchestrates the full ingestion flow: parse, extract,
// ingest, detect communities, summarize and build the vector index.
package pipeline

import (
	"context"
	"fmt"

	"github.com/netgraph-io/netgraph/pkg/ai"
	"github.com/netgraph-io/netgraph/pkg/common"
	"github.com/netgraph-io/netgraph/pkg/community"
	"github.com/netgraph-io/netgraph/pkg/extract"
	"github.com/netgraph-io/netgraph/pkg/logger"
	"github.com/netgraph-io/netgraph/pkg/netconf"
	"github.com/netgraph-io/netgraph/pkg/store"
	"github.com/netgraph-io/netgraph/pkg/summarize"
)

// ArtifactSink persists named JSON audit artifacts of a pipeline run.
// Implementations must tolerate being called with any JSON-serializable
// value.
type ArtifactSink interface {
	SaveArtifact(ctx context.Context, runID, name string, value any) error
}

// Result summarizes one ingestion run.
type Result struct {
	Documents        int `json:"documents"`
	SkippedDocuments int `json:"skipped_documents"`
	Entities         int `json:"entities"`
	Relationships    int `json:"relationships"`
	MissingEndpoints int `json:"missing_endpoints"`
	Communities      int `json:"communities"`
	Reports          int `json:"reports"`
	Embedded         int `json:"embedded"`

	Metrics ai.ModelMetrics `json:"model_metrics"`
}

// Options tunes a pipeline run.
type Options struct {
	// Reset wipes the graph before ingesting.
	Reset bool
	// Resolution is passed through to community detection.
	Resolution float64
	// Seed fixes community detection order.
	Seed int64
}

// Pipeline wires the ingestion stages together. Artifacts is optional; when
// set, the extraction output, community assignment and final result of every
// run are saved for audit.
type Pipeline struct {
	AI         ai.GraphAIClient
	Store      store.GraphStorage
	Extractor  extract.Extractor
	Summarizer *summarize.Summarizer
	Artifacts  ArtifactSink
	Options    Options
}

func New(
	aiClient ai.GraphAIClient,
	st store.GraphStorage,
	extractor extract.Extractor,
	opts Options,
) *Pipeline {
	return &Pipeline{
		AI:         aiClient,
		Store:      st,
		Extractor:  extractor,
		Summarizer: summarize.NewSummarizer(aiClient, st),
		Options:    opts,
	}
}

// Run ingests one corpus end to end and returns the run counts. The
// embedding stage, the vector index build and the audit artifacts are
// non-fatal: their failure is logged and the run still succeeds, with local
// search degrading to its missing-index response. Everything else fails the
// run.
func (p *Pipeline) Run(ctx context.Context, runID, corpus string) (*Result, error) {
	p.AI.ResetMetrics()
	result := &Result{}

	docs, failed := netconf.ParseCorpus(corpus)
	result.Documents = len(docs)
	result.SkippedDocuments = len(failed)
	for idx, err := range failed {
		logger.Warn("skipping unparseable document", "index", idx, "error", err)
	}

	if p.Options.Reset {
		if err := p.Store.Reset(ctx); err != nil {
			return result, fmt.Errorf("failed to reset graph: %w", err)
		}
	}

	extracted, err := p.Extractor.Extract(ctx, docs)
	if err != nil {
		return result, fmt.Errorf("extraction failed: %w", err)
	}
	p.saveArtifact(ctx, runID, "extraction", extracted)

	if err := p.ingest(ctx, extracted, result); err != nil {
		return result, err
	}

	assignment, err := p.detectCommunities(ctx)
	if err != nil {
		return result, err
	}
	result.Communities = len(community.Members(assignment))
	p.saveArtifact(ctx, runID, "communities", assignment)

	reports, err := p.summarizeCommunities(ctx, assignment)
	if err != nil {
		return result, err
	}
	result.Reports = len(reports)

	if embedded, err := p.buildEmbeddings(ctx); err != nil {
		logger.Warn("embedding generation failed, similarity search stays unavailable", "error", err)
	} else {
		result.Embedded = embedded
	}

	if err := p.Store.BuildVectorIndex(ctx); err != nil {
		logger.Warn("vector index build failed, similarity search falls back to scans", "error", err)
	}

	result.Metrics = p.AI.GetMetrics()
	p.saveArtifact(ctx, runID, "result", result)

	logger.Info("ingestion finished",
		"documents", result.Documents,
		"entities", result.Entities,
		"relationships", result.Relationships,
		"communities", result.Communities,
		"reports", result.Reports,
	)
	return result, nil
}

func (p *Pipeline) ingest(ctx context.Context, extracted *extract.Result, result *Result) error {
	written, err := p.Store.UpsertEntities(ctx, extracted.Entities)
	if err != nil {
		return fmt.Errorf("failed to write entities: %w", err)
	}
	result.Entities = written

	relWritten, missing, err := p.Store.UpsertRelationships(ctx, extracted.Relationships)
	if err != nil {
		return fmt.Errorf("failed to write relationships: %w", err)
	}
	result.Relationships = relWritten
	result.MissingEndpoints = missing
	if missing > 0 {
		logger.Warn("dropped relationships with missing endpoints", "count", missing)
	}
	return nil
}

// detectCommunities projects the stored graph onto a weighted undirected
// graph and runs Louvain over it. Every stored entity is a node, so isolated
// entities still get a community.
func (p *Pipeline) detectCommunities(ctx context.Context) (map[string]string, error) {
	entities, err := p.Store.GetEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}
	relations, err := p.Store.GetRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}

	g := community.NewGraph()
	for _, e := range entities {
		g.AddNode(e.ID)
	}
	for _, r := range relations {
		if r.Type == common.RelInCommunity {
			continue
		}
		g.AddEdge(r.SourceID, r.TargetID, float64(r.Strength))
	}

	assignment := community.Detect(g, community.Options{
		Resolution: p.Options.Resolution,
		Seed:       p.Options.Seed,
	})

	if err := p.Store.ClearCommunityAssignments(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear community assignments: %w", err)
	}
	if err := p.Store.AssignCommunities(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to assign communities: %w", err)
	}
	return assignment, nil
}

func (p *Pipeline) summarizeCommunities(
	ctx context.Context,
	assignment map[string]string,
) ([]common.CommunityReport, error) {
	members := community.Members(assignment)
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}

	reports, err := p.Summarizer.SummarizeAll(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("community summarization failed: %w", err)
	}
	return reports, nil
}

// buildEmbeddings embeds every entity's rendered description and stores the
// vectors.
func (p *Pipeline) buildEmbeddings(ctx context.Context) (int, error) {
	entities, err := p.Store.GetEntities(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load entities: %w", err)
	}
	if len(entities) == 0 {
		return 0, nil
	}

	inputs := make([][]byte, len(entities))
	for i, e := range entities {
		inputs[i] = []byte(fmt.Sprintf("%s (%s): %s", e.ID, e.Type, e.Description))
	}

	vectors, err := store.GenerateEmbeddings(ctx, p.AI, inputs)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	embeddings := make(map[string][]float32, len(entities))
	for i, e := range entities {
		embeddings[e.ID] = vectors[i]
	}
	if err := p.Store.UpdateEmbeddings(ctx, embeddings); err != nil {
		return 0, fmt.Errorf("failed to store embeddings: %w", err)
	}
	return len(embeddings), nil
}

func (p *Pipeline) saveArtifact(ctx context.Context, runID, name string, value any) {
	if p.Artifacts == nil {
		return
	}
	if err := p.Artifacts.SaveArtifact(ctx, runID, name, value); err != nil {
		logger.Warn("failed to save audit artifact", "name", name, "error", err)
	}
}
