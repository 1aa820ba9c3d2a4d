// Package store defines the persistence interface of the knowledge graph and
// the shared types returned by graph queries.
package store

import (
	"context"
	"errors"

	"github.com/netgraph-io/netgraph/pkg/common"
)

// ErrNoEmbeddings is returned by similarity search when no entity carries an
// embedding yet, i.e. ingestion has not built the vector index.
var ErrNoEmbeddings = errors.New("no entity embeddings present")

// ScoredEntity is an entity with its cosine similarity to a query vector.
type ScoredEntity struct {
	Entity     common.Entity
	Similarity float64
}

// Edge is a relationship with both endpoint entities resolved, as returned
// by neighborhood expansion.
type Edge struct {
	Source      common.Entity
	Target      common.Entity
	Type        string
	Description string
	Strength    int
}

// GraphStorage defines the interface for persisting and querying the network
// knowledge graph. Upserts are idempotent: re-ingesting the same corpus
// merges into existing rows instead of duplicating them.
type GraphStorage interface {
	// Reset removes all graph data: entities, relationships and reports.
	Reset(ctx context.Context) error

	// UpsertEntities writes entities keyed by ID and returns the number
	// of rows written.
	UpsertEntities(ctx context.Context, entities []common.Entity) (int, error)

	// UpsertRelationships writes relationships keyed by (source, target,
	// type). Relationships referencing a missing endpoint are dropped.
	// Returns the number written and the number dropped.
	UpsertRelationships(ctx context.Context, relations []common.Relationship) (int, int, error)

	// GetEntities returns all entities of the graph.
	GetEntities(ctx context.Context) ([]common.Entity, error)

	// GetEntitiesByCommunity returns the member entities of one community.
	GetEntitiesByCommunity(ctx context.Context, communityID string) ([]common.Entity, error)

	// GetRelationships returns all relationships of the graph.
	GetRelationships(ctx context.Context) ([]common.Relationship, error)

	// ClearCommunityAssignments removes all community membership before a
	// fresh detection run.
	ClearCommunityAssignments(ctx context.Context) error

	// AssignCommunities sets the community of each listed entity.
	AssignCommunities(ctx context.Context, assignment map[string]string) error

	// SaveReports upserts community reports keyed by community ID.
	SaveReports(ctx context.Context, reports []common.CommunityReport) error

	// GetReports returns all community reports.
	GetReports(ctx context.Context) ([]common.CommunityReport, error)

	// UpdateEmbeddings stores entity embeddings keyed by entity ID.
	UpdateEmbeddings(ctx context.Context, embeddings map[string][]float32) error

	// BuildVectorIndex (re)creates the similarity index over embeddings.
	BuildVectorIndex(ctx context.Context) error

	// GetSimilarEntities returns the limit entities nearest to the query
	// vector, most similar first. Returns ErrNoEmbeddings when no entity
	// has been embedded yet.
	GetSimilarEntities(ctx context.Context, embedding []float32, limit int) ([]ScoredEntity, error)

	// GetNeighborhood returns all edges touching any of the given entity
	// IDs, in either direction, with endpoints resolved.
	GetNeighborhood(ctx context.Context, entityIDs []string) ([]Edge, error)
}
