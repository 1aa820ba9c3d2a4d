package pgx

import (
	"context"

	"github.com/netgraph-io/netgraph/internal/util"
	"github.com/netgraph-io/netgraph/pkg/common"
	"github.com/netgraph-io/netgraph/pkg/store"

	"github.com/pgvector/pgvector-go"
)

// UpsertEntities writes entities in batches, merging on ID. A transient batch
// failure is retried once before the whole call fails.
func (s *GraphDBStorage) UpsertEntities(
	ctx context.Context,
	entities []common.Entity,
) (int, error) {
	written := 0

	err := store.ChunkRange(len(entities), writeBatchSize, func(start, end int) error {
		chunk := entities[start:end]

		ids := make([]string, len(chunk))
		types := make([]string, len(chunk))
		descs := make([]string, len(chunk))
		for i, e := range chunk {
			ids[i] = e.ID
			types[i] = e.Type
			descs[i] = util.SanitizePostgresText(e.Description)
		}

		return util.RetryErrWithContext(ctx, 2, func(ctx context.Context) error {
			s.dbLock.Lock()
			defer s.dbLock.Unlock()

			tag, err := s.conn.Exec(ctx, `
				INSERT INTO entities (id, entity_type, description)
				SELECT * FROM unnest($1::text[], $2::text[], $3::text[])
				ON CONFLICT (id) DO UPDATE SET
					entity_type = EXCLUDED.entity_type,
					description = EXCLUDED.description,
					updated_at  = now()
			`, ids, types, descs)
			if err != nil {
				return err
			}
			written += int(tag.RowsAffected())
			return nil
		})
	})
	if err != nil {
		return written, err
	}

	return written, nil
}

// GetEntities returns all entities of the graph.
func (s *GraphDBStorage) GetEntities(ctx context.Context) ([]common.Entity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, entity_type, description, COALESCE(community_id, '')
		FROM entities
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntities(rows)
}

// GetEntitiesByCommunity returns the member entities of one community.
func (s *GraphDBStorage) GetEntitiesByCommunity(
	ctx context.Context,
	communityID string,
) ([]common.Entity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, entity_type, description, COALESCE(community_id, '')
		FROM entities
		WHERE community_id = $1
		ORDER BY id
	`, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntities(rows)
}

// UpdateEmbeddings stores entity embeddings keyed by entity ID.
func (s *GraphDBStorage) UpdateEmbeddings(
	ctx context.Context,
	embeddings map[string][]float32,
) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for id, vec := range embeddings {
		if _, err := tx.Exec(ctx, `
			UPDATE entities SET embedding = $2, updated_at = now() WHERE id = $1
		`, id, pgvector.NewVector(vec)); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// BuildVectorIndex creates the HNSW similarity index if it does not exist.
func (s *GraphDBStorage) BuildVectorIndex(ctx context.Context) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	_, err := s.conn.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS entities_embedding_idx
		ON entities USING hnsw (embedding vector_cosine_ops)
	`)
	return err
}

// GetSimilarEntities returns the limit nearest entities by cosine similarity.
func (s *GraphDBStorage) GetSimilarEntities(
	ctx context.Context,
	embedding []float32,
	limit int,
) ([]store.ScoredEntity, error) {
	var embedded int
	if err := s.conn.QueryRow(ctx, `
		SELECT count(*) FROM entities WHERE embedding IS NOT NULL
	`).Scan(&embedded); err != nil {
		return nil, err
	}
	if embedded == 0 {
		return nil, store.ErrNoEmbeddings
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, entity_type, description, COALESCE(community_id, ''),
		       1 - (embedding <=> $1) AS similarity
		FROM entities
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.ScoredEntity
	for rows.Next() {
		var se store.ScoredEntity
		if err := rows.Scan(
			&se.Entity.ID,
			&se.Entity.Type,
			&se.Entity.Description,
			&se.Entity.CommunityID,
			&se.Similarity,
		); err != nil {
			return nil, err
		}
		out = append(out, se)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEntities(rows rowScanner) ([]common.Entity, error) {
	var out []common.Entity
	for rows.Next() {
		var e common.Entity
		if err := rows.Scan(&e.ID, &e.Type, &e.Description, &e.CommunityID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
