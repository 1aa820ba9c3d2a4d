package pgx

import (
	"context"

	"github.com/netgraph-io/netgraph/internal/util"
	"github.com/netgraph-io/netgraph/pkg/common"
	"github.com/netgraph-io/netgraph/pkg/store"
)

// UpsertRelationships writes relationships in batches, merging on
// (source, target, type). Rows whose endpoints are not present in the
// entities table are silently dropped and counted; the extraction strategies
// can legitimately emit edges to entities another document failed to produce.
func (s *GraphDBStorage) UpsertRelationships(
	ctx context.Context,
	relations []common.Relationship,
) (int, int, error) {
	written := 0
	missing := 0

	err := store.ChunkRange(len(relations), writeBatchSize, func(start, end int) error {
		chunk := relations[start:end]

		sources := make([]string, len(chunk))
		targets := make([]string, len(chunk))
		types := make([]string, len(chunk))
		descs := make([]string, len(chunk))
		strengths := make([]int32, len(chunk))
		for i, r := range chunk {
			sources[i] = r.SourceID
			targets[i] = r.TargetID
			types[i] = r.Type
			descs[i] = util.SanitizePostgresText(r.Description)
			strengths[i] = int32(r.Strength)
		}

		return util.RetryErrWithContext(ctx, 2, func(ctx context.Context) error {
			s.dbLock.Lock()
			defer s.dbLock.Unlock()

			tag, err := s.conn.Exec(ctx, `
				WITH incoming AS (
					SELECT * FROM unnest(
						$1::text[], $2::text[], $3::text[], $4::text[], $5::int[]
					) AS t(source_id, target_id, rel_type, description, strength)
				)
				INSERT INTO relationships (source_id, target_id, rel_type, description, strength)
				SELECT i.source_id, i.target_id, i.rel_type, i.description, i.strength
				FROM incoming i
				JOIN entities src ON src.id = i.source_id
				JOIN entities tgt ON tgt.id = i.target_id
				ON CONFLICT (source_id, target_id, rel_type) DO UPDATE SET
					description = EXCLUDED.description,
					strength    = GREATEST(relationships.strength, EXCLUDED.strength),
					updated_at  = now()
			`, sources, targets, types, descs, strengths)
			if err != nil {
				return err
			}

			affected := int(tag.RowsAffected())
			written += affected
			missing += len(chunk) - affected
			return nil
		})
	})
	if err != nil {
		return written, missing, err
	}

	return written, missing, nil
}

// GetRelationships returns all relationships of the graph.
func (s *GraphDBStorage) GetRelationships(ctx context.Context) ([]common.Relationship, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT source_id, target_id, rel_type, description, strength
		FROM relationships
		ORDER BY source_id, target_id, rel_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []common.Relationship
	for rows.Next() {
		var r common.Relationship
		if err := rows.Scan(&r.SourceID, &r.TargetID, &r.Type, &r.Description, &r.Strength); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetNeighborhood returns all edges touching any of the given entity IDs, in
// either direction, with both endpoints resolved.
func (s *GraphDBStorage) GetNeighborhood(
	ctx context.Context,
	entityIDs []string,
) ([]store.Edge, error) {
	ids := store.DedupeStrings(entityIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT r.rel_type, r.description, r.strength,
		       src.id, src.entity_type, src.description, COALESCE(src.community_id, ''),
		       tgt.id, tgt.entity_type, tgt.description, COALESCE(tgt.community_id, '')
		FROM relationships r
		JOIN entities src ON src.id = r.source_id
		JOIN entities tgt ON tgt.id = r.target_id
		WHERE r.source_id = ANY($1) OR r.target_id = ANY($1)
		ORDER BY r.strength DESC, src.id, tgt.id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Edge
	for rows.Next() {
		var e store.Edge
		if err := rows.Scan(
			&e.Type, &e.Description, &e.Strength,
			&e.Source.ID, &e.Source.Type, &e.Source.Description, &e.Source.CommunityID,
			&e.Target.ID, &e.Target.Type, &e.Target.Description, &e.Target.CommunityID,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
