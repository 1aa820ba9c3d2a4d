package pgx

import (
	"context"
	"encoding/json"

	"github.com/netgraph-io/netgraph/internal/util"
	"github.com/netgraph-io/netgraph/pkg/common"
)

// ClearCommunityAssignments removes community membership from all entities.
func (s *GraphDBStorage) ClearCommunityAssignments(ctx context.Context) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	_, err := s.conn.Exec(ctx, `UPDATE entities SET community_id = NULL`)
	return err
}

// AssignCommunities sets the community of each listed entity.
func (s *GraphDBStorage) AssignCommunities(
	ctx context.Context,
	assignment map[string]string,
) error {
	if len(assignment) == 0 {
		return nil
	}

	ids := make([]string, 0, len(assignment))
	communities := make([]string, 0, len(assignment))
	for id, c := range assignment {
		ids = append(ids, id)
		communities = append(communities, c)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	_, err := s.conn.Exec(ctx, `
		UPDATE entities e
		SET community_id = a.community_id, updated_at = now()
		FROM unnest($1::text[], $2::text[]) AS a(id, community_id)
		WHERE e.id = a.id
	`, ids, communities)
	return err
}

// SaveReports upserts community reports keyed by community ID. Findings are
// stored as a JSON document alongside the scalar fields.
func (s *GraphDBStorage) SaveReports(
	ctx context.Context,
	reports []common.CommunityReport,
) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, r := range reports {
		findings, err := json.Marshal(r.Findings)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO community_reports
				(community_id, title, summary, rating, rating_explanation, findings)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (community_id) DO UPDATE SET
				title              = EXCLUDED.title,
				summary            = EXCLUDED.summary,
				rating             = EXCLUDED.rating,
				rating_explanation = EXCLUDED.rating_explanation,
				findings           = EXCLUDED.findings,
				updated_at         = now()
		`,
			r.CommunityID,
			util.SanitizePostgresText(r.Title),
			util.SanitizePostgresText(r.Summary),
			r.Rating,
			util.SanitizePostgresText(r.RatingExplanation),
			findings,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetReports returns all community reports ordered by rating, most important
// first.
func (s *GraphDBStorage) GetReports(ctx context.Context) ([]common.CommunityReport, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT community_id, title, summary, rating, rating_explanation, findings
		FROM community_reports
		ORDER BY rating DESC, community_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []common.CommunityReport
	for rows.Next() {
		var (
			r        common.CommunityReport
			findings []byte
		)
		if err := rows.Scan(
			&r.CommunityID, &r.Title, &r.Summary,
			&r.Rating, &r.RatingExplanation, &findings,
		); err != nil {
			return nil, err
		}
		if len(findings) > 0 {
			if err := json.Unmarshal(findings, &r.Findings); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
