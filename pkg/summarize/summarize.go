// Package summarize generates structured community reports from the graph,
// batching several communities into one model call.
package summarize

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/netgraph-io/netgraph/internal/util"
	"github.com/netgraph-io/netgraph/pkg/ai"
	"github.com/netgraph-io/netgraph/pkg/common"
	"github.com/netgraph-io/netgraph/pkg/logger"
)

// defaultBatchSize is the number of communities summarized per model call.
const defaultBatchSize = 5

// ReportStore is the slice of graph storage the summarizer needs.
type ReportStore interface {
	GetEntitiesByCommunity(ctx context.Context, communityID string) ([]common.Entity, error)
	GetRelationships(ctx context.Context) ([]common.Relationship, error)
	SaveReports(ctx context.Context, reports []common.CommunityReport) error
}

// Summarizer batches communities into report-generation calls and persists
// the results.
type Summarizer struct {
	AI        ai.GraphAIClient
	Store     ReportStore
	Model     string
	BatchSize int
}

type reportBatch struct {
	Reports []common.CommunityReport `json:"reports"`
}

func NewSummarizer(client ai.GraphAIClient, store ReportStore) *Summarizer {
	return &Summarizer{AI: client, Store: store, BatchSize: defaultBatchSize}
}

// SummarizeAll generates one report per community ID and saves them. Batches
// are isolated: a failed batch is logged and skipped, the others still
// produce reports. Reports whose ID does not match any community in their
// batch are discarded.
func (s *Summarizer) SummarizeAll(
	ctx context.Context,
	communityIDs []string,
) ([]common.CommunityReport, error) {
	ids := make([]string, len(communityIDs))
	copy(ids, communityIDs)
	sort.Strings(ids)

	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	relations, err := s.Store.GetRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}

	var reports []common.CommunityReport
	for start := 0; start < len(ids); start += batchSize {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		end := min(start+batchSize, len(ids))
		batch := ids[start:end]

		got, err := s.summarizeBatch(ctx, batch, relations)
		if err != nil {
			logger.Warn("community report batch failed, skipping",
				"communities", batch, "error", err)
			continue
		}
		reports = append(reports, got...)
	}

	if len(reports) > 0 {
		if err := s.Store.SaveReports(ctx, reports); err != nil {
			return reports, fmt.Errorf("failed to save reports: %w", err)
		}
	}
	return reports, nil
}

func (s *Summarizer) summarizeBatch(
	ctx context.Context,
	communityIDs []string,
	relations []common.Relationship,
) ([]common.CommunityReport, error) {
	var listings []string
	members := make(map[string]map[string]bool, len(communityIDs))

	for _, id := range communityIDs {
		entities, err := s.Store.GetEntitiesByCommunity(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(entities) == 0 {
			continue
		}

		memberSet := make(map[string]bool, len(entities))
		var b strings.Builder
		fmt.Fprintf(&b, "--- COMMUNITY ID: %s ---\n", id)
		b.WriteString("Entities:\n")
		for _, e := range entities {
			memberSet[e.ID] = true
			fmt.Fprintf(&b, "- (%s) %s: %s\n", e.Type, e.ID, e.Description)
		}

		var rels []string
		for _, r := range relations {
			if memberSet[r.SourceID] && memberSet[r.TargetID] {
				rels = append(rels, fmt.Sprintf("- %s --[%s: %s]--> %s",
					r.SourceID, r.Type, r.Description, r.TargetID))
			}
		}
		if len(rels) > 0 {
			b.WriteString("Relationships:\n")
			b.WriteString(strings.Join(rels, "\n"))
			b.WriteString("\n")
		}

		members[id] = memberSet
		listings = append(listings, b.String())
	}

	if len(listings) == 0 {
		return nil, nil
	}

	prompt := fmt.Sprintf(ai.CommunityReportPrompt, strings.Join(listings, "\n"))

	opts := []ai.GenerateOption{}
	if s.Model != "" {
		opts = append(opts, ai.WithModel(s.Model))
	}

	var batch reportBatch
	err := util.RetryErrWithContext(ctx, 2, func(ctx context.Context) error {
		batch = reportBatch{}
		return s.AI.GenerateCompletionWithFormat(
			ctx,
			"community_reports",
			"Structured analysis reports for communities of network entities",
			prompt,
			&batch,
			opts...,
		)
	})
	if err != nil {
		return nil, err
	}

	out := make([]common.CommunityReport, 0, len(batch.Reports))
	for _, r := range batch.Reports {
		if _, ok := members[r.CommunityID]; !ok {
			logger.Warn("model returned report for unknown community, discarding",
				"community", r.CommunityID)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
