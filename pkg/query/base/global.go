package base

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/netgraph-io/netgraph/pkg/ai"
	"github.com/netgraph-io/netgraph/pkg/common"
	"github.com/netgraph-io/netgraph/pkg/logger"
)

type mapPoint struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

type mapResponse struct {
	Points []mapPoint `json:"points"`
}

// QueryGlobal answers a holistic question from community reports with a
// map-reduce pass: report chunks are scored for relevant points in parallel
// map calls, the top-ranked points are synthesized in a single reduce call.
// Without any reports the fixed MsgNoReports is returned and no model is
// called.
func (c *BaseQueryClient) QueryGlobal(
	ctx context.Context,
	question string,
) (string, error) {
	reports, err := c.store.GetReports(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load community reports: %w", err)
	}
	if len(reports) == 0 {
		return MsgNoReports, nil
	}

	seed := c.options.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(reports), func(i, j int) { reports[i], reports[j] = reports[j], reports[i] })

	points := c.mapReports(ctx, question, reports)
	if len(points) == 0 {
		return "The available community reports contain no information relevant to this question.", nil
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Score > points[j].Score })
	if len(points) > c.options.TopPoints {
		points = points[:c.options.TopPoints]
	}

	var data strings.Builder
	for _, p := range points {
		fmt.Fprintf(&data, "- (relevance %.0f) %s\n", p.Score, p.Description)
	}

	prompt := fmt.Sprintf(ai.GlobalReducePrompt, question, data.String())
	return c.aiClient.GenerateCompletion(ctx, prompt, c.generateOpts()...)
}

// mapReports scores report chunks against the question. A failed chunk is
// logged and skipped so one bad model response cannot sink the whole query.
func (c *BaseQueryClient) mapReports(
	ctx context.Context,
	question string,
	reports []common.CommunityReport,
) []mapPoint {
	var points []mapPoint

	for start := 0; start < len(reports); start += c.options.MapChunkSize {
		if ctx.Err() != nil {
			return points
		}
		end := min(start+c.options.MapChunkSize, len(reports))
		chunk := reports[start:end]

		prompt := fmt.Sprintf(ai.GlobalMapPrompt, question, renderReports(chunk))

		var res mapResponse
		if err := c.aiClient.GenerateCompletionWithFormat(
			ctx,
			"map_points",
			"Relevant points extracted from community reports, with relevance scores",
			prompt,
			&res,
			c.generateOpts()...,
		); err != nil {
			logger.Warn("global map call failed, skipping chunk",
				"reports", len(chunk), "error", err)
			continue
		}

		points = append(points, res.Points...)
	}

	return points
}

func renderReports(reports []common.CommunityReport) string {
	var b strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&b, "--- Report (%s): %s ---\n%s\n", r.CommunityID, r.Title, r.Summary)
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "- %s: %s\n", f.Summary, f.Explanation)
		}
		b.WriteString("\n")
	}
	return b.String()
}
