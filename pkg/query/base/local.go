package base

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/netgraph-io/netgraph/pkg/ai"
	"github.com/netgraph-io/netgraph/pkg/common"
	"github.com/netgraph-io/netgraph/pkg/store"
)

// scoredTriple is one rendered graph edge with its traversal relevance.
type scoredTriple struct {
	edge  store.Edge
	score float64
}

// QueryLocal answers an entity-level question: the question is embedded, the
// nearest entities anchor a bounded multi-hop expansion, and the resulting
// triples are ranked, token-budgeted and handed to the model as context.
// Triple relevance decays by HopDecay per hop away from its anchor, so
// direct neighbors of a strong anchor always outrank distant ones.
func (c *BaseQueryClient) QueryLocal(
	ctx context.Context,
	question string,
) (string, error) {
	embedding, err := c.aiClient.GenerateEmbedding(ctx, []byte(question))
	if err != nil {
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	anchors, err := c.store.GetSimilarEntities(ctx, embedding, c.options.AnchorLimit)
	if err != nil {
		if errors.Is(err, store.ErrNoEmbeddings) {
			return MsgNoIndex, nil
		}
		return "", fmt.Errorf("vector search failed: %w", err)
	}
	if len(anchors) == 0 {
		return MsgNoAnchor, nil
	}

	triples, err := c.expand(ctx, anchors)
	if err != nil {
		return "", err
	}
	if len(triples) == 0 {
		return MsgNoContext, nil
	}

	contextData := c.renderBudgeted(triples)

	prompt := fmt.Sprintf(ai.LocalSearchPrompt, contextData, question)
	return c.aiClient.GenerateCompletion(ctx, prompt, c.generateOpts()...)
}

// expand walks up to MaxHops outward from the anchors, deduplicating edges on
// (source, target, type) and keeping the highest score per edge.
func (c *BaseQueryClient) expand(
	ctx context.Context,
	anchors []store.ScoredEntity,
) ([]scoredTriple, error) {
	entityScore := make(map[string]float64, len(anchors))
	frontier := make([]string, 0, len(anchors))
	for _, a := range anchors {
		entityScore[a.Entity.ID] = a.Similarity
		frontier = append(frontier, a.Entity.ID)
	}

	type edgeKey struct {
		source, target, relType string
	}
	best := make(map[edgeKey]int)
	var triples []scoredTriple

	for hop := 1; hop <= c.options.MaxHops && len(frontier) > 0; hop++ {
		edges, err := c.store.GetNeighborhood(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("neighborhood expansion failed: %w", err)
		}

		var next []string
		for _, e := range edges {
			if e.Type == common.RelInCommunity {
				continue
			}

			srcScore, srcKnown := entityScore[e.Source.ID]
			tgtScore, tgtKnown := entityScore[e.Target.ID]
			origin := max(srcScore, tgtScore)
			if !srcKnown && !tgtKnown {
				continue
			}

			key := edgeKey{e.Source.ID, e.Target.ID, e.Type}
			if i, ok := best[key]; ok {
				if origin > triples[i].score {
					triples[i].score = origin
				}
			} else {
				best[key] = len(triples)
				triples = append(triples, scoredTriple{edge: e, score: origin})
			}

			discovered := origin * c.options.HopDecay
			if !srcKnown || entityScore[e.Source.ID] < discovered {
				if !srcKnown {
					next = append(next, e.Source.ID)
				}
				if entityScore[e.Source.ID] < discovered {
					entityScore[e.Source.ID] = discovered
				}
			}
			if !tgtKnown || entityScore[e.Target.ID] < discovered {
				if !tgtKnown {
					next = append(next, e.Target.ID)
				}
				if entityScore[e.Target.ID] < discovered {
					entityScore[e.Target.ID] = discovered
				}
			}
		}
		frontier = store.DedupeStrings(next)
	}

	return triples, nil
}

// renderBudgeted renders triples best-first until the token budget is spent.
func (c *BaseQueryClient) renderBudgeted(triples []scoredTriple) string {
	sort.SliceStable(triples, func(i, j int) bool { return triples[i].score > triples[j].score })

	var (
		b    strings.Builder
		used int
	)
	for _, t := range triples {
		line := renderTriple(t.edge)
		cost := CountTokens(line)
		if used+cost > c.options.TokenBudget {
			break
		}
		used += cost
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderTriple(e store.Edge) string {
	desc := e.Type
	if e.Description != "" {
		desc += ": " + e.Description
	}
	return fmt.Sprintf("(%s) %s --[%s]--> (%s) %s",
		e.Source.Type, e.Source.ID, desc, e.Target.Type, e.Target.ID)
}
