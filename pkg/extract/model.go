package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/netgraph-io/netgraph/pkg/ai"
	"github.com/netgraph-io/netgraph/pkg/common"
	"github.com/netgraph-io/netgraph/pkg/logger"
	"github.com/netgraph-io/netgraph/pkg/netconf"
)

const (
	tupleDelimiter   = "<|>"
	recordDelimiter  = "##"
	completionMarker = "<|COMPLETE|>"
)

var entityTypeList = strings.Join([]string{
	common.TypeDevice,
	common.TypeInterface,
	common.TypeBond,
	common.TypeVLAN,
	common.TypeBridge,
	common.TypeSection,
	common.TypeIPAddress,
	common.TypeIPNetwork,
	common.TypeRoute,
}, ", ")

// ModelExtractor prompts an AI client per document and parses the delimited
// record stream it returns. Documents are processed in isolation: a failed
// document is logged and skipped without affecting the rest of the corpus.
type ModelExtractor struct {
	AI    ai.GraphAIClient
	Model string
}

func NewModelExtractor(client ai.GraphAIClient, model string) *ModelExtractor {
	return &ModelExtractor{AI: client, Model: model}
}

func (e *ModelExtractor) Extract(
	ctx context.Context,
	docs []*netconf.Document,
) (*Result, error) {
	acc := newAccumulator()

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompt := fmt.Sprintf(ai.ExtractPrompt,
			entityTypeList,
			tupleDelimiter, tupleDelimiter, tupleDelimiter,
			tupleDelimiter, tupleDelimiter, tupleDelimiter, tupleDelimiter,
			recordDelimiter,
			completionMarker,
			entityTypeList,
			doc.Raw,
		)

		opts := []ai.GenerateOption{}
		if e.Model != "" {
			opts = append(opts, ai.WithModel(e.Model))
		}

		res, err := e.AI.GenerateCompletion(ctx, prompt, opts...)
		if err != nil {
			logger.Warn("model extraction failed for document, skipping",
				"index", i, "device", doc.Name, "error", err)
			continue
		}

		entities, relationships := ParseRecords(res)
		for _, ent := range entities {
			acc.addEntity(ent)
		}
		for _, rel := range relationships {
			acc.addRelationship(rel)
		}
	}

	return &acc.result, nil
}

// ParseRecords parses the delimited record stream of an extraction response.
// The parser is deliberately tolerant: records that do not match the expected
// shape are dropped, never turned into errors, since a single malformed line
// should not discard an otherwise usable response.
func ParseRecords(output string) ([]common.Entity, []common.Relationship) {
	var (
		entities      []common.Entity
		relationships []common.Relationship
	)

	output = strings.ReplaceAll(output, completionMarker, "")

	for _, record := range strings.Split(output, recordDelimiter) {
		record = strings.TrimSpace(record)
		record = strings.TrimPrefix(record, "(")
		record = strings.TrimSuffix(record, ")")
		if record == "" {
			continue
		}

		fields := strings.Split(record, tupleDelimiter)
		for i := range fields {
			fields[i] = strings.Trim(strings.TrimSpace(fields[i]), `"'`)
		}

		kind := strings.ToLower(fields[0])
		switch {
		case strings.Contains(kind, "relationship") && len(fields) >= 5:
			strength, err := strconv.Atoi(strings.TrimSpace(fields[4]))
			if err != nil {
				// models occasionally emit "10/10" or prose here
				strength = 1
			}
			relationships = append(relationships, common.Relationship{
				SourceID:    common.NormalizeID(fields[1]),
				TargetID:    common.NormalizeID(fields[2]),
				Type:        common.RelConnectedTo,
				Description: common.CollapseWhitespace(fields[3]),
				Strength:    strength,
			})
		case strings.Contains(kind, "entity") && len(fields) >= 4:
			entities = append(entities, common.Entity{
				ID:          common.NormalizeID(fields[1]),
				Type:        common.NormalizeID(fields[2]),
				Description: common.CollapseWhitespace(fields[3]),
			})
		}
	}

	return entities, relationships
}
