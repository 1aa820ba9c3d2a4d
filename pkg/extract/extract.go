// Package extract turns parsed network configuration documents into graph
// entities and relationships. Two strategies are provided: a deterministic
// rule-based walker over the typed config tree and a model-assisted extractor
// that prompts an AI client with the raw document text.
package extract

import (
	"context"

	"github.com/netgraph-io/netgraph/pkg/common"
	"github.com/netgraph-io/netgraph/pkg/netconf"
)

// Result holds the deduplicated output of an extraction run.
type Result struct {
	Entities      []common.Entity
	Relationships []common.Relationship
}

// Extractor produces graph elements from a set of parsed documents.
type Extractor interface {
	Extract(ctx context.Context, docs []*netconf.Document) (*Result, error)
}

// accumulator collects entities and relationships while deduplicating.
// Entities merge on ID (longer description wins), relationships merge on
// (source, target, type) keeping the higher strength. Insertion order is
// preserved so output is deterministic for identical input.
type accumulator struct {
	entities  map[string]int
	relations map[relKey]int
	result    Result
}

type relKey struct {
	source, target, relType string
}

func newAccumulator() *accumulator {
	return &accumulator{
		entities:  make(map[string]int),
		relations: make(map[relKey]int),
	}
}

func (a *accumulator) addEntity(e common.Entity) {
	if e.ID == "" || e.ID == "UNKNOWN" {
		return
	}
	if i, ok := a.entities[e.ID]; ok {
		if len(e.Description) > len(a.result.Entities[i].Description) {
			a.result.Entities[i].Description = e.Description
		}
		return
	}
	a.entities[e.ID] = len(a.result.Entities)
	a.result.Entities = append(a.result.Entities, e)
}

func (a *accumulator) addRelationship(r common.Relationship) {
	// self-loops carry no information
	if r.SourceID == "" || r.TargetID == "" || r.SourceID == r.TargetID {
		return
	}
	key := relKey{r.SourceID, r.TargetID, r.Type}
	if i, ok := a.relations[key]; ok {
		if r.Strength > a.result.Relationships[i].Strength {
			a.result.Relationships[i].Strength = r.Strength
		}
		if len(r.Description) > len(a.result.Relationships[i].Description) {
			a.result.Relationships[i].Description = r.Description
		}
		return
	}
	a.relations[key] = len(a.result.Relationships)
	a.result.Relationships = append(a.result.Relationships, r)
}
