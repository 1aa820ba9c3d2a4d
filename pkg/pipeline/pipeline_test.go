package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"

	"github.com/netgraph-io/netgraph/pkg/ai"
	"github.com/netgraph-io/netgraph/pkg/common"
	"github.com/netgraph-io/netgraph/pkg/extract"
	"github.com/netgraph-io/netgraph/pkg/store"
)

// memStore is an in-memory store.GraphStorage for pipeline tests.
type memStore struct {
	entities   map[string]common.Entity
	relations  map[string]common.Relationship
	reports    []common.CommunityReport
	embeddings map[string][]float32
	resets     int
	indexBuilt bool
	indexErr   error
}

func newMemStore() *memStore {
	return &memStore{
		entities:   make(map[string]common.Entity),
		relations:  make(map[string]common.Relationship),
		embeddings: make(map[string][]float32),
	}
}

func (m *memStore) Reset(_ context.Context) error {
	m.resets++
	m.entities = make(map[string]common.Entity)
	m.relations = make(map[string]common.Relationship)
	m.reports = nil
	m.embeddings = make(map[string][]float32)
	return nil
}

func (m *memStore) UpsertEntities(_ context.Context, entities []common.Entity) (int, error) {
	for _, e := range entities {
		m.entities[e.ID] = e
	}
	return len(entities), nil
}

func (m *memStore) UpsertRelationships(
	_ context.Context, relations []common.Relationship,
) (int, int, error) {
	missing := 0
	for _, r := range relations {
		if _, ok := m.entities[r.SourceID]; !ok {
			missing++
			continue
		}
		if _, ok := m.entities[r.TargetID]; !ok {
			missing++
			continue
		}
		m.relations[r.SourceID+"|"+r.TargetID+"|"+r.Type] = r
	}
	return len(relations) - missing, missing, nil
}

func (m *memStore) GetEntities(_ context.Context) ([]common.Entity, error) {
	out := make([]common.Entity, 0, len(m.entities))
	for _, e := range m.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetEntitiesByCommunity(_ context.Context, id string) ([]common.Entity, error) {
	var out []common.Entity
	for _, e := range m.entities {
		if e.CommunityID == id {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetRelationships(_ context.Context) ([]common.Relationship, error) {
	out := make([]common.Relationship, 0, len(m.relations))
	for _, r := range m.relations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SourceID+out[i].TargetID < out[j].SourceID+out[j].TargetID
	})
	return out, nil
}

func (m *memStore) ClearCommunityAssignments(_ context.Context) error {
	for id, e := range m.entities {
		e.CommunityID = ""
		m.entities[id] = e
	}
	return nil
}

func (m *memStore) AssignCommunities(_ context.Context, assignment map[string]string) error {
	for id, c := range assignment {
		if e, ok := m.entities[id]; ok {
			e.CommunityID = c
			m.entities[id] = e
		}
	}
	return nil
}

func (m *memStore) SaveReports(_ context.Context, reports []common.CommunityReport) error {
	m.reports = append(m.reports, reports...)
	return nil
}

func (m *memStore) GetReports(_ context.Context) ([]common.CommunityReport, error) {
	return m.reports, nil
}

func (m *memStore) UpdateEmbeddings(_ context.Context, embeddings map[string][]float32) error {
	for id, v := range embeddings {
		m.embeddings[id] = v
	}
	return nil
}

func (m *memStore) BuildVectorIndex(_ context.Context) error {
	if m.indexErr != nil {
		return m.indexErr
	}
	m.indexBuilt = true
	return nil
}

func (m *memStore) GetSimilarEntities(
	_ context.Context, _ []float32, _ int,
) ([]store.ScoredEntity, error) {
	return nil, store.ErrNoEmbeddings
}

func (m *memStore) GetNeighborhood(_ context.Context, _ []string) ([]store.Edge, error) {
	return nil, nil
}

// pipelineAI returns community reports for whatever IDs the prompt asked
// about and fixed embeddings for everything else.
type pipelineAI struct {
	formatCalls int
	reports     []common.CommunityReport
	embedErr    error
}

func (f *pipelineAI) GenerateCompletion(
	_ context.Context, _ string, _ ...ai.GenerateOption,
) (string, error) {
	return "", errors.New("not expected in ingestion")
}

func (f *pipelineAI) GenerateCompletionWithFormat(
	_ context.Context, _, _, _ string, out any, _ ...ai.GenerateOption,
) error {
	f.formatCalls++
	raw, err := json.Marshal(map[string]any{"reports": f.reports})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *pipelineAI) GenerateEmbedding(_ context.Context, _ []byte) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{0.5, 0.5}, nil
}

func (f *pipelineAI) ResetMetrics()               {}
func (f *pipelineAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{TotalTokens: 42} }

type memSink struct {
	saved map[string]any
}

func (s *memSink) SaveArtifact(_ context.Context, _, name string, value any) error {
	if s.saved == nil {
		s.saved = make(map[string]any)
	}
	s.saved[name] = value
	return nil
}

const twoDeviceCorpus = `# NODE 1: R1
network:
  ethernets:
    eth0:
      addresses: ["10.0.0.1/24"]
---
# NODE 2: R2
network:
  ethernets:
    eth1:
      addresses: ["10.0.0.2/24"]
`

func TestPipelineRun(t *testing.T) {
	st := newMemStore()
	aiClient := &pipelineAI{reports: []common.CommunityReport{
		{CommunityID: "0", Title: "Cluster 0", Summary: "first device", Rating: 50},
		{CommunityID: "1", Title: "Cluster 1", Summary: "second device", Rating: 50},
	}}
	sink := &memSink{}

	p := New(aiClient, st, extract.NewRuleExtractor(), Options{Reset: true, Seed: 1})
	p.Artifacts = sink

	result, err := p.Run(context.Background(), "run-1", twoDeviceCorpus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Documents != 2 || result.SkippedDocuments != 0 {
		t.Errorf("documents = %d/%d skipped, want 2/0", result.Documents, result.SkippedDocuments)
	}
	// per device: device, interface, IP
	if result.Entities != 6 {
		t.Errorf("entities = %d, want 6", result.Entities)
	}
	if result.Relationships != 4 || result.MissingEndpoints != 0 {
		t.Errorf("relationships = %d (missing %d), want 4 (missing 0)",
			result.Relationships, result.MissingEndpoints)
	}
	if result.Communities != 2 {
		t.Errorf("communities = %d, want 2", result.Communities)
	}
	if result.Reports != 2 {
		t.Errorf("reports = %d, want 2", result.Reports)
	}
	if result.Embedded != 6 {
		t.Errorf("embedded = %d, want 6", result.Embedded)
	}
	if result.Metrics.TotalTokens != 42 {
		t.Errorf("metrics not propagated: %+v", result.Metrics)
	}

	if st.resets != 1 {
		t.Errorf("resets = %d, want 1", st.resets)
	}
	if !st.indexBuilt {
		t.Error("vector index was not built")
	}
	// the two devices are disconnected, so they never share a community
	if st.entities["R1"].CommunityID == st.entities["R2"].CommunityID {
		t.Error("disconnected devices share a community")
	}

	for _, name := range []string{"extraction", "communities", "result"} {
		if _, ok := sink.saved[name]; !ok {
			t.Errorf("audit artifact %q was not saved", name)
		}
	}
}

func TestPipelineRunIdempotent(t *testing.T) {
	st := newMemStore()
	aiClient := &pipelineAI{reports: []common.CommunityReport{
		{CommunityID: "0", Title: "Cluster", Summary: "devices", Rating: 50},
		{CommunityID: "1", Title: "Cluster", Summary: "devices", Rating: 50},
	}}

	p := New(aiClient, st, extract.NewRuleExtractor(), Options{Seed: 1})

	first, err := p.Run(context.Background(), "run-1", twoDeviceCorpus)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := p.Run(context.Background(), "run-2", twoDeviceCorpus)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(st.entities) != 6 {
		t.Errorf("re-ingestion duplicated entities: %d", len(st.entities))
	}
	if len(st.relations) != 4 {
		t.Errorf("re-ingestion duplicated relationships: %d", len(st.relations))
	}
	if first.Entities != second.Entities || first.Relationships != second.Relationships {
		t.Errorf("runs disagree: %+v vs %+v", first, second)
	}
}

func TestPipelineIndexFailureIsNonFatal(t *testing.T) {
	st := newMemStore()
	st.indexErr = errors.New("hnsw unavailable")
	aiClient := &pipelineAI{reports: []common.CommunityReport{
		{CommunityID: "0"}, {CommunityID: "1"},
	}}

	p := New(aiClient, st, extract.NewRuleExtractor(), Options{Seed: 1})
	if _, err := p.Run(context.Background(), "run-1", twoDeviceCorpus); err != nil {
		t.Fatalf("index failure should not fail the run: %v", err)
	}
}

func TestPipelineEmbeddingFailureIsNonFatal(t *testing.T) {
	st := newMemStore()
	aiClient := &pipelineAI{
		embedErr: errors.New("embedding endpoint down"),
		reports: []common.CommunityReport{
			{CommunityID: "0"}, {CommunityID: "1"},
		},
	}

	p := New(aiClient, st, extract.NewRuleExtractor(), Options{Seed: 1})
	result, err := p.Run(context.Background(), "run-1", twoDeviceCorpus)
	if err != nil {
		t.Fatalf("embedding failure should not fail the run: %v", err)
	}

	if result.Embedded != 0 {
		t.Errorf("embedded = %d, want 0", result.Embedded)
	}
	// the graph itself is complete, only similarity search is unavailable
	if result.Entities != 6 || result.Reports != 2 {
		t.Errorf("entities = %d, reports = %d, want 6 and 2", result.Entities, result.Reports)
	}
	if len(st.embeddings) != 0 {
		t.Errorf("stored %d embeddings despite failure", len(st.embeddings))
	}
}

func TestPipelineSkipsBadDocuments(t *testing.T) {
	corpus := twoDeviceCorpus + "---\nnot a config at all\n"
	st := newMemStore()
	aiClient := &pipelineAI{reports: []common.CommunityReport{
		{CommunityID: "0"}, {CommunityID: "1"},
	}}

	p := New(aiClient, st, extract.NewRuleExtractor(), Options{Seed: 1})
	result, err := p.Run(context.Background(), "run-1", corpus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Documents != 2 || result.SkippedDocuments != 1 {
		t.Errorf("documents = %d/%d skipped, want 2/1", result.Documents, result.SkippedDocuments)
	}
}
