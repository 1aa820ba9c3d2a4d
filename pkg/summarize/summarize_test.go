package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/netgraph-io/netgraph/pkg/ai"
	"github.com/netgraph-io/netgraph/pkg/common"
)

type fakeStore struct {
	entities map[string][]common.Entity
	rels     []common.Relationship
	saved    []common.CommunityReport
}

func (f *fakeStore) GetEntitiesByCommunity(_ context.Context, id string) ([]common.Entity, error) {
	return f.entities[id], nil
}

func (f *fakeStore) GetRelationships(_ context.Context) ([]common.Relationship, error) {
	return f.rels, nil
}

func (f *fakeStore) SaveReports(_ context.Context, reports []common.CommunityReport) error {
	f.saved = append(f.saved, reports...)
	return nil
}

// fakeFormatClient answers GenerateCompletionWithFormat with canned JSON,
// one response per call.
type fakeFormatClient struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeFormatClient) GenerateCompletion(
	_ context.Context, _ string, _ ...ai.GenerateOption,
) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeFormatClient) GenerateCompletionWithFormat(
	_ context.Context, _, _, prompt string, out any, _ ...ai.GenerateOption,
) error {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return f.errs[i]
	}
	if i < len(f.responses) {
		return json.Unmarshal([]byte(f.responses[i]), out)
	}
	return errors.New("no response configured")
}

func (f *fakeFormatClient) GenerateEmbedding(_ context.Context, _ []byte) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeFormatClient) ResetMetrics()               {}
func (f *fakeFormatClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func testStore() *fakeStore {
	return &fakeStore{
		entities: map[string][]common.Entity{
			"0": {
				{ID: "SPINE1", Type: common.TypeDevice, Description: "core router"},
				{ID: "SPINE1_ETH0", Type: common.TypeInterface, Description: "uplink"},
			},
			"1": {
				{ID: "LEAF1", Type: common.TypeDevice, Description: "leaf switch"},
			},
		},
		rels: []common.Relationship{
			{SourceID: "SPINE1", TargetID: "SPINE1_ETH0", Type: common.RelHasInterface, Strength: 10},
			{SourceID: "SPINE1", TargetID: "LEAF1", Type: common.RelConnectedTo, Strength: 10},
		},
	}
}

func TestSummarizeAll(t *testing.T) {
	st := testStore()
	client := &fakeFormatClient{
		responses: []string{`{"reports": [
			{"id": "0", "title": "Core cluster", "summary": "spine and uplink", "rating": 80},
			{"id": "1", "title": "Leaf", "summary": "single leaf", "rating": 40}
		]}`},
	}

	s := NewSummarizer(client, st)
	reports, err := s.SummarizeAll(context.Background(), []string{"0", "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if len(st.saved) != 2 {
		t.Fatalf("expected 2 saved reports, got %d", len(st.saved))
	}
	if client.calls != 1 {
		t.Errorf("expected 1 batched model call, got %d", client.calls)
	}

	prompt := client.prompts[0]
	if !strings.Contains(prompt, "--- COMMUNITY ID: 0 ---") ||
		!strings.Contains(prompt, "--- COMMUNITY ID: 1 ---") {
		t.Error("prompt is missing community headers")
	}
	// only intra-community relationships are listed
	if strings.Contains(prompt, "CONNECTED_TO") {
		t.Error("cross-community relationship leaked into a community listing")
	}
	if !strings.Contains(prompt, "HAS_INTERFACE") {
		t.Error("intra-community relationship missing from listing")
	}
}

func TestSummarizeAllDiscardsUnknownIDs(t *testing.T) {
	st := testStore()
	client := &fakeFormatClient{
		responses: []string{`{"reports": [
			{"id": "0", "title": "Core", "summary": "ok", "rating": 50},
			{"id": "99", "title": "Hallucinated", "summary": "not asked for", "rating": 10}
		]}`},
	}

	s := NewSummarizer(client, st)
	reports, err := s.SummarizeAll(context.Background(), []string{"0", "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 1 || reports[0].CommunityID != "0" {
		t.Fatalf("expected only report 0, got %+v", reports)
	}
}

func TestSummarizeAllBatchIsolation(t *testing.T) {
	st := testStore()
	client := &fakeFormatClient{
		responses: []string{"", "", `{"reports": [{"id": "1", "title": "Leaf", "summary": "ok", "rating": 30}]}`},
		errs:      []error{errors.New("model unavailable"), errors.New("model unavailable"), nil},
	}

	s := NewSummarizer(client, st)
	s.BatchSize = 1
	reports, err := s.SummarizeAll(context.Background(), []string{"0", "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// first batch fails both attempts, second succeeds
	if len(reports) != 1 || reports[0].CommunityID != "1" {
		t.Fatalf("expected surviving report for community 1, got %+v", reports)
	}
}

func TestSummarizeAllEmptyCommunities(t *testing.T) {
	st := &fakeStore{entities: map[string][]common.Entity{}}
	client := &fakeFormatClient{}

	s := NewSummarizer(client, st)
	reports, err := s.SummarizeAll(context.Background(), []string{"0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected no reports, got %d", len(reports))
	}
	if client.calls != 0 {
		t.Errorf("expected no model calls for empty communities, got %d", client.calls)
	}
}
