package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/netgraph-io/netgraph/pkg/ai"
	"github.com/netgraph-io/netgraph/pkg/netconf"
)

// fakeAIClient returns canned responses per call and records prompts.
type fakeAIClient struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeAIClient) GenerateCompletion(
	_ context.Context,
	prompt string,
	_ ...ai.GenerateOption,
) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", nil
}

func (f *fakeAIClient) GenerateCompletionWithFormat(
	_ context.Context, _, _, _ string, _ any, _ ...ai.GenerateOption,
) error {
	return errors.New("not implemented")
}

func (f *fakeAIClient) GenerateEmbedding(_ context.Context, _ []byte) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAIClient) ResetMetrics()               {}
func (f *fakeAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

const sampleOutput = `("entity"<|>SPINE ROUTER 01<|>DEVICE<|>High performance L3 core router)##
("entity"<|>eth_to_leaf3<|>INTERFACE<|>Interface with MTU 9000)##
("relationship"<|>SPINE ROUTER 01<|>eth_to_leaf3<|>physical uplink to leaf 3<|>10)##
<|COMPLETE|>`

func TestParseRecords(t *testing.T) {
	entities, relationships := ParseRecords(sampleOutput)

	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}
	if entities[0].ID != "SPINE_ROUTER_01" || entities[0].Type != "DEVICE" {
		t.Errorf("unexpected first entity: %+v", entities[0])
	}
	if entities[1].ID != "ETH_TO_LEAF3" {
		t.Errorf("unexpected second entity id: %q", entities[1].ID)
	}

	if len(relationships) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(relationships))
	}
	rel := relationships[0]
	if rel.SourceID != "SPINE_ROUTER_01" || rel.TargetID != "ETH_TO_LEAF3" {
		t.Errorf("unexpected relationship endpoints: %+v", rel)
	}
	if rel.Strength != 10 {
		t.Errorf("strength = %d, want 10", rel.Strength)
	}
}

func TestParseRecordsTolerance(t *testing.T) {
	tests := []struct {
		name   string
		output string
		ents   int
		rels   int
	}{
		{"empty", "", 0, 0},
		{"garbage", "the model rambled instead of emitting records", 0, 0},
		{"short entity dropped", `("entity"<|>only_name)`, 0, 0},
		{"short relationship dropped", `("relationship"<|>a<|>b<|>desc)`, 0, 0},
		{
			"bad strength coerced",
			`("relationship"<|>a<|>b<|>uplink<|>very strong)`,
			0, 1,
		},
		{
			"quotes stripped",
			`("entity"<|>"spine1"<|>'DEVICE'<|>"core router")`,
			1, 0,
		},
		{
			"case insensitive kind",
			`("Entity"<|>spine1<|>DEVICE<|>core)##("RELATIONSHIP"<|>a<|>b<|>link<|>6)`,
			1, 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities, relationships := ParseRecords(tt.output)
			if len(entities) != tt.ents {
				t.Errorf("entities = %d, want %d", len(entities), tt.ents)
			}
			if len(relationships) != tt.rels {
				t.Errorf("relationships = %d, want %d", len(relationships), tt.rels)
			}
		})
	}
}

func TestParseRecordsBadStrengthDefaultsToOne(t *testing.T) {
	_, relationships := ParseRecords(`("relationship"<|>a<|>b<|>uplink<|>10/10)`)
	if len(relationships) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(relationships))
	}
	if relationships[0].Strength != 1 {
		t.Errorf("strength = %d, want fallback 1", relationships[0].Strength)
	}
}

func TestModelExtractorDocumentIsolation(t *testing.T) {
	corpus := "# NODE 1: R1\nnetwork:\n  ethernets:\n    eth0: {dhcp4: true}\n---\n# NODE 2: R2\nnetwork:\n  ethernets:\n    eth1: {dhcp4: true}\n"
	docs, _ := netconf.ParseCorpus(corpus)
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	fake := &fakeAIClient{
		responses: []string{"", `("entity"<|>R2<|>DEVICE<|>second router)`},
		errs:      []error{errors.New("model unavailable"), nil},
	}

	res, err := NewModelExtractor(fake, "").Extract(context.Background(), docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", fake.calls)
	}
	if len(res.Entities) != 1 || res.Entities[0].ID != "R2" {
		t.Fatalf("expected only R2 entity, got %+v", res.Entities)
	}
}

func TestModelExtractorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs, _ := netconf.ParseCorpus("network:\n  ethernets:\n    eth0: {dhcp4: true}\n")
	fake := &fakeAIClient{}

	if _, err := NewModelExtractor(fake, "").Extract(ctx, docs); err == nil {
		t.Fatal("expected context error")
	}
	if fake.calls != 0 {
		t.Errorf("expected no model calls after cancellation, got %d", fake.calls)
	}
}
