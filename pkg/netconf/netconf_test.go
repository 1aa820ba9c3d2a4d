package netconf

import (
	"testing"
)

const sampleCorpus = `# NODE 1: SPINE ROUTER 01 (High Performance L3 Core)
network:
  version: 2
  ethernets:
    eth_to_leaf3:
      mtu: 9000
      addresses: ["10.0.1.1/30"]
---
# NODE 2: COMPUTE LEAF 01
network:
  bonds:
    bond_tor_compute:
      interfaces: [eth_downlink_srv8]
      parameters:
        mode: 802.3ad
---
just some stray text without config
---
network:
  ethernets:
    eno1:
      dhcp4: true
`

func TestSplitDocuments(t *testing.T) {
	docs := SplitDocuments(sampleCorpus)
	if len(docs) != 4 {
		t.Fatalf("expected 4 raw documents, got %d", len(docs))
	}
}

func TestSplitDocumentsEmpty(t *testing.T) {
	if docs := SplitDocuments("\n---\n---\n"); len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestParseDocumentHeader(t *testing.T) {
	raws := SplitDocuments(sampleCorpus)

	doc, err := ParseDocument(raws[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "SPINE ROUTER 01" {
		t.Errorf("Name = %q, want %q", doc.Name, "SPINE ROUTER 01")
	}
	if doc.Role != "High Performance L3 Core" {
		t.Errorf("Role = %q, want %q", doc.Role, "High Performance L3 Core")
	}

	eths := doc.Network.Get("ethernets")
	if eths == nil || eths.Kind != KindMapping {
		t.Fatal("expected ethernets mapping")
	}
	iface := eths.Get("eth_to_leaf3")
	if iface == nil {
		t.Fatal("expected eth_to_leaf3 entry")
	}
	addrs := iface.Get("addresses")
	if addrs == nil || addrs.Kind != KindSequence || len(addrs.Items) != 1 {
		t.Fatal("expected one address item")
	}
	if addrs.Items[0].Value != "10.0.1.1/30" {
		t.Errorf("address = %q, want %q", addrs.Items[0].Value, "10.0.1.1/30")
	}
}

func TestParseDocumentHeaderWithoutRole(t *testing.T) {
	raws := SplitDocuments(sampleCorpus)
	doc, err := ParseDocument(raws[1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "COMPUTE LEAF 01" {
		t.Errorf("Name = %q, want %q", doc.Name, "COMPUTE LEAF 01")
	}
	if doc.Role != "" {
		t.Errorf("Role = %q, want empty", doc.Role)
	}
}

func TestParseDocumentRejectsNonConfig(t *testing.T) {
	if _, err := ParseDocument("just some stray text without config"); err == nil {
		t.Fatal("expected error for block without network section")
	}
}

func TestParseCorpusIsolation(t *testing.T) {
	docs, failed := ParseCorpus(sampleCorpus)
	if len(docs) != 3 {
		t.Fatalf("expected 3 parsed documents, got %d", len(docs))
	}
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed document, got %d", len(failed))
	}
	// headerless but valid block still parses
	last := docs[2]
	if last.Name != "" {
		t.Errorf("expected empty name for headerless block, got %q", last.Name)
	}
}

func TestMappingOrderPreserved(t *testing.T) {
	doc, err := ParseDocument("network:\n  ethernets:\n    b_iface: {mtu: 1500}\n    a_iface: {mtu: 9000}\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eths := doc.Network.Get("ethernets")
	if len(eths.Entries) != 2 {
		t.Fatalf("expected 2 interfaces, got %d", len(eths.Entries))
	}
	if eths.Entries[0].Key != "b_iface" || eths.Entries[1].Key != "a_iface" {
		t.Errorf("mapping order not preserved: %q, %q", eths.Entries[0].Key, eths.Entries[1].Key)
	}
}
