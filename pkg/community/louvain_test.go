package community

import (
	"fmt"
	"testing"
)

// twoCliques builds two internally dense clusters joined by nothing.
func twoCliques() *Graph {
	g := NewGraph()
	left := []string{"SPINE1", "LEAF1", "LEAF2", "SRV1"}
	right := []string{"SPINE2", "LEAF3", "LEAF4", "SRV2"}
	for _, group := range [][]string{left, right} {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				g.AddEdge(group[i], group[j], 10)
			}
		}
	}
	return g
}

func TestDetectEmptyGraph(t *testing.T) {
	if got := Detect(NewGraph(), Options{}); len(got) != 0 {
		t.Fatalf("expected empty assignment, got %v", got)
	}
	if got := Detect(nil, Options{}); len(got) != 0 {
		t.Fatalf("expected empty assignment for nil graph, got %v", got)
	}
}

func TestDetectDisconnectedClusters(t *testing.T) {
	assignment := Detect(twoCliques(), Options{Seed: 42})

	if len(assignment) != 8 {
		t.Fatalf("expected 8 assigned nodes, got %d", len(assignment))
	}
	if assignment["SPINE1"] == assignment["SPINE2"] {
		t.Error("disconnected clusters ended up in the same community")
	}
	if assignment["SPINE1"] != assignment["LEAF1"] || assignment["LEAF1"] != assignment["SRV1"] {
		t.Errorf("left clique split: %v", assignment)
	}
	if assignment["SPINE2"] != assignment["LEAF3"] || assignment["LEAF3"] != assignment["SRV2"] {
		t.Errorf("right clique split: %v", assignment)
	}
}

func TestDetectFullCoverage(t *testing.T) {
	g := twoCliques()
	g.AddNode("ISOLATED")

	assignment := Detect(g, Options{Seed: 1})
	for _, n := range g.nodes {
		if _, ok := assignment[n]; !ok {
			t.Errorf("node %s not assigned", n)
		}
	}
	iso := assignment["ISOLATED"]
	for n, c := range assignment {
		if n != "ISOLATED" && c == iso {
			t.Errorf("isolated node shares community with %s", n)
		}
	}
}

func TestDetectDeterminism(t *testing.T) {
	a := Detect(twoCliques(), Options{Seed: 7})
	b := Detect(twoCliques(), Options{Seed: 7})

	if len(a) != len(b) {
		t.Fatal("assignments differ in size")
	}
	for n, c := range a {
		if b[n] != c {
			t.Fatalf("node %s: %q vs %q", n, c, b[n])
		}
	}
}

func TestDetectBridgedClusters(t *testing.T) {
	g := twoCliques()
	// single weak link between the cliques should not merge them
	g.AddEdge("LEAF2", "LEAF3", 1)

	assignment := Detect(g, Options{Seed: 3})
	if assignment["SPINE1"] == assignment["SPINE2"] {
		t.Error("weakly bridged clusters were merged")
	}
}

func TestDetectStarTopology(t *testing.T) {
	g := NewGraph()
	for i := 0; i < 5; i++ {
		g.AddEdge("CORE", fmt.Sprintf("LEAF%d", i), 10)
	}

	assignment := Detect(g, Options{Seed: 9})
	if len(assignment) != 6 {
		t.Fatalf("expected 6 assigned nodes, got %d", len(assignment))
	}
	core := assignment["CORE"]
	same := 0
	for i := 0; i < 5; i++ {
		if assignment[fmt.Sprintf("LEAF%d", i)] == core {
			same++
		}
	}
	if same == 0 {
		t.Error("no leaf shares a community with its hub")
	}
}

func TestMembers(t *testing.T) {
	members := Members(map[string]string{"B": "0", "A": "0", "C": "1"})
	if len(members["0"]) != 2 || members["0"][0] != "A" || members["0"][1] != "B" {
		t.Errorf("unexpected members of community 0: %v", members["0"])
	}
	if len(members["1"]) != 1 || members["1"][0] != "C" {
		t.Errorf("unexpected members of community 1: %v", members["1"])
	}
}

func TestAddEdgeIgnoresSelfLoops(t *testing.T) {
	g := NewGraph()
	g.AddEdge("A", "A", 5)
	if g.NodeCount() != 0 {
		t.Fatalf("self-loop created nodes: %d", g.NodeCount())
	}
}
