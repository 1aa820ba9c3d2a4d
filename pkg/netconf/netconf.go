// Package netconf parses netplan-style network configuration text into a
// typed node tree. A corpus is one or more YAML documents separated by "---"
// markers, each describing a single device.
package netconf

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the node variants of a configuration tree.
type Kind int

const (
	KindScalar Kind = iota
	KindMapping
	KindSequence
)

// Node is one node of a parsed configuration document. Exactly one of the
// variant fields is populated, selected by Kind: Value for scalars, Entries
// (ordered) for mappings, Items for sequences.
type Node struct {
	Kind    Kind
	Value   string
	Entries []Entry
	Items   []*Node
}

// Entry is a single key/value pair of a mapping node. Order is preserved
// from the source document.
type Entry struct {
	Key  string
	Node *Node
}

// Get returns the child node for key, or nil if the mapping has no such key.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != KindMapping {
		return nil
	}
	for _, e := range n.Entries {
		if e.Key == key {
			return e.Node
		}
	}
	return nil
}

// Document is one device configuration block of a corpus.
type Document struct {
	// Name is the device name recovered from the "# NODE n: NAME (role)"
	// header comment, empty if the block carries none.
	Name string
	// Role is the parenthesized role annotation of the header, if present.
	Role string
	// Network is the tree under the top-level "network" key.
	Network *Node
	// Raw is the original document text.
	Raw string
}

var reNodeHeader = regexp.MustCompile(`#\s*NODE\s*\d+\s*:\s*([^(\n]+)(?:\(([^)]+)\))?`)

// SplitDocuments splits a multi-document corpus on standalone "---" marker
// lines and drops empty blocks.
func SplitDocuments(text string) []string {
	parts := strings.Split(text, "\n---")
	if strings.HasPrefix(strings.TrimSpace(text), "---") {
		trimmed := strings.TrimSpace(text)
		parts = strings.Split(strings.TrimPrefix(trimmed, "---"), "\n---")
	}

	docs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		docs = append(docs, p)
	}
	return docs
}

// ParseDocument parses one raw document block. The device name is taken from
// the header comment when present; a block without a "network" section is
// rejected so non-config noise between markers does not produce ghost devices.
func ParseDocument(raw string) (*Document, error) {
	doc := &Document{Raw: raw}

	if m := reNodeHeader.FindStringSubmatch(raw); m != nil {
		doc.Name = strings.TrimSpace(m[1])
		doc.Role = strings.TrimSpace(m[2])
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &root); err != nil {
		return nil, fmt.Errorf("invalid yaml document: %w", err)
	}

	tree, err := fromYAML(&root)
	if err != nil {
		return nil, err
	}

	network := tree.Get("network")
	if network == nil || network.Kind != KindMapping {
		return nil, fmt.Errorf("document has no network section")
	}
	doc.Network = network

	return doc, nil
}

// ParseCorpus splits and parses a whole corpus. Documents that fail to parse
// are skipped and reported in the second return value, keyed by their index
// in the corpus; valid documents are unaffected.
func ParseCorpus(text string) ([]*Document, map[int]error) {
	raws := SplitDocuments(text)
	docs := make([]*Document, 0, len(raws))
	failed := make(map[int]error)

	for i, raw := range raws {
		doc, err := ParseDocument(raw)
		if err != nil {
			failed[i] = err
			continue
		}
		docs = append(docs, doc)
	}
	return docs, failed
}

func fromYAML(n *yaml.Node) (*Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return &Node{Kind: KindMapping}, nil
		}
		return fromYAML(n.Content[0])
	case yaml.MappingNode:
		out := &Node{Kind: KindMapping, Entries: make([]Entry, 0, len(n.Content)/2)}
		for i := 0; i+1 < len(n.Content); i += 2 {
			child, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Entries = append(out.Entries, Entry{Key: n.Content[i].Value, Node: child})
		}
		return out, nil
	case yaml.SequenceNode:
		out := &Node{Kind: KindSequence, Items: make([]*Node, 0, len(n.Content))}
		for _, c := range n.Content {
			child, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, child)
		}
		return out, nil
	case yaml.ScalarNode:
		return &Node{Kind: KindScalar, Value: n.Value}, nil
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	default:
		return nil, fmt.Errorf("unsupported yaml node kind: %d", n.Kind)
	}
}
