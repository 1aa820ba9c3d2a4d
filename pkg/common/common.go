package common

import (
	"regexp"
	"strings"
)

// Entity types used by both extraction strategies. The set is a flat tag
// vocabulary, not a hierarchy; unknown keys fall back to TypeSection.
const (
	TypeDevice    = "DEVICE"
	TypeInterface = "INTERFACE"
	TypeBond      = "BOND"
	TypeVLAN      = "VLAN"
	TypeBridge    = "BRIDGE"
	TypeSection   = "SECTION"
	TypeIPAddress = "IP_ADDRESS"
	TypeIPNetwork = "IP_NETWORK"
	TypeRoute     = "ROUTE"
)

// Relationship types. RelInCommunity is structural bookkeeping between an
// entity and its community report and is excluded from query-time traversal.
const (
	RelHasInterface = "HAS_INTERFACE"
	RelHasIP        = "HAS_IP"
	RelRoutesTo     = "ROUTES_TO"
	RelNextHop      = "NEXT_HOP"
	RelContains     = "CONTAINS"
	RelConnectedTo  = "CONNECTED_TO"
	RelAggregates   = "AGGREGATES"
	RelInCommunity  = "IN_COMMUNITY"
)

// Relationship strength conventions: higher means a more direct relation.
const (
	StrengthPhysical    = 10
	StrengthAggregation = 8
	StrengthRouting     = 6
)

// Entity represents a node in the knowledge graph. ID is the stable primary
// key; ingesting the same ID twice merges instead of duplicating.
type Entity struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"desc"`
	CommunityID string `json:"community_id,omitempty"`
}

// Relationship represents a directed, typed edge between two entities.
// Source and Target reference entities by their normalized IDs.
type Relationship struct {
	SourceID    string `json:"source"`
	TargetID    string `json:"target"`
	Type        string `json:"rel_type"`
	Description string `json:"desc,omitempty"`
	Strength    int    `json:"strength"`
}

// Finding is a single insight inside a community report.
type Finding struct {
	Summary     string `json:"summary"`
	Explanation string `json:"explanation,omitempty"`
}

// CommunityReport is the structured summary produced for one community.
// It is persisted as a first-class report node linked to its members.
type CommunityReport struct {
	CommunityID       string    `json:"id"`
	Title             string    `json:"title"`
	Summary           string    `json:"summary"`
	Rating            float64   `json:"rating"`
	RatingExplanation string    `json:"rating_explanation,omitempty"`
	Findings          []Finding `json:"findings,omitempty"`
}

var (
	reNonWord  = regexp.MustCompile(`[^\w]`)
	reUnders   = regexp.MustCompile(`_+`)
	spaceSplit = regexp.MustCompile(`\s+`)
)

// NormalizeID canonicalizes a raw identifier: uppercase, every run of
// non-alphanumeric characters collapsed to a single underscore, outer
// underscores trimmed. Deterministic: "Eth To Leaf3" and "ETH_TO_LEAF3"
// normalize to the same ID.
func NormalizeID(raw string) string {
	clean := strings.ToUpper(strings.TrimSpace(raw))
	if clean == "" {
		return "UNKNOWN"
	}
	clean = reNonWord.ReplaceAllString(clean, "_")
	clean = reUnders.ReplaceAllString(clean, "_")
	clean = strings.Trim(clean, "_")
	if clean == "" {
		return "UNKNOWN"
	}
	return clean
}

// CollapseWhitespace joins all whitespace runs in s into single spaces.
// Used to keep generated descriptions on one line.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(spaceSplit.ReplaceAllString(s, " "))
}
