package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/netgraph-io/netgraph/pkg/common"
	"github.com/netgraph-io/netgraph/pkg/logger"
	"github.com/netgraph-io/netgraph/pkg/netconf"
)

// keyLabels maps raw configuration keys to human-readable labels used when
// rendering entity descriptions.
var keyLabels = map[string]string{
	"mtu":         "MTU size",
	"addresses":   "assigned IPs",
	"gateway4":    "gateway",
	"gateway6":    "IPv6 gateway",
	"id":          "VLAN ID",
	"link":        "uplink bond",
	"to":          "destination",
	"via":         "next-hop",
	"metric":      "route metric",
	"interfaces":  "member interfaces",
	"mode":        "bond mode",
	"parameters":  "bond parameters",
	"dhcp4":       "DHCP",
	"nameservers": "DNS config",
	"routes":      "static routes",
}

// sections are the netplan container keys the walker descends into, mapped
// to the default entity type of their children.
var sections = map[string]string{
	"ethernets": common.TypeInterface,
	"bonds":     common.TypeBond,
	"vlans":     common.TypeVLAN,
	"bridges":   common.TypeBridge,
}

var interfacePrefixes = []string{"eth", "eno", "ens", "enp", "wan", "lan"}

// RuleExtractor walks parsed configuration trees and derives entities and
// relationships deterministically, without any model call. Identical input
// yields identical output.
type RuleExtractor struct{}

func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{}
}

// Extract processes every document in isolation. A document yields one device
// entity plus one entity per interface, bond, VLAN and bridge, each prefixed
// with the device ID so identically-named interfaces on different devices
// stay distinct.
func (e *RuleExtractor) Extract(
	_ context.Context,
	docs []*netconf.Document,
) (*Result, error) {
	acc := newAccumulator()

	for i, doc := range docs {
		name := doc.Name
		if name == "" {
			name = fmt.Sprintf("DEVICE_%d", i+1)
			logger.Warn("document has no device header, using fallback name", "name", name)
		}
		e.extractDevice(acc, name, doc)
	}

	return &acc.result, nil
}

func (e *RuleExtractor) extractDevice(acc *accumulator, name string, doc *netconf.Document) {
	deviceID := common.NormalizeID(name)

	desc := "Network device " + name
	if doc.Role != "" {
		desc += " (" + doc.Role + ")"
	}
	acc.addEntity(common.Entity{ID: deviceID, Type: common.TypeDevice, Description: desc})

	for _, section := range doc.Network.Entries {
		defaultType, ok := sections[section.Key]
		if !ok || section.Node.Kind != netconf.KindMapping {
			// version, renderer and unknown scalar keys carry no topology
			continue
		}
		for _, comp := range section.Node.Entries {
			e.extractComponent(acc, deviceID, section.Key, defaultType, comp)
		}
	}
}

func (e *RuleExtractor) extractComponent(
	acc *accumulator,
	deviceID, section, defaultType string,
	comp netconf.Entry,
) {
	compID := deviceID + "_" + common.NormalizeID(comp.Key)
	compType := classify(comp.Key, defaultType)

	acc.addEntity(common.Entity{
		ID:          compID,
		Type:        compType,
		Description: describe(comp.Key, compType, comp.Node),
	})

	relType := common.RelContains
	if compType == common.TypeInterface {
		relType = common.RelHasInterface
	}
	acc.addRelationship(common.Relationship{
		SourceID:    deviceID,
		TargetID:    compID,
		Type:        relType,
		Description: strings.TrimSuffix(section, "s") + " " + comp.Key,
		Strength:    common.StrengthPhysical,
	})

	if comp.Node.Kind != netconf.KindMapping {
		return
	}

	if addrs := comp.Node.Get("addresses"); addrs != nil {
		e.extractAddresses(acc, compID, addrs)
	}
	if routes := comp.Node.Get("routes"); routes != nil {
		e.extractRoutes(acc, deviceID, compID, routes)
	}
	if members := comp.Node.Get("interfaces"); members != nil {
		e.extractMembers(acc, deviceID, compID, compType, members)
	}
	if link := comp.Node.Get("link"); link != nil && link.Kind == netconf.KindScalar {
		acc.addRelationship(common.Relationship{
			SourceID:    compID,
			TargetID:    deviceID + "_" + common.NormalizeID(link.Value),
			Type:        common.RelConnectedTo,
			Description: "uplink bond " + link.Value,
			Strength:    common.StrengthAggregation,
		})
	}
}

func (e *RuleExtractor) extractAddresses(acc *accumulator, compID string, addrs *netconf.Node) {
	for _, item := range scalars(addrs) {
		ipID := common.NormalizeID(item)
		acc.addEntity(common.Entity{
			ID:          ipID,
			Type:        common.TypeIPAddress,
			Description: "IP address " + item,
		})
		acc.addRelationship(common.Relationship{
			SourceID:    compID,
			TargetID:    ipID,
			Type:        common.RelHasIP,
			Description: "assigned IP " + item,
			Strength:    common.StrengthPhysical,
		})
	}
}

// extractRoutes emits one ROUTES_TO edge per route from the carrying
// component to the destination network, and anchors the NEXT_HOP edge on the
// device itself since the gateway is a device-level forwarding decision.
func (e *RuleExtractor) extractRoutes(acc *accumulator, deviceID, compID string, routes *netconf.Node) {
	if routes.Kind != netconf.KindSequence {
		return
	}
	for _, route := range routes.Items {
		if route.Kind != netconf.KindMapping {
			continue
		}
		to := scalarValue(route.Get("to"))
		via := scalarValue(route.Get("via"))
		metric := scalarValue(route.Get("metric"))

		if to != "" {
			destID := common.NormalizeID(to)
			acc.addEntity(common.Entity{
				ID:          destID,
				Type:        common.TypeIPNetwork,
				Description: "IP network " + to,
			})
			desc := "static route to " + to
			if via != "" {
				desc += " via " + via
			}
			if metric != "" {
				desc += " (metric " + metric + ")"
			}
			acc.addRelationship(common.Relationship{
				SourceID:    compID,
				TargetID:    destID,
				Type:        common.RelRoutesTo,
				Description: desc,
				Strength:    common.StrengthRouting,
			})
		}

		if via != "" {
			viaID := common.NormalizeID(via)
			acc.addEntity(common.Entity{
				ID:          viaID,
				Type:        common.TypeIPAddress,
				Description: "IP address " + via,
			})
			acc.addRelationship(common.Relationship{
				SourceID:    deviceID,
				TargetID:    viaID,
				Type:        common.RelNextHop,
				Description: "next-hop " + via,
				Strength:    common.StrengthRouting,
			})
		}
	}
}

func (e *RuleExtractor) extractMembers(
	acc *accumulator,
	deviceID, compID, compType string,
	members *netconf.Node,
) {
	relType := common.RelContains
	if compType == common.TypeBond {
		relType = common.RelAggregates
	}
	for _, member := range scalars(members) {
		memberID := deviceID + "_" + common.NormalizeID(member)
		acc.addEntity(common.Entity{
			ID:          memberID,
			Type:        common.TypeInterface,
			Description: "Interface " + member,
		})
		acc.addRelationship(common.Relationship{
			SourceID:    compID,
			TargetID:    memberID,
			Type:        relType,
			Description: "member interface " + member,
			Strength:    common.StrengthAggregation,
		})
	}
}

// classify picks an entity type from the component name, falling back to the
// default type of its section.
func classify(name, defaultType string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "bond"):
		return common.TypeBond
	case strings.Contains(lower, "vlan"):
		return common.TypeVLAN
	case strings.Contains(lower, "bridge"), strings.Contains(lower, "br0"):
		return common.TypeBridge
	}
	for _, p := range interfacePrefixes {
		if strings.HasPrefix(lower, p) {
			return common.TypeInterface
		}
	}
	if defaultType != "" {
		return defaultType
	}
	return common.TypeSection
}

// describe renders a one-line description of a component from its settings,
// using the semantic key labels where known.
func describe(name, compType string, node *netconf.Node) string {
	var b strings.Builder
	b.WriteString(titleCase(compType))
	b.WriteString(" ")
	b.WriteString(name)

	if node == nil || node.Kind != netconf.KindMapping {
		return b.String()
	}

	var parts []string
	for _, entry := range node.Entries {
		label, ok := keyLabels[entry.Key]
		if !ok {
			label = entry.Key
		}
		switch entry.Node.Kind {
		case netconf.KindScalar:
			parts = append(parts, label+": "+entry.Node.Value)
		case netconf.KindSequence:
			if vals := scalars(entry.Node); len(vals) > 0 {
				parts = append(parts, label+": "+strings.Join(vals, ", "))
			}
		case netconf.KindMapping:
			if inner := renderMapping(entry.Node); inner != "" {
				parts = append(parts, label+": "+inner)
			}
		}
	}
	if len(parts) > 0 {
		b.WriteString(" with ")
		b.WriteString(strings.Join(parts, "; "))
	}
	return common.CollapseWhitespace(b.String())
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(strings.ReplaceAll(s, "_", " "))
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func renderMapping(node *netconf.Node) string {
	var parts []string
	for _, entry := range node.Entries {
		if entry.Node.Kind != netconf.KindScalar {
			continue
		}
		label, ok := keyLabels[entry.Key]
		if !ok {
			label = entry.Key
		}
		parts = append(parts, label+" "+entry.Node.Value)
	}
	return strings.Join(parts, ", ")
}

func scalars(node *netconf.Node) []string {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case netconf.KindScalar:
		return []string{node.Value}
	case netconf.KindSequence:
		out := make([]string, 0, len(node.Items))
		for _, item := range node.Items {
			if item.Kind == netconf.KindScalar {
				out = append(out, item.Value)
			}
		}
		return out
	}
	return nil
}

func scalarValue(node *netconf.Node) string {
	if node == nil || node.Kind != netconf.KindScalar {
		return ""
	}
	return node.Value
}
