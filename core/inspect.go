package core

import (
	"fmt"
	"strings"

	"github.com/encodeous/lsdb/state"
)

// Inspect renders the link-state database, every list is ordered so the
// output is stable between runs.
func Inspect(ls *state.LinkState) string {
	sb := strings.Builder{}
	sb.WriteString("Nodes:\n")
	nodes := ls.Nodes()
	if len(nodes) == 0 {
		sb.WriteString("    (none)\n")
	}
	for _, node := range nodes {
		sb.WriteString(fmt.Sprintf(" - %s", node))
		if ls.IsNodeOverloaded(node) {
			sb.WriteString(" (overloaded)")
		}
		if db, ok := ls.AdjacencyDatabase(node); ok && db.NodeLabel != 0 {
			sb.WriteString(fmt.Sprintf(" label %d", db.NodeLabel))
		}
		sb.WriteString("\n")
		links := ls.OrderedLinksFromNode(node)
		if len(links) == 0 {
			sb.WriteString("    (no links)\n")
		}
		for _, link := range links {
			sb.WriteString(fmt.Sprintf("    - %s metric %d", link.DirectionalString(node), link.MetricFromNode(node)))
			if label := link.AdjLabelFromNode(node); label != 0 {
				sb.WriteString(fmt.Sprintf(" label %d", label))
			}
			if nh := link.NhV4FromNode(node); nh.IsValid() {
				sb.WriteString(fmt.Sprintf(" nh %s", nh))
			}
			if nh := link.NhV6FromNode(node); nh.IsValid() {
				sb.WriteString(fmt.Sprintf(" nh %s", nh))
			}
			if link.IsOverloaded() {
				sb.WriteString(" overloaded")
			}
			if !link.IsUp() {
				sb.WriteString(" held-down")
			}
			if link.HasHolds() {
				sb.WriteString(" (hold pending)")
			}
			sb.WriteString("\n")
		}
	}
	sb.WriteString(fmt.Sprintf("\nLinks: %d\n", ls.NumLinks()))
	return sb.String()
}
