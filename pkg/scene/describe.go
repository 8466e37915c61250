package scene

import (
	"fmt"
	"strings"
)

// Describe renders the subtree rooted at n as an indented outline, one node
// per line, for logs and the inspect command.
func Describe(n *Node) string {
	var sb strings.Builder
	describe(&sb, n, 0)
	return sb.String()
}

func describe(sb *strings.Builder, n *Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(sb, "%s %q", n.Kind, n.Name)
	if n.Kind == KindSkinnedMesh && n.Skeleton != nil {
		fmt.Fprintf(sb, " bones=%d", len(n.Skeleton.Bones))
	}
	if n.Mesh != nil {
		fmt.Fprintf(sb, " vertices=%d", n.Mesh.VertexCount())
	}
	if len(n.Animations) > 0 {
		names := make([]string, len(n.Animations))
		for i, clip := range n.Animations {
			names[i] = clip.Name
		}
		fmt.Fprintf(sb, " clips=[%s]", strings.Join(names, ","))
	}
	if n.UserData.Len() > 0 {
		fmt.Fprintf(sb, " userData=%v", n.UserData.Keys())
	}
	sb.WriteByte('\n')
	for _, child := range n.children {
		describe(sb, child, depth+1)
	}
}
