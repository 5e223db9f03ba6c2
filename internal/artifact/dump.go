package artifact

import (
	"fmt"
	"io"
	"strings"
)

// DumpTree writes a plaintext rendering of the subtree for diagnostics,
// one node per line, children indented, matched nodes annotated with the
// revision and identity of their partners.
func DumpTree(w io.Writer, a *Artifact) {
	dump(w, a, 0)
}

func dump(w io.Writer, a *Artifact, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s(%d) %s", indent, a.id, a.Kind)
	if a.Payload != "" {
		fmt.Fprintf(w, " %q", a.Payload)
	}
	if a.conflict {
		fmt.Fprint(w, " <conflict>")
	}
	if a.choice {
		fmt.Fprintf(w, " <choice %s>", strings.Join(a.variantOrder, "|"))
	}
	for _, rev := range []Revision{Left, Base, Right, Merge} {
		if m := a.matches[rev]; m != nil {
			fmt.Fprintf(w, " =%s:%d", rev, m.id)
		}
	}
	fmt.Fprintln(w)

	if a.left != nil {
		fmt.Fprintf(w, "%s  [left]\n", indent)
		dump(w, a.left, depth+2)
	}
	if a.right != nil {
		fmt.Fprintf(w, "%s  [right]\n", indent)
		dump(w, a.right, depth+2)
	}
	for _, label := range a.variantOrder {
		fmt.Fprintf(w, "%s  [%s]\n", indent, label)
		dump(w, a.variants[label], depth+2)
	}
	for _, c := range a.children {
		dump(w, c, depth+1)
	}
}
