package xcf

import "strings"

// Node is one entry in the reconstructed layer-group tree (§4.7). A node
// with a non-nil Layer is either a leaf (Layer.IsGroup == false) or a group
// container whose own record is IsGroup == true; a node with a nil Layer is
// an intermediate group the builder had to synthesize because a child
// referenced it before its own GROUP_ITEM record was seen.
type Node struct {
	Layer    *Layer
	Children []*Node
}

// buildHierarchy reconstructs the group tree from a flat, file-ordered layer
// list using each layer's ItemPath, per §4.7. The root's own child order is
// the file's layer order for top-level (empty-path) layers.
func buildHierarchy(layers []*Layer) *Node {
	root := &Node{}
	for _, l := range layers {
		if len(l.ItemPath) == 0 {
			root.Children = append(root.Children, &Node{Layer: l})
			continue
		}
		parent := root
		for _, idx := range l.ItemPath[:len(l.ItemPath)-1] {
			parent = ensureChild(parent, int(idx))
		}
		leafIdx := int(l.ItemPath[len(l.ItemPath)-1])
		node := ensureChild(parent, leafIdx)
		node.Layer = l
	}
	assignQualifiedNames(root, nil)
	return root
}

// ensureChild grows parent.Children (with empty placeholder group nodes) so
// that index idx exists, and returns it.
func ensureChild(parent *Node, idx int) *Node {
	for len(parent.Children) <= idx {
		parent.Children = append(parent.Children, &Node{})
	}
	if parent.Children[idx] == nil {
		parent.Children[idx] = &Node{}
	}
	return parent.Children[idx]
}

func assignQualifiedNames(n *Node, ancestors []string) {
	var names []string
	if n.Layer != nil {
		names = append(append([]string{}, ancestors...), n.Layer.Name)
		n.Layer.QualifiedName = strings.Join(names, "/")
	} else {
		names = ancestors
	}
	for _, child := range n.Children {
		if child == nil {
			continue
		}
		assignQualifiedNames(child, names)
	}
}

// Walk calls fn for every node in the tree in pre-order (root first), depth
// first, in child order.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// IsGroup reports whether this node is a group container: either an
// explicit GROUP_ITEM layer, or a synthesized intermediate with no layer of
// its own.
func (n *Node) IsGroup() bool {
	return n.Layer == nil || n.Layer.IsGroup
}
