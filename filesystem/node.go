package filesystem

import (
	"fmt"
	"slices"
	"sync"
	"weak"

	"github.com/priyxstudio/burrow/internal/ufs"
)

// Node is a single entry in a scanned tree: either a file (regular file or
// symbolic link) or a directory.
//
// A node caches the aggregate disk usage of itself and every descendant. The
// cache is invalidated by marking the node and all of its ancestors dirty
// whenever a child is appended, and recomputed lazily the next time the
// aggregate is read.
type Node struct {
	name      string
	path      string
	dir       bool
	symlink   bool
	links     uint64
	blocks    uint64
	hasBlocks bool

	// own is the physical size of this entry alone. It is always zero for
	// directories, which only contribute through their descendants.
	own uint64

	// parent is never changed after the node is created. The tree is owned
	// from the root down, so the parent is only referenced weakly.
	parent weak.Pointer[Node]

	// mu protects everything below it. Locks are only ever nested from a
	// parent to a child, never the other way around.
	mu        sync.Mutex
	children  []*Node
	aggregate uint64
	dirty     bool
}

// NewDirectory returns an empty directory node. The node is not attached to
// the parent; use Append for that.
func NewDirectory(name, path string, parent *Node) *Node {
	n := &Node{name: name, path: path, dir: true, links: 1}
	n.setParent(parent)
	return n
}

// NewFile returns a file node with the given physical size in bytes. The node
// is not attached to the parent; use Append for that.
func NewFile(name, path string, size uint64, parent *Node) *Node {
	n := &Node{name: name, path: path, links: 1, own: size, aggregate: size}
	n.setParent(parent)
	return n
}

// newNodeFromStat builds a node from platform metadata. Directories start out
// empty with a zero size; files are fully sized at creation and never change.
func newNodeFromStat(name, path string, st ufs.Stat, parent *Node) *Node {
	n := &Node{
		name:      name,
		path:      path,
		dir:       st.IsDir(),
		symlink:   st.IsSymlink(),
		links:     st.Nlink,
		blocks:    st.Blocks,
		hasBlocks: st.HasBlocks,
	}
	if !n.dir && st.HasAllocated {
		n.own = st.Allocated
		n.aggregate = st.Allocated
	}
	n.setParent(parent)
	return n
}

func (n *Node) setParent(parent *Node) {
	if parent != nil {
		n.parent = weak.Make(parent)
	}
}

// Name returns the base name of the entry.
func (n *Node) Name() string {
	return n.name
}

// Path returns the absolute path of the entry.
func (n *Node) Path() string {
	return n.path
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.dir
}

// IsSymlink reports whether the node is a symbolic link.
func (n *Node) IsSymlink() bool {
	return n.symlink
}

// IsHardlink reports whether the file has more than one name on disk.
func (n *Node) IsHardlink() bool {
	return !n.dir && n.links > 1
}

// Links returns the link count of the entry.
func (n *Node) Links() uint64 {
	return n.links
}

// Blocks returns the number of 512 byte blocks allocated to the entry, and
// false when the platform does not report block counts.
func (n *Node) Blocks() (uint64, bool) {
	return n.blocks, n.hasBlocks
}

// PhysicalSize returns the bytes allocated to this entry alone.
func (n *Node) PhysicalSize() uint64 {
	return n.own
}

// Kind returns a short description of the entry type for display.
func (n *Node) Kind() string {
	switch {
	case n.IsHardlink():
		return fmt.Sprintf("hardlink(%d)", n.links)
	case n.symlink:
		return "symlink"
	default:
		return "-"
	}
}

// Parent returns the parent directory, or nil if this node is the root of a
// scan or the parent no longer exists.
func (n *Node) Parent() *Node {
	return n.parent.Value()
}

// Append attaches a child to this node and marks this node and its ancestors
// dirty. Children are only ever appended, never removed or reordered.
func (n *Node) Append(child *Node) {
	n.mu.Lock()
	n.children = append(n.children, child)
	n.dirty = true
	n.mu.Unlock()

	if p := n.Parent(); p != nil {
		p.MarkDirty()
	}
}

// MarkDirty flags the cached aggregate of this node and every ancestor as
// stale. The lock of each node is released before moving on to its parent.
func (n *Node) MarkDirty() {
	for node := n; node != nil; node = node.Parent() {
		node.mu.Lock()
		node.dirty = true
		node.mu.Unlock()
	}
}

// Dirty reports whether the cached aggregate is stale.
func (n *Node) Dirty() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dirty
}

// Aggregate returns the disk usage of this node and all of its descendants.
//
// A clean node returns its cached value. A dirty node recomputes from its
// children, recursing into any that are dirty themselves, and caches the
// result. While a scan is still running the value is a lower bound of the
// final size.
func (n *Node) Aggregate() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.dirty {
		return n.aggregate
	}
	total := n.own
	for _, c := range n.children {
		total += c.Aggregate()
	}
	n.aggregate = total
	n.dirty = false
	return total
}

// Len returns the number of children appended so far.
func (n *Node) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.children)
}

// Children returns a snapshot of the node's children in insertion order.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.children)
}

// SortedChildren returns a snapshot of the node's children ordered by
// descending aggregate size, then by name. The node itself is not modified.
func (n *Node) SortedChildren() []*Node {
	children := n.Children()
	sizes := make(map[*Node]uint64, len(children))
	for _, c := range children {
		sizes[c] = c.Aggregate()
	}
	slices.SortStableFunc(children, func(a, b *Node) int {
		if sizes[a] != sizes[b] {
			if sizes[a] > sizes[b] {
				return -1
			}
			return 1
		}
		if a.name < b.name {
			return -1
		}
		if a.name > b.name {
			return 1
		}
		return 0
	})
	return children
}

// Child returns the direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}
