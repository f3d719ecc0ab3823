// Package calltree aggregates stack samples into a per-thread prefix
// tree ordered by sample count.
package calltree

import (
	"fmt"
	"io"
	"sort"

	"github.com/mjacobson/drspin/pkg/symbolize"
)

// Frame is one node of a call tree. The root has address 0 and is
// never printed; its children are the outermost frames of the
// inserted samples.
type Frame struct {
	Address  uint64
	Count    uint32
	children []*Frame
}

func NewRoot() *Frame {
	return &Frame{}
}

func (f *Frame) Children() []*Frame {
	return f.children
}

// Child returns the child frame for address, creating it with a zero
// count if absent. Sibling lists stay small, so the lookup is linear.
func (f *Frame) Child(address uint64) *Frame {
	for _, child := range f.children {
		if child.Address == address {
			return child
		}
	}

	child := &Frame{Address: address}
	f.children = append(f.children, child)

	return child
}

// Insert records one sample, outermost frame first, incrementing the
// count of every node along its path.
func (f *Frame) Insert(sample []uint64) {
	cur := f
	for _, address := range sample {
		cur = cur.Child(address)
		cur.Count++
	}
}

// Sort orders every sibling list by non-increasing count. Equal
// counts keep their insertion order.
func (f *Frame) Sort() {
	sort.SliceStable(f.children, func(i, j int) bool {
		return f.children[i].Count > f.children[j].Count
	})

	for _, child := range f.children {
		child.Sort()
	}
}

// Print writes the tree below f depth-first, starting at the given
// indentation and indenting two more spaces per level. f itself is
// not printed.
func (f *Frame) Print(w io.Writer, indentation int, symbolicator symbolize.Symbolicator) {
	for _, child := range f.children {
		child.print(w, indentation, symbolicator)
	}
}

func (f *Frame) print(w io.Writer, indentation int, symbolicator symbolize.Symbolicator) {
	fmt.Fprintf(w, "%*s%d  %s (%#x)\n", indentation, "", f.Count, symbolicator.Symbolicate(f.Address), f.Address)

	for _, child := range f.children {
		child.print(w, indentation+2, symbolicator)
	}
}
