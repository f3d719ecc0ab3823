package calltree_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mjacobson/drspin/pkg/calltree"
)

// addrSymbolicator resolves addresses through a fixed name table,
// falling back to hex.
type addrSymbolicator map[uint64]string

func (s addrSymbolicator) Symbolicate(address uint64) string {
	if name, ok := s[address]; ok {
		return name
	}
	return fmt.Sprintf("%#x", address)
}

func TestInsertAggregatesSharedPrefixes(t *testing.T) {
	const (
		addrA = 0xa
		addrB = 0xb
		addrC = 0xc
		addrD = 0xd
		addrE = 0xe
	)

	root := calltree.NewRoot()
	root.Insert([]uint64{addrA, addrB, addrC})
	root.Insert([]uint64{addrA, addrB, addrC})
	root.Insert([]uint64{addrA, addrB, addrD})
	root.Insert([]uint64{addrA, addrE})
	root.Sort()

	var buf bytes.Buffer
	root.Print(&buf, 2, addrSymbolicator{addrA: "A", addrB: "B", addrC: "C", addrD: "D", addrE: "E"})

	expected := "" +
		"  4  A (0xa)\n" +
		"    3  B (0xb)\n" +
		"      2  C (0xc)\n" +
		"      1  D (0xd)\n" +
		"    1  E (0xe)\n"
	require.Equal(t, expected, buf.String())
}

func TestSortTieKeepsInsertionOrder(t *testing.T) {
	root := calltree.NewRoot()
	root.Insert([]uint64{0x10})
	root.Insert([]uint64{0x20})
	root.Sort()

	var buf bytes.Buffer
	root.Print(&buf, 2, addrSymbolicator{0x10: "X", 0x20: "Y"})

	expected := "" +
		"  1  X (0x10)\n" +
		"  1  Y (0x20)\n"
	require.Equal(t, expected, buf.String())
}

func TestCountsSumToSampleCount(t *testing.T) {
	samples := [][]uint64{
		{1, 2, 3},
		{1, 2},
		{1, 4},
		{5},
		{1, 2, 3, 6},
	}

	root := calltree.NewRoot()
	for _, sample := range samples {
		root.Insert(sample)
	}

	// The root's direct children account for every sample once.
	var total uint32
	for _, child := range root.Children() {
		total += child.Count
	}
	require.Equal(t, uint32(len(samples)), total)

	// Every node's count covers the counts of its children.
	var check func(f *calltree.Frame)
	check = func(f *calltree.Frame) {
		var sum uint32
		for _, child := range f.Children() {
			sum += child.Count
			check(child)
		}
		require.GreaterOrEqual(t, f.Count, sum)
	}
	for _, child := range root.Children() {
		check(child)
	}
}

func TestSortOrdersEveryLevel(t *testing.T) {
	root := calltree.NewRoot()
	root.Insert([]uint64{1, 2})
	root.Insert([]uint64{1, 3})
	root.Insert([]uint64{1, 3})
	root.Insert([]uint64{4})
	root.Insert([]uint64{4})
	root.Insert([]uint64{4})
	root.Insert([]uint64{4})
	root.Sort()

	var check func(f *calltree.Frame)
	check = func(f *calltree.Frame) {
		children := f.Children()
		for i := 1; i < len(children); i++ {
			require.GreaterOrEqual(t, children[i-1].Count, children[i].Count)
		}
		for _, child := range children {
			check(child)
		}
	}
	check(root)

	require.Equal(t, uint64(4), root.Children()[0].Address)
	require.Equal(t, uint64(3), root.Children()[1].Children()[0].Address)
}

func TestChildReturnsSameNode(t *testing.T) {
	root := calltree.NewRoot()
	first := root.Child(0x42)
	second := root.Child(0x42)
	require.Same(t, first, second)
	require.Len(t, root.Children(), 1)
}
