package remote

import (
	"encoding/binary"
)

// Array is a lazy view over a fixed-stride array living in the target
// address space. Indexing performs a single-element read.
type Array[T any] struct {
	reader *Reader
	base   uint64
	count  int
	stride uint64
}

func NewArray[T any](reader *Reader, base uint64, count int) Array[T] {
	var elem T

	return Array[T]{
		reader: reader,
		base:   base,
		count:  count,
		stride: uint64(binary.Size(&elem)),
	}
}

func (a Array[T]) Len() int {
	return a.count
}

func (a Array[T]) Get(i int) (T, error) {
	var elem T
	err := a.reader.ReadInto(a.base+uint64(i)*a.stride, &elem)

	return elem, err
}
