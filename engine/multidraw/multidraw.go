// Package multidraw builds the (start, count) range table consumed by a multi-draw submission.
package multidraw

import (
	"encoding/binary"
	"fmt"
)

// IndirectArgsSize is the size of one draw-indirect record: vertexCount, instanceCount,
// firstVertex, firstInstance, each a little-endian u32.
const IndirectArgsSize = 16

// Range is one entry of the table: draw Count vertices beginning at vertex Start.
type Range struct {
	Start int32
	Count int32
}

// Table is a fixed-length list of draw ranges stored as two parallel arrays, the layout a
// multi-draw call consumes. It is immutable after construction.
type Table struct {
	starts []int32
	counts []int32
}

// NewTable builds a table of n identical ranges.
//
// Parameters:
//   - n: number of entries, one per instance (n >= 0)
//   - start: first vertex of every range
//   - count: vertex count of every range
//
// Returns:
//   - *Table: the table
//   - error: an error if n is negative or the range is malformed
func NewTable(n int, start, count int32) (*Table, error) {
	if n < 0 {
		return nil, fmt.Errorf("range table length %d is negative", n)
	}
	if start < 0 || count < 0 {
		return nil, fmt.Errorf("invalid range (%d, %d)", start, count)
	}
	t := &Table{
		starts: make([]int32, n),
		counts: make([]int32, n),
	}
	for i := range t.counts {
		t.starts[i] = start
		t.counts[i] = count
	}
	return t, nil
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.starts) }

// Starts returns the start array. Callers must not modify it.
func (t *Table) Starts() []int32 { return t.starts }

// Counts returns the count array. Callers must not modify it.
func (t *Table) Counts() []int32 { return t.counts }

// Entry returns the i-th range.
func (t *Table) Entry(i int) Range {
	return Range{Start: t.starts[i], Count: t.counts[i]}
}

// ByteSizes returns the byte size of the start array and of the count array.
func (t *Table) ByteSizes() (starts, counts int) {
	return len(t.starts) * 4, len(t.counts) * 4
}

// TotalVertices returns the sum of all counts.
func (t *Table) TotalVertices() int64 {
	var sum int64
	for _, c := range t.counts {
		sum += int64(c)
	}
	return sum
}

// EncodeIndirect packs parallel start/count arrays into consecutive draw-indirect records,
// one non-instanced draw per range.
//
// Parameters:
//   - starts: first vertex of each range
//   - counts: vertex count of each range (same length as starts)
//
// Returns:
//   - []byte: len(starts)*IndirectArgsSize bytes
func EncodeIndirect(starts, counts []int32) []byte {
	args := make([]byte, len(starts)*IndirectArgsSize)
	for i := range starts {
		rec := args[i*IndirectArgsSize:]
		binary.LittleEndian.PutUint32(rec[0:4], uint32(counts[i]))
		binary.LittleEndian.PutUint32(rec[4:8], 1)
		binary.LittleEndian.PutUint32(rec[8:12], uint32(starts[i]))
		binary.LittleEndian.PutUint32(rec[12:16], 0)
	}
	return args
}
