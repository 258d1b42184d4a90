// Package fountain implements the per-file Systematic + Luby-Transform
// belief-propagation peeling decoder. It holds no knowledge of wire
// formats or multi-file routing; callers feed it already-parsed chunk
// and coded-packet data.
package fountain

import (
	"errors"
	"sort"
)

// ErrIncomplete is returned by Finalize when fewer than num_chunks
// chunks have been recovered.
var ErrIncomplete = errors.New("fountain: decoder incomplete")

type codedEntry struct {
	indices []int
	payload []byte
}

// Decoder holds one file's recovery state: known chunks and parked
// coded packets awaiting further peeling.
type Decoder struct {
	numChunks int
	chunks    map[int][]byte
	pending   []codedEntry
	complete  bool
}

// NewDecoder creates a decoder for a file with the given chunk count.
func NewDecoder(numChunks int) *Decoder {
	d := &Decoder{}
	d.Initialize(numChunks)
	return d
}

// Initialize resets the decoder to a fresh state for numChunks. It is
// idempotent and safe to call on a decoder already in use, discarding
// any recovered chunks and pending packets.
func (d *Decoder) Initialize(numChunks int) {
	d.numChunks = numChunks
	d.chunks = make(map[int][]byte, numChunks)
	d.pending = nil
	d.complete = numChunks <= 0
}

// AddDirectChunk records a chunk observed verbatim (systematic). It
// returns true if this is the first time chunk_index has been seen.
// An out-of-range index is silently ignored.
func (d *Decoder) AddDirectChunk(index int, bytes []byte) bool {
	if index < 0 || index >= d.numChunks {
		return false
	}
	if _, ok := d.chunks[index]; ok {
		return false
	}
	buf := append([]byte(nil), bytes...)
	d.chunks[index] = buf
	d.peel([]int{index})
	return true
}

// AddCodedPacket records a coded (XOR) packet over sourceIndices.
// Known source chunks are reduced out eagerly; if this leaves a
// degree-1 or degree-0 packet it is resolved immediately, possibly
// cascading into further recoveries via the peeling loop. Returns the
// set of chunk indices newly recovered as a direct result of this
// call, in recovery order.
func (d *Decoder) AddCodedPacket(sourceIndices []int, payload []byte) []int {
	seen := make(map[int]bool, len(sourceIndices))
	var indices []int
	for _, j := range sourceIndices {
		if j < 0 || j >= d.numChunks || seen[j] {
			continue
		}
		seen[j] = true
		indices = append(indices, j)
	}

	p := append([]byte(nil), payload...)
	var remaining []int
	for _, j := range indices {
		if b, ok := d.chunks[j]; ok {
			p = xorBytes(p, b)
		} else {
			remaining = append(remaining, j)
		}
	}

	switch len(remaining) {
	case 0:
		return nil
	case 1:
		i := remaining[0]
		if _, ok := d.chunks[i]; ok {
			return nil
		}
		d.chunks[i] = p
		return d.peel([]int{i})
	default:
		d.pending = append(d.pending, codedEntry{indices: remaining, payload: p})
		return nil
	}
}

// peel drains the peeling worklist, reducing every pending coded
// packet that references a newly known index and cascading further
// recoveries. Chunks named in worklist must already be stored in
// d.chunks. Returns every index recovered during the call, including
// the seed worklist, in recovery order.
func (d *Decoder) peel(worklist []int) []int {
	recovered := append([]int(nil), worklist...)

	for len(worklist) > 0 {
		i := worklist[0]
		worklist = worklist[1:]

		remaining := d.pending[:0:0]
		for _, entry := range d.pending {
			if !containsInt(entry.indices, i) {
				remaining = append(remaining, entry)
				continue
			}
			entry.payload = xorBytes(entry.payload, d.chunks[i])
			entry.indices = removeInt(entry.indices, i)

			switch len(entry.indices) {
			case 0:
				// fully redundant, drop
			case 1:
				newIdx := entry.indices[0]
				if _, known := d.chunks[newIdx]; !known {
					d.chunks[newIdx] = entry.payload
					worklist = append(worklist, newIdx)
					recovered = append(recovered, newIdx)
				}
			default:
				remaining = append(remaining, entry)
			}
		}
		d.pending = remaining
	}

	if len(d.chunks) == d.numChunks {
		d.complete = true
	}
	return recovered
}

// Progress reports the number of chunks recovered so far out of the
// total expected.
func (d *Decoder) Progress() (recovered, total int) {
	return len(d.chunks), d.numChunks
}

// Complete reports whether every chunk has been recovered.
func (d *Decoder) Complete() bool {
	return d.complete
}

// MissingChunks returns the sorted indices not yet recovered.
func (d *Decoder) MissingChunks() []int {
	missing := make([]int, 0, d.numChunks-len(d.chunks))
	for i := 0; i < d.numChunks; i++ {
		if _, ok := d.chunks[i]; !ok {
			missing = append(missing, i)
		}
	}
	sort.Ints(missing)
	return missing
}

// PendingCodedCount returns the number of coded packets still parked
// awaiting further peeling.
func (d *Decoder) PendingCodedCount() int {
	return len(d.pending)
}

// Finalize concatenates recovered chunks in chunk_index order and
// truncates to fileSize if it is known (>= 0) and smaller than the
// assembled length. Returns ErrIncomplete if the decoder has not
// recovered every chunk.
func (d *Decoder) Finalize(fileSize int64) ([]byte, error) {
	if !d.complete {
		return nil, ErrIncomplete
	}
	total := 0
	for i := 0; i < d.numChunks; i++ {
		total += len(d.chunks[i])
	}
	buf := make([]byte, 0, total)
	for i := 0; i < d.numChunks; i++ {
		buf = append(buf, d.chunks[i]...)
	}
	if fileSize >= 0 && int64(len(buf)) > fileSize {
		buf = buf[:fileSize]
	}
	return buf, nil
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func removeInt(xs []int, v int) []int {
	out := xs[:0:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
