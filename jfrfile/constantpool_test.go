package jfrfile

import "testing"

// buildPoolEvent assembles one constant pool event's bytes (no actual
// pool entries, since these tests only exercise chain walking, not
// entry decoding): type id, zero timestamp/duration, the given delta,
// a zero mask, and a zero pool count. The leading size field is a
// single byte for every fixture here, since none approach the 128-byte
// threshold where a varint would grow to two bytes.
func buildPoolEvent(delta int64) []byte {
	var rest []byte
	rest = encodeVarint(rest, EventTypeConstantPool)
	rest = encodeVarint(rest, 0) // timestamp
	rest = encodeVarint(rest, 0) // duration
	rest = encodeVarint(rest, delta)
	rest = append(rest, 0)     // mask
	rest = encodeVarint(rest, 0) // pool_count

	size := int64(len(rest) + 1)
	if size >= 128 {
		panic("buildPoolEvent fixture grew past the one-byte size assumption")
	}
	return append(encodeVarint(nil, size), rest...)
}

func TestConstantPoolChainWalkValidOrder(t *testing.T) {
	// A (delta_A=0) terminates the chain; B points back at A.
	a := buildPoolEvent(0)
	aOffset := int64(0)
	bOffset := int64(len(a))
	b := buildPoolEvent(-bOffset) // delta relative to B's own offset

	data := append(append([]byte{}, a...), b...)

	it := &ConstantPoolEventIter{
		data:    data,
		offset:  bOffset,
		visited: make(map[int64]bool),
	}

	var order []int64
	for it.Next() {
		order = append(order, it.Event().Offset)
	}
	if it.Err() != nil {
		t.Fatalf("unexpected error: %v", it.Err())
	}
	if len(order) != 2 || order[0] != bOffset || order[1] != aOffset {
		t.Errorf("got offsets %v, want [%d %d]", order, bOffset, aOffset)
	}
}

func TestConstantPoolEventsOffsetZeroYieldsNone(t *testing.T) {
	// ConstantPoolOffset == 0 means the chunk has no constant pool at
	// all; offset 0 falls inside the chunk header, so the iterator must
	// not attempt to parse an event there.
	ch := &Chunk{
		Header: ChunkHeader{ConstantPoolOffset: 0},
		data:   make([]byte, ChunkHeaderSize),
	}

	it := ch.ConstantPoolEvents()
	if it.Next() {
		t.Fatalf("expected no events, got one at offset %d", it.Event().Offset)
	}
	if it.Err() != nil {
		t.Fatalf("expected no error, got %v", it.Err())
	}
}

func TestConstantPoolChainWalkCycleErrors(t *testing.T) {
	// B -> A -> B: A's delta points back at B, which must be rejected
	// rather than looping forever.
	placeholderA := buildPoolEvent(0)
	aOffset := int64(0)
	bOffset := int64(len(placeholderA))
	placeholderB := buildPoolEvent(-(bOffset - aOffset))
	a := buildPoolEvent(bOffset - aOffset) // A's delta now points forward at B

	data := append(append([]byte{}, a...), placeholderB...)

	it := &ConstantPoolEventIter{
		data:    data,
		offset:  bOffset,
		visited: make(map[int64]bool),
	}

	var steps int
	for it.Next() {
		steps++
		if steps > 10 {
			t.Fatal("chain walk did not terminate")
		}
	}
	if it.Err() == nil {
		t.Fatal("expected an error for a cyclic constant pool chain")
	}
}
