package jfrfile

import "testing"

func TestVarintRoundTrip(t *testing.T) {
	cases := []int64{
		0, 1, -1, 63, 64, -64, -65,
		1 << 20, -(1 << 20),
		1<<62 - 1, -(1 << 62),
		9223372036854775807,  // math.MaxInt64
		-9223372036854775808, // math.MinInt64
	}
	for _, v := range cases {
		buf := encodeVarint(nil, v)
		c := newCursor(buf)
		got, err := c.varint()
		if err != nil {
			t.Fatalf("varint(%d): unexpected error: %v", v, err)
		}
		if got != v {
			t.Errorf("varint round trip: encoded %d, decoded %d (bytes %x)", v, got, buf)
		}
		if c.remaining() != 0 {
			t.Errorf("varint(%d): %d trailing bytes after decode", v, c.remaining())
		}
	}
}

func TestVarintMinInt64NineBytes(t *testing.T) {
	buf := encodeVarint(nil, -9223372036854775808)
	if len(buf) != 9 {
		t.Fatalf("expected 9-byte encoding for MinInt64, got %d bytes: %x", len(buf), buf)
	}
	for i, b := range buf {
		if b != 0x80 {
			t.Errorf("byte %d: got %#x, want 0x80", i, b)
		}
	}
}

func TestVarintIncomplete(t *testing.T) {
	// A continuation byte with no following byte must fail, not panic.
	c := newCursor([]byte{0x80})
	if _, err := c.varint(); err == nil {
		t.Fatal("expected error decoding truncated varint")
	}
}

func TestVarintExactBoundaryBytes(t *testing.T) {
	cases := []struct {
		bytes []byte
		want  int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7F}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xFF, 0x7F}, 16383},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0xFF}, -1 << 56}, // 0xFF00000000000000 as int64
	}
	for _, c := range cases {
		got, err := newCursor(c.bytes).varint()
		if err != nil {
			t.Fatalf("varint(%x): unexpected error: %v", c.bytes, err)
		}
		if got != c.want {
			t.Errorf("varint(%x) = %d, want %d", c.bytes, got, c.want)
		}
	}
}

func TestVarintSingleByteBoundary(t *testing.T) {
	// 63 fits in the low 7 bits with the continuation bit clear.
	c := newCursor([]byte{0x3f})
	v, err := c.varint()
	if err != nil {
		t.Fatal(err)
	}
	if v != 63 {
		t.Errorf("got %d, want 63", v)
	}
	if c.remaining() != 0 {
		t.Errorf("expected single byte consumed, %d remain", c.remaining())
	}
}
