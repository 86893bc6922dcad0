package jfrfile

import (
	"strings"
	"unicode/utf8"
)

// stringEncoding is the one-byte tag prefixing every string record.
//
// Grounded on original_source/jfr-reader/src/string_table.rs's Encoding.
type stringEncoding byte

const (
	encodingNull stringEncoding = iota
	encodingEmptyString
	encodingConstantPool
	encodingUtf8ByteArray
	encodingCharArray
	encodingLatin1ByteArray
)

// stringRecord is the lightly parsed form of a string table entry: the
// inline data is referenced, not decoded, so constructing one is cheap.
type stringRecord struct {
	encoding stringEncoding
	cpIndex  int64  // valid when encoding == encodingConstantPool
	utf8     []byte // valid when encoding == encodingUtf8ByteArray
	chars    []int32 // valid when encoding == encodingCharArray
	latin1   []byte // valid when encoding == encodingLatin1ByteArray
}

func parseStringRecord(c *cursor) (stringRecord, error) {
	tag, err := c.u8()
	if err != nil {
		return stringRecord{}, withContext(err, "reading string record encoding tag")
	}
	enc := stringEncoding(tag)

	switch enc {
	case encodingNull:
		return stringRecord{encoding: enc}, nil
	case encodingEmptyString:
		return stringRecord{encoding: enc}, nil
	case encodingConstantPool:
		v, err := c.varint()
		if err != nil {
			return stringRecord{}, withContext(err, "reading string constant pool index")
		}
		return stringRecord{encoding: enc, cpIndex: v}, nil
	case encodingUtf8ByteArray:
		n, err := c.varint32()
		if err != nil {
			return stringRecord{}, withContext(err, "reading utf8 string length")
		}
		b, err := c.take(int(n))
		if err != nil {
			return stringRecord{}, withContext(err, "reading utf8 string bytes")
		}
		return stringRecord{encoding: enc, utf8: b}, nil
	case encodingCharArray:
		n, err := c.varint32()
		if err != nil {
			return stringRecord{}, withContext(err, "reading char array length")
		}
		chars := make([]int32, n)
		for i := range chars {
			v, err := c.varint32()
			if err != nil {
				return stringRecord{}, withContext(err, "reading char array element")
			}
			chars[i] = v
		}
		return stringRecord{encoding: enc, chars: chars}, nil
	case encodingLatin1ByteArray:
		n, err := c.varint32()
		if err != nil {
			return stringRecord{}, withContext(err, "reading latin1 string length")
		}
		b, err := c.take(int(n))
		if err != nil {
			return stringRecord{}, withContext(err, "reading latin1 string bytes")
		}
		return stringRecord{encoding: enc, latin1: b}, nil
	default:
		return stringRecord{}, errf(KindStringEncoding, "unknown string encoding: %d", tag)
	}
}

// stringValueKind distinguishes a resolved string's shape.
type stringValueKind int

const (
	stringValueNull stringValueKind = iota
	stringValueConstantPoolRef
	stringValueString
)

// stringValue is a resolved string table entry.
type stringValue struct {
	kind    stringValueKind
	cpIndex int64
	s       string
}

func (v stringValue) asString() (string, bool) {
	if v.kind == stringValueString {
		return v.s, true
	}
	return "", false
}

// resolve converts a lightly parsed record to a concrete stringValue.
//
// Latin-1 bytes are mapped 1:1 to Unicode scalars (NOT decoded as
// UTF-8); this matches JFR's on-wire definition of Latin-1 strings.
func (r stringRecord) resolve() (stringValue, error) {
	switch r.encoding {
	case encodingNull:
		return stringValue{kind: stringValueNull}, nil
	case encodingEmptyString:
		return stringValue{kind: stringValueString, s: ""}, nil
	case encodingConstantPool:
		return stringValue{kind: stringValueConstantPoolRef, cpIndex: r.cpIndex}, nil
	case encodingUtf8ByteArray:
		if !utf8.Valid(r.utf8) {
			return stringValue{}, errf(KindStringEncoding, "invalid utf-8 string data")
		}
		return stringValue{kind: stringValueString, s: string(r.utf8)}, nil
	case encodingCharArray:
		var b strings.Builder
		for _, ch := range r.chars {
			if ch < 0 || (ch >= 0xD800 && ch <= 0xDFFF) || ch > 0x10FFFF {
				return stringValue{}, errf(KindStringEncoding, "invalid character array element %d", ch)
			}
			b.WriteRune(rune(ch))
		}
		return stringValue{kind: stringValueString, s: b.String()}, nil
	case encodingLatin1ByteArray:
		var b strings.Builder
		b.Grow(len(r.latin1))
		for _, by := range r.latin1 {
			b.WriteRune(rune(by))
		}
		return stringValue{kind: stringValueString, s: b.String()}, nil
	default:
		return stringValue{}, errf(KindStringEncoding, "unknown string encoding: %d", r.encoding)
	}
}

// stringSlot is the lazy-resolution state of a single string table entry.
//
// Modeled as "unparsed | decoded(Result)" per spec.md §9: the first read
// transitions the slot and caches the outcome, success or failure, for
// every subsequent caller.
type stringSlot struct {
	record   stringRecord
	resolved bool
	value    stringValue
	err      error
}

// StringTable is a chunk's string table: a flat vector of records
// resolved lazily and memoized per index.
//
// Grounded on original_source/jfr-reader/src/string_table.rs's
// LazyStringTable.
type StringTable struct {
	slots []stringSlot
}

func newStringTable(records []stringRecord) *StringTable {
	slots := make([]stringSlot, len(records))
	for i, r := range records {
		slots[i].record = r
	}
	return &StringTable{slots: slots}
}

// Len returns the number of entries in the table.
func (t *StringTable) Len() int { return len(t.slots) }

// Get resolves and returns the string value at index, memoizing the
// result (including failures) for subsequent calls.
func (t *StringTable) Get(index int) (stringValue, error) {
	if index < 0 || index >= len(t.slots) {
		return stringValue{}, errf(KindStringTableIndex, "string table index %d out of range [0, %d)", index, len(t.slots))
	}
	slot := &t.slots[index]
	if !slot.resolved {
		v, err := slot.record.resolve()
		slot.value, slot.err, slot.resolved = v, err, true
	}
	return slot.value, slot.err
}

// GetInline resolves index and requires the result to be an inline
// string (not null, not a constant pool reference). Used while
// promoting metadata element names/attributes, which must be inline
// per spec.md §4.3 (a constant-pool-referencing metadata string would
// be cyclic).
func (t *StringTable) GetInline(index int) (string, error) {
	v, err := t.Get(index)
	if err != nil {
		return "", err
	}
	s, ok := v.asString()
	if !ok {
		return "", newErr(KindElement, "referenced string does not have inline data")
	}
	return s, nil
}
