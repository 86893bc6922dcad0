package jfrfile

// ConstantPoolHeader is the full header of a constant pool event record,
// including the common event header fields.
//
// Grounded on original_source/jfr-reader/src/constant_pool.rs's
// ConstantPoolHeader.
type ConstantPoolHeader struct {
	Size      int32
	TypeID    int64 // should be the constant pool type id (1)
	Timestamp int64
	Duration  int64
	Delta     int64 // signed; 0 terminates the backwards chain
	Mask      int8
	PoolCount int32
}

func parseConstantPoolHeader(c *cursor) (ConstantPoolHeader, error) {
	size, err := c.varint32()
	if err != nil {
		return ConstantPoolHeader{}, withContext(err, "reading constant pool size")
	}
	typeID, err := c.varint()
	if err != nil {
		return ConstantPoolHeader{}, withContext(err, "reading constant pool type id")
	}
	timestamp, err := c.varint()
	if err != nil {
		return ConstantPoolHeader{}, withContext(err, "reading constant pool timestamp")
	}
	duration, err := c.varint()
	if err != nil {
		return ConstantPoolHeader{}, withContext(err, "reading constant pool duration")
	}
	delta, err := c.varint()
	if err != nil {
		return ConstantPoolHeader{}, withContext(err, "reading constant pool delta")
	}
	mask, err := c.i8()
	if err != nil {
		return ConstantPoolHeader{}, withContext(err, "reading constant pool mask")
	}
	poolCount, err := c.varint32()
	if err != nil {
		return ConstantPoolHeader{}, withContext(err, "reading constant pool count")
	}
	return ConstantPoolHeader{
		Size:      size,
		TypeID:    typeID,
		Timestamp: timestamp,
		Duration:  duration,
		Delta:     delta,
		Mask:      mask,
		PoolCount: poolCount,
	}, nil
}

// ConstantPoolEvent holds a parsed constant pool header and a reference
// to its (not header-inclusive) body data.
//
// Grounded on original_source/jfr-reader/src/constant_pool.rs's
// ConstantPoolEvent.
type ConstantPoolEvent struct {
	Header   ConstantPoolHeader
	PoolData []byte

	// Offset is this event's absolute byte offset within the chunk,
	// used to resolve Header.Delta into the next offset to visit.
	Offset int64
}

func parseConstantPoolEvent(data []byte, offset int64) (ConstantPoolEvent, []byte, error) {
	c := newCursor(data)
	header, err := parseConstantPoolHeader(c)
	if err != nil {
		return ConstantPoolEvent{}, nil, withContext(err, "parsing constant pool header")
	}
	if header.Size < 0 || int(header.Size) > len(data) {
		return ConstantPoolEvent{}, nil, errf(KindParse, "constant pool event size %d exceeds available data", header.Size)
	}
	body, err := c.take(int(header.Size) - (len(data) - c.remaining()))
	if err != nil {
		return ConstantPoolEvent{}, nil, withContext(err, "reading constant pool event data")
	}
	return ConstantPoolEvent{Header: header, PoolData: body, Offset: offset}, data[header.Size:], nil
}

// constantPoolClass is one class's worth of pool entries as raw
// (index, value) tuples within a single ConstantPoolEvent.
type constantPoolClass struct {
	classID int64
	entries []constantPoolEntry
}

type constantPoolEntry struct {
	index int64
	value *Value
}

// resolveConstants decodes every class/entry in this event's body using
// the given metadata, per §4.4. Entries have no self-delimiting framing:
// each must be decoded using the metadata's type info to find the next
// entry's start, so this is necessarily a full, sequential pass.
//
// Grounded on original_source/jfr-reader/src/constant_pool.rs's
// ConstantPoolEvent::resolve_constants.
func (e *ConstantPoolEvent) resolveConstants(md *Metadata) ([]constantPoolClass, error) {
	c := newCursor(e.PoolData)
	out := make([]constantPoolClass, 0, e.Header.PoolCount)

	for i := int32(0); i < e.Header.PoolCount; i++ {
		classID, err := c.varint()
		if err != nil {
			return nil, withContext(err, "parsing constant pool class entry")
		}
		count, err := c.varint32()
		if err != nil {
			return nil, withContext(err, "parsing constant pool class entry")
		}

		entries := make([]constantPoolEntry, count)
		for j := range entries {
			index, err := c.varint()
			if err != nil {
				return nil, withContext(err, "reading constant pool entry index")
			}
			if index == 0 {
				return nil, newErr(KindParse, "constant pool index 0 is reserved for null and must not be stored")
			}
			value, err := decodeValue(c, classID, md)
			if err != nil {
				return nil, withContext(err, "decoding constant pool entry value")
			}
			entries[j] = constantPoolEntry{index: index, value: value}
		}

		out = append(out, constantPoolClass{classID: classID, entries: entries})
	}

	return out, nil
}
