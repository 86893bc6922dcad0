package jfrfile

// attrPair is a (key, value) pair of string-table indices.
type attrPair struct {
	key   int32
	value int32
}

// elementRecord is the lightly parsed, integer-only form of a node in
// the metadata's element tree: names and attribute values are indices
// into the metadata's string table, not yet resolved.
//
// Grounded on original_source/jfr-reader/src/metadata.rs's ElementRecord.
type elementRecord struct {
	nameIndex  int32
	attributes []attrPair
	children   []elementRecord
}

func parseElementRecord(c *cursor) (elementRecord, error) {
	nameIndex, err := c.varint32()
	if err != nil {
		return elementRecord{}, withContext(err, "reading element name index")
	}

	attrCount, err := c.varint32()
	if err != nil {
		return elementRecord{}, withContext(err, "reading element attribute count")
	}
	attrs := make([]attrPair, attrCount)
	for i := range attrs {
		k, err := c.varint32()
		if err != nil {
			return elementRecord{}, withContext(err, "reading element attribute key")
		}
		v, err := c.varint32()
		if err != nil {
			return elementRecord{}, withContext(err, "reading element attribute value")
		}
		attrs[i] = attrPair{key: k, value: v}
	}

	childCount, err := c.varint32()
	if err != nil {
		return elementRecord{}, withContext(err, "reading element child count")
	}
	children := make([]elementRecord, childCount)
	for i := range children {
		child, err := parseElementRecord(c)
		if err != nil {
			return elementRecord{}, withContext(err, "reading element child records")
		}
		children[i] = child
	}

	return elementRecord{nameIndex: nameIndex, attributes: attrs, children: children}, nil
}
