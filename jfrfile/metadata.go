package jfrfile

import "strconv"

// MetadataHeader is the static header portion of a metadata event, up to
// the dynamic string table data.
//
// Grounded on original_source/jfr-reader/src/metadata.rs's MetadataHeader.
type MetadataHeader struct {
	Size                  int32
	EventTypeID           int64 // should be the metadata type id (0)
	StartTimeNanoseconds  int64
	DurationNanoseconds   int64
	MetadataID            int64
	StringCount           int32
}

func parseMetadataHeader(c *cursor) (MetadataHeader, error) {
	size, err := c.varint32()
	if err != nil {
		return MetadataHeader{}, withContext(err, "reading metadata size")
	}
	eventTypeID, err := c.varint()
	if err != nil {
		return MetadataHeader{}, withContext(err, "reading metadata event type id")
	}
	startTime, err := c.varint()
	if err != nil {
		return MetadataHeader{}, withContext(err, "reading metadata start time")
	}
	duration, err := c.varint()
	if err != nil {
		return MetadataHeader{}, withContext(err, "reading metadata duration")
	}
	metadataID, err := c.varint()
	if err != nil {
		return MetadataHeader{}, withContext(err, "reading metadata id")
	}
	stringCount, err := c.varint32()
	if err != nil {
		return MetadataHeader{}, withContext(err, "reading metadata string count")
	}
	return MetadataHeader{
		Size:                 size,
		EventTypeID:          eventTypeID,
		StartTimeNanoseconds: startTime,
		DurationNanoseconds:  duration,
		MetadataID:           metadataID,
		StringCount:          stringCount,
	}, nil
}

// metadataRecords holds the results of Stage A parsing: the header, the
// raw string records, and the root of the integer-domain element tree.
type metadataRecords struct {
	header        MetadataHeader
	stringRecords []stringRecord
	root          elementRecord
}

func parseMetadataRecords(c *cursor) (metadataRecords, error) {
	header, err := parseMetadataHeader(c)
	if err != nil {
		return metadataRecords{}, withContext(err, "parsing metadata event header")
	}

	strs := make([]stringRecord, header.StringCount)
	for i := range strs {
		r, err := parseStringRecord(c)
		if err != nil {
			return metadataRecords{}, withContext(err, "reading string table records")
		}
		strs[i] = r
	}

	root, err := parseElementRecord(c)
	if err != nil {
		return metadataRecords{}, withContext(err, "parsing root element record")
	}

	return metadataRecords{header: header, stringRecords: strs, root: root}, nil
}

// AnnotationElement is a resolved annotation: a type id plus an ordered
// list of generic (key, value) pairs.
type AnnotationElement struct {
	TypeID int64
	Values [][2]string
}

func annotationFromRaw(el elementRecord, st *StringTable) (AnnotationElement, error) {
	var typeID *string
	values := make([][2]string, 0, len(el.attributes))

	for _, a := range el.attributes {
		k, err := st.GetInline(int(a.key))
		if err != nil {
			return AnnotationElement{}, err
		}
		v, err := st.GetInline(int(a.value))
		if err != nil {
			return AnnotationElement{}, err
		}
		if k == "class" {
			vv := v
			typeID = &vv
		} else {
			values = append(values, [2]string{k, v})
		}
	}

	if typeID == nil {
		return AnnotationElement{}, newErr(KindElement, "annotation lacks type id attribute")
	}
	id, err := strconv.ParseInt(*typeID, 10, 64)
	if err != nil {
		return AnnotationElement{}, errf(KindElement, "error parsing annotation class id to int: %v", err)
	}

	return AnnotationElement{TypeID: id, Values: values}, nil
}

// FieldElement describes a field in a class/type.
//
// Grounded on original_source/jfr-reader/src/metadata.rs's FieldElement.
type FieldElement struct {
	Name          string
	TypeID        int64
	Dimension     *int64 // > 0 means this field is an array
	ConstantPool  *string // present ⇒ the inline value is a pool index
	Annotations   []AnnotationElement
}

// IsArray reports whether this field is declared as an array.
func (f *FieldElement) IsArray() bool {
	return f.Dimension != nil && *f.Dimension > 0
}

// IsConstantPoolRef reports whether this field's inline value is a
// varint index into the constant pool for its type id.
func (f *FieldElement) IsConstantPoolRef() bool {
	return f.ConstantPool != nil
}

func fieldFromRaw(el elementRecord, st *StringTable) (FieldElement, error) {
	annotations, err := annotationsFromChildren(el.children, st)
	if err != nil {
		return FieldElement{}, err
	}

	var name, class, dimension, constantPool *string
	for _, a := range el.attributes {
		k, err := st.GetInline(int(a.key))
		if err != nil {
			return FieldElement{}, err
		}
		v, err := st.GetInline(int(a.value))
		if err != nil {
			return FieldElement{}, err
		}
		switch k {
		case "name":
			name = &v
		case "class":
			class = &v
		case "dimension":
			dimension = &v
		case "constantPool":
			constantPool = &v
		default:
			return FieldElement{}, errf(KindElement, "field element has unexpected attribute: %s", k)
		}
	}

	if name == nil {
		return FieldElement{}, newErr(KindElement, "field lacks name attribute")
	}
	if class == nil {
		return FieldElement{}, newErr(KindElement, "field lacks class attribute")
	}
	typeID, err := strconv.ParseInt(*class, 10, 64)
	if err != nil {
		return FieldElement{}, errf(KindElement, "field element class fails to parse as integer: %v", err)
	}

	f := FieldElement{Name: *name, TypeID: typeID, Annotations: annotations, ConstantPool: constantPool}
	if dimension != nil {
		d, err := strconv.ParseInt(*dimension, 10, 64)
		if err != nil {
			return FieldElement{}, errf(KindElement, "field element dimension fails to parse as integer: %v", err)
		}
		f.Dimension = &d
	}
	return f, nil
}

// SettingsElement describes a well-known setting: name, type id, and a
// raw default value string (interpreted further in settings.go).
type SettingsElement struct {
	Name         string
	TypeID       int64
	DefaultValue string
	Annotations  []AnnotationElement
}

func settingFromRaw(el elementRecord, st *StringTable) (SettingsElement, error) {
	annotations, err := annotationsFromChildren(el.children, st)
	if err != nil {
		return SettingsElement{}, err
	}

	var name, class, defaultValue *string
	for _, a := range el.attributes {
		k, err := st.GetInline(int(a.key))
		if err != nil {
			return SettingsElement{}, err
		}
		v, err := st.GetInline(int(a.value))
		if err != nil {
			return SettingsElement{}, err
		}
		switch k {
		case "name":
			name = &v
		case "class":
			class = &v
		case "defaultValue":
			defaultValue = &v
		default:
			return SettingsElement{}, errf(KindElement, "setting element has unexpected attribute: %s", k)
		}
	}
	if name == nil || class == nil || defaultValue == nil {
		return SettingsElement{}, newErr(KindElement, "setting element missing a required attribute")
	}
	typeID, err := strconv.ParseInt(*class, 10, 64)
	if err != nil {
		return SettingsElement{}, errf(KindElement, "setting element class fails to parse as integer: %v", err)
	}
	return SettingsElement{Name: *name, TypeID: typeID, DefaultValue: *defaultValue, Annotations: annotations}, nil
}

// ClassElement defines a Java class/type: its name, optional super
// type, fields, settings, and annotations.
//
// Grounded on original_source/jfr-reader/src/metadata.rs's ClassElement.
type ClassElement struct {
	ID          int64
	Name        string
	SuperType   *string
	SimpleType  *string
	Fields      []FieldElement
	Settings    []SettingsElement
	Annotations []AnnotationElement
}

// AllAnnotations returns every annotation reachable from this class:
// its own, plus every field's and setting's. There may be duplicates.
//
// Grounded on original_source/jfr-reader/src/metadata.rs's
// ClassElement::all_annotations.
func (c *ClassElement) AllAnnotations() []AnnotationElement {
	out := append([]AnnotationElement(nil), c.Annotations...)
	for _, f := range c.Fields {
		out = append(out, f.Annotations...)
	}
	for _, s := range c.Settings {
		out = append(out, s.Annotations...)
	}
	return out
}

func classFromRaw(el elementRecord, st *StringTable) (ClassElement, error) {
	var annotations []AnnotationElement
	var fields []FieldElement
	var settings []SettingsElement

	for _, child := range el.children {
		name, err := st.GetInline(int(child.nameIndex))
		if err != nil {
			return ClassElement{}, err
		}
		switch name {
		case "annotation":
			a, err := annotationFromRaw(child, st)
			if err != nil {
				return ClassElement{}, err
			}
			annotations = append(annotations, a)
		case "field":
			f, err := fieldFromRaw(child, st)
			if err != nil {
				return ClassElement{}, err
			}
			fields = append(fields, f)
		case "setting":
			s, err := settingFromRaw(child, st)
			if err != nil {
				return ClassElement{}, err
			}
			settings = append(settings, s)
		default:
			return ClassElement{}, errf(KindElement, "class element has unexpected child: %s", name)
		}
	}

	var name, superType, simpleType, id *string
	for _, a := range el.attributes {
		k, err := st.GetInline(int(a.key))
		if err != nil {
			return ClassElement{}, err
		}
		v, err := st.GetInline(int(a.value))
		if err != nil {
			return ClassElement{}, err
		}
		switch k {
		case "name":
			name = &v
		case "superType":
			superType = &v
		case "simpleType":
			simpleType = &v
		case "id":
			id = &v
		default:
			return ClassElement{}, errf(KindElement, "class element has unexpected attribute: %s", k)
		}
	}

	if name == nil {
		return ClassElement{}, newErr(KindElement, "class lacks name attribute")
	}
	if id == nil {
		return ClassElement{}, newErr(KindElement, "class lacks id attribute")
	}
	classID, err := strconv.ParseInt(*id, 10, 64)
	if err != nil {
		return ClassElement{}, errf(KindElement, "class element id fails to parse as integer: %v", err)
	}

	return ClassElement{
		ID:          classID,
		Name:        *name,
		SuperType:   superType,
		SimpleType:  simpleType,
		Fields:      fields,
		Settings:    settings,
		Annotations: annotations,
	}, nil
}

func annotationsFromChildren(children []elementRecord, st *StringTable) ([]AnnotationElement, error) {
	var out []AnnotationElement
	for _, child := range children {
		name, err := st.GetInline(int(child.nameIndex))
		if err != nil {
			return nil, err
		}
		if name != "annotation" {
			return nil, errf(KindElement, "unexpected child element: %s", name)
		}
		a, err := annotationFromRaw(child, st)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// RegionElement carries the chunk's locale and GMT offset.
type RegionElement struct {
	Locale    string
	GMTOffset string
}

func regionFromRaw(el elementRecord, st *StringTable) (RegionElement, error) {
	if len(el.children) != 0 {
		return RegionElement{}, newErr(KindElement, "region element must not have children")
	}
	var locale, gmtOffset *string
	for _, a := range el.attributes {
		k, err := st.GetInline(int(a.key))
		if err != nil {
			return RegionElement{}, err
		}
		v, err := st.GetInline(int(a.value))
		if err != nil {
			return RegionElement{}, err
		}
		switch k {
		case "locale":
			locale = &v
		case "gmtOffset":
			gmtOffset = &v
		default:
			return RegionElement{}, errf(KindElement, "region element has unexpected attribute: %s", k)
		}
	}
	if locale == nil || gmtOffset == nil {
		return RegionElement{}, newErr(KindElement, "region element missing locale or gmtOffset")
	}
	return RegionElement{Locale: *locale, GMTOffset: *gmtOffset}, nil
}

// Metadata is the fully parsed metadata event: the string table, the
// root of the element tree, and a class id -> ClassElement index built
// while promoting the tree.
//
// Grounded on original_source/jfr-reader/src/metadata.rs's Metadata.
type Metadata struct {
	Header      MetadataHeader
	Strings     *StringTable
	Region      RegionElement
	Classes     []ClassElement
	classByID   map[int64]*ClassElement
}

// ClassByID looks up a class by its chunk-local id.
func (m *Metadata) ClassByID(id int64) (*ClassElement, bool) {
	c, ok := m.classByID[id]
	return c, ok
}

func parseMetadata(c *cursor) (*Metadata, error) {
	records, err := parseMetadataRecords(c)
	if err != nil {
		return nil, err
	}

	st := newStringTable(records.stringRecords)

	rootName, err := st.GetInline(int(records.root.nameIndex))
	if err != nil {
		return nil, err
	}
	if rootName != "root" {
		return nil, errf(KindElement, "expected root element, got %s", rootName)
	}
	if len(records.root.attributes) != 0 {
		return nil, newErr(KindElement, "root element must not have attributes")
	}

	var metadataChild, regionChild *elementRecord
	for i := range records.root.children {
		child := &records.root.children[i]
		name, err := st.GetInline(int(child.nameIndex))
		if err != nil {
			return nil, err
		}
		switch name {
		case "metadata":
			if metadataChild != nil {
				return nil, newErr(KindElement, "root element has more than one metadata child")
			}
			metadataChild = child
		case "region":
			if regionChild != nil {
				return nil, newErr(KindElement, "root element has more than one region child")
			}
			regionChild = child
		default:
			return nil, errf(KindElement, "root element has unexpected child: %s", name)
		}
	}
	if metadataChild == nil || regionChild == nil {
		return nil, newErr(KindElement, "root element must have exactly one metadata and one region child")
	}
	if len(metadataChild.attributes) != 0 {
		return nil, newErr(KindElement, "metadata element must not have attributes")
	}

	region, err := regionFromRaw(*regionChild, st)
	if err != nil {
		return nil, err
	}

	classes := make([]ClassElement, 0, len(metadataChild.children))
	classByID := make(map[int64]*ClassElement, len(metadataChild.children))
	for _, child := range metadataChild.children {
		name, err := st.GetInline(int(child.nameIndex))
		if err != nil {
			return nil, err
		}
		if name != "class" {
			return nil, errf(KindElement, "metadata element has unexpected child: %s", name)
		}
		cls, err := classFromRaw(child, st)
		if err != nil {
			return nil, err
		}
		classes = append(classes, cls)
	}
	for i := range classes {
		classByID[classes[i].ID] = &classes[i]
	}

	return &Metadata{
		Header:    records.header,
		Strings:   st,
		Region:    region,
		Classes:   classes,
		classByID: classByID,
	}, nil
}
