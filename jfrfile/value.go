package jfrfile

// PrimitiveKind tags the variant stored in a Primitive.
type PrimitiveKind int

const (
	PrimitiveBoolean PrimitiveKind = iota
	PrimitiveByte
	PrimitiveShort
	PrimitiveInteger
	PrimitiveLong
	PrimitiveFloat
	PrimitiveDouble
	PrimitiveCharacter
	PrimitiveNullString
	PrimitiveString
	PrimitiveStringConstantPool
)

// Primitive is a decoded JVM primitive/built-in value.
//
// Grounded on original_source/jfr-reader/src/primitive.rs's Primitive.
type Primitive struct {
	Kind      PrimitiveKind
	Bool      bool
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	Char      rune
	Str       string
	CPIndex   int64 // valid when Kind == PrimitiveStringConstantPool
}

var reservedPrimitiveNames = map[string]bool{
	"boolean":           true,
	"byte":              true,
	"short":             true,
	"int":               true,
	"long":              true,
	"float":             true,
	"double":            true,
	"char":              true,
	"java.lang.String":  true,
}

// parsePrimitive decodes a value of one of the reserved primitive class
// names. Callers must have already checked the name is reserved.
//
// Grounded on original_source/jfr-reader/src/primitive.rs's
// resolve_parser/try_parse_from_name dispatch table.
func parsePrimitive(name string, c *cursor) (Primitive, error) {
	switch name {
	case "boolean":
		v, err := c.bool()
		return Primitive{Kind: PrimitiveBoolean, Bool: v}, withContext(err, "parsing boolean")
	case "byte":
		v, err := c.i8()
		return Primitive{Kind: PrimitiveByte, Byte: v}, withContext(err, "parsing byte")
	case "short":
		v, err := c.varint16()
		return Primitive{Kind: PrimitiveShort, Short: v}, withContext(err, "parsing short")
	case "int":
		v, err := c.varint32()
		return Primitive{Kind: PrimitiveInteger, Int: v}, withContext(err, "parsing int")
	case "long":
		v, err := c.varint()
		return Primitive{Kind: PrimitiveLong, Long: v}, withContext(err, "parsing long")
	case "float":
		v, err := c.beF32()
		return Primitive{Kind: PrimitiveFloat, Float: v}, withContext(err, "parsing float")
	case "double":
		v, err := c.beF64()
		return Primitive{Kind: PrimitiveDouble, Double: v}, withContext(err, "parsing double")
	case "char":
		v, err := c.char()
		return Primitive{Kind: PrimitiveCharacter, Char: v}, withContext(err, "parsing char")
	case "java.lang.String":
		rec, err := parseStringRecord(c)
		if err != nil {
			return Primitive{}, withContext(err, "parsing java.lang.String")
		}
		sv, err := rec.resolve()
		if err != nil {
			return Primitive{}, withContext(err, "resolving java.lang.String")
		}
		switch sv.kind {
		case stringValueNull:
			return Primitive{Kind: PrimitiveNullString}, nil
		case stringValueConstantPoolRef:
			return Primitive{Kind: PrimitiveStringConstantPool, CPIndex: sv.cpIndex}, nil
		default:
			return Primitive{Kind: PrimitiveString, Str: sv.s}, nil
		}
	default:
		return Primitive{}, errf(KindParse, "%q is not a reserved primitive name", name)
	}
}

// ValueKind tags the variant stored in a Value.
type ValueKind int

const (
	ValuePrimitive ValueKind = iota
	ValueObject
	ValueArray
	ValueConstantPoolRef
	ValueConstantPoolNull
)

// Value is the tagged value tree produced by the type-directed decoder
// (§4.5): a primitive, an object instance, an array of values, an
// unresolved constant pool reference, or a resolved-to-null reference.
//
// Grounded on original_source/jfr-reader/src/value.rs's Value enum.
type Value struct {
	Kind      ValueKind
	Primitive Primitive
	Object    *Object
	Array     []*Value
	ClassID   int64 // valid when Kind == ValueConstantPoolRef
	CPIndex   int64 // valid when Kind == ValueConstantPoolRef
}

// Object is an instance of a class: a borrowed class description plus
// owned field values in the class's declaration order.
type Object struct {
	Class  *ClassElement
	Fields []*Value
}

// FieldAt returns the value of the field at the given declaration index.
func (o *Object) FieldAt(i int) *Value {
	if i < 0 || i >= len(o.Fields) {
		return nil
	}
	return o.Fields[i]
}

// FieldByName returns the value of the first field whose declared name
// matches, or nil if none does.
func (o *Object) FieldByName(name string) *Value {
	for i, f := range o.Class.Fields {
		if f.Name == name {
			return o.Fields[i]
		}
	}
	return nil
}

// decodeValue implements §4.5: look up the class by id; if its name is a
// reserved primitive, decode that primitive; otherwise decode each
// declared field in order (handling arrays and constant-pool-referenced
// fields) and build an Object.
func decodeValue(c *cursor, classID int64, md *Metadata) (*Value, error) {
	class, ok := md.ClassByID(classID)
	if !ok {
		return nil, errf(KindClassNotFound, "failed to locate class with id %d", classID)
	}

	if reservedPrimitiveNames[class.Name] {
		p, err := parsePrimitive(class.Name, c)
		if err != nil {
			return nil, err
		}
		return &Value{Kind: ValuePrimitive, Primitive: p}, nil
	}

	fields := make([]*Value, len(class.Fields))
	for i, f := range class.Fields {
		if f.IsArray() {
			n, err := c.varint32()
			if err != nil {
				return nil, withContext(err, "reading array length for field "+f.Name)
			}
			arr := make([]*Value, n)
			for j := range arr {
				v, err := decodeFieldElement(c, &f, md)
				if err != nil {
					return nil, err
				}
				arr[j] = v
			}
			fields[i] = &Value{Kind: ValueArray, Array: arr}
		} else {
			v, err := decodeFieldElement(c, &f, md)
			if err != nil {
				return nil, err
			}
			fields[i] = v
		}
	}

	return &Value{Kind: ValueObject, Object: &Object{Class: class, Fields: fields}}, nil
}

// decodeFieldElement decodes one element (scalar or one array slot) of
// a field: a constant pool index if the field is so marked, otherwise a
// recursive value of the field's type.
func decodeFieldElement(c *cursor, f *FieldElement, md *Metadata) (*Value, error) {
	if f.IsConstantPoolRef() {
		idx, err := c.varint()
		if err != nil {
			return nil, withContext(err, "reading constant pool index for field "+f.Name)
		}
		if idx == 0 {
			return &Value{Kind: ValueConstantPoolNull}, nil
		}
		return &Value{Kind: ValueConstantPoolRef, ClassID: f.TypeID, CPIndex: idx}, nil
	}
	v, err := decodeValue(c, f.TypeID, md)
	if err != nil {
		return nil, withContext(err, "decoding field "+f.Name)
	}
	return v, nil
}

// cpRefKey identifies a single constant pool slot, used to bound
// recursive resolution against reference cycles (spec.md §4.5/§9).
type cpRefKey struct {
	classID int64
	index   int64
}

// ResolveConstants returns a copy of the value tree with every
// ConstantPoolRef replaced by its resolved value (recursively), per
// §4.5. The resulting tree has no ConstantPoolRef variants remaining,
// except where resolution was forced to ConstantPoolNull.
func (v *Value) ResolveConstants(r *Resolver) (*Value, error) {
	return v.resolveConstants(r, map[cpRefKey]bool{})
}

func (v *Value) resolveConstants(r *Resolver, visited map[cpRefKey]bool) (*Value, error) {
	switch v.Kind {
	case ValuePrimitive:
		return v, nil
	case ValueObject:
		fields := make([]*Value, len(v.Object.Fields))
		for i, f := range v.Object.Fields {
			rv, err := f.resolveConstants(r, visited)
			if err != nil {
				return nil, err
			}
			fields[i] = rv
		}
		return &Value{Kind: ValueObject, Object: &Object{Class: v.Object.Class, Fields: fields}}, nil
	case ValueArray:
		arr := make([]*Value, len(v.Array))
		for i, e := range v.Array {
			rv, err := e.resolveConstants(r, visited)
			if err != nil {
				return nil, err
			}
			arr[i] = rv
		}
		return &Value{Kind: ValueArray, Array: arr}, nil
	case ValueConstantPoolRef:
		key := cpRefKey{classID: v.ClassID, index: v.CPIndex}
		if visited[key] {
			return nil, errf(KindConstantNotFound, "cyclic constant pool reference at %d:%d", v.ClassID, v.CPIndex)
		}
		visited[key] = true
		defer delete(visited, key)

		raw, kind := r.get(v.ClassID, v.CPIndex)
		switch kind {
		case constantLookupNull:
			return &Value{Kind: ValueConstantPoolNull}, nil
		case constantLookupMissing:
			if r.mode == Permissive {
				return &Value{Kind: ValueConstantPoolNull}, nil
			}
			return nil, errf(KindConstantNotFound, "could not find constant %d for class %d", v.CPIndex, v.ClassID)
		default:
			return raw.resolveConstants(r, visited)
		}
	case ValueConstantPoolNull:
		return v, nil
	default:
		return nil, errf(KindDeserialize, "unknown value kind %d", v.Kind)
	}
}
