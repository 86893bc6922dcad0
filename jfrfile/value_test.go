package jfrfile

import "testing"

// newTestMetadata builds a Metadata with the class graph scenario 6 in
// the testable-properties list describes: a Symbol class holding one
// java.lang.String field, a Class holding one constant-pool-referenced
// Symbol field, and a jdk.ThreadPark event class with six scalar
// fields, one of which (parkedClass) is a constant-pool reference to
// Class.
func newTestMetadata(t *testing.T) *Metadata {
	t.Helper()

	stringClassID := int64(1)
	symbolClassID := int64(2)
	classClassID := int64(3)
	threadParkClassID := int64(4)

	symbol := ClassElement{
		ID:   symbolClassID,
		Name: "jdk.types.Symbol",
		Fields: []FieldElement{
			{Name: "string", TypeID: stringClassID},
		},
	}
	classClass := ClassElement{
		ID:   classClassID,
		Name: "java.lang.Class",
		Fields: []FieldElement{
			{Name: "name", TypeID: symbolClassID, ConstantPool: strPtr("true")},
		},
	}
	threadPark := ClassElement{
		ID:   threadParkClassID,
		Name: "jdk.ThreadPark",
		Fields: []FieldElement{
			{Name: "startTime", TypeID: 100},
			{Name: "duration", TypeID: 100},
			{Name: "parkedClass", TypeID: classClassID, ConstantPool: strPtr("true")},
			{Name: "timeout", TypeID: 100},
			{Name: "until", TypeID: 100},
			{Name: "address", TypeID: 100},
		},
	}
	longClass := ClassElement{ID: 100, Name: "long"}
	javaLangString := ClassElement{ID: stringClassID, Name: "java.lang.String"}

	classByID := map[int64]*ClassElement{
		stringClassID:     &javaLangString,
		symbolClassID:     &symbol,
		classClassID:      &classClass,
		threadParkClassID: &threadPark,
		100:               &longClass,
	}
	return &Metadata{classByID: classByID}
}

func strPtr(s string) *string { return &s }

func TestDecodeEventAndResolveConstants(t *testing.T) {
	md := newTestMetadata(t)

	symbolClassID := int64(2)
	classClassID := int64(3)
	threadParkClassID := int64(4)

	// Build the constant pool: index 7 in the Class pool resolves to
	// {name: CPRef(Symbol, 1)}; index 1 in the Symbol pool resolves to
	// {string: "java.lang.Object"}.
	var symbolBody []byte
	symbolBody = append(symbolBody, 0x03) // utf8 encoding tag
	name := "java.lang.Object"
	symbolBody = encodeVarint(symbolBody, int64(len(name)))
	symbolBody = append(symbolBody, name...)
	symbolValue, err := decodeValue(newCursor(symbolBody), symbolClassID, md)
	if err != nil {
		t.Fatalf("decoding symbol value: %v", err)
	}

	classBody := encodeVarint(nil, 1) // cp index into Symbol pool
	classValue, err := decodeValue(newCursor(classBody), classClassID, md)
	if err != nil {
		t.Fatalf("decoding class value: %v", err)
	}

	resolver := &Resolver{
		Metadata: md,
		mode:     Permissive,
		pools: map[int64]map[int64]*Value{
			symbolClassID: {1: symbolValue},
			classClassID:  {7: classValue},
		},
	}

	// Build the ThreadPark event body: start=100, duration=5, cp_ref=7,
	// timeout=-1, until=0, address=0xDEADBEEF.
	var body []byte
	body = encodeVarint(body, 100)
	body = encodeVarint(body, 5)
	body = encodeVarint(body, 7)
	body = encodeVarint(body, -1)
	body = encodeVarint(body, 0)
	body = encodeVarint(body, 0xDEADBEEF)

	v, err := decodeValue(newCursor(body), threadParkClassID, md)
	if err != nil {
		t.Fatalf("decoding event value: %v", err)
	}

	resolved, err := v.ResolveConstants(resolver)
	if err != nil {
		t.Fatalf("ResolveConstants: %v", err)
	}

	obj := resolved.Object
	if obj == nil {
		t.Fatal("expected an object value")
	}
	if got := obj.FieldByName("startTime").Primitive.Long; got != 100 {
		t.Errorf("startTime: got %d, want 100", got)
	}
	if got := obj.FieldByName("duration").Primitive.Long; got != 5 {
		t.Errorf("duration: got %d, want 5", got)
	}
	if got := obj.FieldByName("timeout").Primitive.Long; got != -1 {
		t.Errorf("timeout: got %d, want -1", got)
	}
	if got := obj.FieldByName("until").Primitive.Long; got != 0 {
		t.Errorf("until: got %d, want 0", got)
	}
	if got := obj.FieldByName("address").Primitive.Long; got != 0xDEADBEEF {
		t.Errorf("address: got %#x, want 0xDEADBEEF", got)
	}

	parkedClass := obj.FieldByName("parkedClass")
	if parkedClass.Kind != ValueObject {
		t.Fatalf("parkedClass: got kind %v, want object (resolved)", parkedClass.Kind)
	}
	symbolField := parkedClass.Object.FieldByName("name")
	if symbolField.Kind != ValueObject {
		t.Fatalf("name: got kind %v, want object (resolved)", symbolField.Kind)
	}
	if got := symbolField.Object.FieldByName("string").Primitive.Str; got != "java.lang.Object" {
		t.Errorf("string: got %q, want java.lang.Object", got)
	}
}

func TestResolveConstantsCyclicReferenceErrors(t *testing.T) {
	md := &Metadata{classByID: map[int64]*ClassElement{
		1: {ID: 1, Name: "Self", Fields: []FieldElement{{Name: "next", TypeID: 1, ConstantPool: strPtr("true")}}},
	}}
	resolver := &Resolver{Metadata: md, mode: Permissive}
	// A value whose only field refers back to its own constant pool
	// slot: resolving it must detect the cycle rather than recurse
	// forever.
	self := &Value{Kind: ValueObject, Object: &Object{
		Class:  md.classByID[1],
		Fields: []*Value{{Kind: ValueConstantPoolRef, ClassID: 1, CPIndex: 1}},
	}}
	resolver.pools = map[int64]map[int64]*Value{1: {1: self}}

	ref := &Value{Kind: ValueConstantPoolRef, ClassID: 1, CPIndex: 1}
	if _, err := ref.ResolveConstants(resolver); err == nil {
		t.Fatal("expected a cyclic constant pool reference error")
	}
}

func TestResolveConstantsMissingPermissiveVsStrict(t *testing.T) {
	md := &Metadata{classByID: map[int64]*ClassElement{1: {ID: 1, Name: "X"}}}
	ref := &Value{Kind: ValueConstantPoolRef, ClassID: 1, CPIndex: 99}

	permissive := &Resolver{Metadata: md, mode: Permissive, pools: map[int64]map[int64]*Value{}}
	v, err := ref.ResolveConstants(permissive)
	if err != nil {
		t.Fatalf("permissive mode: unexpected error: %v", err)
	}
	if v.Kind != ValueConstantPoolNull {
		t.Errorf("permissive mode: got kind %v, want null", v.Kind)
	}

	strict := &Resolver{Metadata: md, mode: Strict, pools: map[int64]map[int64]*Value{}}
	if _, err := ref.ResolveConstants(strict); err == nil {
		t.Fatal("strict mode: expected an error for a missing constant")
	}
}
