package jfrfile

import "testing"

// TestDeserializeExactFieldMatch exercises spec.md §8's projection
// property: a record type whose fields exactly match a class's declared
// fields (by name and compatible type) deserializes successfully and
// its field values equal the raw value tree's leaves.
func TestDeserializeExactFieldMatch(t *testing.T) {
	md := newTestMetadata(t)
	threadParkClassID := int64(4)

	var body []byte
	body = encodeVarint(body, 100)
	body = encodeVarint(body, 5)
	body = encodeVarint(body, 0) // parkedClass: null constant pool ref
	body = encodeVarint(body, -1)
	body = encodeVarint(body, 0)
	body = encodeVarint(body, 0xDEADBEEF)

	v, err := decodeValue(newCursor(body), threadParkClassID, md)
	if err != nil {
		t.Fatalf("decoding event value: %v", err)
	}

	resolver := &Resolver{Metadata: md, mode: Permissive, pools: map[int64]map[int64]*Value{}}

	type threadPark struct {
		StartTime   int64 `jfr:"startTime"`
		Duration    int64 `jfr:"duration"`
		ParkedClass interface{} `jfr:"parkedClass"`
		Timeout     int64 `jfr:"timeout"`
		Until       int64 `jfr:"until"`
		Address     int64 `jfr:"address"`
	}
	var out threadPark
	if err := v.Deserialize(resolver, &out); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if out.StartTime != 100 {
		t.Errorf("StartTime: got %d, want 100", out.StartTime)
	}
	if out.Duration != 5 {
		t.Errorf("Duration: got %d, want 5", out.Duration)
	}
	if out.ParkedClass != nil {
		t.Errorf("ParkedClass: got %v, want nil (resolved constant pool null)", out.ParkedClass)
	}
	if out.Timeout != -1 {
		t.Errorf("Timeout: got %d, want -1", out.Timeout)
	}
	if out.Until != 0 {
		t.Errorf("Until: got %d, want 0", out.Until)
	}
	if out.Address != 0xDEADBEEF {
		t.Errorf("Address: got %#x, want 0xDEADBEEF", out.Address)
	}
}

// TestDeserializeMissingTargetFieldFails checks that a target struct
// with a field the value tree doesn't provide fails, per §4.8 ("missing
// target fields fail").
func TestDeserializeMissingTargetFieldFails(t *testing.T) {
	md := newTestMetadata(t)
	threadParkClassID := int64(4)

	var body []byte
	body = encodeVarint(body, 100)
	body = encodeVarint(body, 5)
	body = encodeVarint(body, 0)
	body = encodeVarint(body, -1)
	body = encodeVarint(body, 0)
	body = encodeVarint(body, 0xDEADBEEF)

	v, err := decodeValue(newCursor(body), threadParkClassID, md)
	if err != nil {
		t.Fatalf("decoding event value: %v", err)
	}
	resolver := &Resolver{Metadata: md, mode: Permissive, pools: map[int64]map[int64]*Value{}}

	type partial struct {
		StartTime     int64 `jfr:"startTime"`
		NotAFieldName int64 `jfr:"notAFieldName"`
	}
	var out partial
	if err := v.Deserialize(resolver, &out); err == nil {
		t.Fatal("expected an error for a target field with no matching value field")
	}
}

// TestDeserializeEventRoutesByClassName exercises the enum-style event
// projection: DeserializeEvent should route a jdk.ThreadPark event into
// the "ThreadPark" variant by matching the class name's last dotted
// segment (scenario 6's shape, driven through EventRecord rather than a
// bare Value).
func TestDeserializeEventRoutesByClassName(t *testing.T) {
	md := newTestMetadata(t)
	threadParkClassID := int64(4)

	var body []byte
	body = encodeVarint(body, 100)
	body = encodeVarint(body, 5)
	body = encodeVarint(body, 0)
	body = encodeVarint(body, -1)
	body = encodeVarint(body, 0)
	body = encodeVarint(body, 0xDEADBEEF)

	rec := &EventRecord{TypeID: threadParkClassID, fields: body}
	resolver := &Resolver{Metadata: md, mode: Permissive, pools: map[int64]map[int64]*Value{}}

	type ThreadPark struct {
		StartTime int64 `jfr:"startTime"`
	}
	type Unrelated struct{}

	var tp ThreadPark
	var un Unrelated
	name, err := DeserializeEvent(rec, resolver, map[string]EventVariant{
		"ThreadPark": &tp,
		"Unrelated":  &un,
	})
	if err != nil {
		t.Fatalf("DeserializeEvent: %v", err)
	}
	if name != "ThreadPark" {
		t.Errorf("matched variant: got %q, want ThreadPark", name)
	}
	if tp.StartTime != 100 {
		t.Errorf("StartTime: got %d, want 100", tp.StartTime)
	}

	name, err = DeserializeEvent(rec, resolver, map[string]EventVariant{"Unrelated": &un})
	if err != nil {
		t.Fatalf("DeserializeEvent with no match: %v", err)
	}
	if name != "" {
		t.Errorf("matched variant: got %q, want empty (no match)", name)
	}
}
