package jfrfile

import "testing"

func mustResolve(t *testing.T, r stringRecord) stringValue {
	t.Helper()
	v, err := r.resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return v
}

func TestStringRecordNull(t *testing.T) {
	v := mustResolve(t, stringRecord{encoding: encodingNull})
	if v.kind != stringValueNull {
		t.Errorf("got kind %v, want null", v.kind)
	}
}

func TestStringRecordEmpty(t *testing.T) {
	v := mustResolve(t, stringRecord{encoding: encodingEmptyString})
	s, ok := v.asString()
	if !ok || s != "" {
		t.Errorf("got (%q, %v), want (\"\", true)", s, ok)
	}
}

func TestStringRecordConstantPoolRef(t *testing.T) {
	v := mustResolve(t, stringRecord{encoding: encodingConstantPool, cpIndex: 7})
	if v.kind != stringValueConstantPoolRef || v.cpIndex != 7 {
		t.Errorf("got %+v, want constant pool ref to 7", v)
	}
}

func TestStringRecordUTF8(t *testing.T) {
	v := mustResolve(t, stringRecord{encoding: encodingUtf8ByteArray, utf8: []byte("hello")})
	s, _ := v.asString()
	if s != "hello" {
		t.Errorf("got %q, want hello", s)
	}
}

func TestStringRecordUTF8Invalid(t *testing.T) {
	_, err := (stringRecord{encoding: encodingUtf8ByteArray, utf8: []byte{0xff, 0xfe}}).resolve()
	if err == nil {
		t.Fatal("expected error for invalid utf-8")
	}
}

func TestStringRecordCharArray(t *testing.T) {
	// 'h','i' as a char array
	v := mustResolve(t, stringRecord{encoding: encodingCharArray, chars: []int32{'h', 'i'}})
	s, _ := v.asString()
	if s != "hi" {
		t.Errorf("got %q, want hi", s)
	}
}

func TestStringRecordCharArrayInvalidSurrogate(t *testing.T) {
	_, err := (stringRecord{encoding: encodingCharArray, chars: []int32{0xD800}}).resolve()
	if err == nil {
		t.Fatal("expected error for lone surrogate in char array")
	}
}

// Latin-1 bytes map 1:1 to Unicode scalars, not through UTF-8 decoding:
// byte 0xE9 (Latin-1 "é") becomes rune U+00E9, so the result is "é!".
// The opposite direction — UTF-8 bytes 0xC3 0xA9 tagged as Latin-1
// turning into "Ã©" — is pinned down by
// TestStringRecordParseAndResolveExactBytes.
func TestStringRecordLatin1(t *testing.T) {
	v := mustResolve(t, stringRecord{encoding: encodingLatin1ByteArray, latin1: []byte{0xE9, '!'}})
	s, ok := v.asString()
	if !ok {
		t.Fatal("expected inline string")
	}
	want := "é!"
	if s != want {
		t.Errorf("got %q, want %q", s, want)
	}
}

func TestStringRecordUnknownEncoding(t *testing.T) {
	_, err := (stringRecord{encoding: 99}).resolve()
	if err == nil {
		t.Fatal("expected error for unknown string encoding")
	}
}

func TestStringTableMemoizesFailure(t *testing.T) {
	st := newStringTable([]stringRecord{
		{encoding: encodingUtf8ByteArray, utf8: []byte{0xff}},
	})
	_, err1 := st.Get(0)
	_, err2 := st.Get(0)
	if err1 == nil || err2 == nil {
		t.Fatal("expected both calls to fail")
	}
	if err1.Error() != err2.Error() {
		t.Errorf("memoized error changed between calls: %v vs %v", err1, err2)
	}
}

func TestStringRecordParseAndResolveExactBytes(t *testing.T) {
	cases := []struct {
		bytes []byte
		want  string
		null  bool
	}{
		{[]byte{0x00}, "", true},
		{[]byte{0x01}, "", false},
		{[]byte{0x03, 0x05, 'h', 'e', 'l', 'l', 'o'}, "hello", false},
		{[]byte{0x05, 0x03, 0xC3, 0xA9, 0x21}, "Ã©!", false},
	}
	for _, c := range cases {
		rec, err := parseStringRecord(newCursor(c.bytes))
		if err != nil {
			t.Fatalf("parseStringRecord(%x): %v", c.bytes, err)
		}
		v, err := rec.resolve()
		if err != nil {
			t.Fatalf("resolve(%x): %v", c.bytes, err)
		}
		if c.null {
			if v.kind != stringValueNull {
				t.Errorf("%x: got kind %v, want null", c.bytes, v.kind)
			}
			continue
		}
		s, ok := v.asString()
		if !ok || s != c.want {
			t.Errorf("%x: got (%q, %v), want (%q, true)", c.bytes, s, ok, c.want)
		}
	}
}

func TestStringTableOutOfRange(t *testing.T) {
	st := newStringTable(nil)
	if _, err := st.Get(0); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestStringTableGetInlineRejectsConstantPoolRef(t *testing.T) {
	st := newStringTable([]stringRecord{{encoding: encodingConstantPool, cpIndex: 1}})
	if _, err := st.GetInline(0); err == nil {
		t.Fatal("expected GetInline to reject a constant pool reference")
	}
}
