package jfrfile

import (
	"fmt"
	"strings"
)

// Kind categorizes an Error.
type Kind int

const (
	// KindIncomplete means the input ran out before a value could be
	// decoded. A driver reading a stream may buffer more bytes and
	// retry, but only at chunk granularity: a chunk is decoded only
	// after being fully read.
	KindIncomplete Kind = iota
	// KindParse means the input was malformed at a specific offset.
	KindParse
	// KindIO is surfaced only by the external chunk source.
	KindIO
	// KindStringEncoding covers unknown string encoding tags, invalid
	// UTF-8, and non-scalar char array entries.
	KindStringEncoding
	// KindStringTableIndex means a string table index referenced a
	// non-existent slot.
	KindStringTableIndex
	// KindElement covers missing names, unknown element names, and
	// unexpected attributes/children while promoting the metadata
	// element tree.
	KindElement
	// KindClassNotFound means a field or event referenced a class id
	// absent from the chunk's class map.
	KindClassNotFound
	// KindConstantNotFound means a constant pool lookup failed under
	// strict resolution.
	KindConstantNotFound
	// KindDeserialize covers structural projection mismatches.
	KindDeserialize
	// KindAnnotationParse covers malformed well-known annotation payloads.
	KindAnnotationParse
	// KindSettingParse covers malformed well-known setting payloads.
	KindSettingParse
)

func (k Kind) String() string {
	switch k {
	case KindIncomplete:
		return "incomplete"
	case KindParse:
		return "parse"
	case KindIO:
		return "io"
	case KindStringEncoding:
		return "string encoding"
	case KindStringTableIndex:
		return "string table index"
	case KindElement:
		return "element"
	case KindClassNotFound:
		return "class not found"
	case KindConstantNotFound:
		return "constant not found"
	case KindDeserialize:
		return "deserialize"
	case KindAnnotationParse:
		return "annotation parse"
	case KindSettingParse:
		return "setting parse"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every decode function in this
// package. Context is accumulated as parsing descends, so the outermost
// message reads as a path: "parsing metadata event header: reading
// string table records: ...".
type Error struct {
	Kind    Kind
	Context []string
	Needed  int // valid when Kind == KindIncomplete
	Msg     string
	Wrapped error
}

func (e *Error) Error() string {
	var b strings.Builder
	for _, c := range e.Context {
		b.WriteString(c)
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is reports whether target is an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func errf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func errIncomplete(needed int) *Error {
	return &Error{Kind: KindIncomplete, Needed: needed, Msg: fmt.Sprintf("need %d more byte(s)", needed)}
}

// withContext returns a copy of err (if it is an *Error) with ctx pushed
// onto its context stack, outermost first. Non-*Error values are wrapped
// as a KindIO error, since everything internal to this package returns
// *Error.
func withContext(err error, ctx string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		cp := *e
		cp.Context = append([]string{ctx}, cp.Context...)
		return &cp
	}
	return &Error{Kind: KindIO, Context: []string{ctx}, Wrapped: err}
}
