package jfrfile

// ResolveMode controls how a Resolver treats a constant pool reference
// whose (class id, index) is not present in the pool.
//
// Spec.md §9 flags this as suspicious-but-observed real-world behavior:
// official JFR readers treat a missing non-null index as null. Permissive
// mode mimics that for compatibility; Strict mode surfaces an error for
// verification workflows. See DESIGN.md's Open Question decisions.
type ResolveMode int

const (
	Permissive ResolveMode = iota
	Strict
)

type constantLookupKind int

const (
	constantLookupValue constantLookupKind = iota
	constantLookupNull
	constantLookupMissing
)

// Resolver ties a chunk's Metadata together with its assembled constant
// pool values and exposes lookup/expansion APIs.
//
// Grounded on original_source/jfr-reader/src/resolver.rs's
// EventResolver.
type Resolver struct {
	Metadata *Metadata
	Header   ChunkHeader
	mode     ResolveMode
	pools    map[int64]map[int64]*Value
}

// NewResolver builds a Resolver from already-parsed metadata and the
// full set of constant pool events in a chunk (in any order; the
// per-(class, index) aggregation is order-sensitive only with respect
// to the last-writer-wins rule below).
func NewResolver(md *Metadata, header ChunkHeader, events []ConstantPoolEvent, mode ResolveMode) (*Resolver, error) {
	pools := make(map[int64]map[int64]*Value)

	for i := range events {
		classes, err := events[i].resolveConstants(md)
		if err != nil {
			return nil, withContext(err, "resolving constant pool event")
		}
		for _, cls := range classes {
			m, ok := pools[cls.classID]
			if !ok {
				m = make(map[int64]*Value, len(cls.entries))
				pools[cls.classID] = m
			}
			for _, e := range cls.entries {
				// Duplicate (class_id, index) across chained events: the
				// last-writer-wins policy overwrites rather than dropping
				// (spec.md §4.4).
				m[e.index] = e.value
			}
		}
	}

	return &Resolver{Metadata: md, Header: header, mode: mode, pools: pools}, nil
}

// get performs one non-recursive constant pool lookup.
func (r *Resolver) get(classID, index int64) (*Value, constantLookupKind) {
	if index == 0 {
		return nil, constantLookupNull
	}
	m, ok := r.pools[classID]
	if !ok {
		return nil, constantLookupMissing
	}
	v, ok := m[index]
	if !ok {
		return nil, constantLookupMissing
	}
	return v, constantLookupValue
}

// Get resolves a single constant pool reference one level deep, without
// expanding any nested ConstantPoolRef within the result.
func (r *Resolver) Get(classID, index int64) (value *Value, isNull bool, err error) {
	v, kind := r.get(classID, index)
	switch kind {
	case constantLookupNull:
		return nil, true, nil
	case constantLookupMissing:
		if r.mode == Permissive {
			return nil, true, nil
		}
		return nil, false, errf(KindConstantNotFound, "could not find constant %d for class %d", index, classID)
	default:
		return v, false, nil
	}
}

// GetRecursive resolves a constant pool reference and recursively
// expands any ConstantPoolRef it contains, bounded against cycles.
func (r *Resolver) GetRecursive(classID, index int64) (value *Value, isNull bool, err error) {
	v, kind := r.get(classID, index)
	switch kind {
	case constantLookupNull:
		return nil, true, nil
	case constantLookupMissing:
		if r.mode == Permissive {
			return nil, true, nil
		}
		return nil, false, errf(KindConstantNotFound, "could not find constant %d for class %d", index, classID)
	default:
		resolved, err := v.resolveConstants(r, map[cpRefKey]bool{{classID: classID, index: index}: true})
		if err != nil {
			return nil, false, err
		}
		return resolved, false, nil
	}
}

// TickNanoseconds converts a tick count relative to the chunk's
// start_ticks into absolute wall-clock nanoseconds since the epoch,
// using the chunk header's ticks_per_second (§4.6's "time resolver").
func (r *Resolver) TickNanoseconds(ticks int64) int64 {
	deltaTicks := ticks - int64(r.Header.StartTicks)
	if r.Header.TicksPerSecond == 0 {
		return int64(r.Header.WallClockNanoseconds)
	}
	deltaNanos := deltaTicks * 1_000_000_000 / int64(r.Header.TicksPerSecond)
	return int64(r.Header.WallClockNanoseconds) + deltaNanos
}

// TickDuration converts a tick delta into a duration in nanoseconds.
func (r *Resolver) TickDuration(ticks int64) int64 {
	if r.Header.TicksPerSecond == 0 {
		return 0
	}
	return ticks * 1_000_000_000 / int64(r.Header.TicksPerSecond)
}
