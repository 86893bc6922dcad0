// Package jfrfile reads Java Flight Recorder (JFR) binary recordings.
//
// A recording is a sequence of self-contained chunks (see Chunk). Each
// chunk carries its own type system (Metadata) and value-interning
// dictionary (the constant pool), so chunks can be parsed independently
// and, if desired, concurrently.
//
// Typical usage:
//
//	r, err := jfrfile.Open("recording.jfr")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Close()
//
//	for {
//		chunk, err := r.NextChunk()
//		if err == io.EOF {
//			break
//		} else if err != nil {
//			log.Fatal(err)
//		}
//
//		resolver, err := chunk.Resolver()
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		it := chunk.EventRecords()
//		for it.Next() {
//			v, err := it.Record().Value(resolver)
//			...
//		}
//	}
package jfrfile // import "github.com/flightrec/jfr/jfrfile"
