// Command jfrdump prints the raw contents of a JFR recording.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/flightrec/jfr/jfrfile"
	"github.com/hashicorp/go-multierror"
)

func main() {
	var (
		flagInput  = flag.String("i", "recording.jfr", "input JFR `file`")
		flagMode   = flag.String("mode", "permissive", "constant pool resolution `mode`; one of: permissive, strict")
		flagEvents = flag.Bool("events", false, "print every event record, not just chunk/metadata summaries")
	)
	flag.Parse()
	mode, ok := parseMode(*flagMode)
	if flag.NArg() > 0 || !ok {
		flag.Usage()
		os.Exit(1)
	}

	r, err := jfrfile.Open(*flagInput)
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	// A corrupt chunk's failure is reported but doesn't stop the run:
	// earlier and later chunks are independent (spec.md §7 — "corrupt
	// chunks produce a single error; earlier successfully-decoded chunks
	// remain valid"). Per-chunk failures are aggregated with
	// go-multierror and reported once at the end, alongside whatever
	// chunks did decode.
	var errs error
	chunkIndex := 0
	for {
		chunk, err := r.NextChunk()
		if err == io.EOF {
			break
		}
		if err != nil {
			// The stream's own framing is broken: the offset of any
			// further chunk is unrecoverable, so this does stop the run.
			errs = multierror.Append(errs, fmt.Errorf("chunk %d: %w", chunkIndex, err))
			break
		}

		if err := dumpChunk(chunk, chunkIndex, mode, *flagEvents); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("chunk %d: %w", chunkIndex, err))
		}
		chunkIndex++
	}
	if errs != nil {
		log.Fatal(errs)
	}
}

func dumpChunk(chunk *jfrfile.Chunk, chunkIndex int, mode jfrfile.ResolveMode, printEvents bool) error {
	fmt.Printf("chunk %d: major=%d minor=%d size=%d consistent=%v\n",
		chunkIndex, chunk.Header.Major, chunk.Header.Minor, chunk.Header.ChunkSize, chunk.Header.Consistent())
	if !chunk.Header.Consistent() {
		log.Printf("chunk %d: still being written, skipping", chunkIndex)
		return nil
	}

	md, err := chunk.Metadata()
	if err != nil {
		return err
	}
	fmt.Printf("  classes:\n")
	for _, cls := range md.Classes {
		fmt.Printf("    %d=%s (%d fields, %d settings)\n", cls.ID, cls.Name, len(cls.Fields), len(cls.Settings))
	}

	resolver, err := chunk.ResolverMode(mode)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	it := chunk.EventRecords()
	for it.Next() {
		rec := it.Record()
		if rec.IsSpecial() {
			continue
		}
		cls, ok := md.ClassByID(rec.TypeID)
		name := fmt.Sprintf("<unknown type %d>", rec.TypeID)
		if ok {
			name = cls.Name
		}
		counts[name]++

		if printEvents {
			v, err := rec.Value(resolver)
			if err != nil {
				return err
			}
			resolved, err := v.ResolveConstants(resolver)
			if err != nil {
				return err
			}
			fmt.Printf("  event %s: %+v\n", name, resolved)
		}
	}
	if it.Err() != nil {
		return it.Err()
	}

	fmt.Printf("  event counts:\n")
	for name, n := range counts {
		fmt.Printf("    %s: %d\n", name, n)
	}
	return nil
}

func parseMode(mode string) (jfrfile.ResolveMode, bool) {
	switch mode {
	case "permissive":
		return jfrfile.Permissive, true
	case "strict":
		return jfrfile.Strict, true
	}
	return 0, false
}
