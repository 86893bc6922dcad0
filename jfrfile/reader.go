package jfrfile

import (
	"context"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// ChunkSource is the external collaborator that yields a recording's
// raw bytes: any random-access byte source. A Reader assumes the caller
// can provide random access over the whole recording (a file, or any
// io.ReaderAt); sources without random access go through StreamReader
// instead.
type ChunkSource interface {
	io.ReaderAt
}

// ErrTruncated is returned by NextChunk when fewer than ChunkHeaderSize
// bytes remain: a partial header, not a clean end of stream.
var ErrTruncated = newErr(KindIncomplete, "truncated chunk header")

// Reader sequentially frames chunks out of a ChunkSource, using each
// chunk header's declared ChunkSize to find the next chunk's start.
//
// Grounded on the teacher's perffile.File/New (parse fixed header,
// validate, derive section boundaries), generalized here from one
// section to a repeating sequence of chunk-sized sections. Each chunk
// is read with two plain ReadAt calls (header, then the whole chunk);
// there is no buffering or retry.
type Reader struct {
	src    ChunkSource
	size   int64
	offset int64
	closer io.Closer
}

// Open opens path and returns a Reader over its full contents. The
// caller must Close the returned Reader.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{src: f, size: fi.Size(), closer: f}, nil
}

// NewReader wraps src, which spans exactly size bytes, as a Reader. The
// caller remains responsible for src's lifetime.
func NewReader(src ChunkSource, size int64) *Reader {
	return &Reader{src: src, size: size}
}

// Close releases any resources opened by Open. It is a no-op for
// Readers constructed with NewReader.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// NextChunk reads and parses the next chunk, advancing past it. It
// returns io.EOF once the whole source has been consumed, or
// ErrTruncated if a partial chunk header remains.
func (r *Reader) NextChunk() (*Chunk, error) {
	if r.offset >= r.size {
		return nil, io.EOF
	}

	remaining := r.size - r.offset
	if remaining < ChunkHeaderSize {
		return nil, ErrTruncated
	}

	hdrBuf := make([]byte, ChunkHeaderSize)
	if _, err := r.src.ReadAt(hdrBuf, r.offset); err != nil {
		return nil, withContext(err, "reading chunk header")
	}
	header, err := parseChunkHeader(newCursor(hdrBuf))
	if err != nil {
		return nil, withContext(err, "parsing chunk header")
	}
	if header.ChunkSize < ChunkHeaderSize || int64(header.ChunkSize) > remaining {
		return nil, errf(KindParse, "chunk size %d invalid at offset %d (%d bytes remain)", header.ChunkSize, r.offset, remaining)
	}

	buf := make([]byte, header.ChunkSize)
	if _, err := r.src.ReadAt(buf, r.offset); err != nil {
		return nil, withContext(err, "reading chunk body")
	}
	r.offset += int64(header.ChunkSize)

	return ParseChunk(buf)
}

// ReadAllChunks drains r, returning every chunk in file order. Useful
// for small recordings or tests; large recordings should iterate
// NextChunk directly to avoid holding every chunk in memory at once.
func ReadAllChunks(r *Reader) ([]*Chunk, error) {
	var chunks []*Chunk
	for {
		c, err := r.NextChunk()
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, c)
	}
}

// DecodeChunksParallel decodes each chunk's Resolver concurrently, one
// goroutine per chunk bounded by GOMAXPROCS, and returns the resolvers
// in the same order as chunks. Each chunk's Metadata and constant pool
// are independent (spec.md §5: "no shared mutable state between
// chunks"), so this is safe without additional synchronization beyond
// what NewResolver itself does per chunk.
//
// Failures from individual chunks are aggregated with
// github.com/hashicorp/go-multierror rather than aborting on the first
// one, so a single corrupt chunk doesn't hide errors — or successes —
// in its siblings; resolvers for chunks that failed are nil in the
// returned slice.
func DecodeChunksParallel(ctx context.Context, chunks []*Chunk, mode ResolveMode) ([]*Resolver, error) {
	resolvers := make([]*Resolver, len(chunks))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	var mu sync.Mutex
	var errs error
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			r, err := chunk.ResolverMode(mode)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, withContext(err, "decoding chunk"))
				mu.Unlock()
				return nil // keep decoding the remaining chunks
			}
			resolvers[i] = r
			return nil
		})
	}
	g.Wait()

	return resolvers, errs
}
