// Package stl writes triangle soups as binary STL. The format is an
// 80-byte comment header, a little-endian uint32 triangle count, and
// one 50-byte record per triangle. Writer streams records through a
// buffered channel so extraction can emit triangles without blocking
// on disk, then patches the count into the header on Close.
package stl

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/mesh"
)

const headerSize = 80

// bufSize is the channel depth between Write callers and the writer
// goroutine.
const bufSize = 10000

// record is the 50-byte on-disk triangle: unit normal, three vertices,
// and an unused attribute word.
type record struct {
	N, V1, V2, V3 [3]float32
	_             uint16
}

func point(v v3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// toRecord converts a triangle, deriving the facet normal from the
// counterclockwise winding. Degenerate triangles get a zero normal,
// which readers treat as "recompute from vertices".
func toRecord(t mesh.Triangle) record {
	return record{
		N:  point(t.Normal()),
		V1: point(t[0]),
		V2: point(t[1]),
		V3: point(t[2]),
	}
}

type writeSeekCloser interface {
	io.Writer
	io.Seeker
	io.Closer
}

// Writer streams triangles into a binary STL file. The triangle count
// is not known until Close, so the destination must be seekable.
type Writer struct {
	wg  sync.WaitGroup
	ch  chan record
	mu  sync.RWMutex
	err error
}

// Create opens filename for writing and returns a streaming Writer.
// The caller must Close it to finish the file.
func Create(filename string) (*Writer, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("stl: create %s: %w", filename, err)
	}
	return start(f)
}

// start writes the header placeholder and launches the writer
// goroutine.
func start(out writeSeekCloser) (*Writer, error) {
	header := struct {
		_ [headerSize]uint8
		_ uint32
	}{}
	if err := binary.Write(out, binary.LittleEndian, &header); err != nil {
		out.Close()
		return nil, fmt.Errorf("stl: write header: %w", err)
	}
	w := &Writer{ch: make(chan record, bufSize)}
	w.wg.Add(1)
	go w.writer(out)
	return w, nil
}

// Write queues one triangle. It reports the first error hit by the
// writer goroutine; triangles written after an error are dropped.
func (w *Writer) Write(t mesh.Triangle) error {
	w.mu.RLock()
	err := w.err
	w.mu.RUnlock()
	if err != nil {
		return err
	}
	w.ch <- toRecord(t)
	return nil
}

// Close flushes queued triangles, patches the triangle count into the
// header, and closes the destination.
func (w *Writer) Close() error {
	close(w.ch)
	w.wg.Wait()
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.err
}

func (w *Writer) setErr(err error) {
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

func (w *Writer) writer(out writeSeekCloser) {
	defer w.wg.Done()
	var count uint32
	for rec := range w.ch {
		if w.err != nil {
			continue // drain so Write never blocks
		}
		if err := binary.Write(out, binary.LittleEndian, &rec); err != nil {
			w.setErr(fmt.Errorf("stl: write triangle: %w", err))
			continue
		}
		count++
	}
	if w.err == nil {
		if _, err := out.Seek(headerSize, io.SeekStart); err != nil {
			w.setErr(fmt.Errorf("stl: seek: %w", err))
		} else if err := binary.Write(out, binary.LittleEndian, count); err != nil {
			w.setErr(fmt.Errorf("stl: write count: %w", err))
		}
	}
	if err := out.Close(); err != nil && w.err == nil {
		w.setErr(fmt.Errorf("stl: close: %w", err))
	}
}

// Write emits tris to out in a single pass. The count is known up
// front, so out needs no seek support.
func Write(out io.Writer, tris []mesh.Triangle) error {
	var comment [headerSize]uint8
	if err := binary.Write(out, binary.LittleEndian, comment); err != nil {
		return fmt.Errorf("stl: write header: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, uint32(len(tris))); err != nil {
		return fmt.Errorf("stl: write count: %w", err)
	}
	for _, t := range tris {
		rec := toRecord(t)
		if err := binary.Write(out, binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("stl: write triangle: %w", err)
		}
	}
	return nil
}

// WriteFile writes tris to filename as binary STL.
func WriteFile(filename string, tris []mesh.Triangle) error {
	w, err := Create(filename)
	if err != nil {
		return err
	}
	for _, t := range tris {
		if err := w.Write(t); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
