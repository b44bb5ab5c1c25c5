package engine

import (
	"bufio"
	"context"
	"io"
	"os"
)

// MaxLineSize bounds a single record read from an input file.
const MaxLineSize = 16 * 1024 * 1024

// Source yields the records of one FILE_BACKED partition.
type Source interface {
	// Next returns the next record. ok is false once the source is exhausted.
	Next(ctx context.Context) (record any, ok bool, err error)
	Close() error
}

// Opener opens the Source behind a path.
type Opener func(path string) (Source, error)

// OpenFile opens path as a Source of lines (without the line terminator).
func OpenFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewLineSource(f), nil
}

// NewLineSource yields the lines of rc and closes it on Close.
func NewLineSource(rc io.ReadCloser) Source {
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &lineSource{rc: rc, sc: sc}
}

type lineSource struct {
	rc io.ReadCloser
	sc *bufio.Scanner
}

func (s *lineSource) Next(ctx context.Context) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.sc.Scan() {
		return s.sc.Text(), true, nil
	}
	return nil, false, s.sc.Err()
}

func (s *lineSource) Close() error { return s.rc.Close() }

// drain calls fn for every record of src until fn returns false or src is
// exhausted, then closes it.
func drain(ctx context.Context, src Source, fn func(any) bool) (err error) {
	defer func() {
		if cerr := src.Close(); err == nil {
			err = cerr
		}
	}()
	for {
		rec, ok, err := src.Next(ctx)
		if err != nil {
			return err
		}
		if !ok || !fn(rec) {
			return nil
		}
	}
}
