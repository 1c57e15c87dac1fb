package cliutil

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// OpenInput opens path ("-" or "" for stdin) and transparently
// decompresses gzip and zstd streams, detected by magic bytes.
func OpenInput(stdin io.Reader, path string) (io.ReadCloser, error) {
	var src io.ReadCloser
	if path == "" || path == "-" {
		src = io.NopCloser(stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		src = f
	}
	return Decompress(src)
}

// Decompress wraps r in a gzip or zstd reader when its first bytes carry the
// matching magic number.
func Decompress(r io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4)
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			r.Close()
			return nil, err
		}
		return &stackedReader{Reader: zr, closers: []func() error{zr.Close, r.Close}}, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			r.Close()
			return nil, err
		}
		return &stackedReader{Reader: zr, closers: []func() error{func() error { zr.Close(); return nil }, r.Close}}, nil
	default:
		return &stackedReader{Reader: br, closers: []func() error{r.Close}}, nil
	}
}

type stackedReader struct {
	io.Reader
	closers []func() error
}

func (s *stackedReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ScanLines calls fn for every non-blank line of r.
func ScanLines(r io.Reader, fn func(line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if strings.TrimSpace(string(line)) == "" {
			continue
		}
		// the scanner reuses its buffer
		if err := fn(append([]byte(nil), line...)); err != nil {
			return err
		}
	}
	return sc.Err()
}
