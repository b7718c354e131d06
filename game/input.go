package game

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dsnet/compress/bzip2"
	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// input is a PGN file, possibly compressed. Reads are counted on the raw file so
// progress can be shown against its size.
type input struct {
	io.Reader
	file    *os.File
	counter *countingReader
	closers []io.Closer
	size    int64
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	atomic.AddInt64(&c.n, int64(n))
	return n, err
}

func (in *input) count() int64 { return atomic.LoadInt64(&in.counter.n) }

func openInput(path string) (*input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	in := &input{file: f, counter: &countingReader{r: f}}
	if fi, err := f.Stat(); err == nil {
		in.size = fi.Size()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".bz2":
		r, err := bzip2.NewReader(in.counter, nil)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "open bzip2 stream %s", path)
		}
		in.Reader = r
		in.closers = append(in.closers, r)
	case ".zst":
		d, err := zstd.NewReader(in.counter)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "open zstd stream %s", path)
		}
		rc := d.IOReadCloser()
		in.Reader = rc
		in.closers = append(in.closers, rc)
	case ".gz":
		r, err := gzip.NewReader(in.counter)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "open gzip stream %s", path)
		}
		in.Reader = r
		in.closers = append(in.closers, r)
	default:
		in.Reader = in.counter
	}
	return in, nil
}

func (in *input) Close() error {
	var errs error
	for _, c := range in.closers {
		if err := c.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := in.file.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}
