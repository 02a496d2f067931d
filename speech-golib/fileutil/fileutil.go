package fileutil

import (
	"compress/gzip"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/kiteco/speechlm/speech-golib/awsutil"
	"github.com/kiteco/speechlm/speech-golib/errors"
	"github.com/spf13/afero"
)

var (
	fsGuarded afero.Fs = afero.NewOsFs()
	fsRW      sync.RWMutex
)

// SetFs replaces the filesystem used for local (non-S3) paths.
func SetFs(fs afero.Fs) {
	fsRW.Lock()
	defer fsRW.Unlock()
	fsGuarded = fs
}

// Fs returns the filesystem used for local paths.
func Fs() afero.Fs {
	fsRW.RLock()
	defer fsRW.RUnlock()
	return fsGuarded
}

// NamedWriteCloser is a file-like object extending io.WriteCloser with a string Name() similar to os.File.Name()
type NamedWriteCloser = awsutil.NamedWriteCloser

// Discarder is implemented by writers that can drop everything written so far instead of
// publishing it on Close.
type Discarder interface {
	Discard() error
}

// NewReader opens a local or remote path for reading. If the path looks like
// "s3://bucket/path/to/object" then this will read an object from S3. Otherwise, this
// will read a path from the local filesystem. Paths ending in .gz, .sz or .snappy are
// decompressed transparently.
func NewReader(path string) (io.ReadCloser, error) {
	var r io.ReadCloser
	var err error
	if awsutil.IsS3URI(path) {
		r, err = awsutil.NewS3Reader(path)
	} else {
		r, err = Fs().Open(path)
	}
	if err != nil {
		return nil, err
	}
	return decompress(path, r)
}

// ReadFile reads the contents of a local or remote path.
func ReadFile(path string) ([]byte, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return ioutil.ReadAll(r)
}

// NewBufferedWriter opens a local or remote path for writing. If the path starts with
// "s3://", then this will write to a local buffer, copying to s3 on close. Otherwise,
// this will write to a temporary file next to path that is renamed into place on close,
// so readers never observe a partially written file. Paths ending in .gz, .sz or .snappy
// are compressed transparently.
func NewBufferedWriter(path string) (NamedWriteCloser, error) {
	var w NamedWriteCloser
	if awsutil.IsS3URI(path) {
		s3w, err := awsutil.NewBufferedS3Writer(path)
		if err != nil {
			return nil, err
		}
		w = s3w
	} else {
		lw, err := newLocalWriter(Fs(), path)
		if err != nil {
			return nil, err
		}
		w = lw
	}
	return compress(path, w), nil
}

// Discard drops the data written to w if w supports it, and closes it otherwise.
func Discard(w io.WriteCloser) error {
	if d, ok := w.(Discarder); ok {
		return d.Discard()
	}
	return w.Close()
}

// --

type localWriter struct {
	fs   afero.Fs
	f    afero.File
	path string
}

func newLocalWriter(fs afero.Fs, path string) (*localWriter, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := fs.Create(path + ".tmp")
	if err != nil {
		return nil, err
	}
	return &localWriter{fs: fs, f: f, path: path}, nil
}

func (w *localWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *localWriter) Close() error {
	if err := w.f.Close(); err != nil {
		w.fs.Remove(w.f.Name())
		return err
	}
	return errors.WrapfOrNil(w.fs.Rename(w.f.Name(), w.path), "error moving %s into place", w.path)
}

func (w *localWriter) Discard() error {
	w.f.Close()
	return w.fs.Remove(w.f.Name())
}

func (w *localWriter) Name() string {
	return w.path
}

// --

type codec int

const (
	codecNone codec = iota
	codecGzip
	codecSnappy
)

func codecFor(path string) codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return codecGzip
	case ".sz", ".snappy":
		return codecSnappy
	default:
		return codecNone
	}
}

type decompressingReader struct {
	io.Reader
	closers []io.Closer
}

func (r decompressingReader) Close() error {
	var err error
	for _, c := range r.closers {
		err = errors.Combine(err, c.Close())
	}
	return err
}

func decompress(path string, r io.ReadCloser) (io.ReadCloser, error) {
	switch codecFor(path) {
	case codecGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			r.Close()
			return nil, errors.Wrapf(err, "error opening gzip stream %s", path)
		}
		return decompressingReader{Reader: gz, closers: []io.Closer{gz, r}}, nil
	case codecSnappy:
		return decompressingReader{Reader: snappy.NewReader(r), closers: []io.Closer{r}}, nil
	default:
		return r, nil
	}
}

type compressingWriter struct {
	io.WriteCloser
	dest NamedWriteCloser
}

func (w compressingWriter) Close() error {
	if err := w.WriteCloser.Close(); err != nil {
		Discard(w.dest)
		return err
	}
	return w.dest.Close()
}

func (w compressingWriter) Discard() error {
	return Discard(w.dest)
}

func (w compressingWriter) Name() string {
	return w.dest.Name()
}

func compress(path string, w NamedWriteCloser) NamedWriteCloser {
	switch codecFor(path) {
	case codecGzip:
		return compressingWriter{WriteCloser: gzip.NewWriter(w), dest: w}
	case codecSnappy:
		return compressingWriter{WriteCloser: snappy.NewBufferedWriter(w), dest: w}
	default:
		return w
	}
}
