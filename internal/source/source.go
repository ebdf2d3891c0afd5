package source

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"flowlog-tagger/internal/fault"
)

// ErrIsDir is wrapped in the MissingSource fault for inputs that are
// directories.
var ErrIsDir = errors.New("is a directory")

// FS resolves input and output paths against an optional root directory.
//
// Absolute paths are used as-is. An empty Root means the working directory.
type FS struct {
	Root string
}

func (fs FS) Path(name string) string {
	if fs.Root == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(fs.Root, name)
}

// Open opens a named input. Any failure, including name being a directory,
// is a fault.MissingSource.
func (fs FS) Open(name string) (*os.File, error) {
	p := fs.Path(name)
	f, err := os.Open(p)
	if err != nil {
		return nil, fault.Missing(p, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fault.Missing(p, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, fault.Missing(p, ErrIsDir)
	}
	return f, nil
}

// Consume opens name, hands it to fn and closes it on every path.
func (fs FS) Consume(name string, fn func(io.Reader) error) error {
	f, err := fs.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

// Produce creates or truncates name, hands the file to fn, then closes it.
// fn is expected to buffer its own output. Errors from creation or close
// are fault.WriteFailure; errors returned by fn are wrapped the same way
// unless they already carry a fault kind.
func (fs FS) Produce(name string, fn func(io.Writer) error) (err error) {
	p := fs.Path(name)
	f, err := os.Create(p)
	if err != nil {
		return fault.Write(p, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fault.Write(p, cerr)
		}
	}()

	if err := fn(f); err != nil {
		if fault.KindOf(err) == fault.Unknown {
			return fault.Write(p, err)
		}
		return err
	}
	return nil
}

// Lines calls fn for every line of r with its 1-based number. Line
// terminators ("\n" or "\r\n") are stripped. There is no line length limit,
// so an oversized line reaches fn and is judged like any other.
func Lines(r io.Reader, fn func(no int, text string)) error {
	br := bufio.NewReaderSize(r, 64*1024)
	no := 0
	for {
		text, err := br.ReadString('\n')
		if len(text) > 0 {
			no++
			text = strings.TrimSuffix(text, "\n")
			text = strings.TrimSuffix(text, "\r")
			fn(no, text)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
