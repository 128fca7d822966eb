package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalFS opens split files on the local disk. A leading file:// scheme is
// accepted so the same directory strings work for local and remote runs.
type LocalFS struct{}

func localPath(name string) string {
	return filepath.FromSlash(strings.TrimPrefix(name, "file://"))
}

func (LocalFS) Create(name string) (io.WriteCloser, error) {
	p := localPath(name)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, err
	}
	return os.Create(p)
}

func (LocalFS) Open(name string) (io.ReadCloser, error) {
	return os.Open(localPath(name))
}
