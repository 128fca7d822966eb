package split

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tilesplit/pkg/common"
)

// FileName is the file an index is stored under inside a split directory.
const FileName = "partitions"

// FileSystem opens named streams. Implementations may be local disks or a
// distributed filesystem.
type FileSystem interface {
	Create(name string) (io.WriteCloser, error)
	Open(name string) (io.ReadCloser, error)
}

// PartitionsPath resolves the index file inside dir. Plain concatenation
// keeps URI schemes such as hdfs:// intact.
func PartitionsPath(dir string) string {
	return strings.TrimSuffix(dir, "/") + "/" + FileName
}

// WriteTo emits the count followed by one "<tile> <partition>" line per entry
// in ascending tile order.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64

	n, err := fmt.Fprintf(bw, "%d\n", len(idx.entries))
	total += int64(n)
	if err != nil {
		return total, err
	}
	for _, e := range idx.entries {
		n, err = fmt.Fprintf(bw, "%d %d\n", e.Key, e.Partition)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

// ReadFrom replaces the index with the table stored in r. Tokens are
// whitespace separated; line layout is not significant. Entries are kept in
// stream order. Tiles must be non-negative and partitions must lie in
// [0, count). On error the index is left unchanged.
func (idx *Index) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	sc := bufio.NewScanner(cr)
	sc.Split(bufio.ScanWords)

	next := func(what string) (string, error) {
		if sc.Scan() {
			return sc.Text(), nil
		}
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("split: read %s: %w", what, err)
		}
		return "", fmt.Errorf("%w: truncated before %s", ErrMalformed, what)
	}

	tok, err := next("count")
	if err != nil {
		return cr.n, err
	}
	count, err := strconv.Atoi(tok)
	if err != nil || count < 0 {
		return cr.n, fmt.Errorf("%w: bad count %q", ErrMalformed, tok)
	}

	entries := make([]Entry, 0, min(count, 1<<16))
	for i := 0; i < count; i++ {
		tok, err = next(fmt.Sprintf("tile %d", i))
		if err != nil {
			return cr.n, err
		}
		key, err := strconv.ParseInt(tok, 10, 64)
		if err != nil || key < 0 {
			return cr.n, fmt.Errorf("%w: bad tile %q at entry %d", ErrMalformed, tok, i)
		}

		tok, err = next(fmt.Sprintf("partition %d", i))
		if err != nil {
			return cr.n, err
		}
		part, err := strconv.Atoi(tok)
		if err != nil || part < 0 || part >= count {
			return cr.n, fmt.Errorf("%w: bad partition %q at entry %d", ErrMalformed, tok, i)
		}

		entries = append(entries, Entry{Key: common.TileID(key), Partition: part})
	}

	if sc.Scan() {
		return cr.n, fmt.Errorf("%w: %d entries declared, extra token %q", ErrMalformed, count, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return cr.n, fmt.Errorf("split: read trailer: %w", err)
	}

	idx.entries = entries
	return cr.n, nil
}

// WriteToDir stores the index as dir/partitions.
func (idx *Index) WriteToDir(fs FileSystem, dir string) (err error) {
	f, err := fs.Create(PartitionsPath(dir))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = idx.WriteTo(f)
	return err
}

// ReadFromDir loads the index from dir/partitions.
func (idx *Index) ReadFromDir(fs FileSystem, dir string) error {
	f, err := fs.Open(PartitionsPath(dir))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = idx.ReadFrom(f)
	return err
}

// IsDataError reports whether err is one of the index's own error kinds as
// opposed to an I/O failure of the underlying stream.
func IsDataError(err error) bool {
	return errors.Is(err, ErrNotGenerated) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrInvalidGenerator)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
