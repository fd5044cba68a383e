// Package storage persists datasets as CSV files under a data directory and,
// optionally, into PostgreSQL.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/expatscrape/internal/logger"
	"github.com/jmylchreest/expatscrape/internal/output"
	"github.com/jmylchreest/expatscrape/pkg/category"
	"github.com/jmylchreest/expatscrape/pkg/dataset"
)

var (
	// ErrEmptyDataset is returned by Read for a file with no header.
	ErrEmptyDataset = errors.New("dataset file is empty")
	// ErrMalformedDataset is returned by Read when the CSV cannot be parsed.
	ErrMalformedDataset = errors.New("dataset file is malformed")
)

// Kind separates scraped files from cleaned ones.
type Kind string

const (
	KindRaw     Kind = "raw"
	KindCleaned Kind = "cleaned"
)

// ParseKind resolves a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindRaw:
		return KindRaw, nil
	case KindCleaned, "clean":
		return KindCleaned, nil
	}
	return "", fmt.Errorf("unknown dataset kind %q (want raw or cleaned)", s)
}

func (k Kind) suffix() string {
	if k == KindCleaned {
		return "clean"
	}
	return "raw"
}

const timestampLayout = "20060102150405"

// maxSameSecond bounds the -N suffixes tried for one timestamp.
const maxSameSecond = 1000

// FileName returns <slug>_<timestamp>_<raw|clean>.csv.
func FileName(cat category.Category, kind Kind, at time.Time) string {
	return fileName(cat, kind, at, 1)
}

// fileName appends -n to the kind for the nth file written in one second.
func fileName(cat category.Category, kind Kind, at time.Time, n int) string {
	suffix := kind.suffix()
	if n > 1 {
		suffix += "-" + strconv.Itoa(n)
	}
	return fmt.Sprintf("%s_%s_%s.csv", cat.Slug(), at.Format(timestampLayout), suffix)
}

// ParseFileName reverses FileName, accepting the -N suffix of files written
// in the same second. ok is false for foreign names.
func ParseFileName(name string) (cat category.Category, kind Kind, at time.Time, ok bool) {
	base := strings.TrimSuffix(filepath.Base(name), ".csv")
	parts := strings.Split(base, "_")
	if len(parts) != 3 {
		return 0, "", time.Time{}, false
	}
	c, err := category.Parse(parts[0])
	if err != nil {
		return 0, "", time.Time{}, false
	}
	t, err := time.ParseInLocation(timestampLayout, parts[1], time.Local)
	if err != nil {
		return 0, "", time.Time{}, false
	}
	suffix, seq, found := strings.Cut(parts[2], "-")
	if found {
		if n, err := strconv.Atoi(seq); err != nil || n < 2 {
			return 0, "", time.Time{}, false
		}
	}
	switch suffix {
	case "raw":
		kind = KindRaw
	case "clean":
		kind = KindCleaned
	default:
		return 0, "", time.Time{}, false
	}
	return c, kind, t, true
}

// FileInfo describes one stored dataset file.
type FileInfo struct {
	Name     string
	Path     string
	Kind     Kind
	Category category.Category // zero when the name does not follow FileName
	Size     int64
	ModTime  time.Time
}

// Store is a data directory with raw/ and cleaned/ subdirectories. Nothing
// is created until the first write.
type Store struct {
	Root string
}

// New returns a store rooted at root.
func New(root string) *Store {
	return &Store{Root: root}
}

// Dir returns the directory for kind.
func (s *Store) Dir(kind Kind) string {
	return filepath.Join(s.Root, string(kind))
}

// WriteRaw stores a freshly scraped dataset.
func (s *Store) WriteRaw(ds *dataset.Dataset, at time.Time) (string, error) {
	return s.write(KindRaw, ds, at)
}

// WriteCleaned stores a cleaned dataset.
func (s *Store) WriteCleaned(ds *dataset.Dataset, at time.Time) (string, error) {
	return s.write(KindCleaned, ds, at)
}

func (s *Store) write(kind Kind, ds *dataset.Dataset, at time.Time) (string, error) {
	if ds == nil {
		return "", errors.New("nil dataset")
	}
	if !ds.Category.Valid() {
		return "", fmt.Errorf("%w: %v", category.ErrUnknownCategory, ds.Category)
	}

	dir := s.Dir(kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	// temp file in the same directory, linked into place once complete
	tmp, err := os.CreateTemp(dir, ".tmp-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := output.NewCSVWriter(tmp, 0)
	if err := w.Write(ds); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", FileName(ds.Category, kind, at), err)
	}
	if err := w.Close(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", FileName(ds.Category, kind, at), err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	path, err := place(tmp.Name(), dir, ds.Category, kind, at)
	if err != nil {
		return "", err
	}

	logger.Debug("dataset stored", "path", path, "kind", kind, "rows", ds.Len())
	return path, nil
}

// place links tmp to the first free name for at. Link never replaces an
// existing file, so two writes in the same second keep both datasets.
func place(tmp, dir string, cat category.Category, kind Kind, at time.Time) (string, error) {
	for n := 1; n <= maxSameSecond; n++ {
		path := filepath.Join(dir, fileName(cat, kind, at, n))
		err := os.Link(tmp, path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("store %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("store %s: %d files already written in that second",
		FileName(cat, kind, at), maxSameSecond)
}

// List returns the .csv files of kind sorted by name. A directory that does
// not exist yet is reported as empty.
func (s *Store) List(kind Kind) ([]FileInfo, error) {
	dir := s.Dir(kind)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		fi := FileInfo{
			Name:    e.Name(),
			Path:    filepath.Join(dir, e.Name()),
			Kind:    kind,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if c, _, _, ok := ParseFileName(e.Name()); ok {
			fi.Category = c
		}
		out = append(out, fi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Resolve maps name to a path: an existing path is used as is, otherwise
// name is looked up in the raw directory, then the cleaned one.
func (s *Store) Resolve(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	for _, kind := range []Kind{KindRaw, KindCleaned} {
		p := filepath.Join(s.Dir(kind), filepath.Base(name))
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("dataset %q: %w", name, fs.ErrNotExist)
}

// Read loads a stored CSV. Empty cells become null. The category comes from
// the header, or from the file name when the header matches no category.
func Read(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if !ds.Category.Valid() {
		if c, _, _, ok := ParseFileName(path); ok {
			ds.Category = c
		}
	}
	return ds, nil
}

func decode(r io.Reader) (*dataset.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0 // header sets the width

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDataset, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	if len(header) == 1 && strings.TrimSpace(header[0]) == "" {
		return nil, ErrEmptyDataset
	}

	ds := &dataset.Dataset{Columns: header, Rows: make([]dataset.Row, 0)}
	if c, ok := category.FromColumns(header); ok {
		ds.Category = c
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDataset, err)
		}
		row := make(dataset.Row, len(rec))
		for i, cell := range rec {
			if cell == "" {
				row[i] = dataset.Null
			} else {
				row[i] = dataset.Str(cell)
			}
		}
		ds.Append(row)
	}
	return ds, nil
}
