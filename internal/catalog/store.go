package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/gilbot/internal/logger"
)

// Files names the catalog file for each kind, relative to a directory.
type Files map[Kind]string

// DefaultFiles are the file names the offline scrapers produce.
func DefaultFiles() Files {
	return Files{
		KindLesson:  "geometry-curriculum.csv",
		KindDiagram: "geogebra-materials.csv",
		KindVideo:   "khan-videos.csv",
	}
}

// Store holds one table per kind. It is populated once at startup and is
// safe for concurrent reads afterwards.
type Store struct {
	tables map[Kind]*Table
}

// NewStore builds a store from prepared tables. Kinds without a table
// resolve against an empty one.
func NewStore(tables ...*Table) *Store {
	s := &Store{tables: make(map[Kind]*Table, len(Kinds))}
	for _, k := range Kinds {
		s.tables[k] = NewTable(k, nil)
	}
	for _, t := range tables {
		if t != nil {
			s.tables[t.Kind()] = t
		}
	}
	return s
}

// Table returns the table for kind, never nil for a known kind.
func (s *Store) Table(kind Kind) (*Table, error) {
	t, ok := s.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return t, nil
}

// Lessons, Diagrams and Videos are shorthands for Table.
func (s *Store) Lessons() *Table  { return s.tables[KindLesson] }
func (s *Store) Diagrams() *Table { return s.tables[KindDiagram] }
func (s *Store) Videos() *Table   { return s.tables[KindVideo] }

// LoadDir loads every catalog in files from dir concurrently. A missing
// file leaves that kind empty and is logged; a malformed file is an error.
func LoadDir(ctx context.Context, dir string, files Files, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}

	tables := make([]*Table, len(Kinds))
	g, _ := errgroup.WithContext(ctx)
	for i, kind := range Kinds {
		name, ok := files[kind]
		if !ok || name == "" {
			continue
		}
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, name)
		}
		g.Go(func() error {
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				log.Warn("catalog file not found; kind will resolve empty", "kind", kind, "path", path)
				return nil
			}
			t, err := LoadFile(kind, path)
			if err != nil {
				return err
			}
			log.Info("catalog loaded", "kind", kind, "path", path, "entries", t.Len())
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewStore(tables...), nil
}
