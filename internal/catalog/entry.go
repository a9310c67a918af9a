// Package catalog loads the read-only resource tables the tutor resolves
// topics against: curriculum lessons, interactive diagrams and videos.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a resource table.
type Kind string

const (
	KindLesson  Kind = "lesson"
	KindDiagram Kind = "diagram"
	KindVideo   Kind = "video"
)

// Kinds lists every resource kind in resolution order.
var Kinds = []Kind{KindLesson, KindDiagram, KindVideo}

var (
	// ErrUnknownKind is returned for a kind outside Kinds.
	ErrUnknownKind = errors.New("unknown catalog kind")

	// ErrMissingColumn is returned when a catalog file lacks a required column.
	ErrMissingColumn = errors.New("missing catalog column")
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Entry is one row of a catalog, unified across the three kinds.
type Entry struct {
	Kind  Kind   `json:"kind"`
	ID    string `json:"id"`
	Title string `json:"title"`
	// Keywords are lower-cased, trimmed, de-duplicated tags in file order.
	Keywords []string `json:"keywords,omitempty"`
	URL      string   `json:"url,omitempty"`
	// Subject is the video platform's course slug. Empty for other kinds.
	Subject string `json:"subject,omitempty"`
}

// HasKeyword reports whether keyword is literally one of the entry's tags.
func (e Entry) HasKeyword(keyword string) bool {
	for _, k := range e.Keywords {
		if k == keyword {
			return true
		}
	}
	return false
}

// ParseKeywords splits a comma-separated tag cell into normalized tags.
func ParseKeywords(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ",")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		k := strings.ToLower(strings.TrimSpace(p))
		if k == "" || k == "nan" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Table is an immutable list of entries of a single kind.
type Table struct {
	kind    Kind
	entries []Entry
}

// NewTable builds a table. The entries slice is owned by the table
// afterwards and must not be modified by the caller.
func NewTable(kind Kind, entries []Entry) *Table {
	return &Table{kind: kind, entries: entries}
}

// Kind returns the table's resource kind.
func (t *Table) Kind() Kind {
	if t == nil {
		return ""
	}
	return t.kind
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns the rows in catalog order. The slice is shared and
// read-only.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	return t.entries
}
