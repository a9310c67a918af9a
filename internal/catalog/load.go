package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	diagramURLTemplate = "https://www.geogebra.org/m/%s"
	videoURLTemplate   = "https://www.youtube.com/watch?v=%s"
)

// columns lists the accepted header aliases for each field, matched
// case-insensitively. The first alias present in a file wins.
type columns struct {
	id       []string
	title    []string
	keywords []string
	url      []string
	subject  []string
}

var kindColumns = map[Kind]columns{
	KindLesson: {
		id:       []string{"lesson code", "code", "lesson_id", "id"},
		title:    []string{"lesson title", "title"},
		keywords: []string{"keywords", "keyword", "topics"},
		url:      []string{"url", "link"},
	},
	KindDiagram: {
		id:       []string{"materialid", "material_id", "id"},
		title:    []string{"title"},
		keywords: []string{"keywords", "topic", "topics"},
		url:      []string{"url", "link"},
	},
	KindVideo: {
		id:       []string{"video_id", "videoid", "youtube_id", "id"},
		title:    []string{"video_title", "title"},
		keywords: []string{"keywords", "matched_topics", "topic"},
		url:      []string{"video_url", "url"},
		subject:  []string{"subject"},
	},
}

// row is a case-insensitive view of one record.
type row map[string]string

func (r row) first(aliases []string) (string, bool) {
	for _, a := range aliases {
		if v, ok := r[a]; ok {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// LoadFile reads a CSV or JSON catalog file of the given kind. The format
// is chosen by extension; anything other than .json is parsed as CSV.
func LoadFile(kind Kind, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s catalog: %w", kind, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(kind, f)
	}
	return LoadCSV(kind, f)
}

// LoadCSV parses a catalog from CSV with a header row.
func LoadCSV(kind Kind, r io.Reader) (*Table, error) {
	cols, ok := kindColumns[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return NewTable(kind, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", kind, err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}
	if err := requireColumns(kind, cols, header); err != nil {
		return nil, err
	}

	var rows []row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s record: %w", kind, err)
		}
		rw := make(row, len(header))
		for i, name := range header {
			if i < len(rec) {
				rw[name] = rec[i]
			}
		}
		rows = append(rows, rw)
	}
	return NewTable(kind, adaptRows(kind, cols, rows)), nil
}

// LoadJSON parses a catalog from a JSON array of objects that use the same
// field names as the CSV headers.
func LoadJSON(kind Kind, r io.Reader) (*Table, error) {
	cols, ok := kindColumns[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s catalog: %w", kind, err)
	}

	rows := make([]row, 0, len(raw))
	for _, obj := range raw {
		rw := make(row, len(obj))
		for k, v := range obj {
			rw[strings.ToLower(strings.TrimSpace(k))] = jsonCell(v)
		}
		rows = append(rows, rw)
	}
	return NewTable(kind, adaptRows(kind, cols, rows)), nil
}

func requireColumns(kind Kind, cols columns, header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	has := func(aliases []string) bool {
		for _, a := range aliases {
			if present[a] {
				return true
			}
		}
		return false
	}

	var required [][]string
	switch kind {
	case KindLesson:
		required = [][]string{cols.title, cols.keywords}
	case KindDiagram:
		required = [][]string{cols.id, cols.keywords}
	case KindVideo:
		required = [][]string{cols.id, cols.title, cols.keywords}
	}
	for _, aliases := range required {
		if !has(aliases) {
			return fmt.Errorf("%w: %s catalog needs one of %v", ErrMissingColumn, kind, aliases)
		}
	}
	return nil
}

func adaptRows(kind Kind, cols columns, rows []row) []Entry {
	entries := make([]Entry, 0, len(rows))
	for i, rw := range rows {
		e := Entry{Kind: kind}
		e.ID, _ = rw.first(cols.id)
		e.Title, _ = rw.first(cols.title)
		kw, _ := rw.first(cols.keywords)
		e.Keywords = ParseKeywords(kw)
		e.URL, _ = rw.first(cols.url)
		if cols.subject != nil {
			e.Subject, _ = rw.first(cols.subject)
		}

		switch kind {
		case KindLesson:
			if e.Title == "" {
				continue
			}
			if e.ID == "" {
				e.ID = strconv.Itoa(i + 1)
			}
		case KindDiagram:
			if e.ID == "" {
				continue
			}
			if e.Title == "" {
				e.Title = fmt.Sprintf("GeoGebra Activity %d", len(entries)+1)
			}
			if e.URL == "" {
				e.URL = fmt.Sprintf(diagramURLTemplate, e.ID)
			}
		case KindVideo:
			if e.ID == "" && e.URL == "" {
				continue
			}
			if e.URL == "" {
				e.URL = fmt.Sprintf(videoURLTemplate, e.ID)
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func jsonCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, jsonCell(p))
		}
		return strings.Join(parts, ",")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
